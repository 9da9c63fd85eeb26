// Package chatcmder provides the chat command, an interactive session with
// the chat server. Replies stream into the terminal as they arrive.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/streamchat/cmd/streamchat/cmdenv"
	"github.com/papercomputeco/streamchat/pkg/cliui"
	"github.com/papercomputeco/streamchat/pkg/config"
	"github.com/papercomputeco/streamchat/pkg/conversation"
	"github.com/papercomputeco/streamchat/pkg/session"
)

const chatLongDesc string = `Start an interactive chat.

Every message is sent with the whole conversation so far. Press Ctrl+C
while a reply streams to stop it; the partial reply is discarded.

Commands:
  /help     Show the commands
  /history  Reload the conversation from the server
  /clear    Delete the conversation on the server and start over
  /model    Show the model, or switch with "/model <name>"
  /exit     Leave (also /quit or Ctrl+D)

Changes to config.toml apply to the next message.`

const chatShortDesc string = "Start an interactive chat"

const helpText string = `  /help     Show the commands
  /history  Reload the conversation from the server
  /clear    Delete the conversation on the server and start over
  /model    Show the model, or switch with "/model <name>"
  /exit     Leave (also /quit or Ctrl+D)`

type chatCommander struct {
	server      string
	timeout     time.Duration
	model       string
	temperature float64
	maxTokens   int
	stream      bool
	markdown    bool
	history     bool
	dumpStream  string

	env  *cmdenv.Env
	conv *conversation.Conversation
	out  io.Writer
}

var chatFlags = []string{
	config.FlagServer,
	config.FlagTimeout,
	config.FlagModel,
	config.FlagTemperature,
	config.FlagMaxTokens,
	config.FlagStream,
	config.FlagMarkdown,
}

// errExit ends the loop without an error.
var errExit = errors.New("exit")

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagServer, &cmder.server)
	config.AddDurationFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddFloatFlag(cmd, config.Flags, config.FlagTemperature, &cmder.temperature)
	config.AddIntFlag(cmd, config.Flags, config.FlagMaxTokens, &cmder.maxTokens)
	config.AddBoolFlag(cmd, config.Flags, config.FlagStream, &cmder.stream)
	config.AddBoolFlag(cmd, config.Flags, config.FlagMarkdown, &cmder.markdown)
	cmd.Flags().BoolVar(&cmder.history, "history", false, "Start from the conversation stored on the server")
	cmd.Flags().StringVar(&cmder.dumpStream, "dump-stream", "", "Append the raw stream bytes to this file")

	return cmd
}

func (c *chatCommander) run(cmd *cobra.Command) error {
	env, err := cmdenv.Load(cmd, chatFlags...)
	if err != nil {
		return err
	}
	defer env.Close()
	c.env = env
	c.out = cmd.OutOrStdout()

	cl, err := env.Client(true)
	if err != nil {
		return err
	}

	opts := []conversation.Option{
		conversation.WithLogger(env.Logger),
		conversation.WithSettings(env.Settings()),
	}

	if c.dumpStream != "" {
		f, err := os.OpenFile(c.dumpStream, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening stream dump: %w", err)
		}
		defer f.Close()

		opts = append(opts, conversation.WithSessionOptions(session.WithRawWriter(f)))
	}

	c.conv = conversation.New(cl, opts...)

	ctx, stop := context.WithCancel(cmd.Context())
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		c.watchConfig(ctx)
	}()
	defer func() {
		stop()
		<-watched
	}()

	settings := c.conv.Settings()
	fmt.Fprintf(c.out, "\n  %s %s\n  %s\n\n",
		cliui.HeaderStyle.Render("streamchat"),
		cliui.DimStyle.Render(env.ServerURL()+" · "+settings.Model),
		cliui.DimStyle.Render("Type /help for commands, /exit to leave."),
	)

	if c.history {
		if err := c.loadHistory(ctx); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprintf(c.out, "%s ", cliui.UserPrompt)

		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		err := c.handle(ctx, line)
		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(c.out, "  %s %s\n\n", cliui.FailMark, cmdenv.Explain(err))
		}
	}
}

func (c *chatCommander) handle(ctx context.Context, line string) error {
	if !strings.HasPrefix(line, "/") {
		return c.send(ctx, line)
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/exit", "/quit":
		return errExit

	case "/help":
		fmt.Fprintf(c.out, "%s\n\n", helpText)
		return nil

	case "/history":
		return c.loadHistory(ctx)

	case "/clear":
		reqCtx, cancel := c.env.RequestContext(ctx)
		defer cancel()

		if err := c.conv.ClearHistory(reqCtx); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "  %s Conversation cleared\n\n", cliui.SuccessMark)
		return nil

	case "/model":
		settings := c.conv.Settings()
		if arg != "" {
			settings.Model = arg
			c.conv.SetSettings(settings)
		}
		fmt.Fprintf(c.out, "  %s\n\n", cliui.KeyValue("model", settings.Model, 0))
		return nil

	default:
		return fmt.Errorf("unknown command %q, type /help for the list", name)
	}
}

// send streams one reply. Ctrl+C cancels the reply, not the chat.
func (c *chatCommander) send(ctx context.Context, text string) error {
	sigCtx, stopSignals := signal.NotifyContext(ctx, os.Interrupt)
	defer stopSignals()

	reqCtx, cancel := c.env.RequestContext(sigCtx)
	defer cancel()

	streamed := c.conv.Settings().Stream
	err := cliui.Turn(reqCtx, c.out, c.conv, text, c.env.Markdown())
	if streamed {
		fmt.Fprintln(c.out)
	}
	if err == nil {
		return nil
	}

	interrupted := sigCtx.Err() != nil && ctx.Err() == nil
	if interrupted || errors.Is(err, session.ErrCancelled) {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Reply cancelled."))
		return nil
	}

	return err
}

func (c *chatCommander) loadHistory(ctx context.Context) error {
	reqCtx, cancel := c.env.RequestContext(ctx)
	defer cancel()

	if err := c.conv.LoadHistory(reqCtx); err != nil {
		return err
	}

	msgs := c.conv.Transcript().Snapshot()
	if len(msgs) == 0 {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("No earlier conversation."))
		return nil
	}

	return cliui.RenderTranscript(c.out, msgs, c.env.Markdown())
}

// watchConfig applies config.toml edits to the next request. Flags given on
// the command line keep precedence.
func (c *chatCommander) watchConfig(ctx context.Context) {
	err := c.env.Configer.Watch(ctx, func(_ *config.Config, err error) {
		if err != nil {
			c.env.Logger.Warn("ignoring invalid config change", "error", err)
			return
		}

		settings, err := c.env.ReloadSettings()
		if err != nil {
			c.env.Logger.Warn("reloading config", "error", err)
			return
		}

		c.conv.SetSettings(settings)
		c.env.Logger.Info("config reloaded", "model", settings.Model, "stream", settings.Stream)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		c.env.Logger.Warn("config watch stopped", "error", err)
	}
}
