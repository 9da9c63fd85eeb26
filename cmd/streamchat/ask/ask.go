// Package askcmder provides the ask command, which sends a single message
// and prints the reply.
package askcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/streamchat/cmd/streamchat/cmdenv"
	"github.com/papercomputeco/streamchat/pkg/cliui"
	"github.com/papercomputeco/streamchat/pkg/config"
	"github.com/papercomputeco/streamchat/pkg/conversation"
	"github.com/papercomputeco/streamchat/pkg/session"
)

const askLongDesc string = `Send a single message and print the reply.

The message is taken from the arguments, or read from stdin when no
arguments are given. The server history is not loaded, so the message is
sent without earlier context.

Examples:
  streamchat ask "what is a goroutine?"
  streamchat ask --stream=false -m qwen-plus "summarize this" < notes.md
  streamchat ask --dump-stream raw.txt "hello"   Keep the raw stream bytes`

const askShortDesc string = "Ask a single question"

type askCommander struct {
	server      string
	timeout     time.Duration
	model       string
	temperature float64
	maxTokens   int
	stream      bool
	markdown    bool
	dumpStream  string
}

var askFlags = []string{
	config.FlagServer,
	config.FlagTimeout,
	config.FlagModel,
	config.FlagTemperature,
	config.FlagMaxTokens,
	config.FlagStream,
	config.FlagMarkdown,
}

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask [message...]",
		Short: askShortDesc,
		Long:  askLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagServer, &cmder.server)
	config.AddDurationFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddFloatFlag(cmd, config.Flags, config.FlagTemperature, &cmder.temperature)
	config.AddIntFlag(cmd, config.Flags, config.FlagMaxTokens, &cmder.maxTokens)
	config.AddBoolFlag(cmd, config.Flags, config.FlagStream, &cmder.stream)
	config.AddBoolFlag(cmd, config.Flags, config.FlagMarkdown, &cmder.markdown)
	cmd.Flags().StringVar(&cmder.dumpStream, "dump-stream", "", "Write the raw stream bytes to this file")

	return cmd
}

func (c *askCommander) run(cmd *cobra.Command, args []string) error {
	message, err := readMessage(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	env, err := cmdenv.Load(cmd, askFlags...)
	if err != nil {
		return err
	}
	defer env.Close()

	cl, err := env.Client(true)
	if err != nil {
		return err
	}

	opts := []conversation.Option{
		conversation.WithLogger(env.Logger),
		conversation.WithSettings(env.Settings()),
	}

	if c.dumpStream != "" {
		f, err := os.Create(c.dumpStream)
		if err != nil {
			return fmt.Errorf("creating stream dump: %w", err)
		}
		defer f.Close()

		opts = append(opts, conversation.WithSessionOptions(session.WithRawWriter(f)))
	}

	conv := conversation.New(cl, opts...)

	ctx, cancel := env.RequestContext(cmd.Context())
	defer cancel()

	if err := cliui.Turn(ctx, cmd.OutOrStdout(), conv, message, env.Markdown()); err != nil {
		return cmdenv.Explain(err)
	}

	return nil
}

// readMessage joins args, or reads stdin when there are none and stdin is
// not a terminal.
func readMessage(in io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errors.New("nothing to ask: pass a message or pipe one on stdin")
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}

	message := strings.TrimSpace(string(data))
	if message == "" {
		return "", errors.New("nothing to ask: stdin was empty")
	}

	return message, nil
}
