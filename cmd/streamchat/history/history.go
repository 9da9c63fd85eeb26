// Package historycmder provides the history command, which shows or clears
// the conversation the server keeps for the logged in user.
package historycmder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/papercomputeco/streamchat/cmd/streamchat/cmdenv"
	"github.com/papercomputeco/streamchat/pkg/cliui"
	"github.com/papercomputeco/streamchat/pkg/config"
	"github.com/papercomputeco/streamchat/pkg/llm"
)

const historyLongDesc string = `Show the conversation the server keeps for you.

Examples:
  streamchat history                  Print the history
  streamchat history --markdown=false Print replies as raw text
  streamchat history --format yaml    Export the messages as YAML (or json)
  streamchat history --clear          Delete the history on the server`

const historyShortDesc string = "Show or clear the server-side history"

type historyCommander struct {
	server   string
	markdown bool
	clear    bool
	format   string
}

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagServer, &cmder.server)
	config.AddBoolFlag(cmd, config.Flags, config.FlagMarkdown, &cmder.markdown)
	cmd.Flags().BoolVar(&cmder.clear, "clear", false, "Delete the history on the server")
	cmd.Flags().StringVarP(&cmder.format, "format", "f", "text", "Output format: text, json or yaml")

	return cmd
}

func (c *historyCommander) run(cmd *cobra.Command) error {
	switch c.format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q: use text, json or yaml", c.format)
	}

	env, err := cmdenv.Load(cmd, config.FlagServer, config.FlagMarkdown)
	if err != nil {
		return err
	}
	defer env.Close()

	cl, err := env.Client(true)
	if err != nil {
		return err
	}

	ctx, cancel := env.RequestContext(cmd.Context())
	defer cancel()

	out := cmd.OutOrStdout()

	if c.clear {
		if err := cl.ClearHistory(ctx); err != nil {
			return cmdenv.Explain(err)
		}
		fmt.Fprintf(out, "\n  %s History cleared\n\n", cliui.SuccessMark)
		return nil
	}

	msgs, err := cl.History(ctx)
	if err != nil {
		return cmdenv.Explain(err)
	}

	switch c.format {
	case "json":
		return writeJSON(out, msgs)
	case "yaml":
		return writeYAML(out, msgs)
	}

	if len(msgs) == 0 {
		fmt.Fprintf(out, "\n  %s No history yet\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Fprintln(out)
	return cliui.RenderTranscript(out, msgs, env.Markdown())
}

func writeJSON(w io.Writer, msgs []llm.Message) error {
	if msgs == nil {
		msgs = []llm.Message{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(msgs)
}

func writeYAML(w io.Writer, msgs []llm.Message) error {
	if msgs == nil {
		msgs = []llm.Message{}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(msgs); err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	return enc.Close()
}
