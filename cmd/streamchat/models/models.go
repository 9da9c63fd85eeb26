// Package modelscmder provides the models command, which lists the models
// the chat server offers.
package modelscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/streamchat/cmd/streamchat/cmdenv"
	"github.com/papercomputeco/streamchat/pkg/cliui"
	"github.com/papercomputeco/streamchat/pkg/config"
)

const modelsLongDesc string = `List the models the chat server offers.

The server default is marked; pick another with --model on chat and ask,
or persist it with "streamchat config set chat.model <name>".`

const modelsShortDesc string = "List available models"

func NewModelsCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runModels(cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagServer, &server)

	return cmd
}

func runModels(cmd *cobra.Command) error {
	env, err := cmdenv.Load(cmd, config.FlagServer)
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

	list, err := cl.Models(ctx)
	if err != nil {
		return cmdenv.Explain(err)
	}

	out := cmd.OutOrStdout()
	configured := env.Settings().Model

	fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Models"))
	for _, m := range list.Models {
		var tags string
		if m == list.DefaultModel {
			tags += " (server default)"
		}
		if m == configured {
			tags += " (configured)"
		}
		fmt.Fprintf(out, "  %s%s\n", cliui.NameStyle.Render(m), cliui.DimStyle.Render(tags))
	}

	if list.Note != "" {
		fmt.Fprintf(out, "\n  %s\n", cliui.DimStyle.Render(list.Note))
	}
	fmt.Fprintln(out)

	return nil
}
