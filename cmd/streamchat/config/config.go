// Package configcmder provides the config command for managing persistent
// streamchat configuration stored in the .streamchat/ directory.
package configcmder

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/streamchat/pkg/cliui"
	"github.com/papercomputeco/streamchat/pkg/config"
)

const configLongDesc string = `Manage persistent streamchat configuration.

Configuration is stored as config.toml in the .streamchat/ directory and
provides default values for command flags. CLI flags always take precedence
over STREAMCHAT_* environment variables, which take precedence over config
file values. A running chat picks up edits on its next message.

Keys use dotted notation matching the TOML section structure:
  client.server_url, client.timeout,
  chat.model, chat.temperature, chat.max_tokens, chat.stream, chat.markdown,
  log.file, log.json

Use subcommands to get, set, or list configuration values:
  streamchat config set <key> <value>    Set a configuration value
  streamchat config get <key>            Get a configuration value
  streamchat config list                 List all configuration values

Examples:
  streamchat config set chat.model qwen-plus
  streamchat config set client.timeout 2m
  streamchat config get chat.temperature
  streamchat config list`

const configShortDesc string = "Manage persistent streamchat configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// writeValues prints the effective value of each key, aligned.
func writeValues(w io.Writer, cfger *config.Configer, keys ...string) error {
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}

	for _, k := range keys {
		value, err := cfger.GetConfigValue(k)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s\n", cliui.KeyValue(k, value, width))
	}
	fmt.Fprintln(w)

	return nil
}

func printTarget(w io.Writer, target string) {
	if _, err := os.Stat(target); err == nil {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}

	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
