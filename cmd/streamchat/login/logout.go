package logincmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/streamchat/cmd/streamchat/cmdenv"
	"github.com/papercomputeco/streamchat/pkg/cliui"
	"github.com/papercomputeco/streamchat/pkg/config"
)

const logoutLongDesc string = `Log out of the chat server and forget the stored token.

The server is told about the logout when it can be reached; the local
token is removed either way.

Examples:
  streamchat logout
  streamchat logout --server http://chat:8000`

const logoutShortDesc string = "Forget the stored token"

func NewLogoutCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: logoutShortDesc,
		Long:  logoutLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogout(cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagServer, &server)

	return cmd
}

func runLogout(cmd *cobra.Command) error {
	env, err := cmdenv.Load(cmd, config.FlagServer)
	if err != nil {
		return err
	}
	defer env.Close()

	out := cmd.OutOrStdout()
	server := env.ServerURL()

	sc, ok, err := env.Creds.GetToken(server)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(out, "\n  %s Not logged in to %s\n\n", cliui.DimStyle.Render("●"), server)
		return nil
	}

	cl, err := env.Client(false)
	if err != nil {
		return err
	}
	cl.SetToken(sc.Token)

	if err := cl.Logout(cmd.Context()); err != nil {
		env.Logger.Warn("server logout failed", "server", server, "error", err)
	}

	if err := env.Creds.RemoveToken(server); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Logged out of %s\n\n", cliui.SuccessMark, cliui.NameStyle.Render(server))

	return nil
}
