// Package logincmder provides the login and logout commands, which obtain
// and drop the bearer token for a chat server.
package logincmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/streamchat/cmd/streamchat/cmdenv"
	"github.com/papercomputeco/streamchat/pkg/cliui"
	"github.com/papercomputeco/streamchat/pkg/config"
	"github.com/papercomputeco/streamchat/pkg/credentials"
)

const loginLongDesc string = `Log in to the chat server and store the bearer token.

The token is stored in credentials.toml in the .streamchat/ directory,
keyed by server URL, and sent with every later request. Setting
STREAMCHAT_TOKEN overrides the stored token.

Examples:
  streamchat login root                      Prompt for the password
  streamchat login root --server http://chat:8000
  echo "$PASSWORD" | streamchat login root   Pipe the password from stdin`

const loginShortDesc string = "Log in and store the token"

type loginCommander struct {
	server string
}

func NewLoginCmd() *cobra.Command {
	cmder := &loginCommander{}

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: loginShortDesc,
		Long:  loginLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagServer, &cmder.server)

	return cmd
}

func (c *loginCommander) run(cmd *cobra.Command, username string) error {
	env, err := cmdenv.Load(cmd, config.FlagServer)
	if err != nil {
		return err
	}
	defer env.Close()

	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username cannot be empty")
	}

	out := cmd.OutOrStdout()
	password, err := readPassword(cmd.InOrStdin(), out, username)
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	cl, err := env.Client(false)
	if err != nil {
		return err
	}

	server := env.ServerURL()
	fmt.Fprintln(out)

	var tokenType string
	err = cliui.Step(out, "Logging in to "+server, func() error {
		tok, err := cl.Login(cmd.Context(), username, password)
		if err != nil {
			return err
		}
		tokenType = tok.TokenType

		return env.Creds.SetToken(server, credentials.ServerCredential{
			Token:     tok.AccessToken,
			TokenType: tok.TokenType,
			Username:  tok.Username,
		})
	})
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}

	env.Logger.Info("logged in", "server", server, "username", username, "token_type", tokenType)

	fmt.Fprintf(out, "\n  %s Logged in as %s %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(username),
		cliui.DimStyle.Render("("+env.Creds.GetTarget()+")"),
	)

	return nil
}

// readPassword reads the password from in. If in is a terminal, it prompts
// with hidden input. Otherwise, it reads the first line.
func readPassword(in io.Reader, out io.Writer, username string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(out, "Password for %s: ", username)

		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out) // newline after hidden input
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(pw), nil
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimRight(scanner.Text(), "\r"), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}

	return "", errors.New("no password received on stdin")
}
