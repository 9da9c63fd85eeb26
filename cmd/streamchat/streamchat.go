// Package streamchatcmder
package streamchatcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/streamchat/cmd/streamchat/ask"
	chatcmder "github.com/papercomputeco/streamchat/cmd/streamchat/chat"
	configcmder "github.com/papercomputeco/streamchat/cmd/streamchat/config"
	historycmder "github.com/papercomputeco/streamchat/cmd/streamchat/history"
	logincmder "github.com/papercomputeco/streamchat/cmd/streamchat/login"
	modelscmder "github.com/papercomputeco/streamchat/cmd/streamchat/models"
	versioncmder "github.com/papercomputeco/streamchat/cmd/version"
)

const streamchatLongDesc string = `streamchat is a terminal client for a streaming chat server.

Replies are streamed into the terminal as the model generates them.

Get started:
  streamchat login root          Log in and store the token
  streamchat chat                Start an interactive chat
  streamchat ask "hello there"   Ask a single question`

const streamchatShortDesc string = "streamchat - terminal chat client"

func NewStreamchatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "streamchat",
		Short:         streamchatShortDesc,
		Long:          streamchatLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .streamchat/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(logincmder.NewLoginCmd())
	cmd.AddCommand(logincmder.NewLogoutCmd())
	cmd.AddCommand(modelscmder.NewModelsCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
