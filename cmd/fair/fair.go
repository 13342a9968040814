// Package faircmder is the root of the fair command tree.
package faircmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/burnes-center/fair/cmd/fair/chat"
	chatscmder "github.com/burnes-center/fair/cmd/fair/chats"
	configcmder "github.com/burnes-center/fair/cmd/fair/config"
	initcmder "github.com/burnes-center/fair/cmd/fair/init"
	logincmder "github.com/burnes-center/fair/cmd/fair/login"
	relayscmder "github.com/burnes-center/fair/cmd/fair/relays"
	revisecmder "github.com/burnes-center/fair/cmd/fair/revise"
	servecmder "github.com/burnes-center/fair/cmd/fair/serve"
	sessionscmder "github.com/burnes-center/fair/cmd/fair/sessions"
	summarizecmder "github.com/burnes-center/fair/cmd/fair/summarize"
	versioncmder "github.com/burnes-center/fair/cmd/version"
)

const fairLongDesc string = `FAIR turns interview transcripts and recordings into structured
summaries you can revise and chat about.

Run the gateway in front of a FAIR backend:
  fair serve

Then work with it from the terminal:
  fair login ada@example.org
  fair summarize --transcript interview.txt --recording interview.mp3
  fair revise "Make the key findings shorter"
  fair chat "What did the interviewee say about onboarding?"`

const fairShortDesc string = "FAIR - interview summaries"

func NewFairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fair",
		Short:         fairShortDesc,
		Long:          fairLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .fair/ directory location")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(logincmder.NewLoginCmd())
	cmd.AddCommand(logincmder.NewLogoutCmd())
	cmd.AddCommand(summarizecmder.NewSummarizeCmd())
	cmd.AddCommand(revisecmder.NewReviseCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(sessionscmder.NewSessionsCmd())
	cmd.AddCommand(chatscmder.NewChatsCmd())
	cmd.AddCommand(relayscmder.NewRelaysCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
