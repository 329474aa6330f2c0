package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "marv",
		Short: "Marv, the reluctantly helpful chatbot",
		Long: `Marv answers questions with sarcastic replies generated by a remote
text-completion service. Run it on Telegram or behind a Zulip-style
outgoing webhook with "serve", or ask a single question with "ask".`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newAskCmd(),
		newUsageCmd(),
	)

	return root
}
