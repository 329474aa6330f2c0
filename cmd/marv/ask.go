package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/j0lvera/marv/internal/completion"
	"github.com/j0lvera/marv/internal/config"
	"github.com/j0lvera/marv/internal/log"
	"github.com/j0lvera/marv/internal/marv"
)

// terminalHost prints replies to a writer.
type terminalHost struct {
	config *config.Config
	out    io.Writer
}

func (h *terminalHost) ConfigInfo(bot string) (map[string]string, error) {
	return h.config.ConfigInfo(bot)
}

func (h *terminalHost) SendReply(_ context.Context, _ marv.Message, text string) error {
	_, err := fmt.Fprintln(h.out, text)
	return err
}

func newAskCmd() *cobra.Command {
	var prompt string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask Marv a single question from the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			res, err := completion.New(completion.Params{Config: cfg})
			if err != nil {
				return err
			}

			var opts []marv.Option
			if cmd.Flags().Changed("prompt") {
				opts = append(opts, marv.WithPrompt(prompt))
			}

			logger := log.NewLogger().Level(zerolog.ErrorLevel)
			handler := marv.NewHandler(res.Completer, logger, opts...)

			host := &terminalHost{config: cfg, out: cmd.OutOrStdout()}
			if err := handler.Initialize(host); err != nil {
				return err
			}

			msg := marv.Message{
				Content: strings.Join(args, " "),
				Sender:  "terminal",
			}

			return handler.HandleMessage(cmd.Context(), msg, host)
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "send this prompt instead of the built-in template")

	return cmd
}

func newUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Print how to talk to Marv in chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := marv.NewHandler(nil, zerolog.Nop())
			_, err := fmt.Fprintln(cmd.OutOrStdout(), handler.Usage())
			return err
		},
	}
}
