package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/j0lvera/marv/internal/completion"
	"github.com/j0lvera/marv/internal/config"
	"github.com/j0lvera/marv/internal/log"
	"github.com/j0lvera/marv/internal/marv"
	"github.com/j0lvera/marv/internal/telegram"
	"github.com/j0lvera/marv/internal/webhook"
)

func newApp() *fx.App {
	return fx.New(
		config.Module(),
		log.Module(),
		completion.Module(),
		marv.Module(),
		telegram.Module(),
		webhook.Module(),
	)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run Marv on every configured chat host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := newApp()
			if err := app.Err(); err != nil {
				return err
			}

			app.Run()
			return nil
		},
	}
}
