package telegram

import (
	"context"
	"fmt"

	tbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/j0lvera/marv/internal/config"
	"github.com/j0lvera/marv/internal/marv"
)

type Params struct {
	fx.In

	Config  *config.Config
	Handler *marv.Handler
	Logger  zerolog.Logger
}

// Register starts Marv on Telegram when a bot token is configured.
func Register(lc fx.Lifecycle, p Params) error {
	log := p.Logger.With().Str("host", "telegram").Logger()

	if p.Config.Token == "" {
		log.Info().Msg("no telegram token, telegram host disabled")
		return nil
	}

	var host *Host
	tg, err := tbot.New(
		p.Config.Token,
		tbot.WithDefaultHandler(
			func(ctx context.Context, _ *tbot.Bot, update *models.Update) {
				host.handleUpdate(ctx, update)
			},
		),
	)
	if err != nil {
		return fmt.Errorf("create telegram bot: %w", err)
	}
	host = newHost(tg, p.Config, p.Handler, log)

	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := p.Handler.Initialize(host); err != nil {
					cancel()
					return err
				}

				me, err := tg.GetMe(ctx)
				if err != nil {
					cancel()
					return fmt.Errorf("telegram get me: %w", err)
				}
				host.username = me.Username

				log.Info().Str("username", me.Username).Msg("starting telegram bot...")
				go tg.Start(runCtx)
				return nil
			},
			OnStop: func(ctx context.Context) error {
				log.Info().Msg("stopping telegram bot...")
				cancel()
				return nil
			},
		},
	)

	return nil
}

func Module() fx.Option {
	return fx.Module(
		"telegram",
		fx.Invoke(
			Register,
		),
	)
}
