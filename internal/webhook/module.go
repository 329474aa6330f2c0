package webhook

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

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

// Register serves the outgoing webhook when an address is configured.
func Register(lc fx.Lifecycle, p Params) {
	log := p.Logger.With().Str("host", "webhook").Logger()

	if p.Config.WebhookAddr == "" {
		log.Info().Msg("no webhook address, webhook host disabled")
		return
	}

	srv := NewServer(p.Config, p.Handler, log)
	httpServer := &http.Server{
		Addr:              p.Config.WebhookAddr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := srv.Initialize(); err != nil {
					return err
				}

				ln, err := net.Listen("tcp", httpServer.Addr)
				if err != nil {
					return fmt.Errorf("webhook listen: %w", err)
				}

				log.Info().Str("addr", ln.Addr().String()).Msg("starting webhook server...")
				go func() {
					if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error().Err(err).Msg("webhook server stopped")
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				log.Info().Msg("stopping webhook server...")
				return httpServer.Shutdown(ctx)
			},
		},
	)
}

func Module() fx.Option {
	return fx.Module(
		"webhook",
		fx.Invoke(
			Register,
		),
	)
}
