package marv

import (
	"github.com/j0lvera/marv/internal/completion"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Params for creating a Handler
type Params struct {
	fx.In

	Completer completion.Completer
	Logger    zerolog.Logger
}

// New creates the Marv handler
func New(p Params) *Handler {
	return NewHandler(p.Completer, p.Logger)
}

// Module provides the Marv handler
func Module() fx.Option {
	return fx.Module(
		"marv",
		fx.Provide(
			New,
		),
	)
}
