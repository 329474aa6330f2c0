package completion

import (
	"fmt"

	"github.com/j0lvera/marv/internal/config"
	"go.uber.org/fx"
)

// Params for creating a Completer
type Params struct {
	fx.In

	Config *config.Config
}

// Result of creating a Completer
type Result struct {
	fx.Out

	Completer Completer
}

// New creates the Completer selected by configuration
func New(p Params) (Result, error) {
	var completer Completer

	switch p.Config.Backend {
	case config.BackendCompletions, "":
		completer = NewOpenAI(p.Config.BaseURL, nil)
	case config.BackendLangChain:
		completer = NewLangChain(p.Config.BaseURL, nil)
	default:
		return Result{}, fmt.Errorf("unknown completion backend %q", p.Config.Backend)
	}

	return Result{
		Completer: completer,
	}, nil
}

// Module provides the completion backend
func Module() fx.Option {
	return fx.Module(
		"completion",
		fx.Provide(
			New,
		),
	)
}
