package log

import (
	"io"
	"os"
	"time"

	"github.com/ipfans/fxlogger"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// NewLogger creates a configured zerolog.Logger instance
func NewLogger() zerolog.Logger {
	return newLogger(os.Stdout, os.Getenv("DEBUG") == "true")
}

func newLogger(out io.Writer, debug bool) zerolog.Logger {
	logWriter := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(logWriter).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// FxLogger routes fx lifecycle events through the application logger.
func FxLogger(logger zerolog.Logger) fxevent.Logger {
	return fxlogger.WithZerolog(logger)()
}

// Module provides the application logger and uses it for fx's own events.
func Module() fx.Option {
	return fx.Options(
		fx.Provide(NewLogger),
		fx.WithLogger(FxLogger),
	)
}
