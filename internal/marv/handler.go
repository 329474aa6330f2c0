package marv

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/j0lvera/marv/internal/completion"
	"github.com/rs/zerolog"
)

// BotName is the name Marv's options are stored under in the host config.
const BotName = "marv"

// ErrNotInitialized is returned by HandleMessage before Initialize succeeded.
var ErrNotInitialized = errors.New("marv: handler not initialized")

// Message is an incoming chat message. Only Content is read; the rest is
// handed back to the host untouched when replying.
type Message struct {
	Content   string
	Sender    string
	Recipient string

	// Raw is the platform's own representation of the message.
	Raw any
}

// Host is the chat platform running the bot.
type Host interface {
	ConfigInfo(bot string) (map[string]string, error)
	SendReply(ctx context.Context, msg Message, text string) error
}

// Handler connects Marv to a Host.
type Handler struct {
	completer completion.Completer
	logger    zerolog.Logger
	opts      []Option

	mu     sync.RWMutex
	config map[string]string
}

// NewHandler creates a Handler; opts apply to every question it answers.
func NewHandler(c completion.Completer, logger zerolog.Logger, opts ...Option) *Handler {
	return &Handler{
		completer: c,
		logger:    logger.With().Str("bot", BotName).Logger(),
		opts:      opts,
	}
}

// Usage describes how to talk to the bot.
func (h *Handler) Usage() string {
	return `This plugin allows users to converse with the sassy Marv chatbot.
Users should preface the question with a @mention of the bot.
The bot also responds to private messages.`
}

// Initialize loads the bot's options from the host. The options must
// include the completion service API key.
func (h *Handler) Initialize(host Host) error {
	cfg, err := host.ConfigInfo(BotName)
	if err != nil {
		return fmt.Errorf("load %s config: %w", BotName, err)
	}

	if cfg["key"] == "" {
		return fmt.Errorf("%s config: missing key", BotName)
	}

	h.mu.Lock()
	h.config = cfg
	h.mu.Unlock()

	return nil
}

// HandleMessage answers msg through host. Network failures and empty
// answers are replied to with fallback text; other errors are returned
// without replying.
func (h *Handler) HandleMessage(ctx context.Context, msg Message, host Host) error {
	h.mu.RLock()
	cfg := h.config
	h.mu.RUnlock()

	if cfg == nil {
		return ErrNotInitialized
	}

	h.logger.Debug().Str("sender", msg.Sender).Msg("completion request sending")

	reply, err := Respond(ctx, h.completer, msg.Content, cfg["key"], h.opts...)
	if err != nil {
		return fmt.Errorf("respond: %w", err)
	}

	if reply.Kind != KindAnswer {
		h.logger.Warn().Str("sender", msg.Sender).Stringer("kind", reply.Kind).Msg("replying with fallback")
	} else {
		h.logger.Debug().Str("sender", msg.Sender).Msg("completion response received")
	}

	if err := host.SendReply(ctx, msg, reply.Text); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}

	return nil
}
