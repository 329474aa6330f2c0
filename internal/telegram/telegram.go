// Package telegram runs bot handlers on Telegram.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	tbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/j0lvera/marv/internal/marv"
)

const apologyText = "Sorry, I encountered an error while processing your request."

// sender is the part of the Telegram client the host needs.
type sender interface {
	SendMessage(ctx context.Context, params *tbot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *tbot.SendChatActionParams) (bool, error)
}

// ConfigSource supplies per-bot options.
type ConfigSource interface {
	ConfigInfo(bot string) (map[string]string, error)
}

// Host adapts Telegram updates to marv messages and sends replies back.
type Host struct {
	tg       sender
	config   ConfigSource
	handler  *marv.Handler
	log      zerolog.Logger
	username string
}

func newHost(tg sender, config ConfigSource, handler *marv.Handler, log zerolog.Logger) *Host {
	return &Host{
		tg:      tg,
		config:  config,
		handler: handler,
		log:     log,
	}
}

// ConfigInfo implements marv.Host
func (h *Host) ConfigInfo(bot string) (map[string]string, error) {
	return h.config.ConfigInfo(bot)
}

// SendReply implements marv.Host. The reply goes to the chat of the
// original message, threaded under it.
func (h *Host) SendReply(ctx context.Context, msg marv.Message, text string) error {
	raw, ok := msg.Raw.(*models.Message)
	if !ok || raw == nil {
		return errors.New("telegram: message has no telegram payload")
	}

	_, err := h.tg.SendMessage(ctx, &tbot.SendMessageParams{
		ChatID: raw.Chat.ID,
		Text:   text,
		ReplyParameters: &models.ReplyParameters{
			MessageID: raw.ID,
		},
	})
	if err != nil {
		return fmt.Errorf("telegram send message: %w", err)
	}

	return nil
}

func (h *Host) handleUpdate(ctx context.Context, update *models.Update) {
	// Guard against non-message updates
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID

	msg, ok := toMessage(update.Message, h.username)
	if !ok {
		return
	}

	h.tg.SendChatAction(ctx, &tbot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	})

	if err := h.handler.HandleMessage(ctx, msg, h); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("unable to handle message")
		h.tg.SendMessage(ctx, &tbot.SendMessageParams{
			ChatID: chatID,
			Text:   apologyText,
		})
		return
	}

	h.log.Info().Int64("chat_id", chatID).Msg("reply sent")
}

// toMessage converts m into a marv.Message when the bot should answer it:
// private chats always, other chats only when the bot is mentioned. The
// mention itself is removed from the content.
func toMessage(m *models.Message, username string) (marv.Message, bool) {
	if m.Text == "" {
		return marv.Message{}, false
	}

	content := m.Text
	if m.Chat.Type != models.ChatTypePrivate {
		stripped, mentioned := stripMention(m.Text, m.Entities, username)
		if !mentioned {
			return marv.Message{}, false
		}
		content = stripped
	}

	msg := marv.Message{
		Content:   strings.TrimSpace(content),
		Recipient: strconv.FormatInt(m.Chat.ID, 10),
		Raw:       m,
	}
	if m.From != nil {
		msg.Sender = m.From.Username
		if msg.Sender == "" {
			msg.Sender = strconv.FormatInt(m.From.ID, 10)
		}
	}

	return msg, true
}

// stripMention removes every @username mention entity from text. Entity
// offsets are counted in UTF-16 code units.
func stripMention(text string, entities []models.MessageEntity, username string) (string, bool) {
	if username == "" {
		return text, false
	}

	units := utf16.Encode([]rune(text))
	target := "@" + username
	mentioned := false

	// walk backwards so earlier offsets stay valid
	for i := len(entities) - 1; i >= 0; i-- {
		e := entities[i]
		if e.Type != models.MessageEntityTypeMention {
			continue
		}
		if e.Offset < 0 || e.Offset+e.Length > len(units) {
			continue
		}
		if !strings.EqualFold(string(utf16.Decode(units[e.Offset:e.Offset+e.Length])), target) {
			continue
		}

		units = append(units[:e.Offset:e.Offset], units[e.Offset+e.Length:]...)
		mentioned = true
	}

	return string(utf16.Decode(units)), mentioned
}
