// Package webhook serves bot handlers behind a Zulip-style outgoing webhook:
// the chat server POSTs each triggering message and the reply is returned
// in the response body.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/j0lvera/marv/internal/marv"
)

const maxBodyBytes = 1 << 20

// ConfigSource supplies per-bot options.
type ConfigSource interface {
	ConfigInfo(bot string) (map[string]string, error)
}

// Event is the outgoing webhook payload.
type Event struct {
	BotEmail    string       `json:"bot_email"`
	BotFullName string       `json:"bot_full_name"`
	Data        string       `json:"data"`
	Token       string       `json:"token"`
	Trigger     string       `json:"trigger"`
	Message     EventMessage `json:"message"`
}

// EventMessage is the message that triggered the webhook.
type EventMessage struct {
	ID             int64  `json:"id"`
	Content        string `json:"content"`
	SenderEmail    string `json:"sender_email"`
	SenderFullName string `json:"sender_full_name"`
	Type           string `json:"type"`
	Subject        string `json:"subject"`

	// DisplayRecipient is a stream name for stream messages and a list of
	// users for direct messages.
	DisplayRecipient json.RawMessage `json:"display_recipient"`
}

type recipientUser struct {
	Email string `json:"email"`
}

// Response is returned to the chat server.
type Response struct {
	Content             *string `json:"content,omitempty"`
	ResponseNotRequired bool    `json:"response_not_required,omitempty"`
}

// Server handles webhook events for a single bot.
type Server struct {
	router  chi.Router
	config  ConfigSource
	handler *marv.Handler
	log     zerolog.Logger
}

// NewServer creates a webhook server dispatching to handler.
func NewServer(config ConfigSource, handler *marv.Handler, log zerolog.Logger) *Server {
	s := &Server{
		config:  config,
		handler: handler,
		log:     log,
	}
	s.router = s.buildRouter()

	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/", s.handleEvent)

	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Initialize prepares the handler with this server's bot options.
func (s *Server) Initialize() error {
	return s.handler.Initialize(&exchange{config: s.config})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var event Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&event); err != nil {
		http.Error(w, "invalid event payload", http.StatusBadRequest)
		return
	}

	if !s.authorized(event.Token) {
		s.log.Warn().Str("bot_email", event.BotEmail).Msg("rejected webhook with bad token")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	msg := marv.Message{
		Content:   contentFor(event),
		Sender:    event.Message.SenderEmail,
		Recipient: recipientFor(event),
		Raw:       event,
	}

	ex := &exchange{config: s.config}
	if err := s.handler.HandleMessage(r.Context(), msg, ex); err != nil {
		s.log.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("sender", msg.Sender).
			Msg("unable to handle message")
		http.Error(w, "unable to handle message", http.StatusInternalServerError)
		return
	}

	resp := Response{ResponseNotRequired: true}
	if ex.replied {
		resp = Response{Content: &ex.reply}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error().Err(err).Msg("unable to write webhook response")
	}
}

func (s *Server) authorized(token string) bool {
	cfg, err := s.config.ConfigInfo(marv.BotName)
	if err != nil || cfg["token"] == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(cfg["token"]), []byte(token)) == 1
}

// contentFor returns the question text, without the leading @**Bot Name**
// mention when the webhook was triggered by one.
func contentFor(event Event) string {
	content := event.Message.Content
	if content == "" {
		content = event.Data
	}

	if event.Trigger == "mention" && strings.HasPrefix(content, "@**") {
		if end := strings.Index(content[3:], "**"); end >= 0 {
			content = content[3+end+2:]
		}
	}

	return strings.TrimSpace(content)
}

// recipientFor names where the message was sent: the stream, the
// comma-separated direct message participants, or the bot itself.
func recipientFor(event Event) string {
	raw := event.Message.DisplayRecipient
	if len(raw) == 0 {
		return event.BotEmail
	}

	var stream string
	if err := json.Unmarshal(raw, &stream); err == nil {
		return stream
	}

	var users []recipientUser
	if err := json.Unmarshal(raw, &users); err == nil && len(users) > 0 {
		emails := make([]string, 0, len(users))
		for _, u := range users {
			emails = append(emails, u.Email)
		}
		return strings.Join(emails, ",")
	}

	return event.BotEmail
}

// exchange is the marv.Host for a single webhook request; the reply is
// captured for the HTTP response.
type exchange struct {
	config  ConfigSource
	reply   string
	replied bool
}

func (e *exchange) ConfigInfo(bot string) (map[string]string, error) {
	return e.config.ConfigInfo(bot)
}

func (e *exchange) SendReply(_ context.Context, _ marv.Message, text string) error {
	e.reply = text
	e.replied = true
	return nil
}
