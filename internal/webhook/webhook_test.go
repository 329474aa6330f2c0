package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/j0lvera/marv/internal/completion"
	"github.com/j0lvera/marv/internal/config"
	"github.com/j0lvera/marv/internal/marv"
)

type recordingCompleter struct {
	choices []string
	err     error
	prompts []string
}

func (c *recordingCompleter) Complete(_ context.Context, req completion.Request) (completion.Response, error) {
	c.prompts = append(c.prompts, req.Prompt)
	return completion.Response{Choices: c.choices}, c.err
}

func newTestServer(t *testing.T, c completion.Completer) *Server {
	t.Helper()

	cfg := &config.Config{Bots: map[string]map[string]string{
		"marv": {"key": "sk-hook", "token": "secret"},
	}}
	srv := NewServer(cfg, marv.NewHandler(c, zerolog.Nop()), zerolog.Nop())
	require.NoError(t, srv.Initialize())

	return srv
}

func post(t *testing.T, srv http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	return rec
}

func TestServer_HandleEvent(t *testing.T) {
	t.Run("should answer with the reply content", func(t *testing.T) {
		c := &recordingCompleter{choices: []string{" Was Google too busy?"}}
		srv := newTestServer(t, c)

		rec := post(t, srv, `{"token":"secret","trigger":"mention","bot_email":"marv@example.com",`+
			`"message":{"content":"@**Marv** what does HTML stand for","sender_email":"bob@example.com"}}`)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.NotNil(t, resp.Content)
		require.Equal(t, " Was Google too busy?", *resp.Content)
		require.Len(t, c.prompts, 1)
		require.True(t, strings.HasSuffix(c.prompts[0], "You: what does HTML stand for?\nMarv:"))
	})

	t.Run("should reject a wrong token", func(t *testing.T) {
		c := &recordingCompleter{choices: []string{"x"}}
		srv := newTestServer(t, c)

		rec := post(t, srv, `{"token":"nope","message":{"content":"hi"}}`)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, c.prompts)
	})

	t.Run("should reject malformed payloads", func(t *testing.T) {
		srv := newTestServer(t, &recordingCompleter{})

		rec := post(t, srv, `{"token":`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should fail when the handler errors", func(t *testing.T) {
		srv := newTestServer(t, &recordingCompleter{err: errors.New("status 401")})

		rec := post(t, srv, `{"token":"secret","trigger":"direct_message","message":{"content":"hi"}}`)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("should return the fallback when there are no candidates", func(t *testing.T) {
		srv := newTestServer(t, &recordingCompleter{})

		rec := post(t, srv, `{"token":"secret","trigger":"direct_message","message":{"content":"why"}}`)

		var resp Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.NotNil(t, resp.Content)
		require.Equal(t, `Sorry, I don't even know what to say abot "why"! :astonished:`, *resp.Content)
	})

	t.Run("should send an empty answer as empty content", func(t *testing.T) {
		srv := newTestServer(t, &recordingCompleter{choices: []string{""}})

		rec := post(t, srv, `{"token":"secret","trigger":"direct_message","message":{"content":"why"}}`)

		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"content":""}`, rec.Body.String())
	})
}

func TestServer_Healthz(t *testing.T) {
	srv := newTestServer(t, &recordingCompleter{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRecipientFor(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name: "stream name",
			event: Event{BotEmail: "marv@example.com", Message: EventMessage{
				DisplayRecipient: json.RawMessage(`"general"`),
			}},
			want: "general",
		},
		{
			name: "direct message participants",
			event: Event{BotEmail: "marv@example.com", Message: EventMessage{
				DisplayRecipient: json.RawMessage(`[{"email":"bob@example.com","full_name":"Bob"},{"email":"marv@example.com"}]`),
			}},
			want: "bob@example.com,marv@example.com",
		},
		{
			name:  "missing recipient",
			event: Event{BotEmail: "marv@example.com"},
			want:  "marv@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, recipientFor(tt.event))
		})
	}
}

func TestContentFor(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "mention prefix stripped",
			event: Event{Trigger: "mention", Message: EventMessage{Content: "@**Marv** hello there"}},
			want:  "hello there",
		},
		{
			name:  "direct message kept",
			event: Event{Trigger: "direct_message", Message: EventMessage{Content: "@**Marv** hello"}},
			want:  "@**Marv** hello",
		},
		{
			name:  "data used when content missing",
			event: Event{Trigger: "direct_message", Data: " from data "},
			want:  "from data",
		},
		{
			name:  "unterminated mention left alone",
			event: Event{Trigger: "mention", Message: EventMessage{Content: "@**Marv hello"}},
			want:  "@**Marv hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, contentFor(tt.event))
		})
	}
}
