package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/j0lvera/marv/internal/marv"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T, baseURL string) {
	t.Helper()

	t.Setenv("BOTS_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("MARV_API_KEY", "sk-cli")
	t.Setenv("MARV_BACKEND", "completions")
	t.Setenv("OPENAI_BASE_URL", baseURL)
}

func TestAskCmd(t *testing.T) {
	t.Run("should print the answer", func(t *testing.T) {
		var gotPrompt string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Prompt string `json:"prompt"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			gotPrompt = body.Prompt

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"text":" Scattering. Try a book."}]}`))
		}))
		defer srv.Close()
		setupEnv(t, srv.URL)

		out, err := runRoot(t, "ask", "why", "is", "the", "sky", "blue")

		require.NoError(t, err)
		require.Equal(t, " Scattering. Try a book.\n", out)
		require.Equal(t, marv.Prompt("why is the sky blue"), gotPrompt)
	})

	t.Run("should print the network fallback when the service is down", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		setupEnv(t, url)

		out, err := runRoot(t, "ask", "hello")

		require.NoError(t, err)
		require.Equal(t, marv.NetworkFallback+"\n", out)
	})

	t.Run("should fail without an API key", func(t *testing.T) {
		setupEnv(t, "http://127.0.0.1:1")
		t.Setenv("MARV_API_KEY", "")
		require.NoError(t, os.Unsetenv("MARV_API_KEY"))

		_, err := runRoot(t, "ask", "hello")

		require.Error(t, err)
	})
}

func TestUsageCmd(t *testing.T) {
	out, err := runRoot(t, "usage")

	require.NoError(t, err)
	require.Contains(t, out, "Marv")
}
