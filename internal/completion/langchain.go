package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChain implements Completer on top of a langchaingo OpenAI-compatible
// chat model. The prompt is sent as a single human message, so the engine
// must be served on /chat/completions by the configured endpoint.
type LangChain struct {
	baseURL    string
	httpClient *http.Client
}

// NewLangChain creates a langchaingo-backed completer. A nil httpClient
// uses http.DefaultClient.
func NewLangChain(baseURL string, httpClient *http.Client) *LangChain {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &LangChain{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Complete implements the Completer interface
func (l *LangChain) Complete(ctx context.Context, req Request) (Response, error) {
	opts := []openai.Option{
		openai.WithToken(req.APIKey),
		openai.WithModel(req.Engine),
		openai.WithHTTPClient(&chatDoer{client: l.httpClient, topP: req.TopP}),
	}
	if l.baseURL != "" {
		opts = append(opts, openai.WithBaseURL(l.baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create LLM client: %w", err)
	}

	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}

	resp, err := client.GenerateContent(
		ctx, msgs,
		llms.WithTemperature(req.Temperature),
		llms.WithMaxTokens(req.MaxTokens),
		llms.WithTopP(req.TopP),
		llms.WithFrequencyPenalty(req.FrequencyPenalty),
		llms.WithPresencePenalty(req.PresencePenalty),
		openai.WithLegacyMaxTokensField(),
	)
	if err != nil {
		if errors.Is(err, openai.ErrEmptyResponse) {
			return Response{}, nil
		}
		return Response{}, fmt.Errorf("failed to generate content: %w", classify(err))
	}

	result := Response{
		Choices: make([]string, 0, len(resp.Choices)),
	}
	for _, choice := range resp.Choices {
		result.Choices = append(result.Choices, choice.Content)
	}

	return result, nil
}

// transportError carries a failed round trip through langchaingo, which
// replaces url and net errors with an opaque message. It must not unwrap
// to the cause or the library rewrites it too.
type transportError struct {
	cause error
}

func (e *transportError) Error() string {
	return "transport: " + e.cause.Error()
}

// chatDoer sends langchaingo's requests. It adds top_p to chat requests,
// which langchaingo drops, and marks transport failures.
type chatDoer struct {
	client *http.Client
	topP   float64
}

func (d *chatDoer) Do(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.Method == http.MethodPost && strings.HasSuffix(req.URL.Path, "/chat/completions") {
		var err error
		req, err = withTopP(req, d.topP)
		if err != nil {
			return nil, err
		}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &transportError{cause: err}
	}

	return resp, nil
}

// withTopP returns a copy of req whose JSON body carries top_p.
func withTopP(req *http.Request, topP float64) (*http.Request, error) {
	raw, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read chat request: %w", err)
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode chat request: %w", err)
	}
	body["top_p"] = topP

	raw, err = json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(raw))
	out.ContentLength = int64(len(raw))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(raw)), nil
	}

	return out, nil
}
