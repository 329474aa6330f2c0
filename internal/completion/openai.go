package completion

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI implements Completer against the legacy /completions endpoint.
type OpenAI struct {
	baseURL    string
	httpClient *http.Client
}

// NewOpenAI creates an OpenAI completer. An empty baseURL keeps the SDK default.
func NewOpenAI(baseURL string, httpClient *http.Client) *OpenAI {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &OpenAI{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Complete implements the Completer interface
func (o *OpenAI) Complete(ctx context.Context, req Request) (Response, error) {
	cfg := openai.DefaultConfig(req.APIKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	cfg.HTTPClient = o.httpClient

	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:            req.Engine,
		Prompt:           req.Prompt,
		Temperature:      float32(req.Temperature),
		MaxTokens:        req.MaxTokens,
		TopP:             float32(req.TopP),
		FrequencyPenalty: float32(req.FrequencyPenalty),
		PresencePenalty:  float32(req.PresencePenalty),
	})
	if err != nil {
		return Response{}, fmt.Errorf("create completion: %w", classify(err))
	}

	result := Response{
		Choices: make([]string, 0, len(resp.Choices)),
	}
	for _, choice := range resp.Choices {
		result.Choices = append(result.Choices, choice.Text)
	}

	return result, nil
}
