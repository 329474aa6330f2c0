// Package marv implements Marv, a bot that answers questions with sarcasm
// generated by a remote text-completion service.
package marv

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/j0lvera/marv/internal/completion"
)

// Sampling parameters sent with every request.
const (
	Engine           = "text-davinci-002"
	Temperature      = 0.5
	MaxTokens        = 60
	TopP             = 0.3
	FrequencyPenalty = 0.5
	PresencePenalty  = 0.0
)

// NetworkFallback is the reply when the completion service is unreachable.
const NetworkFallback = "Uh oh, sorry :slightly_frowning_face:, I cannot process your request right now. " +
	"But, let's try again later! :grin:"

// ErrNoResponse is returned by Ask when the service produced no candidates.
var ErrNoResponse = errors.New("marv: no response from completion service")

// Kind tags the outcome of Respond.
type Kind int

const (
	KindAnswer Kind = iota
	KindNoResponse
	KindNetworkFailure
)

func (k Kind) String() string {
	switch k {
	case KindAnswer:
		return "answer"
	case KindNoResponse:
		return "no_response"
	case KindNetworkFailure:
		return "network_failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Reply is the text to send back along with how it was produced.
type Reply struct {
	Kind Kind
	Text string
}

// NoResponseFallback is the reply when the service returned no candidates.
// The wording, including "abot", is kept as users have always seen it.
func NoResponseFallback(question string) string {
	return fmt.Sprintf(`Sorry, I don't even know what to say abot "%s"! :astonished:`, question)
}

type options struct {
	prompt    string
	hasPrompt bool
	pick      func(n int) int
}

// Option customizes a single Ask or Respond call.
type Option func(*options)

// WithPrompt sends prompt verbatim instead of the few-shot template.
func WithPrompt(prompt string) Option {
	return func(o *options) {
		o.prompt = prompt
		o.hasPrompt = true
	}
}

// WithPicker replaces the uniform random candidate selection. pick receives
// the number of candidates and returns an index in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(o *options) {
		o.pick = pick
	}
}

// Ask sends question to the completion service and returns one candidate,
// chosen uniformly at random. It returns ErrNoResponse when the candidate
// set is empty and the completer's error, unchanged, otherwise.
func Ask(
	ctx context.Context, c completion.Completer, question, apiKey string, opts ...Option,
) (string, error) {
	o := options{pick: rand.IntN}
	for _, opt := range opts {
		opt(&o)
	}

	prompt := o.prompt
	if !o.hasPrompt {
		prompt = Prompt(question)
	}

	resp, err := c.Complete(ctx, completion.Request{
		APIKey:           apiKey,
		Engine:           Engine,
		Prompt:           prompt,
		Temperature:      Temperature,
		MaxTokens:        MaxTokens,
		TopP:             TopP,
		FrequencyPenalty: FrequencyPenalty,
		PresencePenalty:  PresencePenalty,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoResponse
	}

	return resp.Choices[o.pick(len(resp.Choices))], nil
}

// Respond answers question, turning the two recoverable failures into
// fallback text. Any other error is returned for the caller to handle.
func Respond(
	ctx context.Context, c completion.Completer, question, apiKey string, opts ...Option,
) (Reply, error) {
	text, err := Ask(ctx, c, question, apiKey, opts...)
	if err == nil {
		return Reply{Kind: KindAnswer, Text: text}, nil
	}

	var netErr *completion.NetworkError
	switch {
	case errors.As(err, &netErr):
		return Reply{Kind: KindNetworkFailure, Text: NetworkFallback}, nil
	case errors.Is(err, ErrNoResponse):
		return Reply{Kind: KindNoResponse, Text: NoResponseFallback(question)}, nil
	default:
		return Reply{}, err
	}
}
