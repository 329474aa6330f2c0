// Package completion talks to remote text-completion services.
package completion

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
)

// Request is a single text-completion call. The API key travels with the
// request so no client keeps credential state between calls.
type Request struct {
	APIKey           string
	Engine           string
	Prompt           string
	Temperature      float64
	MaxTokens        int
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// Response holds the candidate texts returned by the service, in order.
type Response struct {
	Choices []string
}

// Completer sends prompts to a completion service.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// NetworkError reports that the service could not be reached or the
// connection failed before a response was read.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "completion service unreachable: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// classify wraps transport-level failures in a NetworkError and leaves
// everything else (HTTP status, auth, decoding) untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return err
	}

	var tErr *transportError
	if errors.As(err, &tErr) {
		return &NetworkError{Err: err}
	}

	var urlErr *url.Error
	var opErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &opErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &NetworkError{Err: err}
	}

	return err
}
