// Package clients wraps the hosted text-generation APIs behind one small
// interface so the fallback loop can treat every backend the same way.
package clients

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

// ErrEmptyResponse is returned when a model finishes without producing text
// and without saying why.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Request is the payload of a single generation attempt.
type Request struct {
	System          string
	User            string
	Temperature     float32
	MaxOutputTokens int
	// RelaxSafety lowers the provider's content filters so clinical and
	// medical vocabulary is not blocked.
	RelaxSafety bool
}

// Client generates text with a named model.
type Client interface {
	Generate(ctx context.Context, model string, req Request) (string, error)
	// Stream yields text chunks in arrival order. Iteration stops at the
	// first non-nil error.
	Stream(ctx context.Context, model string, req Request) iter.Seq2[string, error]
}

// ModelInfo describes a model available to the supplied credential.
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
}

// Lister is implemented by clients that can enumerate their models.
type Lister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// Options selects and configures a backend.
type Options struct {
	Provider string
	APIKey   string
	BaseURL  string
}

// New returns the client for opts.Provider. The credential is held only by
// the returned client.
func New(ctx context.Context, opts Options) (Client, error) {
	switch opts.Provider {
	case "", "gemini":
		return NewGoogleAI(ctx, opts.APIKey)
	case "openai":
		return NewOpenAI(opts.APIKey, opts.BaseURL), nil
	default:
		return nil, fmt.Errorf("invalid provider: %s", opts.Provider)
	}
}
