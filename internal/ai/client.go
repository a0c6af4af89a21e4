// Package ai talks to an OpenAI-compatible chat completions endpoint.
package ai

import (
	"context"
	"errors"

	"github.com/starford/zhishi/internal/assist"
)

// ErrMissingCredential is returned when no API key is available for a
// remote endpoint. It is distinct from request failures so callers can ask
// for configuration instead of reporting an error.
var ErrMissingCredential = errors.New("ai: api key missing")

// Client is the AI backend used by the note service.
type Client interface {
	Analyze(ctx context.Context, content, prompt string) (assist.Analysis, error)
	Polish(ctx context.Context, content, prompt string) (string, error)
	Chat(ctx context.Context, message string, history []assist.Message) (string, error)
}
