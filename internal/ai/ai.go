// Package ai talks to the text and image generation providers and turns
// their output into games and cocktail recipes.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const maxErrorBody = 500

var (
	ErrNoContent   = errors.New("ai: provider returned no content")
	ErrInvalidJSON = errors.New("ai: provider returned invalid JSON")
	ErrNoImage     = errors.New("ai: provider returned no image data")
)

// Request is one system + user prompt exchange. When Schema is set the
// provider is asked for a JSON document matching it.
type Request struct {
	System      string
	User        string
	Temperature float32
	SchemaName  string
	Schema      json.RawMessage
}

type TextGenerator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Image is a generated picture, either hosted (URL) or inline (B64JSON).
type Image struct {
	URL     string
	B64JSON string
}

// Resolved returns the URL, or a PNG data URL built from the inline payload.
func (i Image) Resolved() string {
	if i.URL != "" {
		return i.URL
	}
	if i.B64JSON != "" {
		return "data:image/png;base64," + i.B64JSON
	}
	return ""
}

type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (Image, error)
	ImageModel() string
}

// ProviderError is a non-success answer from a provider. StatusCode is zero
// when no HTTP response was received.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed (%d).", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Details returns the provider's response body, or the transport error.
func (e *ProviderError) Details() string {
	if e.Body != "" {
		return e.Body
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody] + "..."
}
