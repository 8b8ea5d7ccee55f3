package rag

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupportedProvider is returned when an unknown provider name is
// configured.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// GenerationError wraps a failure reported by the generation provider
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// GenerateOptions carries optional per-request overrides for generation
type GenerateOptions struct {
	Temperature   *float64
	MaxTokens     *int
	StopSequences []string
}

// EmbeddingProvider maps text to fixed-dimension vectors
type EmbeddingProvider interface {
	// Encode embeds texts in order; the result has the same length as texts
	Encode(ctx context.Context, texts []string) ([][]float32, error)

	// EncodeSingle embeds one text
	EncodeSingle(ctx context.Context, text string) ([]float32, error)
}

// GenerationProvider produces completions for an assembled prompt
type GenerationProvider interface {
	// Generate returns the full completion
	Generate(ctx context.Context, prompt, system string, opts *GenerateOptions) (string, error)

	// GenerateStream invokes fn for each text fragment as it arrives. The
	// stream is finite and not restartable; an error from fn stops it.
	GenerateStream(ctx context.Context, prompt, system string, fn func(chunk string) error) error
}
