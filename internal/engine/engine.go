// Package engine provides the generative backends the bot falls back to
// when no scripted intent matches.
package engine

import (
	"context"
	"errors"
	"io"
)

// ErrEmptyResponse is returned when a backend answers with no text.
var ErrEmptyResponse = errors.New("generator returned an empty response")

// Generator turns a prompt into a free-text reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Readier is implemented by generators that need to verify or prepare the
// backend (pull a model, warm it up) before serving.
type Readier interface {
	EnsureReady(ctx context.Context, w io.Writer) error
}

// Sampling holds generation parameters shared by every backend.
type Sampling struct {
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}

// DefaultSampling mirrors the parameters the bot has always used with Gemini.
func DefaultSampling() Sampling {
	return Sampling{
		Temperature:     1,
		TopP:            0.95,
		TopK:            64,
		MaxOutputTokens: 8192,
	}
}

// Prepare runs g's readiness check when it has one.
func Prepare(ctx context.Context, g Generator, w io.Writer) error {
	if r, ok := g.(Readier); ok {
		return r.EnsureReady(ctx, w)
	}
	return nil
}
