package engine

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kalambet/banglabot/internal/ollama"
)

// OllamaGenerator generates replies with a local Ollama model.
type OllamaGenerator struct {
	client *ollama.Client
	model  string
	opts   *ollama.Options
}

// NewOllamaGenerator creates a generator backed by the Ollama server at baseURL.
func NewOllamaGenerator(baseURL, model string, s Sampling) *OllamaGenerator {
	return &OllamaGenerator{
		client: ollama.New(baseURL),
		model:  model,
		opts: &ollama.Options{
			Temperature: s.Temperature,
			TopP:        s.TopP,
			TopK:        s.TopK,
			NumPredict:  s.MaxOutputTokens,
		},
	}
}

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := g.client.Generate(ctx, g.model, prompt, g.opts)
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("ollama: %w", ErrEmptyResponse)
	}
	return out, nil
}

// EnsureReady verifies the server is up and the model is present.
func (g *OllamaGenerator) EnsureReady(ctx context.Context, w io.Writer) error {
	return ollama.EnsureReady(ctx, g.client, g.model, w)
}
