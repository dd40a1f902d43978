package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalambet/banglabot/internal/proxy"
)

// OpenRouterGenerator generates replies through the OpenRouter API.
type OpenRouterGenerator struct {
	client   *proxy.Client
	model    string
	sampling Sampling
}

// NewOpenRouterGenerator wraps an OpenRouter client.
func NewOpenRouterGenerator(client *proxy.Client, model string, s Sampling) *OpenRouterGenerator {
	return &OpenRouterGenerator{client: client, model: model, sampling: s}
}

func (g *OpenRouterGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := g.client.Complete(ctx, proxy.CompletionRequest{
		Model:       g.model,
		Messages:    []proxy.Message{{Role: "user", Content: prompt}},
		Temperature: &g.sampling.Temperature,
		TopP:        &g.sampling.TopP,
		TopK:        &g.sampling.TopK,
		MaxTokens:   g.sampling.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openrouter: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("openrouter: %w", ErrEmptyResponse)
	}
	return out, nil
}
