package engine

import (
	"context"
	"fmt"

	"github.com/kalambet/banglabot/internal/proxy"
)

// Backend names accepted in configuration.
const (
	BackendGemini     = "gemini"
	BackendOllama     = "ollama"
	BackendOpenRouter = "openrouter"
)

// Config selects and parameterizes a backend.
type Config struct {
	Backend string

	GeminiAPIKey string
	GeminiModel  string

	OllamaBaseURL string
	OllamaModel   string

	OpenRouterAPIKey string
	OpenRouterModel  string

	Sampling Sampling
}

// New returns the Generator named by cfg.Backend.
func New(ctx context.Context, cfg Config) (Generator, error) {
	switch cfg.Backend {
	case BackendGemini, "":
		return NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Sampling)
	case BackendOllama:
		return NewOllamaGenerator(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.Sampling), nil
	case BackendOpenRouter:
		return NewOpenRouterGenerator(proxy.NewClient(cfg.OpenRouterAPIKey), cfg.OpenRouterModel, cfg.Sampling), nil
	default:
		return nil, fmt.Errorf("unknown fallback backend %q (want %s, %s or %s)",
			cfg.Backend, BackendGemini, BackendOllama, BackendOpenRouter)
	}
}
