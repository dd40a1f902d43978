package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kalambet/banglabot/internal/catalog"
	"github.com/kalambet/banglabot/internal/composer"
	"github.com/kalambet/banglabot/internal/config"
	"github.com/kalambet/banglabot/internal/engine"
	"github.com/kalambet/banglabot/internal/history"
	"github.com/kalambet/banglabot/internal/intent"
	"github.com/kalambet/banglabot/internal/pipeline"
)

// bot is the fully wired conversational core.
type bot struct {
	catalog   *catalog.Catalog
	generator engine.Generator
	responder *pipeline.Responder
}

// newLogger builds the process logger from the configured level name.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] unknown log level %q, using info\n", level)
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// loadClassifier loads the catalog and builds the classifier over it.
func loadClassifier(ctx context.Context, cfg config.Config, logger *slog.Logger) (*catalog.Catalog, *intent.Classifier, error) {
	c, err := catalog.Load(ctx, cfg.Catalog.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading intent catalog: %w", err)
	}
	ix, err := intent.Build(c)
	if err != nil {
		return nil, nil, fmt.Errorf("building intent index: %w", err)
	}
	cls := intent.NewClassifier(ix,
		intent.WithMinScore(cfg.Classifier.MinScore),
		intent.WithLogger(logger),
	)
	return c, cls, nil
}

func engineConfig(cfg config.Config) engine.Config {
	return engine.Config{
		Backend:          strings.ToLower(cfg.Fallback.Backend),
		GeminiAPIKey:     cfg.Gemini.APIKey,
		GeminiModel:      cfg.Gemini.Model,
		OllamaBaseURL:    cfg.Ollama.BaseURL,
		OllamaModel:      cfg.Ollama.Model,
		OpenRouterAPIKey: cfg.Proxy.OpenRouterAPIKey,
		OpenRouterModel:  cfg.Proxy.Model,
		Sampling:         engine.DefaultSampling(),
	}
}

// buildBot wires catalog, classifier, selector, history, generator and
// composer into a Responder. Catalog problems fail here, before serving.
func buildBot(ctx context.Context, cfg config.Config, logger *slog.Logger) (*bot, error) {
	c, cls, err := loadClassifier(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	gen, err := engine.New(ctx, engineConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("creating fallback generator: %w", err)
	}

	r := pipeline.NewResponder(
		cls,
		catalog.NewSelector(c, nil),
		history.New(cfg.History.MaxTurns),
		gen,
		composer.New(cfg.Fallback.Persona),
		pipeline.Options{
			ContextTurns: cfg.History.ContextTurns,
			Timeout:      cfg.Fallback.Timeout,
			Logger:       logger,
		},
	)
	return &bot{catalog: c, generator: gen, responder: r}, nil
}
