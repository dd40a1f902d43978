package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kDuration
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "BANGLABOT_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.api_token", typ: kString, env: "BANGLABOT_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "catalog.path", typ: kString, env: "BANGLABOT_CATALOG_PATH",
		apply:   func(cfg *Config, v any) { cfg.Catalog.Path = v.(string) },
		extract: func(cfg Config) any { return cfg.Catalog.Path },
	},
	{
		key: "classifier.min_score", typ: kInt, env: "BANGLABOT_CLASSIFIER_MIN_SCORE",
		apply:   func(cfg *Config, v any) { cfg.Classifier.MinScore = v.(int) },
		extract: func(cfg Config) any { return cfg.Classifier.MinScore },
	},
	{
		key: "history.max_turns", typ: kInt, env: "BANGLABOT_HISTORY_MAX_TURNS",
		apply:   func(cfg *Config, v any) { cfg.History.MaxTurns = v.(int) },
		extract: func(cfg Config) any { return cfg.History.MaxTurns },
	},
	{
		key: "history.context_turns", typ: kInt, env: "BANGLABOT_HISTORY_CONTEXT_TURNS",
		apply:   func(cfg *Config, v any) { cfg.History.ContextTurns = v.(int) },
		extract: func(cfg Config) any { return cfg.History.ContextTurns },
	},
	{
		key: "fallback.backend", typ: kString, env: "BANGLABOT_FALLBACK_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Fallback.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Fallback.Backend },
	},
	{
		key: "fallback.persona", typ: kString, env: "BANGLABOT_FALLBACK_PERSONA",
		apply:   func(cfg *Config, v any) { cfg.Fallback.Persona = v.(string) },
		extract: func(cfg Config) any { return cfg.Fallback.Persona },
	},
	{
		key: "fallback.timeout", typ: kDuration, env: "BANGLABOT_FALLBACK_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Fallback.Timeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Fallback.Timeout },
	},
	{
		key: "gemini.api_key", typ: kString, env: "BANGLABOT_GEMINI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Gemini.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.APIKey },
	},
	{
		key: "gemini.model", typ: kString, env: "BANGLABOT_GEMINI_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Gemini.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.Model },
	},
	{
		key: "ollama.base_url", typ: kString, env: "BANGLABOT_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.BaseURL },
	},
	{
		key: "ollama.model", typ: kString, env: "BANGLABOT_OLLAMA_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.Model },
	},
	{
		key: "proxy.openrouter_api_key", typ: kString, env: "BANGLABOT_OPENROUTER_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Proxy.OpenRouterAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Proxy.OpenRouterAPIKey },
	},
	{
		key: "proxy.model", typ: kString, env: "BANGLABOT_PROXY_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Proxy.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Proxy.Model },
	},
	{
		key: "log.level", typ: kString, env: "BANGLABOT_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kDuration:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				d, err := time.ParseDuration(v)
				if err != nil {
					return fmt.Errorf("invalid duration for %s: %w", s.key, err)
				}
				s.apply(cfg, d)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kDuration:
			if d, err := time.ParseDuration(raw); err == nil {
				s.apply(cfg, d)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse duration from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
