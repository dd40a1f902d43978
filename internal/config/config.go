// Package config loads banglabot settings from defaults, a JSON file,
// an optional .env file, and BANGLABOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kalambet/banglabot/internal/composer"
)

type Config struct {
	Server     ServerConfig
	Catalog    CatalogConfig
	Classifier ClassifierConfig
	History    HistoryConfig
	Fallback   FallbackConfig
	Gemini     GeminiConfig
	Ollama     OllamaConfig
	Proxy      ProxyConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port     int
	APIToken string
}

type CatalogConfig struct {
	// Path is a catalog file or directory. Empty uses the embedded catalog.
	Path string
}

type ClassifierConfig struct {
	MinScore int
}

type HistoryConfig struct {
	MaxTurns     int
	ContextTurns int
}

type FallbackConfig struct {
	Backend string
	Persona string
	Timeout time.Duration
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type ProxyConfig struct {
	OpenRouterAPIKey string
	Model            string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 5000,
		},
		Classifier: ClassifierConfig{
			MinScore: 1,
		},
		History: HistoryConfig{
			ContextTurns: 6,
		},
		Fallback: FallbackConfig{
			Backend: "gemini",
			Persona: composer.DefaultPersona,
			Timeout: 60 * time.Second,
		},
		Gemini: GeminiConfig{
			Model: "gemini-1.5-flash",
		},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
			Model:   "phi3.5",
		},
		Proxy: ProxyConfig{
			Model: "google/gemini-flash-1.5",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/banglabot/config.json, a .env file in the working
// directory, and environment variables (BANGLABOT_*), in that order of
// increasing precedence. Secrets not set in the environment are looked up
// in $XDG_DATA_HOME/banglabot/secrets.json.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("reading .env: %w", err)
	}
	return loadWith(newFileBackend(), fileSecrets{})
}

// LoadPartial is Load without validation. Client-side commands use it so a
// missing backend key does not stop them from reaching a running server.
func LoadPartial() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("reading .env: %w", err)
	}
	return loadUnvalidated(newFileBackend(), fileSecrets{})
}

// secretStore abstracts the secrets file for testing.
type secretStore interface {
	Get(account string) (string, error)
}

func loadWith(b ConfigBackend, secrets secretStore) (Config, error) {
	cfg, err := loadUnvalidated(b, secrets)
	if err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadUnvalidated(b ConfigBackend, secrets secretStore) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)
	applySecrets(&cfg, secrets)
	return cfg, nil
}

// applySecrets fills empty secret keys from the secrets store.
func applySecrets(cfg *Config, secrets secretStore) {
	for _, s := range specs {
		if !s.secret {
			continue
		}
		if cur, _ := s.extract(*cfg).(string); cur != "" {
			continue
		}
		if v, err := secrets.Get(s.key); err == nil && v != "" {
			s.apply(cfg, v)
		}
	}
}

func validate(cfg Config) error {
	switch strings.ToLower(cfg.Fallback.Backend) {
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return missing("Gemini API key", "BANGLABOT_GEMINI_API_KEY")
		}
	case "openrouter":
		if cfg.Proxy.OpenRouterAPIKey == "" {
			return missing("OpenRouter API key", "BANGLABOT_OPENROUTER_API_KEY")
		}
	case "ollama":
	default:
		return fmt.Errorf("invalid fallback.backend %q: want gemini, ollama or openrouter", cfg.Fallback.Backend)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", cfg.Server.Port)
	}
	if cfg.Classifier.MinScore < 1 {
		return fmt.Errorf("invalid classifier.min_score %d: must be at least 1", cfg.Classifier.MinScore)
	}
	if cfg.History.ContextTurns < 1 {
		return fmt.Errorf("invalid history.context_turns %d: must be at least 1", cfg.History.ContextTurns)
	}
	if cfg.History.MaxTurns < 0 {
		return fmt.Errorf("invalid history.max_turns %d: must not be negative", cfg.History.MaxTurns)
	}
	return nil
}

func missing(what, env string) error {
	return fmt.Errorf("missing required config: %s. Set it via environment variable %s or a .env file", what, env)
}
