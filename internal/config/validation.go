package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Validate checks the configuration for completeness and sane ranges.
// Absence of the database URL or the API key is a fatal startup condition,
// not a per-call error.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration is nil")
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("%w: set DATABASE_URL or database_url in config", ErrMissingDatabaseURL)
	}
	if u, err := url.Parse(c.DatabaseURL); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingDatabaseURL, err)
	} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrMissingDatabaseURL, u.Scheme)
	}

	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return fmt.Errorf("%w: set GEMINI_API_KEY or gemini_api_key in config", ErrMissingAPIKey)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model_name is empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder_model is empty", ErrInvalidModelName)
	}

	if c.TopK < 1 || c.TopK > MaxTopK {
		return fmt.Errorf("%w: top_k must be between 1 and %d, got %d", ErrInvalidTopK, MaxTopK, c.TopK)
	}

	if c.EmbeddingDim < 1 || c.EmbeddingDim > 4096 {
		return fmt.Errorf("%w: embedding_dim must be between 1 and 4096, got %d", ErrInvalidDimension, c.EmbeddingDim)
	}

	return nil
}

// SlogLevel maps the configured log level string onto a slog.Level.
// Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
