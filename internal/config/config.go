// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (STUDYOWL_ prefix, plus the bare DATABASE_URL
//     and GEMINI_API_KEY names for compatibility with hosted setups)
//  2. Config file (~/.studyowl/config.yaml)
//  3. Default values
//
// Sensitive values (database URL, API key) are never logged; Validate
// returns sentinel errors suitable for errors.Is checks.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrMissingDatabaseURL indicates no PostgreSQL connection string was configured.
	ErrMissingDatabaseURL = errors.New("missing database URL")

	// ErrMissingAPIKey indicates the Gemini API key is not set.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates an empty or malformed model identifier.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrInvalidDimension indicates the embedding dimension is out of range.
	ErrInvalidDimension = errors.New("invalid embedding dimension")
)

const (
	// DefaultModelName is the Gemini chat model used for digest generation.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultEmbedderModel outputs 3072 dimensions by default but supports
	// truncation via OutputDimensionality (Matryoshka Representation
	// Learning). The content schema uses vector(384).
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultEmbeddingDim matches the vector(384) column in the content table.
	DefaultEmbeddingDim = 384

	// DefaultTopK is the number of snippets retrieved per digest.
	DefaultTopK = 5

	// MaxTopK bounds retrieval to keep prompts small.
	MaxTopK = 20

	// DefaultHTTPAddr is the default listen address for the HTTP API.
	DefaultHTTPAddr = "127.0.0.1:3400"

	// MinWeek and MaxWeek bound the study-plan week number accepted by
	// progress updates and digest generation.
	MinWeek = 1
	MaxWeek = 52
)

// Config stores application configuration.
type Config struct {
	// Storage
	DatabaseURL string `mapstructure:"database_url"` // SENSITIVE: never log

	// Gemini
	GeminiAPIKey  string `mapstructure:"gemini_api_key"` // SENSITIVE: never log
	ModelName     string `mapstructure:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model"`
	EmbeddingDim  int    `mapstructure:"embedding_dim"`

	// Retrieval
	TopK int `mapstructure:"top_k"`

	// HTTP API
	HTTPAddr string `mapstructure:"http_addr"`

	// Logging
	LogLevel string `mapstructure:"log_level"` // debug|info|warn|error
	LogJSON  bool   `mapstructure:"log_json"`

	// Tracing (OTLP HTTP). Empty endpoint disables span export.
	TraceEndpoint    string `mapstructure:"trace_endpoint"`
	TraceEnvironment string `mapstructure:"trace_environment"`
}

// Load reads configuration from file, environment, and defaults.
// A missing config file is not an error; missing required secrets are
// reported by Validate, which Load calls before returning.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".studyowl"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("STUDYOWL")
	v.AutomaticEnv()

	// Bare names used by the hosted database and Gemini tooling.
	_ = v.BindEnv("database_url", "STUDYOWL_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("gemini_api_key", "STUDYOWL_GEMINI_API_KEY", "GEMINI_API_KEY")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("embedding_dim", DefaultEmbeddingDim)
	v.SetDefault("top_k", DefaultTopK)
	v.SetDefault("http_addr", DefaultHTTPAddr)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("trace_endpoint", "")
	v.SetDefault("trace_environment", "dev")
}
