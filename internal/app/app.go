// Package app wires configuration, storage, and services into a running
// application. Both the MCP and HTTP entry points build on it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"google.golang.org/genai"

	"github.com/studyowl/studyowl/db"
	"github.com/studyowl/studyowl/internal/config"
	"github.com/studyowl/studyowl/internal/digest"
	"github.com/studyowl/studyowl/internal/embed"
	"github.com/studyowl/studyowl/internal/ingest"
	"github.com/studyowl/studyowl/internal/llm"
	"github.com/studyowl/studyowl/internal/observability"
	"github.com/studyowl/studyowl/internal/retrieval"
	"github.com/studyowl/studyowl/internal/store"
)

// traceFlushTimeout bounds the span flush during shutdown.
const traceFlushTimeout = 10 * time.Second

// App holds all initialized services and their shared resources.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Pool      *pgxpool.Pool
	Store     *store.Store
	Ingest    *ingest.Service
	Retriever *retrieval.Retriever
	Generator *digest.Generator

	traceShutdown func(context.Context) error
}

// Setup initializes the full application: migrations, connection pool with
// pgvector types, Gemini clients, and all services. Callers must Close the
// returned App.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	traceShutdown, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.TraceEndpoint,
		Environment: cfg.TraceEnvironment,
		ServiceName: "studyowl",
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	st, err := store.New(pool, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating store: %w", err)
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	embedder, err := embed.NewGemini(genaiClient, cfg.EmbedderModel, cfg.EmbeddingDim)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	ingestSvc, err := ingest.New(st, embedder, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating ingest service: %w", err)
	}

	retriever, err := retrieval.New(embedder, st, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating retriever: %w", err)
	}

	completer, err := llm.NewGemini(genaiClient, cfg.ModelName, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating completer: %w", err)
	}

	generator, err := digest.NewGenerator(st, retriever, completer, cfg.TopK, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating digest generator: %w", err)
	}

	logger.Info("application initialized",
		"model", cfg.ModelName,
		"embedder", cfg.EmbedderModel,
		"embedding_dim", cfg.EmbeddingDim,
		"top_k", cfg.TopK)

	return &App{
		Config:        cfg,
		Logger:        logger,
		Pool:          pool,
		Store:         st,
		Ingest:        ingestSvc,
		Retriever:     retriever,
		Generator:     generator,
		traceShutdown: traceShutdown,
	}, nil
}

// Close releases shared resources and flushes pending trace spans.
func (a *App) Close() error {
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.traceShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), traceFlushTimeout)
		defer cancel()
		if err := a.traceShutdown(ctx); err != nil {
			return fmt.Errorf("shutting down tracing: %w", err)
		}
	}
	return nil
}
