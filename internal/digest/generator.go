package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studyowl/studyowl/internal/store"
)

// GenerateTimeout bounds a single completion call.
const GenerateTimeout = 60 * time.Second

// Completer produces a completion from a system and user message pair.
type Completer interface {
	Complete(ctx context.Context, prompt PromptMessages) (string, error)
}

// ProgressStore is the slice of the store the generator needs.
type ProgressStore interface {
	LatestProgress(ctx context.Context) (*store.ProgressEntry, error)
	SaveDigest(ctx context.Context, week int, text string) (int64, error)
}

// Retriever finds content relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]store.RetrievalResult, error)
}

// Result is a generated and persisted digest.
type Result struct {
	Week     int
	Text     string
	Fallback bool
}

// Generator produces weekly digests: it resolves the current week from
// progress history, retrieves relevant content, and completes a prompt.
type Generator struct {
	store     ProgressStore
	retriever Retriever
	completer Completer
	topK      int
	logger    *slog.Logger
}

// NewGenerator creates a Generator. All dependencies are required; topK must
// be positive.
func NewGenerator(ps ProgressStore, retriever Retriever, completer Completer, topK int, logger *slog.Logger) (*Generator, error) {
	if ps == nil {
		return nil, fmt.Errorf("progress store is required")
	}
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		store:     ps,
		retriever: retriever,
		completer: completer,
		topK:      topK,
		logger:    logger,
	}, nil
}

// Generate produces a digest for the most recently recorded week, defaulting
// to week 1 when no progress exists. When retrieval returns no content the
// fallback text is persisted and the completer is never called.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	week := 1
	latest, err := g.store.LatestProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading latest progress: %w", err)
	}
	if latest != nil {
		week = latest.Week
	}

	results, err := g.retriever.Retrieve(ctx, QueryText(week), g.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieving content for week %d: %w", week, err)
	}

	if len(results) == 0 {
		text := FallbackText(week)
		if _, err := g.store.SaveDigest(ctx, week, text); err != nil {
			return nil, fmt.Errorf("saving fallback digest: %w", err)
		}
		g.logger.Info("no content available, saved fallback digest", "week", week)
		return &Result{Week: week, Text: text, Fallback: true}, nil
	}

	prompt := Assemble(week, results, g.topK)

	genCtx, cancel := context.WithTimeout(ctx, GenerateTimeout)
	defer cancel()

	text, err := g.completer.Complete(genCtx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating digest for week %d: %w", week, err)
	}

	if _, err := g.store.SaveDigest(ctx, week, text); err != nil {
		return nil, fmt.Errorf("saving digest: %w", err)
	}

	g.logger.Info("generated digest",
		"week", week,
		"snippets", len(results),
		"digest_len", len(text))

	return &Result{Week: week, Text: text}, nil
}
