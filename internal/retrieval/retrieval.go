// Package retrieval turns a natural-language query into ranked content
// matches by embedding the query and searching the vector store.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studyowl/studyowl/internal/embed"
	"github.com/studyowl/studyowl/internal/store"
)

// EmbedTimeout bounds a single query embedding call.
const EmbedTimeout = 15 * time.Second

// Searcher is the slice of the store the retriever needs.
type Searcher interface {
	QueryNearest(ctx context.Context, vec []float32, k int) ([]store.RetrievalResult, error)
}

// Retriever embeds queries and delegates the nearest-neighbor search.
type Retriever struct {
	embedder embed.Embedder
	searcher Searcher
	logger   *slog.Logger
}

// New creates a Retriever. All dependencies are required.
func New(embedder embed.Embedder, searcher Searcher, logger *slog.Logger) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{embedder: embedder, searcher: searcher, logger: logger}, nil
}

// Retrieve embeds the query text and returns up to k content items ranked by
// ascending cosine distance. A non-positive k yields an empty result without
// touching the embedder.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]store.RetrievalResult, error) {
	if k <= 0 {
		return []store.RetrievalResult{}, nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, EmbedTimeout)
	defer cancel()

	vec, err := r.embedder.Embed(embedCtx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := r.searcher.QueryNearest(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("searching nearest content: %w", err)
	}

	r.logger.Debug("retrieved content",
		"query_len", len(query),
		"k", k,
		"results", len(results))

	return results, nil
}
