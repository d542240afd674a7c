// Package store persists the learning coach's data in PostgreSQL with
// pgvector: registered feed sources, embedded content, weekly progress, and
// generated digests. Similarity search uses the cosine distance operator
// (`<=>`, 0 = identical direction, 2 = opposite).
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// contentCols is the standard SELECT column list for scanContentItems.
const contentCols = `id, title, text, url, created_at`

// Store manages coach data backed by PostgreSQL + pgvector.
//
// Connections are acquired from the pool per operation and released
// deterministically; no connection is held across requests. Store is safe
// for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a Store.
func New(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// AddSource registers a feed URL and returns its id.
// Returns ErrDuplicateSource when the URL is already registered.
func (s *Store) AddSource(ctx context.Context, url string) (int64, error) {
	if strings.TrimSpace(url) == "" {
		return 0, fmt.Errorf("source URL is required")
	}

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sources (url) VALUES ($1) RETURNING id`,
		url,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("source %q: %w", url, ErrDuplicateSource)
		}
		return 0, fmt.Errorf("inserting source: %w", err)
	}

	s.logger.Debug("added source", "id", id, "url", url)
	return id, nil
}

// ListSources returns all registered sources ordered by id.
func (s *Store) ListSources(ctx context.Context) ([]Source, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, url FROM sources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.ID, &src.URL); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}
	return sources, nil
}

// InsertContent stores a content item and returns its id.
//
// Title falls back to a prefix of text when empty; url falls back to
// DefaultUploadURL. A nil embedding is stored as NULL, which excludes the
// row from similarity queries. Returns ErrDuplicateSource when a row with
// the same non-sentinel URL already exists.
func (s *Store) InsertContent(ctx context.Context, title, text, url string, embedding []float32) (int64, error) {
	if title == "" {
		title = fallbackTitle(text)
	}
	if url == "" {
		url = DefaultUploadURL
	}

	var vec *pgvector.Vector
	if embedding != nil {
		v := pgvector.NewVector(embedding)
		vec = &v
	}

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO content (title, text, url, embedding)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		title, text, url, vec,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("content %q: %w", url, ErrDuplicateSource)
		}
		return 0, fmt.Errorf("inserting content: %w", err)
	}

	s.logger.Debug("inserted content", "id", id, "title", title, "text_length", len(text))
	return id, nil
}

// QueryNearest returns the k stored items closest to vec under cosine
// distance, ascending. Rows without an embedding are excluded. Exact
// distance ties break by insertion order (id). k <= 0 returns an empty
// result; k larger than the eligible row count returns all eligible rows.
func (s *Store) QueryNearest(ctx context.Context, vec []float32, k int) ([]RetrievalResult, error) {
	if k <= 0 {
		return []RetrievalResult{}, nil
	}

	qv := pgvector.NewVector(vec)
	rows, err := s.pool.Query(ctx,
		`SELECT `+contentCols+`, embedding <=> $1 AS distance
		 FROM content
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1, id
		 LIMIT $2`,
		qv, k,
	)
	if err != nil {
		return nil, fmt.Errorf("querying nearest content: %w", err)
	}
	defer rows.Close()

	results := make([]RetrievalResult, 0, k)
	for rows.Next() {
		var r RetrievalResult
		if err := rows.Scan(&r.Item.ID, &r.Item.Title, &r.Item.Text, &r.Item.URL,
			&r.Item.CreatedAt, &r.Distance); err != nil {
			return nil, fmt.Errorf("scanning retrieval result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating retrieval results: %w", err)
	}
	return results, nil
}

// ListRecentContent returns up to limit items ordered newest first.
func (s *Store) ListRecentContent(ctx context.Context, limit int) ([]ContentItem, error) {
	if limit <= 0 {
		return []ContentItem{}, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+contentCols+`
		 FROM content
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent content: %w", err)
	}
	defer rows.Close()

	return scanContentItems(rows)
}

// AllContent returns every content item with its embedding, ordered by id.
// Used to build the in-memory index (see MemIndex).
func (s *Store) AllContent(ctx context.Context) ([]ContentItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+contentCols+`, embedding FROM content ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing content: %w", err)
	}
	defer rows.Close()

	var items []ContentItem
	for rows.Next() {
		var item ContentItem
		var vec *pgvector.Vector
		if err := rows.Scan(&item.ID, &item.Title, &item.Text, &item.URL,
			&item.CreatedAt, &vec); err != nil {
			return nil, fmt.Errorf("scanning content item: %w", err)
		}
		if vec != nil {
			item.Embedding = vec.Slice()
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating content items: %w", err)
	}
	return items, nil
}

// CountContent returns the number of stored content items.
func (s *Store) CountContent(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM content`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting content: %w", err)
	}
	return count, nil
}

// AppendProgress records the topics studied in a week and returns the row id.
func (s *Store) AppendProgress(ctx context.Context, week int, topics string) (int64, error) {
	if week < 1 {
		return 0, fmt.Errorf("week must be positive, got %d", week)
	}

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO user_progress (week, topics) VALUES ($1, $2) RETURNING id`,
		week, topics,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("appending progress: %w", err)
	}
	return id, nil
}

// LatestProgress returns the most recently inserted progress entry, by
// created_at (not by week number). Returns (nil, nil) when no entries exist.
func (s *Store) LatestProgress(ctx context.Context) (*ProgressEntry, error) {
	var p ProgressEntry
	err := s.pool.QueryRow(ctx,
		`SELECT id, week, topics, created_at
		 FROM user_progress
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
	).Scan(&p.ID, &p.Week, &p.Topics, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest progress: %w", err)
	}
	return &p, nil
}

// SaveDigest persists a generated digest and returns the row id.
func (s *Store) SaveDigest(ctx context.Context, week int, digestText string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO digests (week, digest) VALUES ($1, $2) RETURNING id`,
		week, digestText,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("saving digest: %w", err)
	}

	s.logger.Debug("saved digest", "id", id, "week", week, "length", len(digestText))
	return id, nil
}

// ListDigests returns up to limit digests ordered newest first.
func (s *Store) ListDigests(ctx context.Context, limit int) ([]DigestRecord, error) {
	if limit <= 0 {
		return []DigestRecord{}, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, week, digest, created_at
		 FROM digests
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing digests: %w", err)
	}
	defer rows.Close()

	var digests []DigestRecord
	for rows.Next() {
		var d DigestRecord
		if err := rows.Scan(&d.ID, &d.Week, &d.Digest, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning digest: %w", err)
		}
		digests = append(digests, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating digests: %w", err)
	}
	return digests, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// scanContentItems reads ContentItem structs from pgx.Rows (standard column set).
func scanContentItems(rows pgx.Rows) ([]ContentItem, error) {
	var items []ContentItem
	for rows.Next() {
		var item ContentItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Text, &item.URL, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning content item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating content items: %w", err)
	}
	return items, nil
}

// fallbackTitle derives a title from the first characters of the body.
func fallbackTitle(text string) string {
	if len(text) > titleFallbackLen {
		return text[:titleFallbackLen]
	}
	if text == "" {
		return "Untitled"
	}
	return text
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (the duplicate-URL case for sources and content).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
