package store

import (
	"errors"
	"time"
)

// DefaultUploadURL is the sentinel source URL for content that was uploaded
// directly rather than fetched from a feed.
const DefaultUploadURL = "uploaded_document"

// titleFallbackLen bounds the title derived from the text body when no title
// was supplied.
const titleFallbackLen = 100

var (
	// ErrDuplicateSource indicates a source or content URL already exists.
	// Batch ingestion must catch and skip this; it is never fatal.
	ErrDuplicateSource = errors.New("duplicate source URL")
)

// Source is a registered feed URL.
type Source struct {
	ID  int64
	URL string
}

// ContentItem is a unit of ingested knowledge.
//
// Embedding is nil for rows inserted without a vector; such rows are
// excluded from similarity queries but still appear in recency listings.
type ContentItem struct {
	ID        int64
	Title     string
	Text      string
	URL       string
	Embedding []float32
	CreatedAt time.Time
}

// ProgressEntry is a weekly record of what the user is studying.
type ProgressEntry struct {
	ID        int64
	Week      int
	Topics    string
	CreatedAt time.Time
}

// DigestRecord is a generated digest for a week. Digest text is opaque to
// the store.
type DigestRecord struct {
	ID        int64
	Week      int
	Digest    string
	CreatedAt time.Time
}

// RetrievalResult pairs a content item with its cosine distance to a query
// vector. Lower distance means more similar. Results are ephemeral: built
// per query, consumed by the digest assembler, never persisted.
type RetrievalResult struct {
	Item     ContentItem
	Distance float64
}
