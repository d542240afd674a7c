// Package ingest registers feed sources, fetches their entries, and stores
// embedded content.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/studyowl/studyowl/internal/embed"
	"github.com/studyowl/studyowl/internal/store"
)

// ErrInvalidURL marks a source URL that is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid source url")

// readTimeout bounds a single readability page fetch.
const readTimeout = 30 * time.Second

// fetchRate limits outbound feed and page requests.
const fetchRate = 2 // requests per second

// ContentStore is the slice of the store the ingest service needs.
type ContentStore interface {
	AddSource(ctx context.Context, url string) (int64, error)
	ListSources(ctx context.Context) ([]store.Source, error)
	InsertContent(ctx context.Context, title, text, url string, embedding []float32) (int64, error)
}

// Report summarizes one fetch run across all registered sources.
type Report struct {
	RunID   string `json:"run_id"`
	Fetched int    `json:"fetched"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// Service ingests content from feeds and uploaded documents.
type Service struct {
	store    ContentStore
	embedder embed.Embedder
	parser   *gofeed.Parser
	limiter  *rate.Limiter
	logger   *slog.Logger

	// readPage is swappable in tests to avoid real page fetches.
	readPage func(pageURL string, timeout time.Duration) (readability.Article, error)
}

// New creates an ingest Service.
func New(cs ContentStore, embedder embed.Embedder, logger *slog.Logger) (*Service, error) {
	if cs == nil {
		return nil, fmt.Errorf("content store is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    cs,
		embedder: embedder,
		parser:   gofeed.NewParser(),
		limiter:  rate.NewLimiter(rate.Limit(fetchRate), 1),
		logger:   logger,
		readPage: func(pageURL string, timeout time.Duration) (readability.Article, error) {
			return readability.FromURL(pageURL, timeout)
		},
	}, nil
}

// AddSource validates and registers a feed URL. Duplicate registrations
// surface store.ErrDuplicateSource.
func (s *Service) AddSource(ctx context.Context, rawURL string) (int64, error) {
	if err := validateURL(rawURL); err != nil {
		return 0, err
	}
	id, err := s.store.AddSource(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	s.logger.Info("source registered", "id", id, "url", rawURL)
	return id, nil
}

// Sources lists all registered feed sources.
func (s *Service) Sources(ctx context.Context) ([]store.Source, error) {
	return s.store.ListSources(ctx)
}

// AddDocument embeds and stores an uploaded document. The store records it
// under the shared upload sentinel URL, so repeated uploads are accepted.
func (s *Service) AddDocument(ctx context.Context, title, text string) (int64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("document text is empty")
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("embedding document: %w", err)
	}

	id, err := s.store.InsertContent(ctx, title, text, "", vec)
	if err != nil {
		return 0, fmt.Errorf("storing document: %w", err)
	}
	s.logger.Info("document stored", "id", id, "title", title)
	return id, nil
}

// Fetch pulls every registered source, embeds new entries, and stores them.
// Per-entry failures and duplicates are counted, not fatal; the run only
// fails on store access errors or context cancellation.
func (s *Service) Fetch(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	logger := s.logger.With("run_id", report.RunID)

	sources, err := s.store.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	for _, src := range sources {
		if err := s.limiter.Wait(ctx); err != nil {
			return report, fmt.Errorf("waiting on rate limiter: %w", err)
		}

		feed, err := s.parser.ParseURLWithContext(src.URL, ctx)
		if err != nil {
			report.Failed++
			logger.Warn("fetching feed failed", "url", src.URL, "error", err)
			continue
		}

		for _, item := range feed.Items {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			s.ingestItem(ctx, item, report, logger)
		}
	}

	logger.Info("fetch run completed",
		"sources", len(sources),
		"fetched", report.Fetched,
		"skipped", report.Skipped,
		"failed", report.Failed)

	return report, nil
}

func (s *Service) ingestItem(ctx context.Context, item *gofeed.Item, report *Report, logger *slog.Logger) {
	title := strings.TrimSpace(item.Title)

	text := item.Content
	if text == "" {
		text = item.Description
	}
	text = strings.TrimSpace(stripHTML(text))

	// Feeds that only carry a link get their text from the page itself.
	if text == "" && item.Link != "" {
		if err := s.limiter.Wait(ctx); err != nil {
			report.Failed++
			return
		}
		article, err := s.readPage(item.Link, readTimeout)
		if err != nil {
			report.Failed++
			logger.Warn("extracting page content failed", "link", item.Link, "error", err)
			return
		}
		text = strings.TrimSpace(article.TextContent)
		if title == "" {
			title = article.Title
		}
	}

	if text == "" && title == "" {
		report.Skipped++
		return
	}

	embedInput := text
	if embedInput == "" {
		embedInput = title
	}
	vec, err := s.embedder.Embed(ctx, embedInput)
	if err != nil {
		report.Failed++
		logger.Warn("embedding entry failed", "title", title, "error", err)
		return
	}

	_, err = s.store.InsertContent(ctx, title, text, item.Link, vec)
	switch {
	case errors.Is(err, store.ErrDuplicateSource):
		report.Skipped++
	case err != nil:
		report.Failed++
		logger.Warn("storing entry failed", "title", title, "error", err)
	default:
		report.Fetched++
	}
}

// stripHTML reduces feed entry markup to plain text. Non-HTML input passes
// through unchanged.
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}
