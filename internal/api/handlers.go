package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/studyowl/studyowl/internal/config"
	"github.com/studyowl/studyowl/internal/digest"
	"github.com/studyowl/studyowl/internal/ingest"
	"github.com/studyowl/studyowl/internal/store"
)

// defaultListLimit bounds list responses when no limit is given.
const defaultListLimit = 20

// CoachStore is the slice of the store the API handlers need directly.
type CoachStore interface {
	AppendProgress(ctx context.Context, week int, topics string) (int64, error)
	LatestProgress(ctx context.Context) (*store.ProgressEntry, error)
	ListDigests(ctx context.Context, limit int) ([]store.DigestRecord, error)
	ListRecentContent(ctx context.Context, limit int) ([]store.ContentItem, error)
	CountContent(ctx context.Context) (int, error)
}

// Generator produces weekly digests.
type Generator interface {
	Generate(ctx context.Context) (*digest.Result, error)
}

type coachHandler struct {
	ingest    *ingest.Service
	store     CoachStore
	generator Generator
	logger    *slog.Logger
}

type sourceOut struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

type contentOut struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type progressOut struct {
	ID        int64     `json:"id"`
	Week      int       `json:"week"`
	Topics    string    `json:"topics"`
	CreatedAt time.Time `json:"created_at"`
}

type digestOut struct {
	ID        int64     `json:"id"`
	Week      int       `json:"week"`
	Digest    string    `json:"digest"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *coachHandler) addSource(w http.ResponseWriter, r *http.Request) {
	var in struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid JSON body", h.logger)
		return
	}

	id, err := h.ingest.AddSource(r.Context(), in.URL)
	switch {
	case errors.Is(err, ingest.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, "invalid_url", err.Error(), h.logger)
	case errors.Is(err, store.ErrDuplicateSource):
		writeError(w, http.StatusConflict, "duplicate_source", "source URL already registered", h.logger)
	case err != nil:
		h.logger.Error("adding source", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to add source", h.logger)
	default:
		writeJSON(w, http.StatusCreated, sourceOut{ID: id, URL: in.URL}, h.logger)
	}
}

func (h *coachHandler) listSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.ingest.Sources(r.Context())
	if err != nil {
		h.logger.Error("listing sources", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list sources", h.logger)
		return
	}

	out := make([]sourceOut, 0, len(sources))
	for _, s := range sources {
		out = append(out, sourceOut{ID: s.ID, URL: s.URL})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": out}, h.logger)
}

func (h *coachHandler) fetchSources(w http.ResponseWriter, r *http.Request) {
	report, err := h.ingest.Fetch(r.Context())
	if err != nil {
		h.logger.Error("fetching sources", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "fetch run failed", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, report, h.logger)
}

func (h *coachHandler) uploadDocument(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid JSON body", h.logger)
		return
	}

	id, err := h.ingest.AddDocument(r.Context(), in.Title, in.Text)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_document", err.Error(), h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id}, h.logger)
}

func (h *coachHandler) listContent(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, defaultListLimit)

	items, err := h.store.ListRecentContent(r.Context(), limit)
	if err != nil {
		h.logger.Error("listing content", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list content", h.logger)
		return
	}
	total, err := h.store.CountContent(r.Context())
	if err != nil {
		h.logger.Error("counting content", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to count content", h.logger)
		return
	}

	out := make([]contentOut, 0, len(items))
	for _, it := range items {
		out = append(out, contentOut{ID: it.ID, Title: it.Title, URL: it.URL, CreatedAt: it.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"content": out, "total": total}, h.logger)
}

func (h *coachHandler) updateProgress(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Week   int    `json:"week"`
		Topics string `json:"topics"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid JSON body", h.logger)
		return
	}
	if in.Week < config.MinWeek || in.Week > config.MaxWeek {
		writeError(w, http.StatusBadRequest, "invalid_week",
			fmt.Sprintf("week must be between %d and %d", config.MinWeek, config.MaxWeek), h.logger)
		return
	}

	id, err := h.store.AppendProgress(r.Context(), in.Week, in.Topics)
	if err != nil {
		h.logger.Error("recording progress", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to record progress", h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "week": in.Week}, h.logger)
}

func (h *coachHandler) latestProgress(w http.ResponseWriter, r *http.Request) {
	entry, err := h.store.LatestProgress(r.Context())
	if err != nil {
		h.logger.Error("loading latest progress", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load progress", h.logger)
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "no_progress", "no progress recorded yet", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, progressOut{
		ID:        entry.ID,
		Week:      entry.Week,
		Topics:    entry.Topics,
		CreatedAt: entry.CreatedAt,
	}, h.logger)
}

func (h *coachHandler) generateDigest(w http.ResponseWriter, r *http.Request) {
	res, err := h.generator.Generate(r.Context())
	if err != nil {
		h.logger.Error("generating digest", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "digest generation failed", h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"week":     res.Week,
		"digest":   res.Text,
		"fallback": res.Fallback,
	}, h.logger)
}

func (h *coachHandler) listDigests(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, defaultListLimit)

	digests, err := h.store.ListDigests(r.Context(), limit)
	if err != nil {
		h.logger.Error("listing digests", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list digests", h.logger)
		return
	}

	out := make([]digestOut, 0, len(digests))
	for _, d := range digests {
		out = append(out, digestOut{ID: d.ID, Week: d.Week, Digest: d.Digest, CreatedAt: d.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"digests": out}, h.logger)
}

// queryLimit parses the limit query parameter, clamped to [1, 100].
func queryLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > 100 {
		return 100
	}
	return n
}
