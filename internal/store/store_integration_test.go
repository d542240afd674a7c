package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/studyowl/studyowl/internal/log"
	"github.com/studyowl/studyowl/internal/store"
	"github.com/studyowl/studyowl/internal/testutil"
)

// vec384 builds a 384-dim vector that is zero except for the given leading
// components, matching the vector(384) schema column.
func vec384(lead ...float32) []float32 {
	v := make([]float32, 384)
	copy(v, lead)
	return v
}

func setupStore(t *testing.T) (*store.Store, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	container, cleanup := testutil.SetupTestDB(t)
	s, err := store.New(container.Pool, log.NewNop())
	if err != nil {
		cleanup()
		t.Fatalf("store.New: %v", err)
	}
	return s, cleanup
}

func TestStore_SourcesAndDuplicates(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	id, err := s.AddSource(ctx, "https://example.com/feed.xml")
	if err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	if id == 0 {
		t.Error("AddSource returned zero id")
	}

	// Same URL again must surface the duplicate sentinel, not a raw pg error.
	_, err = s.AddSource(ctx, "https://example.com/feed.xml")
	if !errors.Is(err, store.ErrDuplicateSource) {
		t.Errorf("duplicate AddSource error = %v, want ErrDuplicateSource", err)
	}

	sources, err := s.ListSources(ctx)
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if len(sources) != 1 || sources[0].URL != "https://example.com/feed.xml" {
		t.Errorf("ListSources = %v, want single registered source", sources)
	}
}

func TestStore_QueryNearest_ExactMatchOrdering(t *testing.T) {
	// Insert 3 items with known embeddings; query with a vector identical to
	// item 2's embedding and k=2: expect item 2 first at distance 0, then the
	// next closest.
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := s.InsertContent(ctx, "far", "far text", "https://a.test/1", vec384(0, 1)); err != nil {
		t.Fatalf("InsertContent: %v", err)
	}
	exactID, err := s.InsertContent(ctx, "exact", "exact text", "https://a.test/2", vec384(1, 0))
	if err != nil {
		t.Fatalf("InsertContent: %v", err)
	}
	closeID, err := s.InsertContent(ctx, "close", "close text", "https://a.test/3", vec384(0.9, 0.1))
	if err != nil {
		t.Fatalf("InsertContent: %v", err)
	}

	results, err := s.QueryNearest(ctx, vec384(1, 0), 2)
	if err != nil {
		t.Fatalf("QueryNearest: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Item.ID != exactID {
		t.Errorf("first result = item %d, want exact-match %d", results[0].Item.ID, exactID)
	}
	if results[0].Distance > 1e-6 {
		t.Errorf("exact match distance = %v, want ~0", results[0].Distance)
	}
	if results[1].Item.ID != closeID {
		t.Errorf("second result = item %d, want %d", results[1].Item.ID, closeID)
	}
	if results[0].Distance > results[1].Distance {
		t.Error("results not in ascending distance order")
	}
}

func TestStore_QueryNearest_Edges(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := s.InsertContent(ctx, "only", "only text", "", vec384(1, 0)); err != nil {
		t.Fatalf("InsertContent: %v", err)
	}
	// Row without an embedding must be excluded from candidacy.
	if _, err := s.InsertContent(ctx, "no vector", "plain row", "https://a.test/plain", nil); err != nil {
		t.Fatalf("InsertContent (nil embedding): %v", err)
	}

	results, err := s.QueryNearest(ctx, vec384(1, 0), 0)
	if err != nil {
		t.Fatalf("QueryNearest k=0: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("k=0 returned %d results", len(results))
	}

	results, err = s.QueryNearest(ctx, vec384(1, 0), 50)
	if err != nil {
		t.Fatalf("QueryNearest k=50: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("k>size returned %d results, want 1 (no padding, unembedded excluded)", len(results))
	}
}

func TestStore_LatestProgressByCreatedAt(t *testing.T) {
	// Insert weeks 1, 3, 2 in that order: latest must be week 2 (max
	// created_at, not max week value).
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, week := range []int{1, 3, 2} {
		if _, err := s.AppendProgress(ctx, week, "topics"); err != nil {
			t.Fatalf("AppendProgress(%d): %v", week, err)
		}
	}

	latest, err := s.LatestProgress(ctx)
	if err != nil {
		t.Fatalf("LatestProgress: %v", err)
	}
	if latest == nil {
		t.Fatal("LatestProgress returned nil after inserts")
	}
	if latest.Week != 2 {
		t.Errorf("latest week = %d, want 2 (last inserted)", latest.Week)
	}
}

func TestStore_LatestProgressEmpty(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()

	latest, err := s.LatestProgress(context.Background())
	if err != nil {
		t.Fatalf("LatestProgress on empty table: %v", err)
	}
	if latest != nil {
		t.Errorf("LatestProgress = %v, want nil for empty table", latest)
	}
}

func TestStore_DigestsAndRecency(t *testing.T) {
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := s.SaveDigest(ctx, 1, "first digest"); err != nil {
		t.Fatalf("SaveDigest: %v", err)
	}
	if _, err := s.SaveDigest(ctx, 2, "second digest"); err != nil {
		t.Fatalf("SaveDigest: %v", err)
	}

	digests, err := s.ListDigests(ctx, 10)
	if err != nil {
		t.Fatalf("ListDigests: %v", err)
	}
	if len(digests) != 2 {
		t.Fatalf("got %d digests, want 2", len(digests))
	}
	if digests[0].Digest != "second digest" {
		t.Errorf("newest digest = %q, want %q", digests[0].Digest, "second digest")
	}
}

func TestStore_UploadedDocumentsMayRepeat(t *testing.T) {
	// The sentinel URL is exempt from the uniqueness constraint so repeated
	// document uploads are accepted.
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := s.InsertContent(ctx, "upload one", "text", "", vec384(1)); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if _, err := s.InsertContent(ctx, "upload two", "text", "", vec384(0, 1)); err != nil {
		t.Errorf("second upload with sentinel URL: %v, want success", err)
	}

	// A real URL, by contrast, conflicts on reinsert.
	if _, err := s.InsertContent(ctx, "entry", "text", "https://b.test/entry", vec384(1)); err != nil {
		t.Fatalf("InsertContent: %v", err)
	}
	_, err := s.InsertContent(ctx, "entry again", "text", "https://b.test/entry", vec384(1))
	if !errors.Is(err, store.ErrDuplicateSource) {
		t.Errorf("duplicate content URL error = %v, want ErrDuplicateSource", err)
	}
}

func TestStore_MemIndexParityWithSQLPath(t *testing.T) {
	// Both retrieval strategies must rank identically for the same data.
	s, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	embeddings := [][]float32{vec384(1, 0), vec384(0, 1), vec384(0.7, 0.7), vec384(-1, 0)}
	for i, emb := range embeddings {
		title := string(rune('a' + i))
		if _, err := s.InsertContent(ctx, title, title+" text", "https://p.test/"+title, emb); err != nil {
			t.Fatalf("InsertContent: %v", err)
		}
	}

	query := vec384(1, 0.1)

	sqlResults, err := s.QueryNearest(ctx, query, 4)
	if err != nil {
		t.Fatalf("QueryNearest: %v", err)
	}

	items, err := s.AllContent(ctx)
	if err != nil {
		t.Fatalf("AllContent: %v", err)
	}
	memResults, err := store.NewMemIndex(items).QueryNearest(ctx, query, 4)
	if err != nil {
		t.Fatalf("MemIndex.QueryNearest: %v", err)
	}

	if len(sqlResults) != len(memResults) {
		t.Fatalf("result counts differ: sql=%d mem=%d", len(sqlResults), len(memResults))
	}
	for i := range sqlResults {
		if sqlResults[i].Item.ID != memResults[i].Item.ID {
			t.Errorf("rank %d: sql item %d, mem item %d", i, sqlResults[i].Item.ID, memResults[i].Item.ID)
		}
	}
}
