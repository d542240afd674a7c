package digest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/studyowl/studyowl/internal/log"
	"github.com/studyowl/studyowl/internal/store"
)

type fakeProgressStore struct {
	latest    *store.ProgressEntry
	latestErr error
	savedWeek int
	savedText string
	saveCalls int
	saveErr   error
}

func (f *fakeProgressStore) LatestProgress(context.Context) (*store.ProgressEntry, error) {
	return f.latest, f.latestErr
}

func (f *fakeProgressStore) SaveDigest(_ context.Context, week int, text string) (int64, error) {
	f.saveCalls++
	f.savedWeek = week
	f.savedText = text
	return int64(f.saveCalls), f.saveErr
}

type fakeRetriever struct {
	results []store.RetrievalResult
	err     error
	gotK    int
	gotQ    string
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, k int) ([]store.RetrievalResult, error) {
	f.gotQ = query
	f.gotK = k
	return f.results, f.err
}

type fakeCompleter struct {
	text  string
	err   error
	calls int
	got   PromptMessages
}

func (f *fakeCompleter) Complete(_ context.Context, prompt PromptMessages) (string, error) {
	f.calls++
	f.got = prompt
	return f.text, f.err
}

func TestGenerate_HappyPath(t *testing.T) {
	ps := &fakeProgressStore{latest: &store.ProgressEntry{Week: 7, Topics: "concurrency"}}
	retriever := &fakeRetriever{results: []store.RetrievalResult{
		{Item: store.ContentItem{Title: "A", Text: "alpha"}},
		{Item: store.ContentItem{Title: "B", Text: "beta"}},
	}}
	completer := &fakeCompleter{text: "weekly insights"}

	g, err := NewGenerator(ps, retriever, completer, 5, log.NewNop())
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	res, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Week != 7 {
		t.Errorf("week = %d, want 7 (from latest progress)", res.Week)
	}
	if res.Text != "weekly insights" || res.Fallback {
		t.Errorf("result = %+v, want completion text and no fallback flag", res)
	}
	if retriever.gotQ != "learning digest for week 7 topics" {
		t.Errorf("retrieval query = %q", retriever.gotQ)
	}
	if retriever.gotK != 5 {
		t.Errorf("retrieval k = %d, want 5", retriever.gotK)
	}
	if ps.savedWeek != 7 || ps.savedText != "weekly insights" {
		t.Errorf("saved (%d, %q), want (7, %q)", ps.savedWeek, ps.savedText, "weekly insights")
	}
	if completer.calls != 1 {
		t.Errorf("completer called %d times, want 1", completer.calls)
	}
	if !strings.Contains(completer.got.User, "- **A**: alpha...") {
		t.Errorf("prompt missing snippet: %q", completer.got.User)
	}
}

func TestGenerate_DefaultWeekWithoutProgress(t *testing.T) {
	ps := &fakeProgressStore{latest: nil}
	retriever := &fakeRetriever{results: []store.RetrievalResult{
		{Item: store.ContentItem{Title: "A", Text: "alpha"}},
	}}
	completer := &fakeCompleter{text: "digest"}

	g, err := NewGenerator(ps, retriever, completer, 3, log.NewNop())
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	res, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Week != 1 {
		t.Errorf("week = %d, want default 1", res.Week)
	}
}

func TestGenerate_FallbackSkipsCompleter(t *testing.T) {
	// Empty retrieval persists the fallback digest and never calls the model.
	ps := &fakeProgressStore{latest: &store.ProgressEntry{Week: 4}}
	retriever := &fakeRetriever{results: nil}
	completer := &fakeCompleter{text: "should not be used"}

	g, err := NewGenerator(ps, retriever, completer, 5, log.NewNop())
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	res, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !res.Fallback {
		t.Error("Fallback flag not set")
	}
	if res.Text != "No content found to generate digest for week 4." {
		t.Errorf("fallback text = %q", res.Text)
	}
	if completer.calls != 0 {
		t.Errorf("completer called %d times on empty retrieval, want 0", completer.calls)
	}
	if ps.saveCalls != 1 || ps.savedText != res.Text {
		t.Errorf("fallback not persisted: calls=%d text=%q", ps.saveCalls, ps.savedText)
	}
}

func TestGenerate_Errors(t *testing.T) {
	wantErr := errors.New("boom")

	tests := []struct {
		name      string
		ps        *fakeProgressStore
		retriever *fakeRetriever
		completer *fakeCompleter
	}{
		{
			name:      "progress lookup fails",
			ps:        &fakeProgressStore{latestErr: wantErr},
			retriever: &fakeRetriever{},
			completer: &fakeCompleter{},
		},
		{
			name:      "retrieval fails",
			ps:        &fakeProgressStore{},
			retriever: &fakeRetriever{err: wantErr},
			completer: &fakeCompleter{},
		},
		{
			name:      "completion fails",
			ps:        &fakeProgressStore{},
			retriever: &fakeRetriever{results: []store.RetrievalResult{{Item: store.ContentItem{Title: "A"}}}},
			completer: &fakeCompleter{err: wantErr},
		},
		{
			name:      "save fails",
			ps:        &fakeProgressStore{saveErr: wantErr},
			retriever: &fakeRetriever{results: []store.RetrievalResult{{Item: store.ContentItem{Title: "A"}}}},
			completer: &fakeCompleter{text: "digest"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGenerator(tt.ps, tt.retriever, tt.completer, 5, log.NewNop())
			if err != nil {
				t.Fatalf("NewGenerator: %v", err)
			}
			if _, err := g.Generate(context.Background()); !errors.Is(err, wantErr) {
				t.Errorf("Generate error = %v, want wrapped %v", err, wantErr)
			}
		})
	}
}

func TestNewGenerator_Validation(t *testing.T) {
	ps := &fakeProgressStore{}
	retriever := &fakeRetriever{}
	completer := &fakeCompleter{}

	if _, err := NewGenerator(nil, retriever, completer, 5, log.NewNop()); err == nil {
		t.Error("nil store accepted")
	}
	if _, err := NewGenerator(ps, nil, completer, 5, log.NewNop()); err == nil {
		t.Error("nil retriever accepted")
	}
	if _, err := NewGenerator(ps, retriever, nil, 5, log.NewNop()); err == nil {
		t.Error("nil completer accepted")
	}
	if _, err := NewGenerator(ps, retriever, completer, 0, log.NewNop()); err == nil {
		t.Error("zero topK accepted")
	}
}
