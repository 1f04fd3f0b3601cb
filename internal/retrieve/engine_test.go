package retrieve

import (
	"context"
	"testing"
	"time"

	"github.com/yepmem/core/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedSymbol(t *testing.T, s *store.Store, id, symbol, language, path string, vector []float32, body string) {
	t.Helper()
	row := &store.CodeSymbolRow{
		ID:            id,
		Path:          path,
		Symbol:        symbol,
		SymbolType:    "function",
		Language:      language,
		Body:          body,
		Summary:       body,
		EmbeddingText: body,
		LastModified:  time.Now(),
		Vector:        vector,
	}
	if err := s.AddCodeSymbols(context.Background(), []*store.CodeSymbolRow{row}); err != nil {
		t.Fatalf("seed symbol %s: %v", id, err)
	}
}

func TestSearchSymbolsExactNameLegWins(t *testing.T) {
	s := newTestStore(t)
	seedSymbol(t, s, "id1", "Widget.Rename", "go", "widget.go", []float32{1, 0, 0, 0}, "renames a widget given a new name")
	seedSymbol(t, s, "id2", "Other.Unrelated", "go", "other.go", []float32{0, 1, 0, 0}, "totally unrelated helper function")

	eng := NewEngine(s, nil)
	hits, err := eng.SearchSymbols(context.Background(), "Rename", nil, 10, Filter{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].Row.ID != "id1" {
		t.Fatalf("expected exact-name match id1 to rank first, got %s", hits[0].Row.ID)
	}
}

func TestSearchSymbolsVectorOnly(t *testing.T) {
	s := newTestStore(t)
	seedSymbol(t, s, "id1", "Alpha", "go", "a.go", []float32{1, 0, 0, 0}, "alpha body")
	seedSymbol(t, s, "id2", "Beta", "go", "b.go", []float32{0, 1, 0, 0}, "beta body")

	eng := NewEngine(s, nil)
	hits, err := eng.SearchSymbols(context.Background(), "", []float32{1, 0, 0, 0}, 5, Filter{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) == 0 || hits[0].Row.ID != "id1" {
		t.Fatalf("expected id1 to rank first by vector similarity, got %+v", hits)
	}
}

func TestSearchSymbolsFilterExcludesNonMatchingLanguage(t *testing.T) {
	s := newTestStore(t)
	seedSymbol(t, s, "id1", "Handler", "go", "handler.go", []float32{1, 0, 0, 0}, "handles requests")
	seedSymbol(t, s, "id2", "Handler", "python", "handler.py", []float32{1, 0, 0, 0}, "handles requests")

	eng := NewEngine(s, nil)
	hits, err := eng.SearchSymbols(context.Background(), "Handler", []float32{1, 0, 0, 0}, 10, Filter{Language: "python"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, h := range hits {
		if h.Row.Language != "python" {
			t.Fatalf("expected only python rows, got %s (%s)", h.Row.Language, h.Row.ID)
		}
	}
	found := false
	for _, h := range hits {
		if h.Row.ID == "id2" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected id2 (python) to be present")
	}
}

func TestSearchSymbolsEmptyQueryAndVectorReturnsNoHits(t *testing.T) {
	s := newTestStore(t)
	seedSymbol(t, s, "id1", "Alpha", "go", "a.go", []float32{1, 0, 0, 0}, "alpha body")

	eng := NewEngine(s, nil)
	hits, err := eng.SearchSymbols(context.Background(), "", nil, 10, Filter{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits with no query and no vector, got %d", len(hits))
	}
}

func TestSearchSolutionsVectorAndFTS(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	row := &store.SolutionRow{
		ID:            "cp1:0:0",
		CheckpointID:  "cp1",
		Prompt:        "how do I rename a widget?",
		Response:      "use Widget.Rename",
		EmbeddingText: "Question: how do I rename a widget?\nAnswer: use Widget.Rename",
		Summary:       "how do I rename a widget?",
		Timestamp:     time.Now(),
		Vector:        []float32{1, 0, 0, 0},
	}
	if err := s.AddSolutions(ctx, []*store.SolutionRow{row}); err != nil {
		t.Fatalf("seed solution: %v", err)
	}

	eng := NewEngine(s, nil)
	hits, err := eng.SearchSolutions(ctx, "rename widget", []float32{1, 0, 0, 0}, 5, false)
	if err != nil {
		t.Fatalf("search solutions: %v", err)
	}
	if len(hits) == 0 || hits[0].Row.ID != "cp1:0:0" {
		t.Fatalf("expected solution hit, got %+v", hits)
	}
}
