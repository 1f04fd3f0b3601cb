package graph

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

func seedRow(t *testing.T, s *store.Store, id, symbol, path string, calls, imports []string) {
	t.Helper()
	row := &store.CodeSymbolRow{
		ID:            id,
		Path:          path,
		Symbol:        symbol,
		SymbolType:    "function",
		Language:      "go",
		Body:          "func " + symbol + "() {}",
		Summary:       symbol,
		EmbeddingText: symbol,
		LastModified:  time.Now(),
		Calls:         calls,
		Imports:       imports,
	}
	if err := s.AddCodeSymbols(context.Background(), []*store.CodeSymbolRow{row}); err != nil {
		t.Fatalf("seed %s: %v", symbol, err)
	}
}

func TestBuildCallerCalleeCounts(t *testing.T) {
	s := newTestStore(t)
	seedRow(t, s, "id1", "Caller", "a.go", []string{"Callee"}, nil)
	seedRow(t, s, "id2", "Callee", "b.go", nil, nil)

	g, err := Build(context.Background(), s)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if g.CallerCount("Callee") != 1 {
		t.Fatalf("expected Callee to have 1 caller, got %d", g.CallerCount("Callee"))
	}
	if g.CalleeCount("Caller") != 1 {
		t.Fatalf("expected Caller to call 1 symbol, got %d", g.CalleeCount("Caller"))
	}
}

func TestBuildImporterCounts(t *testing.T) {
	s := newTestStore(t)
	seedRow(t, s, "id1", "Helper", "helper.go", nil, nil)
	seedRow(t, s, "id2", "User", "user.go", nil, []string{"Helper:pkg/helper"})

	g, err := Build(context.Background(), s)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if g.ImporterCount("Helper") != 1 {
		t.Fatalf("expected Helper to have 1 importer, got %d", g.ImporterCount("Helper"))
	}
}

func TestEdgesDropsUnresolvedCalls(t *testing.T) {
	s := newTestStore(t)
	seedRow(t, s, "id1", "Caller", "a.go", []string{"Nonexistent"}, nil)

	g, err := Build(context.Background(), s)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	edges := g.Edges()
	if len(edges["Caller"]) != 0 {
		t.Fatalf("expected unresolved call to be dropped, got %v", edges["Caller"])
	}
}

func TestFindCalleesResolvesRows(t *testing.T) {
	s := newTestStore(t)
	seedRow(t, s, "id1", "Caller", "a.go", []string{"Callee"}, nil)
	seedRow(t, s, "id2", "Callee", "b.go", nil, nil)

	g, err := Build(context.Background(), s)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	rows, err := g.FindCallees(context.Background(), "Caller")
	if err != nil {
		t.Fatalf("find callees: %v", err)
	}
	if len(rows) != 1 || rows[0].Symbol != "Callee" {
		t.Fatalf("expected [Callee], got %+v", rows)
	}
}

func TestFindSymbolByName(t *testing.T) {
	s := newTestStore(t)
	seedRow(t, s, "id1", "Widget.Rename", "widget.go", nil, nil)

	g, err := Build(context.Background(), s)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	row, err := g.FindSymbolByName(context.Background(), "Widget.Rename")
	if err != nil {
		t.Fatalf("find by name: %v", err)
	}
	if row == nil || row.ID != "id1" {
		t.Fatalf("expected id1, got %+v", row)
	}

	missing, err := g.FindSymbolByName(context.Background(), "Nope")
	if err != nil {
		t.Fatalf("find by name missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing symbol, got %+v", missing)
	}
}

func TestNewPageRankCacheReflectsGraph(t *testing.T) {
	s := newTestStore(t)
	seedRow(t, s, "id1", "A", "a.go", []string{"B"}, nil)
	seedRow(t, s, "id2", "B", "b.go", nil, nil)

	g, err := Build(context.Background(), s)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	cache := g.NewPageRankCache()
	scores := cache.Scores()
	if len(scores) != 2 {
		t.Fatalf("expected 2 scored nodes, got %d", len(scores))
	}
}
