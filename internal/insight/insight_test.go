package insight

import (
	"context"
	"fmt"
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

func seedRow(t *testing.T, s *store.Store, id, symbol, language, symbolType, path, body string, calls, imports []string, vector []float32) {
	t.Helper()
	row := &store.CodeSymbolRow{
		ID:            id,
		Path:          path,
		Symbol:        symbol,
		SymbolType:    symbolType,
		Language:      language,
		Body:          body,
		Summary:       symbol,
		EmbeddingText: symbol,
		LastModified:  time.Now(),
		Calls:         calls,
		Imports:       imports,
		Vector:        vector,
	}
	if err := s.AddCodeSymbols(context.Background(), []*store.CodeSymbolRow{row}); err != nil {
		t.Fatalf("seed %s: %v", symbol, err)
	}
}

func TestComputeDistributionsAndDeadCode(t *testing.T) {
	s := newTestStore(t)
	seedRow(t, s, "id1", "Used", "go", "function", "a.go", "line1\nline2", nil, nil, []float32{1, 0, 0, 0})
	seedRow(t, s, "id2", "Caller", "go", "function", "a.go", "line1", []string{"Used"}, nil, []float32{0, 1, 0, 0})
	seedRow(t, s, "id3", "Unreachable", "python", "function", "b.py", "line1", nil, nil, []float32{0, 0, 1, 0})

	eng := NewEngine(s, nil)
	ins, err := eng.Compute(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if len(ins.LanguageDistribution) != 2 {
		t.Fatalf("expected 2 languages, got %+v", ins.LanguageDistribution)
	}
	foundDead := false
	for _, d := range ins.DeadCode {
		if d == "Unreachable" {
			foundDead = true
		}
	}
	if !foundDead {
		t.Fatalf("expected Unreachable in dead code, got %+v", ins.DeadCode)
	}
	for _, d := range ins.DeadCode {
		if d == "Used" {
			t.Fatalf("Used has a caller, should not be dead code")
		}
	}
}

func TestComputeAvgSymbolsPerFile(t *testing.T) {
	s := newTestStore(t)
	seedRow(t, s, "id1", "A", "go", "function", "a.go", "x", nil, nil, nil)
	seedRow(t, s, "id2", "B", "go", "function", "a.go", "x", nil, nil, nil)
	seedRow(t, s, "id3", "C", "go", "function", "b.go", "x", nil, nil, nil)

	eng := NewEngine(s, nil)
	ins, err := eng.Compute(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if ins.AvgSymbolsPerFile != 1.5 {
		t.Fatalf("expected 1.5 avg symbols per file, got %v", ins.AvgSymbolsPerFile)
	}
}

func TestComputeDocumentationCoverageAndComplexity(t *testing.T) {
	s := newTestStore(t)
	seedRow(t, s, "id1", "Documented", "go", "function", "a.go", "if x {}", nil, nil, nil)
	s.SQL.AddCodeSymbols(context.Background(), []*store.CodeSymbolRow{{
		ID: "id2", Path: "b.go", Symbol: "Undocumented", SymbolType: "function",
		Language: "go", Body: "x", Summary: "", EmbeddingText: "Undocumented", LastModified: time.Now(),
	}})

	eng := NewEngine(s, nil)
	ins, err := eng.Compute(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if ins.DocumentationCoverage != 0.5 {
		t.Fatalf("expected 0.5 documentation coverage (1 of 2 documented), got %v", ins.DocumentationCoverage)
	}
	if ins.AvgComplexity <= 0 {
		t.Fatalf("expected a positive average complexity, got %v", ins.AvgComplexity)
	}
}

func TestComputeGodSymbolsFlagsLargeHighlyConnected(t *testing.T) {
	s := newTestStore(t)
	var bigBody string
	for i := 0; i < 200; i++ {
		bigBody += "line\n"
	}
	var calls []string
	for i := 0; i < 20; i++ {
		calls = append(calls, fmt.Sprintf("Callee%d", i))
	}
	seedRow(t, s, "id1", "God", "go", "function", "a.go", bigBody, calls, nil, nil)
	for i := 0; i < 20; i++ {
		seedRow(t, s, fmt.Sprintf("id%d", i+2), fmt.Sprintf("Callee%d", i), "go", "function", "b.go", "x", nil, nil, nil)
	}

	eng := NewEngine(s, nil)
	ins, err := eng.Compute(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	found := false
	for _, g := range ins.GodSymbols {
		if g == "God" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected God to be flagged as a god symbol, got %+v", ins.GodSymbols)
	}
}

func TestComputeDuplicateClusters(t *testing.T) {
	// The vectors below are 8-dimensional, wider than newTestStore's 4.
	s, err := store.Open(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	body := "l1\nl2\nl3\nl4\nl5"
	seedRow(t, s, "id1", "A", "go", "function", "a.go", body, nil, nil, []float32{1, 2, 3, 4, 5, 6, 7, 8})
	seedRow(t, s, "id2", "B", "go", "function", "b.go", body, nil, nil, []float32{1.001, 2.001, 3.001, 4.001, 5.001, 6.001, 7.001, 8.001})
	seedRow(t, s, "id3", "C", "go", "function", "c.go", body, nil, nil, []float32{-3, 9, -1, 2, 0, -6, 4, 1})

	eng := NewEngine(s, nil)
	ins, err := eng.Compute(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(ins.DuplicateClusters) != 1 {
		t.Fatalf("expected 1 duplicate cluster, got %+v", ins.DuplicateClusters)
	}
}

func TestComputeCachesWithinTTL(t *testing.T) {
	s := newTestStore(t)
	seedRow(t, s, "id1", "A", "go", "function", "a.go", "x", nil, nil, nil)

	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	eng := NewEngine(s, func() time.Time { return fixed })

	first, err := eng.Compute(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	seedRow(t, s, "id2", "B", "go", "function", "b.go", "x", nil, nil, nil)
	second, err := eng.Compute(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(second.LanguageDistribution) != len(first.LanguageDistribution) {
		t.Fatalf("expected cached result to be served, got a recompute")
	}
}

func TestComputeInvalidateForcesRecompute(t *testing.T) {
	s := newTestStore(t)
	seedRow(t, s, "id1", "A", "go", "function", "a.go", "x", nil, nil, nil)

	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	eng := NewEngine(s, func() time.Time { return fixed })

	if _, err := eng.Compute(context.Background()); err != nil {
		t.Fatalf("compute: %v", err)
	}

	seedRow(t, s, "id2", "B", "python", "function", "b.py", "x", nil, nil, nil)
	eng.Invalidate()
	second, err := eng.Compute(context.Background())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(second.LanguageDistribution) != 2 {
		t.Fatalf("expected recompute to see both languages, got %+v", second.LanguageDistribution)
	}
}
