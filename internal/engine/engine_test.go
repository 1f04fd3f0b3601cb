package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/yepmem/core/internal/config"
)

func newTestRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}

	abs := filepath.Join(root, "a.go")
	if err := os.WriteFile(abs, []byte("package a\n\nfunc Hello() string {\n\treturn \"hi\"\n}\n"), 0644); err != nil {
		t.Fatalf("write a.go: %v", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if _, err := wt.Add("."); err != nil {
		t.Fatalf("add: %v", err)
	}
	sig := &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()}
	if _, err := wt.Commit("initial", &git.CommitOptions{Author: sig}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return root
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	root := newTestRepo(t)
	cfg := config.NewConfig()
	e, err := Open(root, cfg)
	if err != nil {
		t.Fatalf("open engine: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestOpenWiresEveryCollaborator(t *testing.T) {
	e := newTestEngine(t)
	if e.st == nil || e.embedder == nil || e.retrieval == nil || e.ranker == nil ||
		e.pageRank == nil || e.insights == nil || e.recommend == nil ||
		e.snapshots == nil || e.indexer == nil {
		t.Fatalf("expected every collaborator to be wired, got %+v", e)
	}
}

func TestRunCodeIndexIndexesAndSnapshots(t *testing.T) {
	e := newTestEngine(t)
	result, err := e.RunCodeIndex(context.Background())
	if err != nil {
		t.Fatalf("run code index: %v", err)
	}
	if result.SymbolsIndexed == 0 {
		t.Fatalf("expected at least one symbol indexed, got %+v", result)
	}
	if result.Snapshot == nil {
		t.Fatalf("expected a captured snapshot")
	}
}

func TestRecommendationsRunsAfterIndex(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.RunCodeIndex(context.Background()); err != nil {
		t.Fatalf("run code index: %v", err)
	}
	if _, err := e.Recommendations(context.Background()); err != nil {
		t.Fatalf("recommendations: %v", err)
	}
}

func TestAnalyzeCoChangeDefaultsDaysBack(t *testing.T) {
	e := newTestEngine(t)
	pairs, err := e.AnalyzeCoChange(context.Background(), 0, 0, 0)
	if err != nil {
		t.Fatalf("analyze co-change: %v", err)
	}
	if pairs != nil && len(pairs) != 0 {
		t.Fatalf("expected no pairs from a single-commit repo, got %+v", pairs)
	}
}
