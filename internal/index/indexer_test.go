package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/yepmem/core/internal/embed"
	"github.com/yepmem/core/internal/insight"
	"github.com/yepmem/core/internal/store"
)

func newTestRepo(t *testing.T) (root string, repo *git.Repository) {
	t.Helper()
	root = t.TempDir()
	repo, err := git.PlainInit(root, false)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	return root, repo
}

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	abs := filepath.Join(root, relPath)
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", relPath, err)
	}
}

func commitAll(t *testing.T, repo *git.Repository, message string) string {
	t.Helper()
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if _, err := wt.Add("."); err != nil {
		t.Fatalf("add: %v", err)
	}
	sig := &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return hash.String()
}

func newTestIndexer(t *testing.T, root string) (*Indexer, *store.Store) {
	t.Helper()
	st, err := store.Open(root, embed.StaticDimensions)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ins := insight.NewEngine(st, nil)
	idx, err := New(st, root, embed.NewStaticEmbedder(), ins, nil)
	if err != nil {
		t.Fatalf("new indexer: %v", err)
	}
	return idx, st
}

func TestRunIndexesGoFilesAndCapturesSnapshot(t *testing.T) {
	root, repo := newTestRepo(t)
	writeFile(t, root, "a.go", "package a\n\nfunc Hello() string {\n\treturn \"hi\"\n}\n")
	commitAll(t, repo, "initial")

	idx, st := newTestIndexer(t, root)
	result, err := idx.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.FilesIndexed == 0 {
		t.Fatalf("expected at least one file indexed, got %+v", result)
	}
	if result.SymbolsIndexed == 0 {
		t.Fatalf("expected at least one symbol indexed, got %+v", result)
	}
	if result.Snapshot == nil {
		t.Fatalf("expected a captured snapshot")
	}
	if idx.State() != StateIdle {
		t.Fatalf("expected indexer to return to idle, got %v", idx.State())
	}

	rows, err := st.SQL.QueryCodeSymbols(context.Background(), nil, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) == 0 {
		t.Fatalf("expected rows persisted in store")
	}
}

func TestRunSkipsIgnoredDirsAndNonCodeExtensions(t *testing.T) {
	root, repo := newTestRepo(t)
	writeFile(t, root, "a.go", "package a\n\nfunc A() {}\n")
	writeFile(t, root, "node_modules/dep/index.js", "function dep() {}\n")
	writeFile(t, root, "README.md", "# hi\n")
	commitAll(t, repo, "initial")

	idx, _ := newTestIndexer(t, root)
	paths, err := idx.walk(context.Background())
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	for _, p := range paths {
		if p == "README.md" {
			t.Fatalf("README.md should be excluded (not a code extension)")
		}
		if filepath.Dir(p) == "node_modules/dep" {
			t.Fatalf("node_modules should be excluded, got %s", p)
		}
	}
	found := false
	for _, p := range paths {
		if p == "a.go" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a.go to be walked, got %+v", paths)
	}
}

func TestRunSecondPassIsIncrementalAndReindexesOnlyChangedFile(t *testing.T) {
	root, repo := newTestRepo(t)
	writeFile(t, root, "a.go", "package a\n\nfunc A() {}\n")
	writeFile(t, root, "b.go", "package a\n\nfunc B() {}\n")
	commitAll(t, repo, "initial")

	idx, st := newTestIndexer(t, root)
	if _, err := idx.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	writeFile(t, root, "a.go", "package a\n\nfunc A() {}\n\nfunc AddedLater() {}\n")
	commitAll(t, repo, "second")

	result, err := idx.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !result.Incremental {
		t.Fatalf("expected second run to be incremental")
	}
	if result.FilesIndexed != 1 {
		t.Fatalf("expected only the changed file to be reindexed, got %+v", result)
	}

	rows, err := st.SQL.QueryCodeSymbols(context.Background(), store.Eq("path", "b.go"), 0)
	if err != nil {
		t.Fatalf("query b.go: %v", err)
	}
	if len(rows) == 0 {
		t.Fatalf("expected b.go's rows from the first run to still be present")
	}
}

func TestRunFailsFastWhenLockAlreadyHeld(t *testing.T) {
	root, repo := newTestRepo(t)
	writeFile(t, root, "a.go", "package a\n\nfunc A() {}\n")
	commitAll(t, repo, "initial")

	idx, st := newTestIndexer(t, root)
	acquired, err := st.Lock()
	if err != nil || !acquired {
		t.Fatalf("expected to acquire lock directly, got %v %v", acquired, err)
	}
	defer st.Unlock()

	if _, err := idx.Run(context.Background()); err == nil {
		t.Fatalf("expected Run to fail fast while the lock is held")
	}
}
