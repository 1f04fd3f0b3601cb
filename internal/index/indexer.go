// Package index is the code-indexing orchestrator (C15): it walks the
// repository tree, restricts to the files changed since the last run
// when a watermark commit is available, and parses/chunks/embeds/
// upserts them in bounded batches behind the store's exclusive sync
// lock, finishing with a metrics snapshot and cache invalidation.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"golang.org/x/sync/errgroup"

	"github.com/yepmem/core/internal/chunk"
	"github.com/yepmem/core/internal/embed"
	coreerrors "github.com/yepmem/core/internal/errors"
	"github.com/yepmem/core/internal/insight"
	"github.com/yepmem/core/internal/parse"
	"github.com/yepmem/core/internal/scanner"
	"github.com/yepmem/core/internal/snapshot"
	"github.com/yepmem/core/internal/store"
)

// batchSize is the fixed path-batch width for parse/embed/upsert.
const batchSize = 20

// batchConcurrency bounds how many batches run their embed/upsert
// phase at once.
const batchConcurrency = 4

// ignoreDirs are directory names excluded from the walk regardless of
// depth, beyond whatever the scanner's own defaults already catch.
var ignoreDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	".next":        true,
	"dist":         true,
	"build":        true,
	store.DataDirName: true,
	".entire":      true,
	"coverage":     true,
	".turbo":       true,
	".cache":       true,
}

// codeExtensions are the only file extensions the indexer keeps.
var codeExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".py": true, ".go": true, ".rs": true,
}

// State is a step of the indexer's state machine.
type State string

const (
	StateIdle         State = "idle"
	StateLocking      State = "locking"
	StateScanning     State = "scanning"
	StateIndexing     State = "indexing"
	StateFinalizing   State = "finalizing"
	StateSnapshotting State = "snapshotting"
)

// Invalidator is satisfied by any process-local cache the indexer must
// drop once a run commits new rows: internal/graph.PageRankCache and
// internal/insight.Engine both implement it.
type Invalidator interface {
	Invalidate()
}

// Result summarizes one completed (possibly partially-failed) run.
type Result struct {
	PreviousCommit string
	CurrentCommit  string
	FilesWalked    int
	FilesIndexed   int
	SymbolsIndexed int
	BatchFailures  int
	Incremental    bool
	Duration       time.Duration
	Snapshot       *store.CodeMetricRow
}

// Indexer owns one indexing run's collaborators: the store (which
// supplies the sync lock), an embedder, the insights engine (used both
// to compute the post-run snapshot and as an Invalidator), an optional
// PageRank cache, and any other process-local caches (e.g. the
// recommendations cache) that need to drop their result on every
// committed run.
type Indexer struct {
	st        *store.Store
	repoRoot  string
	embedder  embed.Embedder
	insights  *insight.Engine
	snapshots *snapshot.Store
	pageRank  Invalidator
	extra     []Invalidator
	scan      *scanner.Scanner
	now       func() time.Time

	mu    sync.Mutex
	state State
}

// New builds an Indexer rooted at repoRoot. pageRank may be nil when no
// PageRank cache is wired yet (its Invalidate is simply skipped). extra
// lists any further caches (e.g. internal/recommend's recommendation
// cache) to invalidate alongside insights and pageRank on every run;
// nil entries are skipped.
func New(st *store.Store, repoRoot string, embedder embed.Embedder, insights *insight.Engine, pageRank Invalidator, extra ...Invalidator) (*Indexer, error) {
	sc, err := scanner.New()
	if err != nil {
		return nil, fmt.Errorf("create scanner: %w", err)
	}
	return &Indexer{
		st:        st,
		repoRoot:  repoRoot,
		embedder:  embedder,
		insights:  insights,
		snapshots: snapshot.NewStore(st),
		pageRank:  pageRank,
		extra:     extra,
		scan:      sc,
		now:       time.Now,
		state:     StateIdle,
	}, nil
}

// State returns the indexer's current state-machine step.
func (idx *Indexer) State() State {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.state
}

func (idx *Indexer) setState(s State) {
	idx.mu.Lock()
	idx.state = s
	idx.mu.Unlock()
}

// Run executes one complete indexing pass: lock, scan, index in
// batches, finalize, snapshot, unlock. A batch failure is logged and
// does not fail the run; a lock-acquisition failure, a failure to load
// or save the store config, a failed walk, a failed insights
// computation or a failed snapshot write does.
func (idx *Indexer) Run(ctx context.Context) (result *Result, err error) {
	start := idx.now()

	idx.setState(StateLocking)
	acquired, lockErr := idx.st.Lock()
	if lockErr != nil {
		idx.setState(StateIdle)
		return nil, fmt.Errorf("acquire sync lock: %w", lockErr)
	}
	if !acquired {
		idx.setState(StateIdle)
		return nil, fmt.Errorf("index run: sync lock held by another process")
	}
	defer func() {
		idx.setState(StateIdle)
		if unlockErr := idx.st.Unlock(); unlockErr != nil && err == nil {
			err = fmt.Errorf("release sync lock: %w", unlockErr)
		}
	}()

	idx.setState(StateScanning)
	cfg, err := store.LoadConfig(idx.st.Dir())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	repo, openErr := git.PlainOpen(idx.repoRoot)
	currentCommit := ""
	if openErr == nil {
		if head, headErr := repo.Head(); headErr == nil {
			currentCommit = head.Hash().String()
		} else {
			slog.Warn("index: could not resolve HEAD, falling back to a full scan", "error", headErr)
		}
	} else {
		slog.Warn("index: not a git repository, git metadata and incremental scope are unavailable", "error", openErr)
	}

	paths, err := idx.walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("walk repository tree: %w", err)
	}

	incremental := false
	if repo != nil && currentCommit != "" && cfg.LastCodeIndexCommit != "" && cfg.LastCodeIndexCommit != currentCommit {
		changed, diffErr := changedPaths(repo, cfg.LastCodeIndexCommit, currentCommit)
		if diffErr != nil {
			slog.Warn("index: git diff against last indexed commit failed, falling back to a full scan", "error", diffErr)
		} else {
			paths = intersect(paths, changed)
			incremental = true
		}
	}

	idx.setState(StateIndexing)
	var symbolsIndexed int64
	var filesIndexed int64
	var batchFailures int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for _, batch := range chunkPaths(paths, batchSize) {
		batch := batch
		g.Go(func() error {
			n, symN, batchErr := idx.runBatch(gctx, batch, repo, currentCommit)
			if batchErr != nil {
				atomic.AddInt64(&batchFailures, 1)
				slog.Error("index: batch failed, continuing with remaining batches", "paths", batch, "error", batchErr)
				return nil
			}
			atomic.AddInt64(&filesIndexed, int64(n))
			atomic.AddInt64(&symbolsIndexed, int64(symN))
			return nil
		})
	}
	_ = g.Wait()

	idx.setState(StateFinalizing)
	if createErr := idx.st.SQL.CreateIndex("code_symbols", "embeddingText"); createErr != nil {
		slog.Warn("index: create embeddingText index failed", "error", createErr)
	}
	previousCommit := cfg.LastCodeIndexCommit
	if currentCommit != "" {
		cfg.LastCodeIndexCommit = currentCommit
		if saveErr := cfg.Save(idx.st.Dir()); saveErr != nil {
			return nil, fmt.Errorf("persist lastCodeIndexCommit: %w", saveErr)
		}
	}

	idx.setState(StateSnapshotting)
	idx.insights.Invalidate()
	if idx.pageRank != nil {
		idx.pageRank.Invalidate()
	}
	for _, inv := range idx.extra {
		if inv != nil {
			inv.Invalidate()
		}
	}
	ins, insErr := idx.insights.Compute(ctx)
	if insErr != nil {
		return nil, fmt.Errorf("compute insights for snapshot: %w", insErr)
	}
	snap, snapErr := idx.snapshots.Capture(ctx, ins, currentCommit, idx.now())
	if snapErr != nil {
		return nil, fmt.Errorf("capture metrics snapshot: %w", snapErr)
	}

	return &Result{
		PreviousCommit: previousCommit,
		CurrentCommit:  currentCommit,
		FilesWalked:    len(paths),
		FilesIndexed:   int(filesIndexed),
		SymbolsIndexed: int(symbolsIndexed),
		BatchFailures:  int(batchFailures),
		Incremental:    incremental,
		Duration:       idx.now().Sub(start),
		Snapshot:       snap,
	}, nil
}

// walk discovers every indexable file under repoRoot, filtered to
// codeExtensions and with any dot-prefixed or ignoreDirs directory
// component excluded.
func (idx *Indexer) walk(ctx context.Context) ([]string, error) {
	opts := &scanner.ScanOptions{
		RootDir:          idx.repoRoot,
		RespectGitignore: true,
	}
	results, err := idx.scan.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}

	var paths []string
	for r := range results {
		if r.Error != nil {
			continue
		}
		if r.File == nil || !keepPath(r.File.Path) {
			continue
		}
		paths = append(paths, r.File.Path)
	}
	return paths, nil
}

func keepPath(relPath string) bool {
	if !codeExtensions[strings.ToLower(filepath.Ext(relPath))] {
		return false
	}
	for _, part := range strings.Split(relPath, string(filepath.Separator)) {
		if part == "" {
			continue
		}
		if ignoreDirs[part] {
			return false
		}
		if strings.HasPrefix(part, ".") {
			return false
		}
	}
	return true
}

// runBatch parses, chunks, enriches, and upserts one batch of paths,
// deleting any rows already on file for those paths first. It returns
// the count of files and symbols successfully indexed.
func (idx *Indexer) runBatch(ctx context.Context, paths []string, repo *git.Repository, commit string) (filesIndexed, symbolsIndexed int, err error) {
	parser := parse.NewParser()
	defer parser.Close()

	var chunks []*chunk.CodeChunk
	for _, relPath := range paths {
		absPath := filepath.Join(idx.repoRoot, relPath)
		source, readErr := os.ReadFile(absPath)
		if readErr != nil {
			slog.Warn("index: skip unreadable file", "path", relPath, "error", readErr)
			continue
		}
		symbols, warn := parser.ParseFile(ctx, relPath, source)
		if warn != nil {
			slog.Debug("index: partial parse", "path", relPath, "error", warn)
		}
		if len(symbols) == 0 {
			continue
		}
		info, statErr := os.Stat(absPath)
		lastModified := idx.now()
		if statErr == nil {
			lastModified = info.ModTime()
		}
		language := scanner.DetectLanguage(relPath)
		prov := lookupChurn(repo, relPath)
		for _, sym := range symbols {
			chunks = append(chunks, chunk.BuildCodeChunk(sym, language, commit, lastModified, prov))
		}
		filesIndexed++
	}
	if len(chunks) == 0 {
		return filesIndexed, 0, nil
	}

	anyPaths := make([]any, len(paths))
	for i, p := range paths {
		anyPaths[i] = p
	}
	existing, queryErr := idx.st.SQL.QueryCodeSymbols(ctx, store.In("path", anyPaths), 0)
	if queryErr != nil {
		return 0, 0, fmt.Errorf("query existing rows for batch: %w", queryErr)
	}
	ids := make([]string, len(existing))
	for i, r := range existing {
		ids[i] = r.ID
	}
	if delErr := idx.st.DeleteCodeSymbols(ctx, store.In("path", anyPaths), ids); delErr != nil {
		return 0, 0, fmt.Errorf("delete stale rows for batch: %w", delErr)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.EmbeddingText
	}
	vectors, embedErr := idx.embedder.EmbedBatch(ctx, texts)
	if embedErr != nil {
		return 0, 0, fmt.Errorf("embed batch: %w", embedErr)
	}
	if len(vectors) != len(chunks) {
		return 0, 0, fmt.Errorf("embed batch: expected %d vectors, got %d", len(chunks), len(vectors))
	}

	rows := make([]*store.CodeSymbolRow, len(chunks))
	for i, c := range chunks {
		rows[i] = &store.CodeSymbolRow{
			ID:                c.ID,
			Path:              c.Path,
			Symbol:            c.Symbol,
			SymbolType:        c.SymbolType,
			Language:          c.Language,
			Body:              c.Body,
			Summary:           c.Summary,
			EmbeddingText:     c.EmbeddingText,
			Commit:            c.Commit,
			LastModified:      c.LastModified,
			Calls:             c.Calls,
			Imports:           c.Imports,
			GitChangeCount:    c.GitChangeCount,
			GitAuthorCount:    c.GitAuthorCount,
			GitLastChangeDate: c.GitLastChangeDate,
			Vector:            vectors[i],
		}
	}
	if addErr := idx.st.AddCodeSymbols(ctx, rows); addErr != nil {
		return 0, 0, fmt.Errorf("upsert batch: %w", addErr)
	}
	return filesIndexed, len(rows), nil
}

// lookupChurn resolves a file's commit count and unique-author count
// via a per-file history walk, the go-git equivalent of
// `git log -- <path>`; renames are not followed. A nil repo or a failure
// to start the walk degrades to a zero GitProvenance rather than failing
// the batch; a failure partway through keeps the counts gathered so far.
func lookupChurn(repo *git.Repository, relPath string) chunk.GitProvenance {
	if repo == nil {
		return chunk.GitProvenance{}
	}
	commitIter, err := repo.Log(&git.LogOptions{FileName: &relPath})
	if err != nil {
		return chunk.GitProvenance{}
	}
	authors := make(map[string]bool)
	count := 0
	var last time.Time
	_ = commitIter.ForEach(func(c *object.Commit) error {
		count++
		authors[c.Author.Email] = true
		if c.Author.When.After(last) {
			last = c.Author.When
		}
		return nil
	})
	return chunk.GitProvenance{ChangeCount: count, AuthorCount: len(authors), LastChangeDate: last}
}

// changedPaths diffs the trees of fromCommit and toCommit and returns
// every path touched by an add, modify, delete, or rename, the go-git
// equivalent of `git diff --name-only A HEAD`.
func changedPaths(repo *git.Repository, fromCommit, toCommit string) ([]string, error) {
	from, err := repo.CommitObject(plumbing.NewHash(fromCommit))
	if err != nil {
		return nil, coreerrors.GitError("resolve last indexed commit", err)
	}
	to, err := repo.CommitObject(plumbing.NewHash(toCommit))
	if err != nil {
		return nil, coreerrors.GitError("resolve current commit", err)
	}
	fromTree, err := from.Tree()
	if err != nil {
		return nil, coreerrors.GitError("read last indexed tree", err)
	}
	toTree, err := to.Tree()
	if err != nil {
		return nil, coreerrors.GitError("read current tree", err)
	}
	changes, err := object.DiffTree(fromTree, toTree)
	if err != nil {
		return nil, coreerrors.GitError("diff trees", err)
	}

	seen := make(map[string]bool)
	var out []string
	for _, c := range changes {
		for _, p := range []string{c.From.Name, c.To.Name} {
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func intersect(paths, changed []string) []string {
	changedSet := make(map[string]bool, len(changed))
	for _, c := range changed {
		changedSet[c] = true
	}
	var out []string
	for _, p := range paths {
		if changedSet[p] {
			out = append(out, p)
		}
	}
	return out
}

func chunkPaths(paths []string, size int) [][]string {
	var batches [][]string
	for i := 0; i < len(paths); i += size {
		end := i + size
		if end > len(paths) {
			end = len(paths)
		}
		batches = append(batches, paths[i:end])
	}
	return batches
}
