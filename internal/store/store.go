package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DataDirName is the per-repository directory holding the store, the
// sync lock, and config.json.
const DataDirName = ".yep-mem"

// Config is the contents of .yep-mem/config.json: the embedder identity
// and indexing watermarks needed to decide whether a reindex is
// required and how far the last one got.
type Config struct {
	Provider            string `json:"provider"`
	Model               string `json:"model"`
	LastIndexedCommit   string `json:"lastIndexedCommit"`
	LastCodeIndexCommit string `json:"lastCodeIndexCommit"`
	Dimensions          int    `json:"dimensions"`
}

// LoadConfig reads config.json from dir, returning a zero-value Config
// (not an error) if the file doesn't exist yet.
func LoadConfig(dir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config.json: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config.json: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg to <dir>/config.json.
func (c *Config) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config.json: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Store is the embedded, per-repository persistence layer: one SQLite
// connection for typed columns, one HNSW vector index and one Bleve
// full-text index per vector-bearing table (code_symbols, solutions).
// A single Store instance is shared process-wide; writers serialize
// through Lock/Unlock.
type Store struct {
	dir string

	SQL *SQLiteStore

	CodeSymbolVectors VectorStore
	SolutionVectors   VectorStore

	CodeSymbolFTS FTSIndex
	SolutionFTS   FTSIndex

	lock *SyncLock
}

// Open creates-if-absent and opens the store rooted at <repoRoot>/.yep-mem.
func Open(repoRoot string, dimensions int) (*Store, error) {
	dir := filepath.Join(repoRoot, DataDirName)
	storeDir := filepath.Join(dir, "store")

	sql, err := OpenSQLiteStore(filepath.Join(storeDir, "data.sqlite"))
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	vecCfg := DefaultVectorStoreConfig(dimensions)

	codeVectors, err := NewHNSWVectorStore(vecCfg)
	if err != nil {
		return nil, fmt.Errorf("create code_symbols vector store: %w", err)
	}
	codeVectorPath := filepath.Join(storeDir, "code_symbols.hnsw")
	if _, statErr := os.Stat(codeVectorPath); statErr == nil {
		if err := codeVectors.Load(codeVectorPath); err != nil {
			return nil, fmt.Errorf("load code_symbols vector store: %w", err)
		}
	}

	solutionVectors, err := NewHNSWVectorStore(vecCfg)
	if err != nil {
		return nil, fmt.Errorf("create solutions vector store: %w", err)
	}
	solutionVectorPath := filepath.Join(storeDir, "solutions.hnsw")
	if _, statErr := os.Stat(solutionVectorPath); statErr == nil {
		if err := solutionVectors.Load(solutionVectorPath); err != nil {
			return nil, fmt.Errorf("load solutions vector store: %w", err)
		}
	}

	ftsCfg := DefaultFTSConfig()
	codeFTS, err := NewBleveFTSIndex(filepath.Join(storeDir, "code_symbols.fts"), ftsCfg)
	if err != nil {
		return nil, fmt.Errorf("open code_symbols fts index: %w", err)
	}
	solutionFTS, err := NewBleveFTSIndex(filepath.Join(storeDir, "solutions.fts"), ftsCfg)
	if err != nil {
		return nil, fmt.Errorf("open solutions fts index: %w", err)
	}

	return &Store{
		dir:               dir,
		SQL:               sql,
		CodeSymbolVectors: codeVectors,
		SolutionVectors:   solutionVectors,
		CodeSymbolFTS:     codeFTS,
		SolutionFTS:       solutionFTS,
		lock:              NewSyncLock(dir),
	}, nil
}

// Dir returns the store's .yep-mem directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) vectorPaths() (code, solution string) {
	storeDir := filepath.Join(s.dir, "store")
	return filepath.Join(storeDir, "code_symbols.hnsw"), filepath.Join(storeDir, "solutions.hnsw")
}

// Lock acquires the cross-process sync lock, failing fast (never
// blocking) per the Indexer's "fail fast on contention" requirement.
func (s *Store) Lock() (bool, error) {
	return s.lock.TryAcquire()
}

// Unlock releases the sync lock.
func (s *Store) Unlock() error {
	return s.lock.Release()
}

// AddCodeSymbols writes rows to SQLite, their vectors (when non-empty)
// to the vector index, and their embeddingText to the full-text index.
// Callers are expected to have already deleted any stale rows for the
// same paths in the same batch per the Indexer's ordering rule.
func (s *Store) AddCodeSymbols(ctx context.Context, rows []*CodeSymbolRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.SQL.AddCodeSymbols(ctx, rows); err != nil {
		return err
	}

	var vecIDs []string
	var vectors [][]float32
	docs := make([]*Document, 0, len(rows))
	for _, r := range rows {
		if len(r.Vector) > 0 {
			vecIDs = append(vecIDs, r.ID)
			vectors = append(vectors, r.Vector)
		}
		docs = append(docs, &Document{ID: r.ID, Content: r.EmbeddingText})
	}
	if len(vecIDs) > 0 {
		if err := s.CodeSymbolVectors.Add(ctx, vecIDs, vectors); err != nil {
			return fmt.Errorf("add code_symbols vectors: %w", err)
		}
	}
	if err := s.CodeSymbolFTS.Index(ctx, docs); err != nil {
		return fmt.Errorf("index code_symbols fts: %w", err)
	}
	return nil
}

// DeleteCodeSymbols deletes matching rows from SQLite plus their
// vector and full-text entries. The caller supplies ids (resolved from
// a prior QueryCodeSymbols(where)) since the vector and FTS indexes
// only know IDs, not arbitrary where-expressions.
func (s *Store) DeleteCodeSymbols(ctx context.Context, where WhereExpr, ids []string) error {
	if err := s.SQL.DeleteCodeSymbols(ctx, where); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.CodeSymbolVectors.Delete(ctx, ids); err != nil {
		return fmt.Errorf("delete code_symbols vectors: %w", err)
	}
	if err := s.CodeSymbolFTS.Delete(ctx, ids); err != nil {
		return fmt.Errorf("delete code_symbols fts: %w", err)
	}
	return nil
}

// SearchCodeSymbolsVector is the store's search(vector).limit(n)
// operation over code_symbols.
func (s *Store) SearchCodeSymbolsVector(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	return s.CodeSymbolVectors.Search(ctx, query, k)
}

// SearchCodeSymbolsFTS is the store's search(text, "fts").limit(n)
// operation over code_symbols.
func (s *Store) SearchCodeSymbolsFTS(ctx context.Context, query string, limit int) ([]*FTSResult, error) {
	return s.CodeSymbolFTS.Search(ctx, query, limit)
}

// AddSolutions writes rows to SQLite plus their vector and full-text
// entries, mirroring AddCodeSymbols.
func (s *Store) AddSolutions(ctx context.Context, rows []*SolutionRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.SQL.AddSolutions(ctx, rows); err != nil {
		return err
	}

	var vecIDs []string
	var vectors [][]float32
	docs := make([]*Document, 0, len(rows))
	for _, r := range rows {
		if len(r.Vector) > 0 {
			vecIDs = append(vecIDs, r.ID)
			vectors = append(vectors, r.Vector)
		}
		docs = append(docs, &Document{ID: r.ID, Content: r.EmbeddingText})
	}
	if len(vecIDs) > 0 {
		if err := s.SolutionVectors.Add(ctx, vecIDs, vectors); err != nil {
			return fmt.Errorf("add solutions vectors: %w", err)
		}
	}
	if err := s.SolutionFTS.Index(ctx, docs); err != nil {
		return fmt.Errorf("index solutions fts: %w", err)
	}
	return nil
}

// DeleteSolutions mirrors DeleteCodeSymbols for the solutions table.
func (s *Store) DeleteSolutions(ctx context.Context, where WhereExpr, ids []string) error {
	if err := s.SQL.DeleteSolutions(ctx, where); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.SolutionVectors.Delete(ctx, ids); err != nil {
		return fmt.Errorf("delete solutions vectors: %w", err)
	}
	if err := s.SolutionFTS.Delete(ctx, ids); err != nil {
		return fmt.Errorf("delete solutions fts: %w", err)
	}
	return nil
}

// SearchSolutionsVector is the store's search(vector).limit(n)
// operation over solutions.
func (s *Store) SearchSolutionsVector(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	return s.SolutionVectors.Search(ctx, query, k)
}

// SearchSolutionsFTS is the store's search(text, "fts").limit(n)
// operation over solutions.
func (s *Store) SearchSolutionsFTS(ctx context.Context, query string, limit int) ([]*FTSResult, error) {
	return s.SolutionFTS.Search(ctx, query, limit)
}

// CreateIndex creates a typed-column index on the given table and
// column; kind is accepted for symmetry with the abstract
// createIndex(col, kind) operation but only the "btree" SQLite kind is
// currently exercised (fts and vector indexes are whole-table and
// created at Open time).
func (s *Store) CreateIndex(table, col, kind string) error {
	return s.SQL.CreateIndex(table, col)
}

// Flush persists both vector indexes to disk. The SQLite connection and
// the Bleve FTS indexes persist themselves on every write.
func (s *Store) Flush() error {
	codePath, solutionPath := s.vectorPaths()
	if err := s.CodeSymbolVectors.Save(codePath); err != nil {
		return fmt.Errorf("save code_symbols vectors: %w", err)
	}
	if err := s.SolutionVectors.Save(solutionPath); err != nil {
		return fmt.Errorf("save solutions vectors: %w", err)
	}
	return nil
}

// Close releases every underlying resource. Callers should Flush first
// if pending vector writes must survive the close.
func (s *Store) Close() error {
	var errs []error
	if err := s.CodeSymbolVectors.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.SolutionVectors.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.CodeSymbolFTS.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.SolutionFTS.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.SQL.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close store: %v", errs)
	}
	return nil
}
