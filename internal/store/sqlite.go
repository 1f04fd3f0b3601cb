package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, no CGO
)

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

CREATE TABLE IF NOT EXISTS code_symbols (
	id TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	symbol TEXT NOT NULL,
	symbolType TEXT NOT NULL,
	language TEXT NOT NULL,
	body TEXT NOT NULL,
	summary TEXT NOT NULL,
	embeddingText TEXT NOT NULL,
	commit_sha TEXT NOT NULL,
	lastModified DATETIME NOT NULL,
	calls TEXT NOT NULL DEFAULT '',
	imports TEXT NOT NULL DEFAULT '',
	gitChangeCount INTEGER NOT NULL DEFAULT 0,
	gitAuthorCount INTEGER NOT NULL DEFAULT 0,
	gitLastChangeDate DATETIME
);

CREATE TABLE IF NOT EXISTS solutions (
	id TEXT PRIMARY KEY,
	checkpointId TEXT NOT NULL,
	sessionIndex INTEGER NOT NULL,
	prompt TEXT NOT NULL,
	response TEXT NOT NULL,
	diffSummary TEXT NOT NULL DEFAULT '',
	embeddingText TEXT NOT NULL,
	summary TEXT NOT NULL,
	agent TEXT NOT NULL DEFAULT '',
	timestamp DATETIME NOT NULL,
	filesChanged TEXT NOT NULL DEFAULT '',
	tokensUsed INTEGER NOT NULL DEFAULT 0,
	symbols TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT '',
	confidence REAL NOT NULL DEFAULT 0,
	source TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS code_metrics (
	id TEXT PRIMARY KEY,
	timestamp DATETIME NOT NULL,
	commit_sha TEXT NOT NULL,
	totalSymbols INTEGER NOT NULL DEFAULT 0,
	totalFiles INTEGER NOT NULL DEFAULT 0,
	avgSymbolsPerFile REAL NOT NULL DEFAULT 0,
	duplicateSymbolCount INTEGER NOT NULL DEFAULT 0,
	avgComplexity REAL NOT NULL DEFAULT 0,
	documentationCoverage REAL NOT NULL DEFAULT 0,
	deadCodeCount INTEGER NOT NULL DEFAULT 0,
	topComplexSymbols TEXT NOT NULL DEFAULT '[]',
	godSymbols TEXT NOT NULL DEFAULT '[]',
	healthScore REAL NOT NULL DEFAULT 0,
	complexityTrend TEXT NOT NULL DEFAULT 'stable',
	deadCodeTrend TEXT NOT NULL DEFAULT 'stable',
	docCoverageTrend TEXT NOT NULL DEFAULT 'stable'
);

CREATE TABLE IF NOT EXISTS graph_edges (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	edgeType TEXT NOT NULL,
	sourceFile TEXT NOT NULL DEFAULT '',
	count INTEGER NOT NULL DEFAULT 1,
	commit_sha TEXT NOT NULL DEFAULT '',
	lastModified DATETIME
);
`

// validateSQLiteIntegrity checks an existing database file for
// corruption before opening it for real, so a killed writer's half
// written file is detected and rebuilt rather than failing every open.
func validateSQLiteIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("open for integrity check: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// SQLiteStore is the single-writer, typed-column table store backing
// code_symbols, solutions, code_metrics, and graph_edges. It uses
// modernc.org/sqlite (pure Go, no CGO) in WAL mode so concurrent
// in-process readers never block on a writer.
type SQLiteStore struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens (creating if absent) the SQLite database at
// path. An empty path opens an in-memory database, useful for tests.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", dir, err)
		}

		if validErr := validateSQLiteIntegrity(path); validErr != nil {
			slog.Warn("sqlite_store_corrupted", slog.String("path", path), slog.String("error", validErr.Error()))
			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, fmt.Errorf("store corrupted at %s and cannot remove: %w (original: %v)", path, removeErr, validErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")
			slog.Info("sqlite_store_cleared", slog.String("path", path), slog.String("reason", "corruption detected, reindex required"))
		}

		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		_, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", CurrentSchemaVersion)
		return err
	}
	return nil
}

// CreateIndex creates a non-unique index on col in table if absent,
// satisfying the store's createIndex(col, kind) operation for the
// typed-column schema (kind is currently always a plain B-tree index;
// full-text and vector indexing go through FTSIndex/VectorStore).
func (s *SQLiteStore) CreateIndex(table, col string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := fmt.Sprintf("idx_%s_%s", table, col)
	stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", name, table, col)
	_, err := s.db.Exec(stmt)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// --- code_symbols ---

const codeSymbolColumns = "id, path, symbol, symbolType, language, body, summary, embeddingText, commit_sha, lastModified, calls, imports, gitChangeCount, gitAuthorCount, gitLastChangeDate"

// AddCodeSymbols upserts rows into code_symbols.
func (s *SQLiteStore) AddCodeSymbols(ctx context.Context, rows []*CodeSymbolRow) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO code_symbols (`+codeSymbolColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			path=excluded.path, symbol=excluded.symbol, symbolType=excluded.symbolType,
			language=excluded.language, body=excluded.body, summary=excluded.summary,
			embeddingText=excluded.embeddingText, commit_sha=excluded.commit_sha,
			lastModified=excluded.lastModified, calls=excluded.calls, imports=excluded.imports,
			gitChangeCount=excluded.gitChangeCount, gitAuthorCount=excluded.gitAuthorCount,
			gitLastChangeDate=excluded.gitLastChangeDate`)
	if err != nil {
		return fmt.Errorf("prepare code_symbols upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Path, r.Symbol, r.SymbolType, r.Language, r.Body,
			r.Summary, r.EmbeddingText, r.Commit, r.LastModified, joinStrings(r.Calls), joinStrings(r.Imports),
			r.GitChangeCount, r.GitAuthorCount, nullableTime(r.GitLastChangeDate)); err != nil {
			return fmt.Errorf("upsert code_symbol %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func scanCodeSymbolRow(scanner interface {
	Scan(dest ...any) error
}) (*CodeSymbolRow, error) {
	var r CodeSymbolRow
	var calls, imports string
	var gitLastChangeDate sql.NullTime
	if err := scanner.Scan(&r.ID, &r.Path, &r.Symbol, &r.SymbolType, &r.Language, &r.Body, &r.Summary,
		&r.EmbeddingText, &r.Commit, &r.LastModified, &calls, &imports, &r.GitChangeCount,
		&r.GitAuthorCount, &gitLastChangeDate); err != nil {
		return nil, err
	}
	r.Calls = splitStrings(calls)
	r.Imports = splitStrings(imports)
	if gitLastChangeDate.Valid {
		r.GitLastChangeDate = gitLastChangeDate.Time
	}
	return &r, nil
}

// GetCodeSymbol retrieves a single row by ID, or nil if absent.
func (s *SQLiteStore) GetCodeSymbol(ctx context.Context, id string) (*CodeSymbolRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+codeSymbolColumns+` FROM code_symbols WHERE id = ?`, id)
	r, err := scanCodeSymbolRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// QueryCodeSymbols is the store's select().where().limit().toArray()
// operation over code_symbols.
func (s *SQLiteStore) QueryCodeSymbols(ctx context.Context, where WhereExpr, limit int) ([]*CodeSymbolRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := renderWhere(where)
	q := `SELECT ` + codeSymbolColumns + ` FROM code_symbols` + clause
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query code_symbols: %w", err)
	}
	defer rows.Close()

	var out []*CodeSymbolRow
	for rows.Next() {
		r, err := scanCodeSymbolRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan code_symbol: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteCodeSymbols deletes all rows matching where.
func (s *SQLiteStore) DeleteCodeSymbols(ctx context.Context, where WhereExpr) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clause, args := renderWhere(where)
	_, err := s.db.ExecContext(ctx, `DELETE FROM code_symbols`+clause, args...)
	return err
}

// CountCodeSymbols returns the number of rows matching where.
func (s *SQLiteStore) CountCodeSymbols(ctx context.Context, where WhereExpr) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := renderWhere(where)
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM code_symbols`+clause, args...).Scan(&count)
	return count, err
}

// --- solutions ---

const solutionColumns = "id, checkpointId, sessionIndex, prompt, response, diffSummary, embeddingText, summary, agent, timestamp, filesChanged, tokensUsed, symbols, language, confidence, source"

// AddSolutions upserts rows into solutions.
func (s *SQLiteStore) AddSolutions(ctx context.Context, rows []*SolutionRow) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO solutions (`+solutionColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			checkpointId=excluded.checkpointId, sessionIndex=excluded.sessionIndex,
			prompt=excluded.prompt, response=excluded.response, diffSummary=excluded.diffSummary,
			embeddingText=excluded.embeddingText, summary=excluded.summary, agent=excluded.agent,
			timestamp=excluded.timestamp, filesChanged=excluded.filesChanged, tokensUsed=excluded.tokensUsed,
			symbols=excluded.symbols, language=excluded.language, confidence=excluded.confidence,
			source=excluded.source`)
	if err != nil {
		return fmt.Errorf("prepare solutions upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.ID, r.CheckpointID, r.SessionIndex, r.Prompt, r.Response,
			r.DiffSummary, r.EmbeddingText, r.Summary, r.Agent, r.Timestamp, joinStrings(r.FilesChanged),
			r.TokensUsed, joinStrings(r.Symbols), r.Language, r.Confidence, r.Source); err != nil {
			return fmt.Errorf("upsert solution %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func scanSolutionRow(scanner interface {
	Scan(dest ...any) error
}) (*SolutionRow, error) {
	var r SolutionRow
	var filesChanged, symbols string
	if err := scanner.Scan(&r.ID, &r.CheckpointID, &r.SessionIndex, &r.Prompt, &r.Response, &r.DiffSummary,
		&r.EmbeddingText, &r.Summary, &r.Agent, &r.Timestamp, &filesChanged, &r.TokensUsed, &symbols,
		&r.Language, &r.Confidence, &r.Source); err != nil {
		return nil, err
	}
	r.FilesChanged = splitStrings(filesChanged)
	r.Symbols = splitStrings(symbols)
	return &r, nil
}

// GetSolution retrieves a single row by ID, or nil if absent.
func (s *SQLiteStore) GetSolution(ctx context.Context, id string) (*SolutionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+solutionColumns+` FROM solutions WHERE id = ?`, id)
	r, err := scanSolutionRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// QuerySolutions is the store's select().where().limit().toArray()
// operation over solutions.
func (s *SQLiteStore) QuerySolutions(ctx context.Context, where WhereExpr, limit int) ([]*SolutionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := renderWhere(where)
	q := `SELECT ` + solutionColumns + ` FROM solutions` + clause
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query solutions: %w", err)
	}
	defer rows.Close()

	var out []*SolutionRow
	for rows.Next() {
		r, err := scanSolutionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan solution: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteSolutions deletes all rows matching where.
func (s *SQLiteStore) DeleteSolutions(ctx context.Context, where WhereExpr) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clause, args := renderWhere(where)
	_, err := s.db.ExecContext(ctx, `DELETE FROM solutions`+clause, args...)
	return err
}

// CountSolutions returns the number of rows matching where.
func (s *SQLiteStore) CountSolutions(ctx context.Context, where WhereExpr) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := renderWhere(where)
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM solutions`+clause, args...).Scan(&count)
	return count, err
}

// --- code_metrics ---

const codeMetricColumns = "id, timestamp, commit_sha, totalSymbols, totalFiles, avgSymbolsPerFile, duplicateSymbolCount, avgComplexity, documentationCoverage, deadCodeCount, topComplexSymbols, godSymbols, healthScore, complexityTrend, deadCodeTrend, docCoverageTrend"

// AddCodeMetric inserts a single snapshot row; snapshots are append-only
// so there is no upsert path.
func (s *SQLiteStore) AddCodeMetric(ctx context.Context, r *CodeMetricRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO code_metrics (`+codeMetricColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.Timestamp, r.Commit, r.TotalSymbols, r.TotalFiles, r.AvgSymbolsPerFile, r.DuplicateSymbolCount,
		r.AvgComplexity, r.DocumentationCoverage, r.DeadCodeCount, r.TopComplexSymbolsJSON, r.GodSymbolsJSON,
		r.HealthScore, r.ComplexityTrend, r.DeadCodeTrend, r.DocCoverageTrend)
	return err
}

func scanCodeMetricRow(scanner interface {
	Scan(dest ...any) error
}) (*CodeMetricRow, error) {
	var r CodeMetricRow
	if err := scanner.Scan(&r.ID, &r.Timestamp, &r.Commit, &r.TotalSymbols, &r.TotalFiles, &r.AvgSymbolsPerFile,
		&r.DuplicateSymbolCount, &r.AvgComplexity, &r.DocumentationCoverage, &r.DeadCodeCount,
		&r.TopComplexSymbolsJSON, &r.GodSymbolsJSON, &r.HealthScore, &r.ComplexityTrend, &r.DeadCodeTrend,
		&r.DocCoverageTrend); err != nil {
		return nil, err
	}
	return &r, nil
}

// QueryCodeMetrics returns snapshot rows ordered newest-first.
func (s *SQLiteStore) QueryCodeMetrics(ctx context.Context, where WhereExpr, limit int) ([]*CodeMetricRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := renderWhere(where)
	q := `SELECT ` + codeMetricColumns + ` FROM code_metrics` + clause + ` ORDER BY timestamp DESC`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query code_metrics: %w", err)
	}
	defer rows.Close()

	var out []*CodeMetricRow
	for rows.Next() {
		r, err := scanCodeMetricRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan code_metric: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- graph_edges ---

const graphEdgeColumns = "id, source, target, edgeType, sourceFile, count, commit_sha, lastModified"

// AddGraphEdges upserts rows into graph_edges.
func (s *SQLiteStore) AddGraphEdges(ctx context.Context, rows []*GraphEdgeRow) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO graph_edges (`+graphEdgeColumns+`)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			source=excluded.source, target=excluded.target, edgeType=excluded.edgeType,
			sourceFile=excluded.sourceFile, count=excluded.count, commit_sha=excluded.commit_sha,
			lastModified=excluded.lastModified`)
	if err != nil {
		return fmt.Errorf("prepare graph_edges upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Source, r.Target, r.EdgeType, r.SourceFile, r.Count,
			r.Commit, nullableTime(r.LastModified)); err != nil {
			return fmt.Errorf("upsert graph_edge %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func scanGraphEdgeRow(scanner interface {
	Scan(dest ...any) error
}) (*GraphEdgeRow, error) {
	var r GraphEdgeRow
	var lastModified sql.NullTime
	if err := scanner.Scan(&r.ID, &r.Source, &r.Target, &r.EdgeType, &r.SourceFile, &r.Count, &r.Commit,
		&lastModified); err != nil {
		return nil, err
	}
	if lastModified.Valid {
		r.LastModified = lastModified.Time
	}
	return &r, nil
}

// QueryGraphEdges is the store's select().where().limit().toArray()
// operation over graph_edges.
func (s *SQLiteStore) QueryGraphEdges(ctx context.Context, where WhereExpr, limit int) ([]*GraphEdgeRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := renderWhere(where)
	q := `SELECT ` + graphEdgeColumns + ` FROM graph_edges` + clause
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query graph_edges: %w", err)
	}
	defer rows.Close()

	var out []*GraphEdgeRow
	for rows.Next() {
		r, err := scanGraphEdgeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan graph_edge: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteGraphEdges deletes all rows matching where.
func (s *SQLiteStore) DeleteGraphEdges(ctx context.Context, where WhereExpr) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clause, args := renderWhere(where)
	_, err := s.db.ExecContext(ctx, `DELETE FROM graph_edges`+clause, args...)
	return err
}

// CountGraphEdges returns the number of rows matching where.
func (s *SQLiteStore) CountGraphEdges(ctx context.Context, where WhereExpr) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := renderWhere(where)
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM graph_edges`+clause, args...).Scan(&count)
	return count, err
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
