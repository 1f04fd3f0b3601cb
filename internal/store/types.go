// Package store is the embedded, per-repository persistence layer: a
// single-writer SQLite connection holding four typed-column tables
// (code_symbols, solutions, code_metrics, graph_edges), each paired with
// an HNSW vector index and a Bleve full-text index over its embeddingText
// column.
package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CurrentSchemaVersion is the current database schema version.
const CurrentSchemaVersion = 1

// CodeSymbolRow is one row of the code_symbols table.
type CodeSymbolRow struct {
	ID                string
	Path              string
	Symbol            string
	SymbolType        string
	Language          string
	Body              string
	Summary           string
	EmbeddingText     string
	Commit            string
	LastModified      time.Time
	Calls             []string
	Imports           []string
	GitChangeCount    int
	GitAuthorCount    int
	GitLastChangeDate time.Time
	Vector            []float32
}

// SolutionRow is one row of the solutions table.
type SolutionRow struct {
	ID            string
	CheckpointID  string
	SessionIndex  int
	Prompt        string
	Response      string
	DiffSummary   string
	EmbeddingText string
	Summary       string
	Agent         string
	Timestamp     time.Time
	FilesChanged  []string
	TokensUsed    int
	Symbols       []string
	Language      string
	Confidence    float64
	Source        string
	Vector        []float32
}

// CodeMetricRow is one row of the code_metrics table: a point-in-time
// snapshot produced by the insights engine. TopComplexSymbols and
// GodSymbols are stored as JSON arrays of symbol names; the trend
// fields are one of "up", "down", "stable".
type CodeMetricRow struct {
	ID                    string
	Timestamp             time.Time
	Commit                string
	TotalSymbols          int
	TotalFiles            int
	AvgSymbolsPerFile     float64
	DuplicateSymbolCount  int
	AvgComplexity         float64
	DocumentationCoverage float64
	DeadCodeCount         int
	TopComplexSymbolsJSON string
	GodSymbolsJSON        string
	HealthScore           float64
	ComplexityTrend       string
	DeadCodeTrend         string
	DocCoverageTrend      string
}

// GraphEdgeRow is one row of the graph_edges table.
type GraphEdgeRow struct {
	ID           string
	Source       string
	Target       string
	EdgeType     string
	SourceFile   string
	Count        int
	Commit       string
	LastModified time.Time
}

// Document is a unit of text indexed into a full-text index, keyed by
// the same ID used in the owning SQLite row and vector index.
type Document struct {
	ID      string
	Content string
}

// FTSResult is a single full-text search hit.
type FTSResult struct {
	DocID        string
	Score        float64
	MatchedTerms []string
}

// IndexStats describes a full-text index's size.
type IndexStats struct {
	DocumentCount int
}

// FTSIndex provides full-text search over a table's embeddingText column.
type FTSIndex interface {
	Index(ctx context.Context, docs []*Document) error
	Search(ctx context.Context, query string, limit int) ([]*FTSResult, error)
	Delete(ctx context.Context, docIDs []string) error
	AllIDs() ([]string, error)
	Stats() *IndexStats
	Close() error
}

// FTSConfig configures a full-text index's code-aware analyzer.
type FTSConfig struct {
	StopWords      []string
	MinTokenLength int
}

// DefaultFTSConfig returns the default full-text index configuration.
func DefaultFTSConfig() FTSConfig {
	return FTSConfig{
		StopWords:      DefaultCodeStopWords,
		MinTokenLength: 2,
	}
}

// DefaultCodeStopWords contains programming keywords filtered out of the
// full-text index so a query for "function" doesn't match every chunk.
var DefaultCodeStopWords = []string{
	"var", "let", "const", "func", "function", "def", "class",
	"return", "if", "else", "for", "while",
	"data", "result", "value", "item", "key", "err", "ctx", "tmp",
}

// VectorResult is a single vector search hit.
type VectorResult struct {
	ID       string
	Distance float32
	Score    float32
}

// VectorStoreConfig configures a table's HNSW vector index.
type VectorStoreConfig struct {
	Dimensions     int
	Metric         string // "cos" or "l2"
	M              int
	EfConstruction int
	EfSearch       int
}

// DefaultVectorStoreConfig returns sensible HNSW defaults for the given
// embedding dimensionality.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions:     dimensions,
		Metric:         "cos",
		M:              16,
		EfConstruction: 128,
		EfSearch:       20,
	}
}

// VectorStore provides approximate nearest-neighbor search over one
// table's vector column.
type VectorStore interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Delete(ctx context.Context, ids []string) error
	AllIDs() []string
	Contains(id string) bool
	Count() int
	Save(path string) error
	Load(path string) error
	Close() error
}

// ErrDimensionMismatch indicates a vector doesn't match the store's
// configured dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (run a reindex)", e.Expected, e.Got)
}

// WhereExpr is a typed, composable substitute for the abstract
// query().where(expr) builder: each implementation renders itself to a
// SQL boolean expression plus its positional arguments, so callers never
// hand-interpolate identifiers or literals into a query string.
type WhereExpr interface {
	render() (clause string, args []any)
}

type eqExpr struct {
	col string
	val any
}

// Eq builds a `col = ?` expression.
func Eq(col string, val any) WhereExpr { return eqExpr{col: col, val: val} }

func (e eqExpr) render() (string, []any) {
	return quoteIdent(e.col) + " = ?", []any{e.val}
}

type likeExpr struct {
	col     string
	pattern string
}

// Like builds a `col LIKE ?` expression. The caller supplies the full
// pattern, including any `%` wildcards.
func Like(col, pattern string) WhereExpr { return likeExpr{col: col, pattern: pattern} }

func (e likeExpr) render() (string, []any) {
	return quoteIdent(e.col) + " LIKE ?", []any{e.pattern}
}

type inExpr struct {
	col  string
	vals []any
}

// In builds a `col IN (?, ?, ...)` expression. An empty vals list
// renders to an always-false clause rather than invalid SQL.
func In(col string, vals []any) WhereExpr { return inExpr{col: col, vals: vals} }

func (e inExpr) render() (string, []any) {
	if len(e.vals) == 0 {
		return "0", nil
	}
	placeholders := make([]string, len(e.vals))
	for i := range e.vals {
		placeholders[i] = "?"
	}
	return quoteIdent(e.col) + " IN (" + strings.Join(placeholders, ", ") + ")", e.vals
}

type andExpr struct {
	exprs []WhereExpr
}

// And combines expressions with AND. An empty expr list renders to an
// always-true clause.
func And(exprs ...WhereExpr) WhereExpr { return andExpr{exprs: exprs} }

func (e andExpr) render() (string, []any) {
	if len(e.exprs) == 0 {
		return "1", nil
	}
	clauses := make([]string, 0, len(e.exprs))
	var args []any
	for _, sub := range e.exprs {
		clause, subArgs := sub.render()
		clauses = append(clauses, "("+clause+")")
		args = append(args, subArgs...)
	}
	return strings.Join(clauses, " AND "), args
}

type orExpr struct {
	exprs []WhereExpr
}

// Or combines expressions with OR. An empty expr list renders to an
// always-false clause, the dual of And's always-true empty case.
func Or(exprs ...WhereExpr) WhereExpr { return orExpr{exprs: exprs} }

func (e orExpr) render() (string, []any) {
	if len(e.exprs) == 0 {
		return "0", nil
	}
	clauses := make([]string, 0, len(e.exprs))
	var args []any
	for _, sub := range e.exprs {
		clause, subArgs := sub.render()
		clauses = append(clauses, "("+clause+")")
		args = append(args, subArgs...)
	}
	return strings.Join(clauses, " OR "), args
}

// renderWhere renders a WhereExpr to a `WHERE ...` clause plus its
// positional args, or "" with no args for a nil expr.
func renderWhere(expr WhereExpr) (string, []any) {
	if expr == nil {
		return "", nil
	}
	clause, args := expr.render()
	return " WHERE " + clause, args
}

// quoteIdent double-quotes identifiers containing uppercase letters,
// matching the store's where-clause quoting discipline: lowercase column
// names pass through bare, mixed-case ones (e.g. symbolType) are quoted
// so SQLite doesn't fold their case.
func quoteIdent(ident string) string {
	for _, r := range ident {
		if r >= 'A' && r <= 'Z' {
			return strconv.Quote(ident)
		}
	}
	return ident
}

// joinStrings serializes a string slice for storage in a single TEXT
// column (calls, imports, filesChanged, symbols) using NUL separation,
// which none of these fields can legitimately contain.
func joinStrings(vals []string) string {
	return strings.Join(vals, "\x00")
}

func splitStrings(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\x00")
}
