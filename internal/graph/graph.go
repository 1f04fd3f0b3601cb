// Package graph is the caller/callee/importer graph analyzer (C7) and
// its PageRank engine (C8), both derived from the code_symbols table's
// calls and imports columns.
package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/yepmem/core/internal/store"
)

// maxScanRows bounds the single scan graph construction runs over.
const maxScanRows = 10000

// pointQueryLimit bounds the caller/callee/importer point queries.
const pointQueryLimit = 20

// Graph holds the three logical views derived from one bounded scan
// over code_symbols, plus the row lookups needed to answer point
// queries.
type Graph struct {
	callerCounts   map[string]int
	importerCounts map[string]int
	calleeCount    map[string]int
	bySymbol       map[string]*store.CodeSymbolRow
	st             *store.Store
}

// Build scans up to maxScanRows of code_symbols and derives
// callerCounts, importerCounts, and calleeCount in one pass.
func Build(ctx context.Context, st *store.Store) (*Graph, error) {
	rows, err := st.SQL.QueryCodeSymbols(ctx, nil, maxScanRows)
	if err != nil {
		return nil, fmt.Errorf("scan code_symbols for graph: %w", err)
	}

	bySymbol := make(map[string]*store.CodeSymbolRow, len(rows))
	for _, r := range rows {
		bySymbol[r.Symbol] = r
	}

	callerCounts := make(map[string]int)
	calleeCount := make(map[string]int)
	for _, r := range rows {
		calleeCount[r.Symbol] = len(r.Calls)
		for _, callee := range r.Calls {
			callerCounts[callee]++
		}
	}

	filesBySymbol := make(map[string]map[string]struct{})
	for _, r := range rows {
		for _, imp := range r.Imports {
			head := imp
			if idx := strings.Index(imp, ":"); idx >= 0 {
				head = imp[:idx]
			}
			if _, known := bySymbol[head]; !known {
				continue
			}
			if filesBySymbol[head] == nil {
				filesBySymbol[head] = make(map[string]struct{})
			}
			filesBySymbol[head][r.Path] = struct{}{}
		}
	}
	importerCounts := make(map[string]int, len(filesBySymbol))
	for sym, files := range filesBySymbol {
		importerCounts[sym] = len(files)
	}

	return &Graph{
		callerCounts:   callerCounts,
		importerCounts: importerCounts,
		calleeCount:    calleeCount,
		bySymbol:       bySymbol,
		st:             st,
	}, nil
}

// CallerCount is the number of distinct indexed symbols whose calls
// list contains symbol.
func (g *Graph) CallerCount(symbol string) int { return g.callerCounts[symbol] }

// ImporterCount is the number of distinct files whose imports list
// contains a token resolving to symbol.
func (g *Graph) ImporterCount(symbol string) int { return g.importerCounts[symbol] }

// CalleeCount is the length of symbol's own calls list.
func (g *Graph) CalleeCount(symbol string) int { return g.calleeCount[symbol] }

// Symbol returns the row for an indexed symbol name, or nil if unknown.
func (g *Graph) Symbol(symbol string) *store.CodeSymbolRow { return g.bySymbol[symbol] }

// Edges returns, for every indexed symbol, the subset of its calls
// list that resolves to another indexed symbol. Unresolved call names
// are dropped, matching the rule that graph analysis ignores names
// that don't match any indexed symbol.
func (g *Graph) Edges() map[string][]string {
	edges := make(map[string][]string, len(g.bySymbol))
	for sym, row := range g.bySymbol {
		var resolved []string
		for _, callee := range row.Calls {
			if _, ok := g.bySymbol[callee]; ok {
				resolved = append(resolved, callee)
			}
		}
		edges[sym] = resolved
	}
	return edges
}

// NewPageRankCache builds a PageRank cache computed lazily from this
// graph's current edge set.
func (g *Graph) NewPageRankCache() *PageRankCache {
	return NewPageRankCache(func() map[string]float64 {
		return ComputePageRank(g.Edges())
	})
}

// FindCallers returns up to pointQueryLimit chunks whose calls column
// contains symbol as a substring, matching spec.md's documented
// collision risk for short names at the SQL layer (in-process views
// above use the exact comma-split calls list instead).
func (g *Graph) FindCallers(ctx context.Context, symbol string) ([]*store.CodeSymbolRow, error) {
	return g.st.SQL.QueryCodeSymbols(ctx, store.Like("calls", "%"+symbol+"%"), pointQueryLimit)
}

// FindImporters returns up to pointQueryLimit chunks whose imports
// column contains symbol as a substring.
func (g *Graph) FindImporters(ctx context.Context, symbol string) ([]*store.CodeSymbolRow, error) {
	return g.st.SQL.QueryCodeSymbols(ctx, store.Like("imports", "%"+symbol+"%"), pointQueryLimit)
}

// FindCallees returns the rows for every symbol in symbol's own calls
// list that resolves to an indexed row.
func (g *Graph) FindCallees(ctx context.Context, symbol string) ([]*store.CodeSymbolRow, error) {
	row, ok := g.bySymbol[symbol]
	if !ok || len(row.Calls) == 0 {
		return nil, nil
	}
	return g.st.SQL.QueryCodeSymbols(ctx, store.In("symbol", toAnySlice(row.Calls)), pointQueryLimit)
}

// FindSymbolByName returns the row for an exact symbol name, or nil if
// not found.
func (g *Graph) FindSymbolByName(ctx context.Context, name string) (*store.CodeSymbolRow, error) {
	rows, err := g.st.SQL.QueryCodeSymbols(ctx, store.Eq("symbol", name), 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// FindSymbolsByPrefix returns up to pointQueryLimit rows whose symbol
// starts with prefix.
func (g *Graph) FindSymbolsByPrefix(ctx context.Context, prefix string) ([]*store.CodeSymbolRow, error) {
	return g.st.SQL.QueryCodeSymbols(ctx, store.Like("symbol", prefix+"%"), pointQueryLimit)
}

// FindSymbolsByPath returns every row indexed from path.
func (g *Graph) FindSymbolsByPath(ctx context.Context, path string) ([]*store.CodeSymbolRow, error) {
	return g.st.SQL.QueryCodeSymbols(ctx, store.Eq("path", path), 0)
}

func toAnySlice(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
