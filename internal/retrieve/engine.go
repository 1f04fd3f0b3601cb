// Package retrieve executes hybrid search over a store.Store: vector
// search, full-text search, and (for code symbols) exact-name lookup
// run concurrently and are fused by Reciprocal Rank Fusion.
package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yepmem/core/internal/store"
)

// minFetchK is the floor on how many candidates each leg fetches,
// regardless of how small topK is.
const minFetchK = 30

func fetchK(topK int) int {
	if topK <= 0 {
		topK = 10
	}
	if k := topK * 3; k > minFetchK {
		return k
	}
	return minFetchK
}

// Filter narrows candidates by column before fusion. A zero-value
// Filter matches everything.
type Filter struct {
	Language     string
	SymbolType   string
	PathContains string
}

func (f Filter) whereExpr() store.WhereExpr {
	var exprs []store.WhereExpr
	if f.Language != "" {
		exprs = append(exprs, store.Eq("language", f.Language))
	}
	if f.SymbolType != "" {
		exprs = append(exprs, store.Eq("symbolType", f.SymbolType))
	}
	if f.PathContains != "" {
		exprs = append(exprs, store.Like("path", "%"+f.PathContains+"%"))
	}
	if len(exprs) == 0 {
		return nil
	}
	return store.And(exprs...)
}

func (f Filter) matches(row *store.CodeSymbolRow) bool {
	if f.Language != "" && row.Language != f.Language {
		return false
	}
	if f.SymbolType != "" && row.SymbolType != f.SymbolType {
		return false
	}
	if f.PathContains != "" && !strings.Contains(row.Path, f.PathContains) {
		return false
	}
	return true
}

func combineWhere(exprs ...store.WhereExpr) store.WhereExpr {
	var out []store.WhereExpr
	for _, e := range exprs {
		if e != nil {
			out = append(out, e)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return store.And(out...)
	}
}

func toAnySlice(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// SymbolHit is one fused, hydrated code_symbols search result.
type SymbolHit struct {
	Row          *store.CodeSymbolRow
	Score        float64
	VectorScore  float64
	FTSScore     float64
	MatchedTerms []string
}

// SolutionHit is one fused, hydrated solutions search result.
type SolutionHit struct {
	Row         *store.SolutionRow
	Score       float64
	VectorScore float64
	FTSScore    float64
}

// Engine runs the three-leg RRF retrieval algorithm over a store.Store.
type Engine struct {
	st  *store.Store
	log *slog.Logger
}

// NewEngine builds a retrieval Engine over st. A nil logger falls back
// to slog.Default.
func NewEngine(st *store.Store, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{st: st, log: log}
}

// SearchSymbols runs vector search, full-text search, and exact-name
// search over code_symbols concurrently, fuses them by RRF, and
// returns the top topK hits. vector may be nil to skip the vector leg;
// q may be empty to skip the FTS and exact-name legs. A leg that
// errors is logged and treated as empty rather than failing the call.
func (e *Engine) SearchSymbols(ctx context.Context, q string, vector []float32, topK int, filter Filter) ([]*SymbolHit, error) {
	fk := fetchK(topK)
	q = strings.TrimSpace(q)

	var vecResults []*store.VectorResult
	var ftsResults []*store.FTSResult
	var exactRows []*store.CodeSymbolRow

	g, gctx := errgroup.WithContext(ctx)

	if len(vector) > 0 {
		g.Go(func() error {
			res, err := e.st.SearchCodeSymbolsVector(gctx, vector, fk)
			if err != nil {
				e.log.Warn("vector leg failed, continuing without it", "error", err)
				return nil
			}
			vecResults = res
			return nil
		})
	}
	if q != "" {
		g.Go(func() error {
			res, err := e.st.SearchCodeSymbolsFTS(gctx, q, fk)
			if err != nil {
				e.log.Warn("fts leg failed, continuing without it", "error", err)
				return nil
			}
			ftsResults = res
			return nil
		})
		g.Go(func() error {
			where := combineWhere(filter.whereExpr(), store.Or(
				store.Eq("symbol", q),
				store.Like("symbol", "%."+q),
				store.Like("symbol", q+"%"),
			))
			rows, err := e.st.SQL.QueryCodeSymbols(gctx, where, fk)
			if err != nil {
				e.log.Warn("exact-name leg failed, continuing without it", "error", err)
				return nil
			}
			exactRows = rows
			return nil
		})
	}
	_ = g.Wait() // legs never propagate errors here; failures already logged above

	rowByID, err := e.hydrate(ctx, vecResults, ftsResults, exactRows)
	if err != nil {
		return nil, err
	}

	vectorIDs := make([]string, 0, len(vecResults))
	vectorScoreByID := make(map[string]float64, len(vecResults))
	for _, r := range vecResults {
		if row, ok := rowByID[r.ID]; !ok || !filter.matches(row) {
			continue
		}
		vectorIDs = append(vectorIDs, r.ID)
		vectorScoreByID[r.ID] = float64(r.Score)
	}

	ftsIDs := make([]string, 0, len(ftsResults))
	ftsScoreByID := make(map[string]float64, len(ftsResults))
	ftsTermsByID := make(map[string][]string, len(ftsResults))
	for _, r := range ftsResults {
		if row, ok := rowByID[r.DocID]; !ok || !filter.matches(row) {
			continue
		}
		ftsIDs = append(ftsIDs, r.DocID)
		ftsScoreByID[r.DocID] = r.Score
		ftsTermsByID[r.DocID] = r.MatchedTerms
	}

	exactIDs := make([]string, 0, len(exactRows))
	exactBoost := make(map[string]float64, len(exactRows))
	for _, r := range exactRows {
		exactIDs = append(exactIDs, r.ID)
		exactBoost[r.ID] = exactBoostFor(r.Symbol, q)
	}

	entries := fuseRRF(vectorIDs, ftsIDs, exactIDs, exactBoost)
	if topK > 0 && len(entries) > topK {
		entries = entries[:topK]
	}

	hits := make([]*SymbolHit, 0, len(entries))
	for _, ent := range entries {
		row, ok := rowByID[ent.id]
		if !ok {
			continue
		}
		hits = append(hits, &SymbolHit{
			Row:          row,
			Score:        ent.score,
			VectorScore:  vectorScoreByID[ent.id],
			FTSScore:     ftsScoreByID[ent.id],
			MatchedTerms: ftsTermsByID[ent.id],
		})
	}
	return hits, nil
}

func (e *Engine) hydrate(ctx context.Context, vec []*store.VectorResult, fts []*store.FTSResult, exact []*store.CodeSymbolRow) (map[string]*store.CodeSymbolRow, error) {
	idSet := make(map[string]struct{}, len(vec)+len(fts)+len(exact))
	for _, r := range vec {
		idSet[r.ID] = struct{}{}
	}
	for _, r := range fts {
		idSet[r.DocID] = struct{}{}
	}
	rowByID := make(map[string]*store.CodeSymbolRow, len(idSet)+len(exact))
	for _, r := range exact {
		rowByID[r.ID] = r
		delete(idSet, r.ID)
	}
	if len(idSet) == 0 {
		return rowByID, nil
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	rows, err := e.st.SQL.QueryCodeSymbols(ctx, store.In("id", toAnySlice(ids)), 0)
	if err != nil {
		return nil, fmt.Errorf("hydrate candidates: %w", err)
	}
	for _, r := range rows {
		rowByID[r.ID] = r
	}
	return rowByID, nil
}

// SearchSolutions runs vector search and a queryText full-text leg over
// solutions, fuses them by RRF (no exact-name leg: solutions have no
// symbol column to match against), and returns the top topK hits.
// rerank is accepted for callers that want a distinct code path once
// they apply multi-signal rescoring on top of the fused order; this
// engine does not rescore itself.
func (e *Engine) SearchSolutions(ctx context.Context, queryText string, vector []float32, topK int, rerank bool) ([]*SolutionHit, error) {
	fk := fetchK(topK)
	queryText = strings.TrimSpace(queryText)

	var vecResults []*store.VectorResult
	var ftsResults []*store.FTSResult

	g, gctx := errgroup.WithContext(ctx)
	if len(vector) > 0 {
		g.Go(func() error {
			res, err := e.st.SearchSolutionsVector(gctx, vector, fk)
			if err != nil {
				e.log.Warn("solutions vector leg failed, continuing without it", "error", err)
				return nil
			}
			vecResults = res
			return nil
		})
	}
	if queryText != "" {
		g.Go(func() error {
			res, err := e.st.SearchSolutionsFTS(gctx, queryText, fk)
			if err != nil {
				e.log.Warn("solutions fts leg failed, continuing without it", "error", err)
				return nil
			}
			ftsResults = res
			return nil
		})
	}
	_ = g.Wait()

	idSet := make(map[string]struct{}, len(vecResults)+len(ftsResults))
	for _, r := range vecResults {
		idSet[r.ID] = struct{}{}
	}
	for _, r := range ftsResults {
		idSet[r.DocID] = struct{}{}
	}
	rowByID := make(map[string]*store.SolutionRow, len(idSet))
	if len(idSet) > 0 {
		ids := make([]string, 0, len(idSet))
		for id := range idSet {
			ids = append(ids, id)
		}
		rows, err := e.st.SQL.QuerySolutions(ctx, store.In("id", toAnySlice(ids)), 0)
		if err != nil {
			return nil, fmt.Errorf("hydrate solution candidates: %w", err)
		}
		for _, r := range rows {
			rowByID[r.ID] = r
		}
	}

	vectorIDs := make([]string, 0, len(vecResults))
	vectorScoreByID := make(map[string]float64, len(vecResults))
	for _, r := range vecResults {
		vectorIDs = append(vectorIDs, r.ID)
		vectorScoreByID[r.ID] = float64(r.Score)
	}
	ftsIDs := make([]string, 0, len(ftsResults))
	ftsScoreByID := make(map[string]float64, len(ftsResults))
	for _, r := range ftsResults {
		ftsIDs = append(ftsIDs, r.DocID)
		ftsScoreByID[r.DocID] = r.Score
	}

	entries := fuseRRF(vectorIDs, ftsIDs, nil, nil)
	if topK > 0 && len(entries) > topK {
		entries = entries[:topK]
	}

	// rerank does not change the result: the fused RRF order is
	// returned as is.
	_ = rerank

	hits := make([]*SolutionHit, 0, len(entries))
	for _, ent := range entries {
		row, ok := rowByID[ent.id]
		if !ok {
			continue
		}
		hits = append(hits, &SolutionHit{
			Row:         row,
			Score:       ent.score,
			VectorScore: vectorScoreByID[ent.id],
			FTSScore:    ftsScoreByID[ent.id],
		})
	}
	return hits, nil
}
