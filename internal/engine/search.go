package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/yepmem/core/internal/rank"
	"github.com/yepmem/core/internal/retrieve"
)

// SearchOptions narrows a SearchCode/SearchSolutions call beyond the
// query text and vector.
type SearchOptions struct {
	Language         string
	SymbolType       string
	PathContains     string
	CurrentFile      string
	CurrentDirectory string
	Rerank           bool
}

// CodeResult is one ranked code_symbols hit.
type CodeResult struct {
	Hit     *retrieve.SymbolHit
	Score   float64
	Signals rank.Signals
}

// SearchCode runs the three-leg hybrid retrieval over code_symbols and,
// when opts.Rerank is set, re-scores the fused candidates through the
// seven-signal ranker before returning them.
func (e *Engine) SearchCode(ctx context.Context, queryText string, vector []float32, topK int, opts SearchOptions) ([]*CodeResult, error) {
	filter := retrieve.Filter{
		Language:     opts.Language,
		SymbolType:   opts.SymbolType,
		PathContains: opts.PathContains,
	}
	hits, err := e.retrieval.SearchSymbols(ctx, queryText, vector, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("search code: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	if !opts.Rerank {
		out := make([]*CodeResult, len(hits))
		for i, h := range hits {
			out[i] = &CodeResult{Hit: h, Score: h.Score}
		}
		return out, nil
	}

	candidates := make([]*rank.Candidate, len(hits))
	byRow := make(map[*rank.Candidate]*retrieve.SymbolHit, len(hits))
	for i, h := range hits {
		c := &rank.Candidate{Row: h.Row, VectorScore: h.VectorScore, FTSScore: h.FTSScore}
		candidates[i] = c
		byRow[c] = h
	}

	ranked := e.ranker.Rank(candidates, rank.RankContext{
		Query:            queryText,
		CurrentFile:      opts.CurrentFile,
		CurrentDirectory: opts.CurrentDirectory,
		Now:              time.Now(),
	})

	out := make([]*CodeResult, len(ranked))
	for i, r := range ranked {
		out[i] = &CodeResult{Hit: byRow[r.Candidate], Score: r.Score, Signals: r.Signals}
	}
	return out, nil
}

// SearchSolutions runs the two-leg hybrid retrieval over solutions.
// rerank is accepted for API symmetry with SearchCode and spec.md's
// signature, but internal/rank's seven-signal scorer is defined over
// *store.CodeSymbolRow candidates (callers/callees/PageRank/freshness
// of a symbol) and has no equivalent for a conversation transcript
// turn, so a solution hit's RRF-fused order is already its final
// order; rerank is passed through to internal/retrieve, which ignores
// it, so it has no effect on the result.
func (e *Engine) SearchSolutions(ctx context.Context, queryText string, vector []float32, topK int, rerank bool) ([]*retrieve.SolutionHit, error) {
	hits, err := e.retrieval.SearchSolutions(ctx, queryText, vector, topK, rerank)
	if err != nil {
		return nil, fmt.Errorf("search solutions: %w", err)
	}
	return hits, nil
}
