// Package rank is the multi-signal re-ranker (C6): given the fused
// candidates from internal/retrieve, it produces a final [0,1] score
// per candidate from seven independently weighted signals. It never
// changes the candidate set, only the order.
package rank

import (
	"sort"
	"time"

	"github.com/yepmem/core/internal/store"
)

// Candidate is one fused retrieval result plus the raw per-leg scores
// that contributed to it.
type Candidate struct {
	Row         *store.CodeSymbolRow
	VectorScore float64
	FTSScore    float64
}

// RankContext carries the caller's editing context and clock into the
// signal functions that need it (freshness, context proximity).
type RankContext struct {
	Query            string
	CurrentFile      string
	CurrentDirectory string
	Now              time.Time
}

// PopularityIndex supplies a symbol's PageRank score, min-max
// normalized over the engine's current cache. Implemented by
// internal/graph; kept as an interface here so rank never imports
// graph directly.
type PopularityIndex interface {
	Normalized(symbol string) (score float64, ok bool)
}

// Ranked is one candidate plus its final score and the signal
// breakdown that produced it.
type Ranked struct {
	Candidate *Candidate
	Score     float64
	Signals   Signals
}

// Ranker applies the seven-signal scoring function over a batch of
// candidates.
type Ranker struct {
	popularity PopularityIndex
}

// NewRanker builds a Ranker. popularity may be nil, in which case
// every candidate's popularityScore defaults to 0.5.
func NewRanker(popularity PopularityIndex) *Ranker {
	return &Ranker{popularity: popularity}
}

// Rank scores and sorts candidates by descending score, ties broken by
// ascending row ID.
func (r *Ranker) Rank(candidates []*Candidate, ctx RankContext) []*Ranked {
	if len(candidates) == 0 {
		return nil
	}
	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}

	vecRaw := make([]float64, len(candidates))
	ftsRaw := make([]float64, len(candidates))
	for i, c := range candidates {
		vecRaw[i] = c.VectorScore
		ftsRaw[i] = c.FTSScore
	}
	vecNorm := minMaxNormalize(vecRaw)
	ftsNorm := minMaxNormalize(ftsRaw)

	out := make([]*Ranked, len(candidates))
	for i, c := range candidates {
		sig := Signals{
			VectorScore:     vecNorm[i],
			FTSScore:        ftsNorm[i],
			ExactMatch:      exactMatchSignal(c.Row.Symbol, ctx.Query),
			PopularityScore: r.popularityScore(c.Row.Symbol),
			FreshnessScore:  freshnessSignal(c.Row.LastModified, now),
			ComplexityScore: complexityScore(c.Row.Body),
			ContextScore:    contextSignal(c.Row.Path, ctx.CurrentFile, ctx.CurrentDirectory),
		}
		out[i] = &Ranked{Candidate: c, Score: sig.WeightedSum(), Signals: sig}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Candidate.Row.ID < out[j].Candidate.Row.ID
	})
	return out
}

func (r *Ranker) popularityScore(symbol string) float64 {
	if r.popularity == nil {
		return 0.5
	}
	score, ok := r.popularity.Normalized(symbol)
	if !ok {
		return 0.5
	}
	return score
}
