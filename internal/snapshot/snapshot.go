// Package snapshot is the metrics-history store (C11): it turns one
// Insights aggregate into a healthScore, compares it against the prior
// snapshot to classify per-metric trends, and appends the result as an
// append-only row.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yepmem/core/internal/insight"
	"github.com/yepmem/core/internal/store"
)

// trendThreshold is the relative-change bar a metric must clear to be
// classified up/down rather than stable.
const trendThreshold = 0.05

// Trend is one of "up", "down", "stable".
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Store persists periodic metric snapshots and derives trends against
// the previous one.
type Store struct {
	st *store.Store
}

// NewStore wraps st for snapshot persistence.
func NewStore(st *store.Store) *Store {
	return &Store{st: st}
}

// Capture computes healthScore and trends for ins (relative to the most
// recent prior snapshot, if any) and appends a new code_metrics row.
func (s *Store) Capture(ctx context.Context, ins *insight.Insights, commit string, at time.Time) (*store.CodeMetricRow, error) {
	prev, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}

	duplicateSymbolCount := 0
	for _, c := range ins.DuplicateClusters {
		duplicateSymbolCount += len(c.Members)
	}

	health := healthScore(ins, duplicateSymbolCount)

	row := &store.CodeMetricRow{
		ID:                    fmt.Sprintf("%d:%s", at.Unix(), shortCommit(commit)),
		Timestamp:             at,
		Commit:                commit,
		TotalSymbols:          ins.TotalSymbols,
		TotalFiles:            ins.TotalFiles,
		AvgSymbolsPerFile:     ins.AvgSymbolsPerFile,
		DuplicateSymbolCount:  duplicateSymbolCount,
		AvgComplexity:         ins.AvgComplexity,
		DocumentationCoverage: ins.DocumentationCoverage,
		DeadCodeCount:         len(ins.DeadCode),
		TopComplexSymbolsJSON: marshalNames(topComplexSymbols(ins)),
		GodSymbolsJSON:        marshalNames(ins.GodSymbols),
		HealthScore:           health,
	}

	if prev != nil {
		row.ComplexityTrend = string(classify(ins.AvgComplexity, prev.AvgComplexity))
		row.DeadCodeTrend = string(classify(float64(row.DeadCodeCount), float64(prev.DeadCodeCount)))
		row.DocCoverageTrend = string(classify(ins.DocumentationCoverage, prev.DocumentationCoverage))
	} else {
		row.ComplexityTrend = string(TrendStable)
		row.DeadCodeTrend = string(TrendStable)
		row.DocCoverageTrend = string(TrendStable)
	}

	if err := s.st.SQL.AddCodeMetric(ctx, row); err != nil {
		return nil, fmt.Errorf("append snapshot: %w", err)
	}
	return row, nil
}

// latest returns the most recent snapshot, or nil if none exist.
func (s *Store) latest(ctx context.Context) (*store.CodeMetricRow, error) {
	rows, err := s.st.SQL.QueryCodeMetrics(ctx, nil, 1)
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Latest is the exported form of latest, for callers outside this
// package that just want the most recent snapshot without capturing a
// new one.
func (s *Store) Latest(ctx context.Context) (*store.CodeMetricRow, error) {
	return s.latest(ctx)
}

// History returns up to limit most recent snapshots, newest first. A
// limit of 0 returns every snapshot.
func (s *Store) History(ctx context.Context, limit int) ([]*store.CodeMetricRow, error) {
	rows, err := s.st.SQL.QueryCodeMetrics(ctx, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshot history: %w", err)
	}
	return rows, nil
}

// classify compares current against previous with a 5% relative-change
// threshold. A previous value of zero is treated as stable unless
// current moved off zero, in which case it counts as up.
func classify(current, previous float64) Trend {
	if previous == 0 {
		if current == 0 {
			return TrendStable
		}
		return TrendUp
	}
	delta := (current - previous) / previous
	switch {
	case delta > trendThreshold:
		return TrendUp
	case delta < -trendThreshold:
		return TrendDown
	default:
		return TrendStable
	}
}

// healthScore starts at 100 and is reduced by complexity, low
// documentation, dead-code ratio, duplicate ratio, and god-symbol
// count. The exact deduction thresholds aren't specified beyond two
// anchor points for complexity (<=10 ⇒ -0, >15 ⇒ -30); see DESIGN.md's
// Open Question decisions for the full piecewise rule chosen here.
func healthScore(ins *insight.Insights, duplicateSymbolCount int) float64 {
	score := 100.0

	switch {
	case ins.AvgComplexity <= 10:
		// no deduction
	case ins.AvgComplexity <= 15:
		score -= 15
	default:
		score -= 30
	}

	switch {
	case ins.DocumentationCoverage >= 0.6:
		// no deduction
	case ins.DocumentationCoverage >= 0.3:
		score -= 10
	default:
		score -= 20
	}

	if ins.TotalSymbols > 0 {
		deadRatio := float64(len(ins.DeadCode)) / float64(ins.TotalSymbols)
		switch {
		case deadRatio > 0.2:
			score -= 20
		case deadRatio > 0.1:
			score -= 10
		}

		dupRatio := float64(duplicateSymbolCount) / float64(ins.TotalSymbols)
		switch {
		case dupRatio > 0.15:
			score -= 20
		case dupRatio > 0.05:
			score -= 10
		}
	}

	switch {
	case len(ins.GodSymbols) >= 5:
		score -= 20
	case len(ins.GodSymbols) >= 2:
		score -= 10
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// topComplexSymbols is the top of LargestSymbols as a stand-in for a
// dedicated complexity ranking: Insights doesn't carry a per-symbol
// complexity list (only the aggregate AvgComplexity), so the snapshot
// reuses the largest-by-line-count symbols as the closest available
// proxy for "symbols worth a closer look".
func topComplexSymbols(ins *insight.Insights) []string {
	var out []string
	for _, c := range ins.LargestSymbols {
		out = append(out, c.Name)
	}
	return out
}

func marshalNames(names []string) string {
	if names == nil {
		names = []string{}
	}
	b, err := json.Marshal(names)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func shortCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
