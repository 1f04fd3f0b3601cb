package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/yepmem/core/internal/insight"
	"github.com/yepmem/core/internal/store"
)

// maxStatsScanRows bounds the full-table scan GetStats uses to build
// its file/agent frequency distributions, mirroring insight.Engine's
// own bounded-scan discipline.
const maxStatsScanRows = 10000

// Stats summarizes the solutions table.
type Stats struct {
	TotalChunks int
	HasTable    bool
	TopFiles    []insight.Count
	Agents      []insight.Count
}

// CodeStats summarizes the code_symbols table.
type CodeStats struct {
	TotalSymbols int
	HasTable     bool
	Languages    []insight.Count
}

// GetStats returns aggregate counts over the solutions table: total
// chunks indexed, the files touched most often across sessions, and
// the agents that produced them.
func (e *Engine) GetStats(ctx context.Context) (*Stats, error) {
	total, err := e.st.SQL.CountSolutions(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("count solutions: %w", err)
	}
	if total == 0 {
		return &Stats{HasTable: false}, nil
	}

	rows, err := e.st.SQL.QuerySolutions(ctx, nil, maxStatsScanRows)
	if err != nil {
		return nil, fmt.Errorf("scan solutions: %w", err)
	}

	fileCounts := make(map[string]int)
	agentCounts := make(map[string]int)
	for _, r := range rows {
		for _, f := range r.FilesChanged {
			fileCounts[f]++
		}
		if r.Agent != "" {
			agentCounts[r.Agent]++
		}
	}

	return &Stats{
		TotalChunks: total,
		HasTable:    true,
		TopFiles:    topCounts(sortedCounts(fileCounts), 15),
		Agents:      sortedCounts(agentCounts),
	}, nil
}

// GetCodeStats returns aggregate counts over the code_symbols table:
// total symbols indexed and the language distribution across them.
func (e *Engine) GetCodeStats(ctx context.Context) (*CodeStats, error) {
	total, err := e.st.SQL.CountCodeSymbols(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("count code symbols: %w", err)
	}
	if total == 0 {
		return &CodeStats{HasTable: false}, nil
	}

	insights, err := e.insights.Compute(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute language distribution: %w", err)
	}

	return &CodeStats{
		TotalSymbols: total,
		HasTable:     true,
		Languages:    insights.LanguageDistribution,
	}, nil
}

// GetCodeInsights returns the full structural-metrics aggregate over
// code_symbols.
func (e *Engine) GetCodeInsights(ctx context.Context) (*insight.Insights, error) {
	insights, err := e.insights.Compute(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute code insights: %w", err)
	}
	return insights, nil
}

// GetSnapshotHistory returns up to limit of the most recent metrics
// snapshots, newest first.
func (e *Engine) GetSnapshotHistory(ctx context.Context, limit int) ([]*store.CodeMetricRow, error) {
	snaps, err := e.snapshots.History(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("get snapshot history: %w", err)
	}
	return snaps, nil
}

// GetLatestSnapshot returns the most recent metrics snapshot, or nil
// if none has been captured yet.
func (e *Engine) GetLatestSnapshot(ctx context.Context) (*store.CodeMetricRow, error) {
	snap, err := e.snapshots.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return snap, nil
}

// sortedCounts turns a frequency map into a slice sorted by count
// descending then name ascending, the same ordering insight.Engine
// applies to its own distributions.
func sortedCounts(m map[string]int) []insight.Count {
	out := make([]insight.Count, 0, len(m))
	for name, count := range m {
		out = append(out, insight.Count{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// topCounts truncates an already-sorted Count slice to n entries.
func topCounts(counts []insight.Count, n int) []insight.Count {
	if len(counts) <= n {
		return counts
	}
	return counts[:n]
}
