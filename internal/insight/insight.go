// Package insight is the structural-metrics aggregator (C10): a single
// bounded scan over code_symbols producing language/type distributions,
// hot files, dead code, most-connected symbols, the largest symbols,
// and duplicate clusters, behind a TTL+delta cache.
package insight

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yepmem/core/internal/complexity"
	"github.com/yepmem/core/internal/graph"
	"github.com/yepmem/core/internal/lsh"
	"github.com/yepmem/core/internal/store"
)

const (
	maxScanRows          = 10000
	topN                 = 15
	deadCodeCap          = 30
	duplicateBatchSize   = 200
	duplicateMinBodyLine = 5
	cacheTTL             = 5 * time.Minute
	deltaInvalidateRows  = 50
)

// Count is a generic (name, count) pair used by every distribution and
// top-N list Insights exposes.
type Count struct {
	Name  string
	Count int
}

// Insights is the transient aggregate derived from the current
// code_symbols table.
type Insights struct {
	TotalSymbols          int
	TotalFiles            int
	LanguageDistribution  []Count
	TypeDistribution      []Count
	HotFiles              []Count
	DeadCode              []string
	MostConnected         []Count
	LargestSymbols        []Count
	GodSymbols            []string
	AvgSymbolsPerFile     float64
	AvgComplexity         float64
	DocumentationCoverage float64
	DuplicateClusters     []lsh.DuplicateCluster
}

// Engine computes Insights over a store, with a PageRank-cache-style
// TTL+delta cache: a cached result is served as long as it's under
// cacheTTL old AND the current row count hasn't moved by more than
// deltaInvalidateRows since it was computed.
type Engine struct {
	st  *store.Store
	now func() time.Time

	cached     *Insights
	cachedAt   time.Time
	cachedRows int
}

// NewEngine builds an insights engine over st. now defaults to
// time.Now; tests may override it for deterministic TTL behaviour.
func NewEngine(st *store.Store, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{st: st, now: now}
}

// Invalidate drops the cached result so the next Compute call
// recomputes from scratch.
func (e *Engine) Invalidate() {
	e.cached = nil
}

// Compute returns the cached Insights if still fresh, else recomputes
// from a fresh scan and caches the result.
func (e *Engine) Compute(ctx context.Context) (*Insights, error) {
	rows, err := e.st.SQL.QueryCodeSymbols(ctx, nil, maxScanRows)
	if err != nil {
		return nil, fmt.Errorf("scan code_symbols for insights: %w", err)
	}

	if e.cached != nil {
		fresh := e.now().Sub(e.cachedAt) < cacheTTL
		delta := len(rows) - e.cachedRows
		if delta < 0 {
			delta = -delta
		}
		if fresh && delta <= deltaInvalidateRows {
			return e.cached, nil
		}
	}

	g, err := graph.Build(ctx, e.st)
	if err != nil {
		return nil, fmt.Errorf("build graph for insights: %w", err)
	}

	result := compute(rows, g)
	result.DuplicateClusters = computeDuplicates(rows)

	e.cached = result
	e.cachedAt = e.now()
	e.cachedRows = len(rows)
	return result, nil
}

// godSymbolCap bounds how many god symbols a single Compute call
// reports.
const godSymbolCap = 20

func compute(rows []*store.CodeSymbolRow, g *graph.Graph) *Insights {
	languageCounts := make(map[string]int)
	typeCounts := make(map[string]int)
	fileCounts := make(map[string]int)

	connections := make([]int, len(rows))
	for i, r := range rows {
		languageCounts[r.Language]++
		typeCounts[r.SymbolType]++
		fileCounts[r.Path]++
		connections[i] = g.CallerCount(r.Symbol) + g.CalleeCount(r.Symbol) + g.ImporterCount(r.Symbol)
	}
	godThreshold := 3 * median(connections)

	var deadCode []string
	var godCandidates []Count
	var mostConnected []Count
	var largest []Count
	complexitySum := 0
	documented := 0
	for i, r := range rows {
		callers := g.CallerCount(r.Symbol)
		importers := g.ImporterCount(r.Symbol)
		conn := connections[i]
		lines := lineCount(r.Body)

		if callers == 0 && importers == 0 && r.SymbolType != "type" && r.SymbolType != "interface" {
			if len(deadCode) < deadCodeCap {
				deadCode = append(deadCode, r.Symbol)
			}
		}
		if godThreshold > 0 && float64(conn) > godThreshold {
			godCandidates = append(godCandidates, Count{Name: r.Symbol, Count: conn})
		}
		mostConnected = append(mostConnected, Count{Name: r.Symbol, Count: conn})
		largest = append(largest, Count{Name: r.Symbol, Count: lines})
		complexitySum += complexity.Cyclomatic(r.Body)
		if strings.TrimSpace(r.Summary) != "" {
			documented++
		}
	}

	godCandidates = topCounts(godCandidates, godSymbolCap)
	godSymbols := make([]string, len(godCandidates))
	for i, c := range godCandidates {
		godSymbols[i] = c.Name
	}

	avgSymbolsPerFile := 0.0
	if len(fileCounts) > 0 {
		sum := 0
		for _, c := range fileCounts {
			sum += c
		}
		avgSymbolsPerFile = round1(float64(sum) / float64(len(fileCounts)))
	}

	avgComplexity := 0.0
	docCoverage := 0.0
	if len(rows) > 0 {
		avgComplexity = float64(complexitySum) / float64(len(rows))
		docCoverage = float64(documented) / float64(len(rows))
	}

	return &Insights{
		TotalSymbols:          len(rows),
		TotalFiles:            len(fileCounts),
		LanguageDistribution:  sortedCounts(languageCounts),
		TypeDistribution:      sortedCounts(typeCounts),
		HotFiles:              topCounts(sortedCounts(fileCounts), topN),
		DeadCode:              deadCode,
		MostConnected:         topCounts(mostConnected, topN),
		LargestSymbols:        topCounts(largest, topN),
		GodSymbols:            godSymbols,
		AvgSymbolsPerFile:     avgSymbolsPerFile,
		AvgComplexity:         avgComplexity,
		DocumentationCoverage: docCoverage,
	}
}

// computeDuplicates selects up to duplicateBatchSize candidates with a
// body of at least duplicateMinBodyLine lines and clusters them via
// internal/lsh.
func computeDuplicates(rows []*store.CodeSymbolRow) []lsh.DuplicateCluster {
	var candidates []lsh.Candidate
	for _, r := range rows {
		if lineCount(r.Body) < duplicateMinBodyLine || len(r.Vector) == 0 {
			continue
		}
		candidates = append(candidates, lsh.Candidate{ID: r.ID, Vector: r.Vector})
		if len(candidates) >= duplicateBatchSize {
			break
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return lsh.Cluster(candidates, lsh.DefaultNumPlanes, lsh.DefaultNumTables, lsh.CosineThreshold, 1)
}

// median returns the median of vals without mutating the caller's
// slice. An empty input yields 0, so a threshold derived from it
// (3*median) never spuriously flags every symbol as a god symbol on an
// empty or all-zero graph.
func median(vals []int) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]int, len(vals))
	copy(sorted, vals)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return float64(sorted[mid-1]+sorted[mid]) / 2
	}
	return float64(sorted[mid])
}

func lineCount(body string) int {
	if body == "" {
		return 0
	}
	return strings.Count(body, "\n") + 1
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for name, count := range m {
		out = append(out, Count{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func topCounts(counts []Count, n int) []Count {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Name < counts[j].Name
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
