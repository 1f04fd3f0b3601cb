package graph

import (
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	damping       = 0.85
	maxIterations = 20
	epsilon       = 1e-4

	cacheTTL = 5 * time.Minute
	cacheKey = "pagerank"
)

// ComputePageRank runs iterative PageRank over edges (node -> nodes it
// points to). A dangling node (out-degree 0) is treated as having
// out-degree 1 rather than redistributing its mass; dangling-node
// correctness is explicitly not a goal here.
func ComputePageRank(edges map[string][]string) map[string]float64 {
	nodes := make(map[string]struct{}, len(edges))
	for n, outs := range edges {
		nodes[n] = struct{}{}
		for _, o := range outs {
			nodes[o] = struct{}{}
		}
	}
	n := len(nodes)
	if n == 0 {
		return map[string]float64{}
	}

	outDeg := make(map[string]int, n)
	incoming := make(map[string][]string, n)
	for node := range nodes {
		outDeg[node] = 0
	}
	for src, outs := range edges {
		for _, dst := range outs {
			outDeg[src]++
			incoming[dst] = append(incoming[dst], src)
		}
	}

	scores := make(map[string]float64, n)
	for node := range nodes {
		scores[node] = 1.0 / float64(n)
	}

	base := (1 - damping) / float64(n)
	for iter := 0; iter < maxIterations; iter++ {
		next := make(map[string]float64, n)
		maxDelta := 0.0
		for node := range nodes {
			sum := 0.0
			for _, src := range incoming[node] {
				od := outDeg[src]
				if od == 0 {
					od = 1
				}
				sum += scores[src] / float64(od)
			}
			val := base + damping*sum
			next[node] = val
			if delta := math.Abs(val - scores[node]); delta > maxDelta {
				maxDelta = delta
			}
		}
		scores = next
		if maxDelta < epsilon {
			break
		}
	}
	return scores
}

// PageRankCache holds one computed PageRank map behind a 5-minute TTL,
// with an explicit Invalidate hook called by every store writer so a
// re-index never serves a stale graph past its next read.
type PageRankCache struct {
	mu      sync.Mutex
	cache   *expirable.LRU[string, map[string]float64]
	compute func() map[string]float64
}

// NewPageRankCache wraps compute (a full PageRank recomputation) behind
// a TTL cache.
func NewPageRankCache(compute func() map[string]float64) *PageRankCache {
	return &PageRankCache{
		cache:   expirable.NewLRU[string, map[string]float64](1, nil, cacheTTL),
		compute: compute,
	}
}

// Scores returns the cached PageRank map, recomputing it if the TTL
// expired or it was explicitly invalidated.
func (c *PageRankCache) Scores() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if scores, ok := c.cache.Get(cacheKey); ok {
		return scores
	}
	scores := c.compute()
	c.cache.Add(cacheKey, scores)
	return scores
}

// Invalidate drops the cached PageRank map so the next Scores call
// recomputes it. Called on every code_symbols mutation and on
// co-change or snapshot resets.
func (c *PageRankCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Remove(cacheKey)
}

// Normalized implements rank.PopularityIndex: symbol's PageRank score,
// min-max normalized over the current cache.
func (c *PageRankCache) Normalized(symbol string) (float64, bool) {
	scores := c.Scores()
	if len(scores) == 0 {
		return 0, false
	}
	score, ok := scores[symbol]
	if !ok {
		return 0, false
	}
	lo, hi := minMax(scores)
	if hi == lo {
		return 1.0, true
	}
	return (score - lo) / (hi - lo), true
}

func minMax(scores map[string]float64) (lo, hi float64) {
	first := true
	for _, v := range scores {
		if first {
			lo, hi = v, v
			first = false
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
