// Package recommend is the rule-based recommendations engine (C16): it
// turns an Insights aggregate into a ranked list of human-readable
// recommendations, each with a severity and the symbols it affects.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yepmem/core/internal/insight"
)

const (
	cacheTTL = 5 * time.Minute
	cacheKey = "recommendations"

	deadCodeWarnRatio     = 0.05
	deadCodeCriticalRatio = 0.15
	lowDocCoverage        = 0.3
	criticalDocCoverage   = 0.1
	maxAffectedSymbols    = 10
)

// Severity is a coarse priority bucket for a Recommendation, ordered
// the same way as internal/risk.Level.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Category names which structural signal a Recommendation was derived
// from, for grouping in a UI.
type Category string

const (
	CategoryGodSymbols   Category = "god_symbols"
	CategoryDeadCode     Category = "dead_code"
	CategoryDuplication  Category = "duplication"
	CategoryDocumentation Category = "documentation"
)

// Recommendation is one ranked, human-readable suggestion derived from
// the current structural insights.
type Recommendation struct {
	Category         Category
	Severity         Severity
	Title            string
	Description      string
	AffectedSymbols  []string
}

// LLMRecommender is the optional collaborator contract for an
// LLM-backed recommender: same input, same output shape, so a caller
// can swap RuleBasedRecommender for one without changing how the
// result is consumed. The core ships no implementation of this
// interface.
type LLMRecommender interface {
	Recommend(ctx context.Context, ins *insight.Insights) ([]Recommendation, error)
}

// RuleBasedRecommender derives Recommendations from an insight.Engine's
// output via a fixed set of threshold rules, cached behind the same
// TTL-expiry pattern as the PageRank cache.
type RuleBasedRecommender struct {
	insights *insight.Engine
	cache    *expirable.LRU[string, []Recommendation]
}

// NewRuleBasedRecommender wraps insights for recommendation derivation.
func NewRuleBasedRecommender(insights *insight.Engine) *RuleBasedRecommender {
	return &RuleBasedRecommender{
		insights: insights,
		cache:    expirable.NewLRU[string, []Recommendation](1, nil, cacheTTL),
	}
}

// Invalidate drops the cached recommendation list so the next
// Recommend call recomputes it. Called on every code_symbols mutation,
// same as the PageRank and insights caches.
func (r *RuleBasedRecommender) Invalidate() {
	r.cache.Remove(cacheKey)
}

// Recommend returns the cached recommendation list if still fresh,
// else recomputes it from the current insights snapshot.
func (r *RuleBasedRecommender) Recommend(ctx context.Context) ([]Recommendation, error) {
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached, nil
	}

	ins, err := r.insights.Compute(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute insights for recommendations: %w", err)
	}

	recs := rulesFor(ins)
	r.cache.Add(cacheKey, recs)
	return recs, nil
}

func rulesFor(ins *insight.Insights) []Recommendation {
	var recs []Recommendation

	if rec, ok := godSymbolRule(ins); ok {
		recs = append(recs, rec)
	}
	if rec, ok := deadCodeRule(ins); ok {
		recs = append(recs, rec)
	}
	recs = append(recs, duplicationRules(ins)...)
	if rec, ok := documentationRule(ins); ok {
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return severityRank[recs[i].Severity] > severityRank[recs[j].Severity]
	})
	return recs
}

func godSymbolRule(ins *insight.Insights) (Recommendation, bool) {
	if len(ins.GodSymbols) == 0 {
		return Recommendation{}, false
	}
	return Recommendation{
		Category:        CategoryGodSymbols,
		Severity:        SeverityHigh,
		Title:           "Split up god symbols",
		Description:     fmt.Sprintf("%d symbol(s) have more than 3x the median number of connections (callers + callees + importers); their outsized fan-in/fan-out makes them a concentration point for future changes and bugs.", len(ins.GodSymbols)),
		AffectedSymbols: capSymbols(ins.GodSymbols),
	}, true
}

func deadCodeRule(ins *insight.Insights) (Recommendation, bool) {
	if ins.TotalSymbols == 0 || len(ins.DeadCode) == 0 {
		return Recommendation{}, false
	}
	ratio := float64(len(ins.DeadCode)) / float64(ins.TotalSymbols)
	if ratio < deadCodeWarnRatio {
		return Recommendation{}, false
	}
	severity := SeverityMedium
	if ratio >= deadCodeCriticalRatio {
		severity = SeverityCritical
	}
	return Recommendation{
		Category:        CategoryDeadCode,
		Severity:        severity,
		Title:           "Remove or wire up dead code",
		Description:     fmt.Sprintf("%.0f%% of indexed symbols (%d of %d) have no known callers or importers; confirm they're unused and delete them, or they're reachable through a path this index can't see (reflection, codegen, dynamic dispatch).", ratio*100, len(ins.DeadCode), ins.TotalSymbols),
		AffectedSymbols: capSymbols(ins.DeadCode),
	}, true
}

func duplicationRules(ins *insight.Insights) []Recommendation {
	var recs []Recommendation
	for _, cluster := range ins.DuplicateClusters {
		if len(cluster.Members) < 2 {
			continue
		}
		severity := SeverityMedium
		if len(cluster.Members) >= 4 {
			severity = SeverityHigh
		}
		recs = append(recs, Recommendation{
			Category:        CategoryDuplication,
			Severity:        severity,
			Title:           "Deduplicate near-identical symbols",
			Description:     fmt.Sprintf("%d symbols cleared the cosine-similarity duplicate threshold against each other; consider extracting a shared helper.", len(cluster.Members)),
			AffectedSymbols: capSymbols(cluster.Members),
		})
	}
	return recs
}

func documentationRule(ins *insight.Insights) (Recommendation, bool) {
	if ins.TotalSymbols == 0 {
		return Recommendation{}, false
	}
	if ins.DocumentationCoverage >= lowDocCoverage {
		return Recommendation{}, false
	}
	severity := SeverityLow
	if ins.DocumentationCoverage < criticalDocCoverage {
		severity = SeverityMedium
	}
	return Recommendation{
		Category:    CategoryDocumentation,
		Severity:    severity,
		Title:       "Improve documentation coverage",
		Description: fmt.Sprintf("Only %.0f%% of indexed symbols carry a doc comment; undocumented public surface slows onboarding and code review.", ins.DocumentationCoverage*100),
	}, true
}

func capSymbols(names []string) []string {
	if len(names) <= maxAffectedSymbols {
		return names
	}
	out := make([]string, maxAffectedSymbols)
	copy(out, names[:maxAffectedSymbols])
	return out
}
