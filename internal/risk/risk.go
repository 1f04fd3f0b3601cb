// Package risk is the per-symbol bug-risk scorer (C12): six weighted
// sub-scores folded into a 0-100 score and a coarse risk level.
package risk

import (
	"strings"

	"github.com/yepmem/core/internal/complexity"
	"github.com/yepmem/core/internal/store"
)

const (
	weightComplexity      = 0.25
	weightChangeFrequency = 0.20
	weightAuthorChurn     = 0.15
	weightLineCount       = 0.15
	weightTestCoverage    = 0.15
	weightDocumentation   = 0.10
)

// Level is a coarse bucketing of Score.Total for display.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// SubScores is the six [0,1] components that make up a risk Score,
// higher meaning riskier.
type SubScores struct {
	Complexity      float64
	ChangeFrequency float64
	AuthorChurn     float64
	LineCount       float64
	TestCoverage    float64
	Documentation   float64
}

// Score is the computed risk for one symbol.
type Score struct {
	Symbol string
	Sub    SubScores
	Total  float64 // 0-100
	Level  Level
}

// Compute computes the risk score for row. Test coverage has no data
// source in this store, so it always defaults to 0.5 per spec's
// "unknown -> 0.5" rule rather than 0.
func Compute(row *store.CodeSymbolRow) Score {
	sub := SubScores{
		Complexity:      complexityRisk(row.Body),
		ChangeFrequency: bucketChangeFrequency(row.GitChangeCount),
		AuthorChurn:     bucketAuthorChurn(row.GitAuthorCount),
		LineCount:       bucketLineCount(lineCount(row.Body)),
		TestCoverage:    0.5,
		Documentation:   documentationRisk(row.Summary),
	}
	total := weightComplexity*sub.Complexity +
		weightChangeFrequency*sub.ChangeFrequency +
		weightAuthorChurn*sub.AuthorChurn +
		weightLineCount*sub.LineCount +
		weightTestCoverage*sub.TestCoverage +
		weightDocumentation*sub.Documentation
	total *= 100

	return Score{
		Symbol: row.Symbol,
		Sub:    sub,
		Total:  total,
		Level:  levelFor(total),
	}
}

func levelFor(total float64) Level {
	switch {
	case total < 40:
		return LevelLow
	case total < 60:
		return LevelMedium
	case total < 80:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// complexityRisk inverts internal/complexity's bucket (high bucket
// value = simple code = low risk) into a risk contribution.
func complexityRisk(body string) float64 {
	return 1 - complexity.Bucket(complexity.Cyclomatic(body))
}

func bucketChangeFrequency(changeCount int) float64 {
	switch {
	case changeCount <= 2:
		return 0.1
	case changeCount <= 5:
		return 0.3
	case changeCount <= 10:
		return 0.6
	case changeCount <= 20:
		return 0.8
	default:
		return 1.0
	}
}

func bucketAuthorChurn(authorCount int) float64 {
	switch {
	case authorCount <= 1:
		return 0.1
	case authorCount == 2:
		return 0.3
	case authorCount <= 4:
		return 0.6
	default:
		return 1.0
	}
}

func bucketLineCount(lines int) float64 {
	switch {
	case lines <= 20:
		return 0.1
	case lines <= 50:
		return 0.3
	case lines <= 100:
		return 0.6
	case lines <= 200:
		return 0.8
	default:
		return 1.0
	}
}

// documentationRisk folds spec's three-tier rule (has doc -> 0.1, has
// summary -> 0.3, else 1.0) down to two tiers: the store only persists
// the derived Summary, not the raw doc comment a symbol may have had
// before chunking, so "has doc" and "has summary" are indistinguishable
// here. A non-empty summary scores the middle tier; an empty one scores
// the worst.
func documentationRisk(summary string) float64 {
	if strings.TrimSpace(summary) == "" {
		return 1.0
	}
	return 0.3
}

func lineCount(body string) int {
	if body == "" {
		return 0
	}
	return strings.Count(body, "\n") + 1
}
