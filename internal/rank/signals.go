package rank

import (
	"strings"
	"time"
	"unicode"

	"github.com/yepmem/core/internal/complexity"
)

// Signals holds the seven pre-normalized [0,1] scores that make up a
// candidate's final rank.
type Signals struct {
	VectorScore     float64
	FTSScore        float64
	ExactMatch      float64
	PopularityScore float64
	FreshnessScore  float64
	ComplexityScore float64
	ContextScore    float64
}

const (
	weightVector     = 0.35
	weightFTS        = 0.20
	weightExactMatch = 0.15
	weightPopularity = 0.15
	weightFreshness  = 0.05
	weightComplexity = 0.05
	weightContext    = 0.05
)

// WeightedSum combines the seven signals into the final [0,1] score.
func (s Signals) WeightedSum() float64 {
	return s.VectorScore*weightVector +
		s.FTSScore*weightFTS +
		s.ExactMatch*weightExactMatch +
		s.PopularityScore*weightPopularity +
		s.FreshnessScore*weightFreshness +
		s.ComplexityScore*weightComplexity +
		s.ContextScore*weightContext
}

// minMaxNormalize rescales vals into [0,1]. A batch with no spread
// (including an all-zero batch, e.g. a leg that contributed nothing)
// maps every value to 0.5 rather than 0, consistent with the "missing
// data defaults to 0.5, never 0" rule applied to every other signal.
func minMaxNormalize(vals []float64) []float64 {
	out := make([]float64, len(vals))
	if len(vals) == 0 {
		return out
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, v := range vals {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}

// exactMatchSignal scores symbol against query on a fixed scale: an
// empty query carries no signal so it defaults to 0.5.
func exactMatchSignal(symbol, query string) float64 {
	if query == "" {
		return 0.5
	}
	lowerSymbol, lowerQuery := strings.ToLower(symbol), strings.ToLower(query)
	switch {
	case lowerSymbol == lowerQuery:
		return 1.0
	case strings.HasPrefix(lowerSymbol, lowerQuery):
		return 0.8
	case strings.EqualFold(camelInitials(symbol), query):
		return 0.6
	case strings.Contains(lowerSymbol, lowerQuery):
		return 0.5
	default:
		return 0
	}
}

// camelInitials extracts the first letter plus every upper-case letter
// of symbol, lower-cased, e.g. "getUserByID" -> "gubid". Used to match
// initialism-style queries against camelCase symbol names.
func camelInitials(symbol string) string {
	var b strings.Builder
	for i, r := range symbol {
		if i == 0 || unicode.IsUpper(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// freshnessSignal buckets how recently a symbol's file last changed.
// A zero LastModified (unknown) defaults to 0.5.
func freshnessSignal(lastModified, now time.Time) float64 {
	if lastModified.IsZero() {
		return 0.5
	}
	age := now.Sub(lastModified)
	switch {
	case age < 7*24*time.Hour:
		return 1.0
	case age < 30*24*time.Hour:
		return 0.8
	case age < 90*24*time.Hour:
		return 0.5
	default:
		return 0.2
	}
}

// contextSignal rewards a candidate in the file currently open, plus a
// partial boost for sharing the current directory, clamped to 1.0. With
// no context at all it defaults to 0.5.
func contextSignal(path, currentFile, currentDirectory string) float64 {
	if currentFile == "" && currentDirectory == "" {
		return 0.5
	}
	var score float64
	if currentFile != "" && path == currentFile {
		score = 1.0
	}
	if currentDirectory != "" && strings.HasPrefix(path, currentDirectory) {
		score += 0.5
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// complexityScore inverts cyclomatic complexity of body into the
// ranker's bucketed [0,1] scale.
func complexityScore(body string) float64 {
	return complexity.Bucket(complexity.Cyclomatic(body))
}
