// Package complexity is the stateless cyclomatic/cognitive score over
// a symbol body (C14): a single pure function with no dependency on
// the store or any other component, used by the ranker, the risk
// analyzer, and snapshot aggregation.
package complexity

import "regexp"

// branchPattern matches the branching constructs that add a path to a
// function's control-flow graph, across Go, Python, Rust, and
// TypeScript/JavaScript bodies: conditionals, loops, exception
// handlers, switch/match arms, and short-circuit boolean operators.
var branchPattern = regexp.MustCompile(
	`\b(if|elif|for|while|case|catch|except|match|select)\b|&&|\|\||\?\?`,
)

// Cyclomatic estimates McCabe cyclomatic complexity for a raw symbol
// body: one baseline path plus one for every branching construct
// found. It is a text-level heuristic rather than a full control-flow
// analysis, deliberately so it works identically across every
// extracted language without a dedicated AST walk per grammar.
func Cyclomatic(body string) int {
	return 1 + len(branchPattern.FindAllStringIndex(body, -1))
}

// Bucket maps a cyclomatic score to the ranker's inverted complexity
// signal: lower complexity scores higher.
func Bucket(score int) float64 {
	switch {
	case score <= 5:
		return 1.0
	case score <= 10:
		return 0.8
	case score <= 15:
		return 0.5
	case score <= 20:
		return 0.3
	default:
		return 0.1
	}
}
