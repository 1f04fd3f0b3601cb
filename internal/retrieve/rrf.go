package retrieve

import (
	"sort"
	"strings"
)

// rrfK is the Reciprocal Rank Fusion rank-smoothing constant.
const rrfK = 60

type rrfEntry struct {
	id    string
	score float64
}

// fuseRRF scores every id seen in vectorIDs, ftsIDs, or exactIDs by
// Reciprocal Rank Fusion: each list contributes 1/(rrfK+rank+1) for the
// id's rank within that list (rank 0-based), and an id present in
// exactIDs additionally gets exactBoost[id] added once. The sum is not
// rescaled to [0,1]: a boosted id can score above 1.0, and the ranker
// normalizes per-signal on its own. The result is sorted by score
// descending, ties broken by ascending id so repeated runs over an
// unchanged store are stable.
func fuseRRF(vectorIDs, ftsIDs, exactIDs []string, exactBoost map[string]float64) []rrfEntry {
	scores := make(map[string]float64)
	for rank, id := range vectorIDs {
		scores[id] += 1.0 / float64(rrfK+rank+1)
	}
	for rank, id := range ftsIDs {
		scores[id] += 1.0 / float64(rrfK+rank+1)
	}
	for rank, id := range exactIDs {
		scores[id] += exactBoost[id] + 1.0/float64(rrfK+rank+1)
	}

	entries := make([]rrfEntry, 0, len(scores))
	for id, score := range scores {
		entries = append(entries, rrfEntry{id: id, score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].id < entries[j].id
	})
	return entries
}

// exactBoostFor returns the exact-match boost for a symbol matched
// against query q: 0.5 when the symbol equals q or ends with ".q"
// (case-insensitive, e.g. "Widget.Rename" against "rename"), 0.2 for
// any other exact-name leg hit (a "q%" prefix match).
func exactBoostFor(symbol, q string) float64 {
	lowerSymbol, lowerQ := strings.ToLower(symbol), strings.ToLower(q)
	if lowerSymbol == lowerQ || strings.HasSuffix(lowerSymbol, "."+lowerQ) {
		return 0.5
	}
	return 0.2
}
