package retrieve

import "testing"

func TestFuseRRFCombinesLegs(t *testing.T) {
	vector := []string{"a", "b", "c"}
	fts := []string{"b", "a"}
	entries := fuseRRF(vector, fts, nil, nil)

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	// a and b swap rank 0/1 between the two legs, giving them an
	// identical combined score; the ascending-id tie-break puts a first.
	if entries[0].id != "a" {
		t.Fatalf("expected tie-broken id a to rank first, got %s", entries[0].id)
	}
	if entries[2].id != "c" {
		t.Fatalf("expected c (single-leg hit) to rank last, got %s", entries[2].id)
	}
}

func TestFuseRRFExactBoostWins(t *testing.T) {
	vector := []string{"x", "y"}
	exact := []string{"y"}
	boost := map[string]float64{"y": 0.5}

	entries := fuseRRF(vector, nil, exact, boost)
	if entries[0].id != "y" {
		t.Fatalf("expected exact-boosted id y to rank first, got %s with score %v", entries[0].id, entries[0].score)
	}
}

func TestFuseRRFTieBreaksByAscendingID(t *testing.T) {
	// Each of "a" and "b" is rank 0 in exactly one leg, so they score
	// identically; the tie-break must prefer the lexicographically
	// smaller id regardless of leg order.
	entries := fuseRRF([]string{"b"}, []string{"a"}, nil, nil)
	if entries[0].score != entries[1].score {
		t.Fatalf("expected equal scores for rank-0 singleton legs, got %v vs %v", entries[0].score, entries[1].score)
	}
	if entries[0].id != "a" {
		t.Fatalf("expected ascending-id tie-break to prefer %q over %q", "a", "b")
	}
}

func TestExactBoostForEquality(t *testing.T) {
	if got := exactBoostFor("Rename", "rename"); got != 0.5 {
		t.Fatalf("expected case-insensitive equality boost 0.5, got %v", got)
	}
}

func TestExactBoostForSuffix(t *testing.T) {
	if got := exactBoostFor("Widget.Rename", "Rename"); got != 0.5 {
		t.Fatalf("expected dotted-suffix boost 0.5, got %v", got)
	}
}

func TestExactBoostForPrefixOnly(t *testing.T) {
	if got := exactBoostFor("RenameAll", "Rename"); got != 0.2 {
		t.Fatalf("expected prefix-only boost 0.2, got %v", got)
	}
}
