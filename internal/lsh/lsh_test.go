package lsh

import (
	"math/rand"
	"testing"
)

func TestCosineSimilarityIdentical(t *testing.T) {
	v := []float32{1, 2, 3}
	if got := CosineSimilarity(v, v); got < 0.999 {
		t.Fatalf("expected ~1.0 for identical vectors, got %v", got)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if got := CosineSimilarity(a, b); got != 0 {
		t.Fatalf("expected 0 for orthogonal vectors, got %v", got)
	}
}

func TestCosineSimilarityZeroVectorIsZero(t *testing.T) {
	a := []float32{0, 0, 0}
	b := []float32{1, 2, 3}
	if got := CosineSimilarity(a, b); got != 0 {
		t.Fatalf("expected 0 when one vector is zero, got %v", got)
	}
}

func TestIndexCandidatesFindsNearDuplicate(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	idx := New(8, DefaultNumPlanes, DefaultNumTables, rng)

	base := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	nearDup := []float32{1.01, 2.01, 3.01, 4.01, 5.01, 6.01, 7.01, 8.01}
	unrelated := []float32{-8, 3, -1, 9, -2, 0, 4, -5}

	idx.Add("base", base)
	idx.Add("near", nearDup)
	idx.Add("unrelated", unrelated)

	candidates := idx.Candidates("base")
	found := false
	for _, c := range candidates {
		if c == "near" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected near-duplicate to share a bucket with base, candidates=%v", candidates)
	}
}

func TestIndexCandidatesMissingIDReturnsNil(t *testing.T) {
	idx := New(4, DefaultNumPlanes, DefaultNumTables, nil)
	if got := idx.Candidates("nope"); got != nil {
		t.Fatalf("expected nil for an id never added, got %v", got)
	}
}

func TestClusterGroupsNearDuplicates(t *testing.T) {
	candidates := []Candidate{
		{ID: "a", Vector: []float32{1, 2, 3, 4, 5, 6, 7, 8}},
		{ID: "b", Vector: []float32{1.001, 2.001, 3.001, 4.001, 5.001, 6.001, 7.001, 8.001}},
		{ID: "c", Vector: []float32{-3, 9, -1, 2, 0, -6, 4, 1}},
	}
	clusters := Cluster(candidates, DefaultNumPlanes, DefaultNumTables, CosineThreshold, 7)
	if len(clusters) != 1 {
		t.Fatalf("expected exactly one cluster, got %d: %+v", len(clusters), clusters)
	}
	if len(clusters[0].Members) != 2 {
		t.Fatalf("expected cluster of size 2, got %+v", clusters[0].Members)
	}
	want := map[string]bool{"a": true, "b": true}
	for _, m := range clusters[0].Members {
		if !want[m] {
			t.Fatalf("unexpected cluster member %q", m)
		}
	}
}

func TestClusterSingletonsDropped(t *testing.T) {
	candidates := []Candidate{
		{ID: "a", Vector: []float32{1, 0, 0, 0}},
		{ID: "b", Vector: []float32{0, 1, 0, 0}},
		{ID: "c", Vector: []float32{0, 0, 1, 0}},
	}
	clusters := Cluster(candidates, DefaultNumPlanes, DefaultNumTables, CosineThreshold, 1)
	if len(clusters) != 0 {
		t.Fatalf("expected no clusters among unrelated vectors, got %+v", clusters)
	}
}

func TestClusterEmptyInput(t *testing.T) {
	if got := Cluster(nil, DefaultNumPlanes, DefaultNumTables, CosineThreshold, 1); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestClusterNonTransitiveNoCandidateInTwoClusters(t *testing.T) {
	candidates := []Candidate{
		{ID: "a", Vector: []float32{1, 2, 3, 4, 5, 6, 7, 8}},
		{ID: "b", Vector: []float32{1.001, 2.001, 3.001, 4.001, 5.001, 6.001, 7.001, 8.001}},
		{ID: "c", Vector: []float32{1.002, 2.002, 3.002, 4.002, 5.002, 6.002, 7.002, 8.002}},
	}
	clusters := Cluster(candidates, DefaultNumPlanes, DefaultNumTables, CosineThreshold, 3)
	seen := make(map[string]int)
	for _, cl := range clusters {
		for _, m := range cl.Members {
			seen[m]++
		}
	}
	for id, count := range seen {
		if count > 1 {
			t.Fatalf("candidate %q appeared in %d clusters, expected at most 1", id, count)
		}
	}
}
