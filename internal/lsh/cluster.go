package lsh

import (
	"math/rand"
	"sort"
)

// Candidate is one row eligible for duplicate clustering: an id, the
// vector to hash, and its dimension-matching source data is the
// caller's responsibility.
type Candidate struct {
	ID     string
	Vector []float32
}

// DuplicateCluster is a group of candidates whose pairwise cosine
// similarity cleared the confirmation threshold via a shared LSH
// bucket, sorted by member id ascending.
type DuplicateCluster struct {
	Members []string
}

// Cluster builds a fresh index over candidates with numPlanes x
// numTables random hyperplanes (seeded for reproducibility), looks up
// each candidate's bucket neighbours in input order, and confirms them
// by exact cosine similarity >= threshold. A candidate already claimed
// by an earlier cluster is skipped; this makes clustering greedy and
// non-transitive, matching the rule that no candidate belongs to more
// than one cluster. Only clusters of size >= 2 are returned, sorted by
// size descending then by first (smallest) member id ascending.
func Cluster(candidates []Candidate, numPlanes, numTables int, threshold float64, seed int64) []DuplicateCluster {
	if len(candidates) == 0 {
		return nil
	}
	dim := len(candidates[0].Vector)
	idx := New(dim, numPlanes, numTables, rand.New(rand.NewSource(seed)))
	for _, c := range candidates {
		idx.Add(c.ID, c.Vector)
	}

	byID := make(map[string][]float32, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c.Vector
	}

	claimed := make(map[string]bool, len(candidates))
	var clusters []DuplicateCluster
	for _, c := range candidates {
		if claimed[c.ID] {
			continue
		}
		members := []string{c.ID}
		for _, otherID := range idx.Candidates(c.ID) {
			if claimed[otherID] || otherID == c.ID {
				continue
			}
			if CosineSimilarity(c.Vector, byID[otherID]) >= threshold {
				members = append(members, otherID)
			}
		}
		if len(members) < 2 {
			continue
		}
		sort.Strings(members)
		for _, m := range members {
			claimed[m] = true
		}
		clusters = append(clusters, DuplicateCluster{Members: members})
	}

	sort.Slice(clusters, func(i, j int) bool {
		if len(clusters[i].Members) != len(clusters[j].Members) {
			return len(clusters[i].Members) > len(clusters[j].Members)
		}
		return clusters[i].Members[0] < clusters[j].Members[0]
	})
	return clusters
}
