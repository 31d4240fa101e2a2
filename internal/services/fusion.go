package services

import "sort"

const (
	// rrfK dampens the weight gap between adjacent ranks.
	rrfK = 60

	// fusedListSize caps the merged candidate list handed to reranking.
	fusedListSize = 20
)

// RankedCandidate is a chunk as seen by one or more retrieval channels,
// carrying whatever each channel knows about it.
type RankedCandidate struct {
	ChunkID    string
	DocumentID string
	Title      string
	Category   string
	Content    string
	Similarity *float64 // vector channel only
	FusedScore float64
}

// FuseRanked merges per-channel rankings with reciprocal rank fusion.
// A candidate appearing in several lists accumulates 1/(k+rank+1) from
// each. Candidates with equal scores keep the order in which they were
// first encountered across the input lists, so the result is fully
// deterministic for a given set of inputs.
func FuseRanked(lists ...[]RankedCandidate) []RankedCandidate {
	scores := make(map[string]float64)
	firstSeen := make(map[string]RankedCandidate)
	var order []string

	for _, list := range lists {
		for rank, candidate := range list {
			id := candidate.ChunkID
			if _, seen := scores[id]; !seen {
				order = append(order, id)
				firstSeen[id] = candidate
			} else if candidate.Similarity != nil {
				// Prefer the copy that knows its vector similarity.
				enriched := firstSeen[id]
				enriched.Similarity = candidate.Similarity
				firstSeen[id] = enriched
			}
			scores[id] += 1.0 / float64(rrfK+rank+1)
		}
	}

	fused := make([]RankedCandidate, 0, len(order))
	for _, id := range order {
		candidate := firstSeen[id]
		candidate.FusedScore = scores[id]
		fused = append(fused, candidate)
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].FusedScore > fused[j].FusedScore
	})

	if len(fused) > fusedListSize {
		fused = fused[:fusedListSize]
	}
	return fused
}
