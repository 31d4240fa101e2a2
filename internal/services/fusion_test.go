package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates(ids ...string) []RankedCandidate {
	out := make([]RankedCandidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, RankedCandidate{ChunkID: id, Content: "content " + id})
	}
	return out
}

func TestFuseRankedSharedCandidateWins(t *testing.T) {
	vector := candidates("a", "b")
	lexical := candidates("c", "a")

	fused := FuseRanked(vector, lexical)

	require.Len(t, fused, 3)
	assert.Equal(t, "a", fused[0].ChunkID)
	// rank 0 in one list plus rank 1 in the other
	assert.InDelta(t, 1.0/61+1.0/62, fused[0].FusedScore, 1e-12)
}

func TestFuseRankedAdditiveScore(t *testing.T) {
	// Same candidate at rank 0 in both lists scores exactly 2/(k+1).
	fused := FuseRanked(candidates("x"), candidates("x"))

	require.Len(t, fused, 1)
	assert.InDelta(t, 2.0/61, fused[0].FusedScore, 1e-12)
}

func TestFuseRankedTieBreakFirstSeen(t *testing.T) {
	// y and x both appear only at rank 0, so they tie; y was seen first.
	fused := FuseRanked(candidates("y"), candidates("x"))

	require.Len(t, fused, 2)
	assert.Equal(t, "y", fused[0].ChunkID)
	assert.Equal(t, "x", fused[1].ChunkID)
}

func TestFuseRankedMirroredListsKeepCombinationOrder(t *testing.T) {
	// Lexical [y, x] against vector [x, y]: every candidate scores
	// 1/61 + 1/62, so the lexical-first combination order decides.
	lexical := candidates("y", "x")
	xSim, ySim := 0.88, 0.73
	vector := []RankedCandidate{
		{ChunkID: "x", Similarity: &xSim},
		{ChunkID: "y", Similarity: &ySim},
	}

	fused := FuseRanked(lexical, vector)

	require.Len(t, fused, 2)
	assert.Equal(t, "y", fused[0].ChunkID)
	assert.Equal(t, "x", fused[1].ChunkID)
	assert.InDelta(t, 1.0/61+1.0/62, fused[0].FusedScore, 1e-12)
	assert.InDelta(t, 1.0/61+1.0/62, fused[1].FusedScore, 1e-12)
	// Both still carry the vector channel's similarity.
	require.NotNil(t, fused[0].Similarity)
	assert.Equal(t, 0.73, *fused[0].Similarity)
}

func TestFuseRankedDeterministic(t *testing.T) {
	vector := candidates("a", "b", "c", "d")
	lexical := candidates("d", "b", "e")

	first := FuseRanked(vector, lexical)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, FuseRanked(vector, lexical))
	}
}

func TestFuseRankedPartialOverlap(t *testing.T) {
	// c3 appears in both channels and wins; among the single-channel
	// leftovers, rank-0 c1 (1/61) edges out rank-1 c2 (1/62).
	lexical := candidates("c3", "c2")
	vector := candidates("c1", "c3")

	fused := FuseRanked(lexical, vector)

	require.Len(t, fused, 3)
	assert.Equal(t, "c3", fused[0].ChunkID)
	assert.Equal(t, "c1", fused[1].ChunkID)
	assert.Equal(t, "c2", fused[2].ChunkID)
}

func TestFuseRankedTruncates(t *testing.T) {
	var long []RankedCandidate
	for i := 0; i < 30; i++ {
		long = append(long, RankedCandidate{ChunkID: fmt.Sprintf("chunk-%02d", i)})
	}

	fused := FuseRanked(long)

	require.Len(t, fused, fusedListSize)
	// Truncation keeps the best-ranked prefix.
	assert.Equal(t, "chunk-00", fused[0].ChunkID)
	assert.Equal(t, "chunk-19", fused[19].ChunkID)
}

func TestFuseRankedEmptyChannels(t *testing.T) {
	assert.Empty(t, FuseRanked(nil, nil))

	only := FuseRanked(candidates("a", "b"), nil)
	require.Len(t, only, 2)
	assert.Equal(t, "a", only[0].ChunkID)
}

func TestFuseRankedKeepsSimilarityFromVectorCopy(t *testing.T) {
	sim := 0.91
	vector := []RankedCandidate{{ChunkID: "a", Similarity: &sim}}
	lexical := candidates("a")

	fused := FuseRanked(lexical, vector)

	require.Len(t, fused, 1)
	require.NotNil(t, fused[0].Similarity)
	assert.Equal(t, 0.91, *fused[0].Similarity)
}
