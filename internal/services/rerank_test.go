package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(candidates []RankedCandidate) []string {
	out := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		out = append(out, candidate.ChunkID)
	}
	return out
}

func TestRerankReordersByModelPreference(t *testing.T) {
	chat := &stubChat{response: `{"ranked_ids": ["c3", "c1", "c2"]}`}
	reranker := NewReranker(chat)

	out := reranker.Rerank(context.Background(), "q", candidates("c1", "c2", "c3"))

	assert.Equal(t, []string{"c3", "c1", "c2"}, ids(out))
}

func TestRerankFallsBackOnCallError(t *testing.T) {
	reranker := NewReranker(&stubChat{err: errors.New("timeout")})
	input := candidates("c1", "c2", "c3")

	out := reranker.Rerank(context.Background(), "q", input)

	assert.Equal(t, input, out)
}

func TestRerankFallsBackOnMalformedJSON(t *testing.T) {
	for _, response := range []string{"not json", `{"ranked": ["c1"]}`, `{"ranked_ids": "c1"}`, ""} {
		reranker := NewReranker(&stubChat{response: response})
		input := candidates("c1", "c2")

		out := reranker.Rerank(context.Background(), "q", input)

		assert.Equal(t, input, out, "response %q must fall back", response)
	}
}

func TestRerankSkipsUnknownIDs(t *testing.T) {
	chat := &stubChat{response: `{"ranked_ids": ["c9", "c2", "c1"]}`}
	reranker := NewReranker(chat)

	out := reranker.Rerank(context.Background(), "q", candidates("c1", "c2"))

	assert.Equal(t, []string{"c2", "c1"}, ids(out))
}

func TestRerankDedupesRepeatedIDs(t *testing.T) {
	chat := &stubChat{response: `{"ranked_ids": ["c2", "c2", "c1", "c2"]}`}
	reranker := NewReranker(chat)

	out := reranker.Rerank(context.Background(), "q", candidates("c1", "c2"))

	assert.Equal(t, []string{"c2", "c1"}, ids(out))
}

func TestRerankAppendsOmittedCandidates(t *testing.T) {
	chat := &stubChat{response: `{"ranked_ids": ["c3"]}`}
	reranker := NewReranker(chat)

	out := reranker.Rerank(context.Background(), "q", candidates("c1", "c2", "c3", "c4"))

	// model's pick first, then the omitted ones in original order
	assert.Equal(t, []string{"c3", "c1", "c2", "c4"}, ids(out))
}

func TestRerankAlwaysReturnsEveryInputExactlyOnce(t *testing.T) {
	responses := []string{
		`{"ranked_ids": []}`,
		`{"ranked_ids": ["c2"]}`,
		`{"ranked_ids": ["zz", "c1", "c1"]}`,
		`{"ranked_ids": ["c3", "c2", "c1"]}`,
	}
	input := candidates("c1", "c2", "c3")

	for _, response := range responses {
		out := NewReranker(&stubChat{response: response}).Rerank(context.Background(), "q", input)

		require.Len(t, out, len(input), "response %q", response)
		seen := make(map[string]bool)
		for _, candidate := range out {
			assert.False(t, seen[candidate.ChunkID], "duplicate %s for response %q", candidate.ChunkID, response)
			seen[candidate.ChunkID] = true
		}
	}
}

func TestRerankPromptTruncatesPassagesBetweenRunes(t *testing.T) {
	long := RankedCandidate{ChunkID: "c1", Content: strings.Repeat("§", 1500)}

	prompt := buildRerankPrompt("q", []RankedCandidate{long})

	assert.True(t, utf8.ValidString(prompt))
	assert.Contains(t, prompt, strings.Repeat("§", 1000))
	assert.NotContains(t, prompt, strings.Repeat("§", 1001))
}

func TestRerankSkipsTrivialLists(t *testing.T) {
	chat := &stubChat{}
	reranker := NewReranker(chat)

	single := candidates("only")
	assert.Equal(t, single, reranker.Rerank(context.Background(), "q", single))
	assert.Empty(t, reranker.Rerank(context.Background(), "q", nil))
	assert.Zero(t, chat.calls)
}
