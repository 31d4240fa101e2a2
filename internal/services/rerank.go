package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	fylogger "github.com/FyersDev/trading-logger-go"

	"masslaw-api/pkg/llm"
)

const rerankSystemPrompt = `You reorder search results for a Massachusetts criminal law assistant.
Given a question and a numbered list of passages, return the passage ids ordered from most to least relevant to the question.
Respond with JSON only, in the form {"ranked_ids": ["id1", "id2", ...]}.`

// Reranker asks the model to reorder fused candidates by relevance.
// It is strictly best-effort: whatever goes wrong, the caller gets a
// usable candidate list back, at worst in the original order.
type Reranker struct {
	llm ChatClient
}

func NewReranker(llmClient ChatClient) *Reranker {
	return &Reranker{llm: llmClient}
}

// Rerank returns the candidates reordered by model preference. The
// result always contains exactly the input candidates: ids the model
// invented are skipped, duplicates count once, and anything the model
// omitted is appended in its original position order.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []RankedCandidate) []RankedCandidate {
	if len(candidates) < 2 {
		return candidates
	}

	raw, err := r.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: rerankSystemPrompt},
		{Role: "user", Content: buildRerankPrompt(query, candidates)},
	}, llm.ChatOptions{Temperature: 0, JSONMode: true})
	if err != nil {
		fylogger.ErrorLog(ctx, "rerank call failed, keeping fused order", err, map[string]interface{}{
			"candidates": len(candidates),
		})
		return candidates
	}

	rankedIDs, err := parseRankedIDs(raw)
	if err != nil {
		fylogger.ErrorLog(ctx, "rerank response unparseable, keeping fused order", err, map[string]interface{}{})
		return candidates
	}

	byID := make(map[string]RankedCandidate, len(candidates))
	for _, candidate := range candidates {
		byID[candidate.ChunkID] = candidate
	}

	placed := make(map[string]bool, len(candidates))
	out := make([]RankedCandidate, 0, len(candidates))
	for _, id := range rankedIDs {
		candidate, known := byID[id]
		if !known || placed[id] {
			continue
		}
		placed[id] = true
		out = append(out, candidate)
	}
	for _, candidate := range candidates {
		if !placed[candidate.ChunkID] {
			out = append(out, candidate)
		}
	}
	return out
}

func buildRerankPrompt(query string, candidates []RankedCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nPassages:\n", query)
	for _, candidate := range candidates {
		content := candidate.Content
		if runes := []rune(content); len(runes) > 1000 {
			content = string(runes[:1000])
		}
		fmt.Fprintf(&b, "[%s] %s\n\n", candidate.ChunkID, content)
	}
	return b.String()
}

func parseRankedIDs(raw string) ([]string, error) {
	var parsed struct {
		RankedIDs []string `json:"ranked_ids"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse rerank response: %w", err)
	}
	if parsed.RankedIDs == nil {
		return nil, fmt.Errorf("rerank response missing ranked_ids")
	}
	return parsed.RankedIDs, nil
}
