package services

import (
	"context"
	"strings"

	fylogger "github.com/FyersDev/trading-logger-go"

	"masslaw-api/pkg/llm"
)

// ChatClient is the slice of the LLM client used for text generation.
type ChatClient interface {
	Chat(ctx context.Context, messages []llm.Message, opts llm.ChatOptions) (string, error)
}

const classifierSystemPrompt = `You are a topic filter for a Massachusetts criminal law assistant.
Decide whether the user's question is about Massachusetts criminal law, criminal procedure, criminal statutes, or case law.
Respond with exactly one word: YES or NO. Do not explain.`

// Classifier gates incoming queries on topic. It fails closed: any
// model error, timeout, or answer other than a literal YES is treated
// as out of domain.
type Classifier struct {
	llm ChatClient
}

func NewClassifier(llmClient ChatClient) *Classifier {
	return &Classifier{llm: llmClient}
}

// IsInDomain reports whether the query should be answered at all.
func (c *Classifier) IsInDomain(ctx context.Context, query string) bool {
	answer, err := c.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: classifierSystemPrompt},
		{Role: "user", Content: query},
	}, llm.ChatOptions{Temperature: 0, MaxTokens: 5})
	if err != nil {
		fylogger.ErrorLog(ctx, "classification call failed, rejecting query", err, map[string]interface{}{})
		return false
	}

	verdict := strings.ToUpper(strings.TrimSpace(answer))
	return verdict == "YES"
}
