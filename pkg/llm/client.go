package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"masslaw-api/config"
)

// Client is an OpenAI-compatible client for chat completions and embeddings.
// It carries no retry logic of its own; callers decide how to degrade when a
// call fails.
type Client struct {
	baseURL        string
	apiKey         string
	chatModel      string
	embeddingModel string
	client         *http.Client
}

func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.LLM.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:        cfg.LLM.BaseURL,
		apiKey:         cfg.LLM.APIKey,
		chatModel:      cfg.LLM.ChatModel,
		embeddingModel: cfg.LLM.EmbeddingModel,
		client:         &http.Client{Timeout: timeout},
	}
}

// Message is a single chat message in OpenAI wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions controls a single completion call.
type ChatOptions struct {
	Temperature float64
	MaxTokens   int  // 0 means provider default
	JSONMode    bool // request response_format {"type":"json_object"}
}

// Chat sends a completion request and returns choices[0].message.content.
func (c *Client) Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	payload := map[string]interface{}{
		"model":       c.chatModel,
		"messages":    messages,
		"temperature": opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		payload["max_tokens"] = opts.MaxTokens
	}
	if opts.JSONMode {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}

	body, err := c.post(ctx, "/chat/completions", payload)
	if err != nil {
		return "", err
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	return response.Choices[0].Message.Content, nil
}

// Embed returns the embedding vector for the given text. The vector dimension
// is fixed by the configured model and must match the vector index.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]interface{}{
		"model": c.embeddingModel,
		"input": text,
	}

	body, err := c.post(ctx, "/embeddings", payload)
	if err != nil {
		return nil, err
	}

	var response struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(response.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}

	return response.Data[0].Embedding, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("api error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
