package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	fylogger "github.com/FyersDev/trading-logger-go"

	"masslaw-api/internal/repositories"
	"masslaw-api/pkg/llm"
	"masslaw-api/pkg/weaviate"
)

// RefusalMessage is returned verbatim for every query the gate rejects
// and whenever answer generation itself is unavailable.
const RefusalMessage = "I can only answer questions about Massachusetts criminal law. Please ask about Massachusetts criminal statutes, procedures, or case law."

const answerSystemPrompt = `You are a Massachusetts criminal law assistant.
Answer the user's question using only the provided context passages.
Cite the statutes and cases the passages mention. If the context does not cover the question, say so plainly.`

const (
	defaultMatchCount  = 20
	embeddingCacheTTL  = 24 * time.Hour
	fallbackConfidence = 0.5
)

// Embedder is the slice of the LLM client used for embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher runs similarity search against the vector index.
type VectorSearcher interface {
	MatchChunks(ctx context.Context, className string, embedding []float32, matchCount int) ([]weaviate.Chunk, error)
}

// LexicalSearcher runs full-text retrieval against Postgres.
type LexicalSearcher interface {
	SearchText(ctx context.Context, queryText string, limit int) ([]*repositories.SearchHit, error)
}

// QueryLogStore records one audit entry per classified query.
type QueryLogStore interface {
	Append(ctx context.Context, entry *repositories.QueryLogEntry) error
}

// EmbeddingCache avoids re-embedding repeated query text. May be nil.
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, bool)
	SetEmbedding(ctx context.Context, text string, vec []float32, expiration time.Duration) error
}

// Source is one supporting passage attached to an answer.
type Source struct {
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	Content    string   `json:"content,omitempty"`
	Similarity *float64 `json:"similarity,omitempty"`
}

// QueryResponse is the complete result of one query, well formed even
// when the query is refused or parts of the pipeline are down.
type QueryResponse struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Confidence float64  `json:"confidence"`
	QueryID    string   `json:"query_id,omitempty"`
}

// QueryService runs the full pipeline: topic gate, hybrid retrieval,
// rank fusion, best-effort rerank, answer generation, audit logging.
type QueryService struct {
	classifier *Classifier
	reranker   *Reranker
	llm        ChatClient
	embedder   Embedder
	vector     VectorSearcher
	lexical    LexicalSearcher
	logs       QueryLogStore
	cache      EmbeddingCache
	className  string
	matchCount int

	// count of audit entries lost to log-store errors
	droppedLogs atomic.Int64
}

func NewQueryService(
	classifier *Classifier,
	reranker *Reranker,
	llmClient ChatClient,
	embedder Embedder,
	vector VectorSearcher,
	lexical LexicalSearcher,
	logs QueryLogStore,
	cache EmbeddingCache,
	className string,
) *QueryService {
	return &QueryService{
		classifier: classifier,
		reranker:   reranker,
		llm:        llmClient,
		embedder:   embedder,
		vector:     vector,
		lexical:    lexical,
		logs:       logs,
		cache:      cache,
		className:  className,
		matchCount: defaultMatchCount,
	}
}

// Answer runs one query through the pipeline. It never returns an
// error: every failure mode maps to a well-formed response, and every
// call leaves exactly one audit entry (unless the log store itself is
// down, which is counted but never surfaced to the caller).
func (s *QueryService) Answer(ctx context.Context, query string) *QueryResponse {
	start := time.Now()

	if !s.classifier.IsInDomain(ctx, query) {
		response := &QueryResponse{
			Answer:     RefusalMessage,
			Sources:    []Source{},
			Confidence: 1.0,
		}
		response.QueryID = s.appendLog(ctx, query, false, start, response)
		return response
	}

	candidates := s.retrieve(ctx, query)
	candidates = s.reranker.Rerank(ctx, query, candidates)

	response := &QueryResponse{
		Answer:     s.generateAnswer(ctx, query, candidates),
		Sources:    buildSources(candidates),
		Confidence: confidenceFor(candidates),
	}
	response.QueryID = s.appendLog(ctx, query, true, start, response)
	return response
}

// retrieve runs the vector and lexical channels concurrently and fuses
// their rankings. A failed channel contributes an empty list; the
// other channel still counts.
func (s *QueryService) retrieve(ctx context.Context, query string) []RankedCandidate {
	var (
		wg          sync.WaitGroup
		vectorList  []RankedCandidate
		lexicalList []RankedCandidate
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		vectorList = s.vectorChannel(ctx, query)
	}()
	go func() {
		defer wg.Done()
		lexicalList = s.lexicalChannel(ctx, query)
	}()
	wg.Wait()

	// Lexical results are folded in first; candidates with equal fused
	// scores keep keyword-ranking order.
	return FuseRanked(lexicalList, vectorList)
}

func (s *QueryService) vectorChannel(ctx context.Context, query string) []RankedCandidate {
	embedding, err := s.embedQuery(ctx, query)
	if err != nil {
		fylogger.ErrorLog(ctx, "query embedding failed, skipping vector channel", err, map[string]interface{}{})
		return nil
	}

	matches, err := s.vector.MatchChunks(ctx, s.className, embedding, s.matchCount)
	if err != nil {
		fylogger.ErrorLog(ctx, "vector search failed, skipping vector channel", err, map[string]interface{}{})
		return nil
	}

	list := make([]RankedCandidate, 0, len(matches))
	for _, match := range matches {
		similarity := match.Similarity
		list = append(list, RankedCandidate{
			ChunkID:    match.ID,
			DocumentID: match.DocumentID,
			Title:      match.Title,
			Category:   match.Category,
			Content:    match.Content,
			Similarity: &similarity,
		})
	}
	return list
}

func (s *QueryService) lexicalChannel(ctx context.Context, query string) []RankedCandidate {
	hits, err := s.lexical.SearchText(ctx, query, s.matchCount)
	if err != nil {
		fylogger.ErrorLog(ctx, "text search failed, skipping lexical channel", err, map[string]interface{}{})
		return nil
	}

	list := make([]RankedCandidate, 0, len(hits))
	for _, hit := range hits {
		list = append(list, RankedCandidate{
			ChunkID:    hit.ID.String(),
			DocumentID: hit.DocumentID.String(),
			Title:      hit.Title,
			Category:   hit.Category,
			Content:    hit.Content,
		})
	}
	return list
}

func (s *QueryService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if s.cache != nil {
		if vec, ok := s.cache.GetEmbedding(ctx, query); ok {
			return vec, nil
		}
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetEmbedding(ctx, query, vec, embeddingCacheTTL); err != nil {
			fylogger.ErrorLog(ctx, "failed to cache query embedding", err, map[string]interface{}{})
		}
	}
	return vec, nil
}

func (s *QueryService) generateAnswer(ctx context.Context, query string, candidates []RankedCandidate) string {
	if len(candidates) == 0 {
		return "I could not find any Massachusetts criminal law material relevant to your question. Try rephrasing it or asking about a specific statute."
	}

	answer, err := s.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: buildAnswerPrompt(query, candidates)},
	}, llm.ChatOptions{Temperature: 0.2})
	if err != nil {
		fylogger.ErrorLog(ctx, "answer generation failed", err, map[string]interface{}{})
		return RefusalMessage
	}
	return strings.TrimSpace(answer)
}

// appendLog writes the single audit entry for this query and returns
// its id. Log-store failures are counted, never propagated.
func (s *QueryService) appendLog(ctx context.Context, query string, inDomain bool, start time.Time, response *QueryResponse) string {
	entry := &repositories.QueryLogEntry{
		Query:          query,
		InDomain:       inDomain,
		ResponseTimeMs: time.Since(start).Milliseconds(),
		Confidence:     response.Confidence,
		Sources:        sourcesForLog(response.Sources),
	}

	if err := s.logs.Append(ctx, entry); err != nil {
		dropped := s.droppedLogs.Add(1)
		fylogger.ErrorLog(ctx, "failed to append query log entry", err, map[string]interface{}{
			"dropped_total": dropped,
		})
		return ""
	}
	return entry.ID.String()
}

// DroppedLogCount reports how many audit entries have been lost since
// startup. Exposed on the health endpoint.
func (s *QueryService) DroppedLogCount() int64 {
	return s.droppedLogs.Load()
}

func buildAnswerPrompt(query string, candidates []RankedCandidate) string {
	var b strings.Builder
	b.WriteString("Context passages:\n\n")
	for i, candidate := range candidates {
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n\n", i+1, candidate.Title, candidate.Category, candidate.Content)
	}
	fmt.Fprintf(&b, "Question: %s", query)
	return b.String()
}

func buildSources(candidates []RankedCandidate) []Source {
	sources := make([]Source, 0, len(candidates))
	for _, candidate := range candidates {
		sources = append(sources, Source{
			Title:      candidate.Title,
			Category:   candidate.Category,
			Content:    candidate.Content,
			Similarity: candidate.Similarity,
		})
	}
	return sources
}

func sourcesForLog(sources []Source) []interface{} {
	out := make([]interface{}, 0, len(sources))
	for _, source := range sources {
		entry := map[string]interface{}{
			"title":    source.Title,
			"category": source.Category,
		}
		if source.Similarity != nil {
			entry["similarity"] = *source.Similarity
		}
		out = append(out, entry)
	}
	return out
}

// confidenceFor uses the best vector similarity when the vector channel
// contributed, and a fixed mid value when only lexical evidence exists.
func confidenceFor(candidates []RankedCandidate) float64 {
	best := 0.0
	found := false
	for _, candidate := range candidates {
		if candidate.Similarity != nil && *candidate.Similarity > best {
			best = *candidate.Similarity
			found = true
		}
	}
	if !found {
		if len(candidates) == 0 {
			return 0.0
		}
		return fallbackConfidence
	}
	return best
}
