package services

import (
	"time"

	"masslaw-api/config"
	"masslaw-api/internal/repositories"
	"masslaw-api/pkg/llm"
	"masslaw-api/pkg/memorydb"
	"masslaw-api/pkg/postgres"
	"masslaw-api/pkg/weaviate"
)

// Services wires every service over the shared clients and repositories
type Services struct {
	Health      *HealthService
	Query       *QueryService
	Document    *DocumentService
	Coordinator *WorkerCoordinator
}

// NewServices assembles the service layer. The redis client may be nil;
// the query pipeline then embeds without a cache.
func NewServices(
	cfg *config.Config,
	db *postgres.DB,
	redis *memorydb.RedisClient,
	weav *weaviate.WeaviateClient,
	llmClient *llm.Client,
	repos *repositories.Repositories,
) *Services {
	className := cfg.Weaviate.Class

	classifier := NewClassifier(llmClient)
	reranker := NewReranker(llmClient)

	var cache EmbeddingCache
	if redis != nil {
		cache = redis
	}

	query := NewQueryService(
		classifier,
		reranker,
		llmClient,
		llmClient,
		weav,
		repos.Chunk,
		repos.QueryLog,
		cache,
		className,
	)

	document := NewDocumentService(repos.Document, repos.Job, repos.Chunk, weav, className)

	worker := NewIngestionWorker(repos.Document, repos.Chunk, weav, llmClient, className)
	coordinator := NewWorkerCoordinator(
		repos.Job,
		worker,
		cfg.Worker.Count,
		time.Duration(cfg.Worker.PollInterval)*time.Second,
	)

	return &Services{
		Health:      NewHealthService(db, redis, weav, query),
		Query:       query,
		Document:    document,
		Coordinator: coordinator,
	}
}
