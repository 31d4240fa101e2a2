package repositories

import (
	"context"

	"masslaw-api/pkg/postgres"
)

// Repositories holds all repository instances
type Repositories struct {
	Document *DocumentRepository
	Chunk    *ChunkRepository
	Job      *JobRepository
	QueryLog *QueryLogRepository
}

// NewRepositories creates all repositories backed by the same database
func NewRepositories(db *postgres.DB) *Repositories {
	return &Repositories{
		Document: NewDocumentRepository(db),
		Chunk:    NewChunkRepository(db),
		Job:      NewJobRepository(db),
		QueryLog: NewQueryLogRepository(db),
	}
}

// InitSchemas creates every table, in dependency order
func (r *Repositories) InitSchemas(ctx context.Context) error {
	if err := r.Document.CreateSchema(ctx); err != nil {
		return err
	}
	if err := r.Chunk.CreateSchema(ctx); err != nil {
		return err
	}
	if err := r.Job.CreateSchema(ctx); err != nil {
		return err
	}
	return r.QueryLog.CreateSchema(ctx)
}
