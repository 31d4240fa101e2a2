package services

import (
	"context"
	"fmt"

	fylogger "github.com/FyersDev/trading-logger-go"
	"github.com/google/uuid"

	"masslaw-api/internal/chunker"
	"masslaw-api/internal/repositories"
	"masslaw-api/pkg/weaviate"
)

// DocumentStore is the slice of the document repository the worker needs.
type DocumentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repositories.Document, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
}

// ChunkStore persists chunk rows alongside their vector-index twins.
type ChunkStore interface {
	InsertBatch(ctx context.Context, chunks []*repositories.Chunk) error
	DeleteByDocument(ctx context.Context, documentID uuid.UUID) error
}

// VectorIndex is the slice of the Weaviate client the worker needs.
type VectorIndex interface {
	BatchInsertChunks(ctx context.Context, className string, chunks []weaviate.Chunk, vectors [][]float32, config *weaviate.InsertConfig) error
	DeleteByDocumentID(ctx context.Context, className, documentID string) error
}

// IngestionWorker turns one claimed document-processing job into stored,
// searchable chunks. Every run ends with the document marked completed or
// failed, mirroring the job's own terminal state.
type IngestionWorker struct {
	documents DocumentStore
	chunks    ChunkStore
	index     VectorIndex
	embedder  Embedder
	chunkCfg  chunker.Config
	className string
}

func NewIngestionWorker(
	documents DocumentStore,
	chunks ChunkStore,
	index VectorIndex,
	embedder Embedder,
	className string,
) *IngestionWorker {
	return &IngestionWorker{
		documents: documents,
		chunks:    chunks,
		index:     index,
		embedder:  embedder,
		chunkCfg:  chunker.DefaultConfig(),
		className: className,
	}
}

// Process ingests the document named by the job. The returned error is
// what the caller records on the job via Fail; a nil error means the
// document is fully chunked, embedded, and stored in both stores, and
// the result map describes what was written.
func (w *IngestionWorker) Process(ctx context.Context, job *repositories.ProcessingJob) (map[string]interface{}, error) {
	documentID, err := documentIDFromJob(job)
	if err != nil {
		return nil, err
	}

	chunkCount, err := w.ingest(ctx, documentID)
	if err != nil {
		if markErr := w.documents.MarkFailed(ctx, documentID, err.Error()); markErr != nil {
			fylogger.ErrorLog(ctx, "failed to mark document failed", markErr, map[string]interface{}{
				"document_id": documentID.String(),
			})
		}
		return nil, err
	}

	if err := w.documents.MarkCompleted(ctx, documentID); err != nil {
		return nil, fmt.Errorf("failed to mark document completed: %w", err)
	}

	return map[string]interface{}{
		"document_id": documentID.String(),
		"chunk_count": chunkCount,
	}, nil
}

func (w *IngestionWorker) ingest(ctx context.Context, documentID uuid.UUID) (int, error) {
	doc, err := w.documents.GetByID(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("failed to load document: %w", err)
	}

	pieces := chunker.Split(doc.Content, w.chunkCfg)
	if len(pieces) == 0 {
		return 0, fmt.Errorf("document %s has no content to ingest", documentID)
	}

	// Re-ingestion replaces whatever an earlier attempt left behind.
	if err := w.chunks.DeleteByDocument(ctx, documentID); err != nil {
		return 0, fmt.Errorf("failed to clear previous chunks: %w", err)
	}
	if err := w.index.DeleteByDocumentID(ctx, w.className, documentID.String()); err != nil {
		return 0, fmt.Errorf("failed to clear previous vectors: %w", err)
	}

	rows := make([]*repositories.Chunk, 0, len(pieces))
	objects := make([]weaviate.Chunk, 0, len(pieces))
	vectors := make([][]float32, 0, len(pieces))

	for i, piece := range pieces {
		vec, err := w.embedder.Embed(ctx, piece)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}

		chunkID := uuid.New()
		rows = append(rows, &repositories.Chunk{
			ID:         chunkID,
			DocumentID: documentID,
			Content:    piece,
			ChunkIndex: i,
		})
		objects = append(objects, weaviate.Chunk{
			ID:         chunkID.String(),
			DocumentID: documentID.String(),
			Content:    piece,
			Title:      doc.Title,
			Category:   doc.Category,
			ChunkIndex: i,
		})
		vectors = append(vectors, vec)
	}

	if err := w.chunks.InsertBatch(ctx, rows); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}
	if err := w.index.BatchInsertChunks(ctx, w.className, objects, vectors, weaviate.DefaultInsertConfig()); err != nil {
		return 0, fmt.Errorf("failed to index chunk vectors: %w", err)
	}

	fylogger.InfoLog(ctx, "document ingested", map[string]interface{}{
		"document_id": documentID.String(),
		"chunks":      len(rows),
	})
	return len(rows), nil
}

func documentIDFromJob(job *repositories.ProcessingJob) (uuid.UUID, error) {
	raw, ok := job.JobData["document_id"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("job %s has no document_id", job.ID)
	}

	documentID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("job %s has invalid document_id: %w", job.ID, err)
	}
	return documentID, nil
}
