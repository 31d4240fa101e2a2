package weaviate

import (
	"context"
	"fmt"

	fylogger "github.com/FyersDev/trading-logger-go"
	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate/entities/models"
)

// BatchInsertChunks inserts chunks with their precomputed vectors in batches.
// vectors[i] is the embedding for chunks[i]; the two slices must be the same
// length and every chunk must already carry a UUID shared with the relational
// chunk row.
func (w *WeaviateClient) BatchInsertChunks(
	ctx context.Context,
	className string,
	chunks []Chunk,
	vectors [][]float32,
	config *InsertConfig,
) error {
	if config == nil {
		config = DefaultInsertConfig()
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}

	batcher := w.Client.Batch().ObjectsBatcher()

	for i, chunk := range chunks {
		properties := map[string]interface{}{
			"content":     chunk.Content,
			"title":       chunk.Title,
			"category":    chunk.Category,
			"document_id": chunk.DocumentID,
			"chunk_index": chunk.ChunkIndex,
		}

		batcher = batcher.WithObjects(&models.Object{
			Class:      className,
			ID:         strfmt.UUID(chunk.ID),
			Properties: properties,
			Vector:     models.C11yVector(vectors[i]),
		})

		// Execute batch when reaching batch size or at the end
		if (i+1)%config.BatchSize == 0 || i == len(chunks)-1 {
			if _, err := batcher.Do(ctx); err != nil {
				return fmt.Errorf("batch insert failed at chunk %d: %w", i, err)
			}
			if i < len(chunks)-1 {
				batcher = w.Client.Batch().ObjectsBatcher()
			}
		}
	}

	fylogger.InfoLog(ctx, "batch insert completed", map[string]interface{}{
		"class":  className,
		"chunks": len(chunks),
	})
	return nil
}

// DeleteByDocumentID removes every chunk object belonging to a document.
func (w *WeaviateClient) DeleteByDocumentID(ctx context.Context, className, documentID string) error {
	_, err := w.Client.Batch().ObjectsBatchDeleter().
		WithClassName(className).
		WithWhere(filters.Where().
			WithPath([]string{"document_id"}).
			WithOperator(filters.Equal).
			WithValueText(documentID)).
		Do(ctx)

	if err != nil {
		fylogger.ErrorLog(ctx, "failed to delete document chunks", err, map[string]interface{}{
			"class":       className,
			"document_id": documentID,
		})
		return fmt.Errorf("failed to delete chunks for document %s: %w", documentID, err)
	}

	return nil
}
