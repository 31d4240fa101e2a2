package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"masslaw-api/pkg/postgres"

	"github.com/google/uuid"
)

// Chunk is a unit of ingested legal text. Rows are immutable once written;
// the matching embedding lives in the vector index under the same ID.
type Chunk struct {
	ID         uuid.UUID              `json:"id"`
	DocumentID uuid.UUID              `json:"document_id"`
	Content    string                 `json:"content"`
	ChunkIndex int                    `json:"chunk_index"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ChunkRepository handles chunk storage and full-text retrieval
type ChunkRepository struct {
	db *postgres.DB
}

func NewChunkRepository(db *postgres.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// CreateSchema creates the chunks table with a generated tsvector column for
// full-text search
func (r *ChunkRepository) CreateSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS chunks (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			chunk_index INT NOT NULL,
			metadata JSONB DEFAULT '{}' NOT NULL,
			tsv tsvector GENERATED ALWAYS AS (to_tsvector('english', content)) STORED,
			created_at TIMESTAMP DEFAULT NOW() NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id);
		CREATE INDEX IF NOT EXISTS idx_chunks_tsv ON chunks USING GIN(tsv);
	`

	_, err := r.db.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create chunks schema: %w", err)
	}

	return nil
}

// InsertBatch writes a batch of chunks for one document
func (r *ChunkRepository) InsertBatch(ctx context.Context, chunks []*Chunk) error {
	query := `
		INSERT INTO chunks (id, document_id, content, chunk_index, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			metadataJSON = []byte("{}")
		}

		_, err = r.db.Exec(ctx, query,
			chunk.ID,
			chunk.DocumentID,
			chunk.Content,
			chunk.ChunkIndex,
			metadataJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunk.ChunkIndex, err)
		}
	}

	return nil
}

// SearchHit is a chunk returned by full-text retrieval, joined with the
// title and category of its parent document.
type SearchHit struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Content    string    `json:"content"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
}

// SearchText runs websearch-style full-text retrieval over chunk content,
// ordered by text relevance. It never produces a similarity score.
func (r *ChunkRepository) SearchText(ctx context.Context, queryText string, limit int) ([]*SearchHit, error) {
	query := `
		SELECT c.id, c.document_id, c.content, d.title, d.category
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.tsv @@ websearch_to_tsquery('english', $1)
		ORDER BY ts_rank(c.tsv, websearch_to_tsquery('english', $1)) DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, queryText, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run text search: %w", err)
	}
	defer rows.Close()

	hits := make([]*SearchHit, 0)
	for rows.Next() {
		hit := &SearchHit{}

		err := rows.Scan(
			&hit.ID,
			&hit.DocumentID,
			&hit.Content,
			&hit.Title,
			&hit.Category,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}

		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search hits: %w", err)
	}

	return hits, nil
}

// DeleteByDocument removes every chunk of a document
func (r *ChunkRepository) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}

	return nil
}

// CountByDocument returns how many chunks a document produced
func (r *ChunkRepository) CountByDocument(ctx context.Context, documentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM chunks WHERE document_id = $1`, documentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}

	return count, nil
}
