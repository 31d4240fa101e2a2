package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"masslaw-api/pkg/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DocumentStatus is the ingestion-status label stamped onto a document by the
// ingestion pipeline.
type DocumentStatus string

const (
	DocumentStatusPending   DocumentStatus = "pending"
	DocumentStatusCompleted DocumentStatus = "completed"
	DocumentStatusFailed    DocumentStatus = "failed"
)

// Document represents a source legal document registered for ingestion.
type Document struct {
	ID           uuid.UUID              `json:"id"`
	Title        string                 `json:"title"`
	Category     string                 `json:"category"`
	Content      string                 `json:"content"`
	Status       DocumentStatus         `json:"status"`
	ErrorMessage *string                `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// DocumentRepository handles document database operations
type DocumentRepository struct {
	db *postgres.DB
}

func NewDocumentRepository(db *postgres.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// CreateSchema creates the documents table if it doesn't exist
func (r *DocumentRepository) CreateSchema(ctx context.Context) error {
	query := `
		DO $$ BEGIN
			CREATE TYPE document_status AS ENUM ('pending', 'completed', 'failed');
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;

		CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			title VARCHAR(512) NOT NULL,
			category VARCHAR(128) NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			status document_status DEFAULT 'pending' NOT NULL,
			error_message TEXT,
			metadata JSONB DEFAULT '{}' NOT NULL,
			created_at TIMESTAMP DEFAULT NOW() NOT NULL,
			updated_at TIMESTAMP DEFAULT NOW() NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
		CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);
	`

	_, err := r.db.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create documents schema: %w", err)
	}

	return nil
}

// Create inserts a new document in pending status
func (r *DocumentRepository) Create(ctx context.Context, doc *Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Status == "" {
		doc.Status = DocumentStatusPending
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		metadataJSON = []byte("{}")
	}

	query := `
		INSERT INTO documents (id, title, category, content, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRow(ctx, query,
		doc.ID,
		doc.Title,
		doc.Category,
		doc.Content,
		doc.Status,
		metadataJSON,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by its ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	query := `
		SELECT id, title, category, content, status, error_message, metadata, created_at, updated_at
		FROM documents
		WHERE id = $1
	`

	doc := &Document{}
	var metadataJSON []byte

	err := r.db.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.Title,
		&doc.Category,
		&doc.Content,
		&doc.Status,
		&doc.ErrorMessage,
		&metadataJSON,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if len(metadataJSON) > 0 {
		json.Unmarshal(metadataJSON, &doc.Metadata)
	}

	return doc, nil
}

// MarkCompleted stamps the completed ingestion-status label onto a document
func (r *DocumentRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE documents
		SET status = $1, error_message = NULL, updated_at = NOW()
		WHERE id = $2
	`

	_, err := r.db.Exec(ctx, query, DocumentStatusCompleted, id)
	if err != nil {
		return fmt.Errorf("failed to mark document as completed: %w", err)
	}

	return nil
}

// MarkFailed stamps the failed label with an error message
func (r *DocumentRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE documents
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3
	`

	_, err := r.db.Exec(ctx, query, DocumentStatusFailed, errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to mark document as failed: %w", err)
	}

	return nil
}

// ListAll retrieves documents with pagination, newest first
func (r *DocumentRepository) ListAll(ctx context.Context, page, limit int) ([]*Document, int64, error) {
	offset := (page - 1) * limit

	var totalCount int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&totalCount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	query := `
		SELECT id, title, category, content, status, error_message, metadata, created_at, updated_at
		FROM documents
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	documents := make([]*Document, 0)
	for rows.Next() {
		doc := &Document{}
		var metadataJSON []byte

		err := rows.Scan(
			&doc.ID,
			&doc.Title,
			&doc.Category,
			&doc.Content,
			&doc.Status,
			&doc.ErrorMessage,
			&metadataJSON,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan document: %w", err)
		}

		if len(metadataJSON) > 0 {
			json.Unmarshal(metadataJSON, &doc.Metadata)
		}

		documents = append(documents, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return documents, totalCount, nil
}

// Delete removes a document by ID
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document not found: %s", id)
	}

	return nil
}
