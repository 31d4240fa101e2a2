package services

import (
	"context"
	"fmt"
	"strings"

	fylogger "github.com/FyersDev/trading-logger-go"
	"github.com/google/uuid"

	"masslaw-api/internal/repositories"
	apperrors "masslaw-api/pkg/errors"
)

// DocumentService manages the document lifecycle: upload enqueues a
// processing job, deletion removes the document and everything derived
// from it.
type DocumentService struct {
	documents *repositories.DocumentRepository
	jobs      *repositories.JobRepository
	chunks    *repositories.ChunkRepository
	index     VectorIndex
	className string
}

func NewDocumentService(
	documents *repositories.DocumentRepository,
	jobs *repositories.JobRepository,
	chunks *repositories.ChunkRepository,
	index VectorIndex,
	className string,
) *DocumentService {
	return &DocumentService{
		documents: documents,
		jobs:      jobs,
		chunks:    chunks,
		index:     index,
		className: className,
	}
}

// UploadInput is a document submitted for ingestion.
type UploadInput struct {
	Title    string                 `json:"title"`
	Category string                 `json:"category"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Upload stores the document in pending state and enqueues its
// processing job. The document becomes searchable only after a worker
// completes the job.
func (s *DocumentService) Upload(ctx context.Context, input *UploadInput) (*repositories.Document, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewError("VALIDATION_ERROR", "title is required", 400)
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperrors.NewError("VALIDATION_ERROR", "content is required", 400)
	}

	doc := &repositories.Document{
		ID:       uuid.New(),
		Title:    input.Title,
		Category: input.Category,
		Content:  input.Content,
		Status:   repositories.DocumentStatusPending,
		Metadata: input.Metadata,
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	job, err := s.jobs.Enqueue(ctx, repositories.JobTypeDocumentProcessing, map[string]interface{}{
		"document_id": doc.ID.String(),
	})
	if err != nil {
		// The document stays pending; a later re-enqueue can pick it up.
		fylogger.ErrorLog(ctx, "failed to enqueue processing job", err, map[string]interface{}{
			"document_id": doc.ID.String(),
		})
		return nil, fmt.Errorf("failed to enqueue processing job: %w", err)
	}

	fylogger.InfoLog(ctx, "document uploaded", map[string]interface{}{
		"document_id": doc.ID.String(),
		"job_id":      job.ID.String(),
	})
	return doc, nil
}

// Get returns one document by ID along with how many chunks its
// ingestion produced so far.
func (s *DocumentService) Get(ctx context.Context, id uuid.UUID) (*repositories.Document, int64, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if doc == nil {
		return nil, 0, apperrors.ErrNotFound
	}

	chunkCount, err := s.chunks.CountByDocument(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	return doc, chunkCount, nil
}

// List returns a page of documents with the total count
func (s *DocumentService) List(ctx context.Context, page, limit int) ([]*repositories.Document, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.documents.ListAll(ctx, page, limit)
}

// Delete removes the document, its chunk rows, and its index vectors.
func (s *DocumentService) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return apperrors.ErrNotFound
	}

	if err := s.index.DeleteByDocumentID(ctx, s.className, id.String()); err != nil {
		return fmt.Errorf("failed to delete document vectors: %w", err)
	}
	if err := s.chunks.DeleteByDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document chunks: %w", err)
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	fylogger.InfoLog(ctx, "document deleted", map[string]interface{}{
		"document_id": id.String(),
	})
	return nil
}
