package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masslaw-api/internal/repositories"
	"masslaw-api/pkg/weaviate"
)

type stubDocumentStore struct {
	doc         *repositories.Document
	getErr      error
	completed   []uuid.UUID
	failed      map[uuid.UUID]string
	completeErr error
}

func (s *stubDocumentStore) GetByID(ctx context.Context, id uuid.UUID) (*repositories.Document, error) {
	return s.doc, s.getErr
}

func (s *stubDocumentStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	if s.completeErr != nil {
		return s.completeErr
	}
	s.completed = append(s.completed, id)
	return nil
}

func (s *stubDocumentStore) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	if s.failed == nil {
		s.failed = make(map[uuid.UUID]string)
	}
	s.failed[id] = errorMessage
	return nil
}

type stubChunkStore struct {
	inserted  []*repositories.Chunk
	deleted   []uuid.UUID
	insertErr error
}

func (s *stubChunkStore) InsertBatch(ctx context.Context, chunks []*repositories.Chunk) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, chunks...)
	return nil
}

func (s *stubChunkStore) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	s.deleted = append(s.deleted, documentID)
	return nil
}

type stubVectorIndex struct {
	inserted  []weaviate.Chunk
	vectors   [][]float32
	deleted   []string
	insertErr error
}

func (s *stubVectorIndex) BatchInsertChunks(ctx context.Context, className string, chunks []weaviate.Chunk, vectors [][]float32, config *weaviate.InsertConfig) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, chunks...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

func (s *stubVectorIndex) DeleteByDocumentID(ctx context.Context, className, documentID string) error {
	s.deleted = append(s.deleted, documentID)
	return nil
}

func processingJob(documentID uuid.UUID) *repositories.ProcessingJob {
	return &repositories.ProcessingJob{
		ID:      uuid.New(),
		JobType: repositories.JobTypeDocumentProcessing,
		JobData: map[string]interface{}{"document_id": documentID.String()},
		Status:  repositories.JobStatusProcessing,
	}
}

func TestProcessIngestsDocument(t *testing.T) {
	documentID := uuid.New()
	docs := &stubDocumentStore{doc: &repositories.Document{
		ID:       documentID,
		Title:    "G.L. c. 265 § 1",
		Category: "statute",
		Content:  strings.Repeat("Murder is the unlawful killing of a human being with malice aforethought. ", 40),
	}}
	chunks := &stubChunkStore{}
	index := &stubVectorIndex{}
	worker := NewIngestionWorker(docs, chunks, index, &stubEmbedder{vec: []float32{0.1, 0.2}}, "LegalChunk")

	result, err := worker.Process(context.Background(), processingJob(documentID))

	require.NoError(t, err)
	assert.Equal(t, documentID.String(), result["document_id"])
	assert.Equal(t, len(chunks.inserted), result["chunk_count"])

	require.NotEmpty(t, chunks.inserted)
	require.Len(t, index.inserted, len(chunks.inserted))
	require.Len(t, index.vectors, len(chunks.inserted))

	// Row and vector object share an id so fusion can dedup across channels.
	for i, row := range chunks.inserted {
		assert.Equal(t, row.ID.String(), index.inserted[i].ID)
		assert.Equal(t, documentID, row.DocumentID)
		assert.Equal(t, i, row.ChunkIndex)
		assert.Equal(t, "G.L. c. 265 § 1", index.inserted[i].Title)
		assert.Equal(t, "statute", index.inserted[i].Category)
	}

	assert.Equal(t, []uuid.UUID{documentID}, docs.completed)
	assert.Empty(t, docs.failed)

	// Previous partial attempts are cleared before the rewrite.
	assert.Equal(t, []uuid.UUID{documentID}, chunks.deleted)
	assert.Equal(t, []string{documentID.String()}, index.deleted)
}

func TestProcessMarksDocumentFailedOnEmbedError(t *testing.T) {
	documentID := uuid.New()
	docs := &stubDocumentStore{doc: &repositories.Document{
		ID:      documentID,
		Title:   "Bail statute",
		Content: "Bail shall be set considering the nature of the offense.",
	}}
	worker := NewIngestionWorker(docs, &stubChunkStore{}, &stubVectorIndex{}, &stubEmbedder{err: errors.New("embedding down")}, "LegalChunk")

	_, err := worker.Process(context.Background(), processingJob(documentID))

	require.Error(t, err)
	assert.Empty(t, docs.completed)
	assert.Contains(t, docs.failed[documentID], "embedding down")
}

func TestProcessMarksDocumentFailedOnStoreError(t *testing.T) {
	documentID := uuid.New()
	docs := &stubDocumentStore{doc: &repositories.Document{
		ID:      documentID,
		Content: "Some statutory text.",
	}}
	chunks := &stubChunkStore{insertErr: errors.New("pg down")}
	worker := NewIngestionWorker(docs, chunks, &stubVectorIndex{}, &stubEmbedder{vec: []float32{0.1}}, "LegalChunk")

	_, err := worker.Process(context.Background(), processingJob(documentID))

	require.Error(t, err)
	assert.Contains(t, docs.failed[documentID], "pg down")
}

func TestProcessRejectsJobWithoutDocumentID(t *testing.T) {
	worker := NewIngestionWorker(&stubDocumentStore{}, &stubChunkStore{}, &stubVectorIndex{}, &stubEmbedder{}, "LegalChunk")

	job := &repositories.ProcessingJob{ID: uuid.New(), JobData: map[string]interface{}{}}
	_, err := worker.Process(context.Background(), job)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "document_id")
}

func TestProcessRejectsEmptyDocument(t *testing.T) {
	documentID := uuid.New()
	docs := &stubDocumentStore{doc: &repositories.Document{ID: documentID, Content: "   "}}
	worker := NewIngestionWorker(docs, &stubChunkStore{}, &stubVectorIndex{}, &stubEmbedder{}, "LegalChunk")

	_, err := worker.Process(context.Background(), processingJob(documentID))

	require.Error(t, err)
	assert.Contains(t, docs.failed[documentID], "no content")
}
