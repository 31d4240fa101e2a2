package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masslaw-api/internal/repositories"
)

type stubQueue struct {
	jobs      []*repositories.ProcessingJob
	claimErr  error
	completed map[uuid.UUID]map[string]interface{}
	failed    map[uuid.UUID]string
}

func (s *stubQueue) Claim(ctx context.Context, workerID string, jobTypes []string) (*repositories.ProcessingJob, error) {
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	if len(s.jobs) == 0 {
		return nil, nil
	}
	job := s.jobs[0]
	s.jobs = s.jobs[1:]
	job.Status = repositories.JobStatusProcessing
	job.WorkerID = &workerID
	return job, nil
}

func (s *stubQueue) Complete(ctx context.Context, jobID uuid.UUID, result map[string]interface{}) error {
	if s.completed == nil {
		s.completed = make(map[uuid.UUID]map[string]interface{})
	}
	s.completed[jobID] = result
	return nil
}

func (s *stubQueue) Fail(ctx context.Context, jobID uuid.UUID, errorMessage string) error {
	if s.failed == nil {
		s.failed = make(map[uuid.UUID]string)
	}
	s.failed[jobID] = errorMessage
	return nil
}

type stubProcessor struct {
	result map[string]interface{}
	err    error
	seen   []*repositories.ProcessingJob
}

func (s *stubProcessor) Process(ctx context.Context, job *repositories.ProcessingJob) (map[string]interface{}, error) {
	s.seen = append(s.seen, job)
	return s.result, s.err
}

func TestNewWorkerCoordinatorClampsConfig(t *testing.T) {
	coordinator := NewWorkerCoordinator(&stubQueue{}, &stubProcessor{}, 0, 0)

	assert.Equal(t, 1, coordinator.count)
	assert.Positive(t, coordinator.interval)

	// Start with a clamped interval must not panic the ticker.
	coordinator.Start(context.Background())
	coordinator.Stop()
}

func TestRunOnceCompletesJob(t *testing.T) {
	job := processingJob(uuid.New())
	queue := &stubQueue{jobs: []*repositories.ProcessingJob{job}}
	processor := &stubProcessor{result: map[string]interface{}{"chunk_count": 4}}
	coordinator := NewWorkerCoordinator(queue, processor, 1, 0)

	claimed, err := coordinator.RunOnce(context.Background(), "worker-0")

	require.NoError(t, err)
	assert.True(t, claimed)
	require.Len(t, processor.seen, 1)
	assert.Equal(t, processor.result, queue.completed[job.ID])
	assert.Empty(t, queue.failed)
}

func TestRunOnceFailsJobOnProcessorError(t *testing.T) {
	job := processingJob(uuid.New())
	queue := &stubQueue{jobs: []*repositories.ProcessingJob{job}}
	processor := &stubProcessor{err: errors.New("ingestion blew up")}
	coordinator := NewWorkerCoordinator(queue, processor, 1, 0)

	claimed, err := coordinator.RunOnce(context.Background(), "worker-0")

	// Processing failures land on the job, not on the caller.
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, "ingestion blew up", queue.failed[job.ID])
	assert.Empty(t, queue.completed)
}

func TestRunOnceIdleQueue(t *testing.T) {
	queue := &stubQueue{}
	processor := &stubProcessor{}
	coordinator := NewWorkerCoordinator(queue, processor, 1, 0)

	claimed, err := coordinator.RunOnce(context.Background(), "worker-0")

	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Empty(t, processor.seen)
}

func TestRunOnceClaimErrorPropagates(t *testing.T) {
	queue := &stubQueue{claimErr: errors.New("pg down")}
	coordinator := NewWorkerCoordinator(queue, &stubProcessor{}, 1, 0)

	claimed, err := coordinator.RunOnce(context.Background(), "worker-0")

	require.Error(t, err)
	assert.False(t, claimed)
}

func TestRunOnceDrainsQueueOneJobPerCall(t *testing.T) {
	jobs := []*repositories.ProcessingJob{
		processingJob(uuid.New()),
		processingJob(uuid.New()),
		processingJob(uuid.New()),
	}
	queue := &stubQueue{jobs: append([]*repositories.ProcessingJob{}, jobs...)}
	processor := &stubProcessor{result: map[string]interface{}{}}
	coordinator := NewWorkerCoordinator(queue, processor, 1, 0)

	for i := range jobs {
		claimed, err := coordinator.RunOnce(context.Background(), "worker-0")
		require.NoError(t, err)
		assert.True(t, claimed, "job %d", i)
	}

	claimed, err := coordinator.RunOnce(context.Background(), "worker-0")
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Len(t, queue.completed, len(jobs))
}
