package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	fylogger "github.com/FyersDev/trading-logger-go"
	"github.com/google/uuid"

	"masslaw-api/internal/repositories"
)

// JobQueue is the slice of the job repository the coordinator needs.
type JobQueue interface {
	Claim(ctx context.Context, workerID string, jobTypes []string) (*repositories.ProcessingJob, error)
	Complete(ctx context.Context, jobID uuid.UUID, result map[string]interface{}) error
	Fail(ctx context.Context, jobID uuid.UUID, errorMessage string) error
}

// JobProcessor handles one claimed job.
type JobProcessor interface {
	Process(ctx context.Context, job *repositories.ProcessingJob) (map[string]interface{}, error)
}

// WorkerCoordinator runs a pool of ingestion workers that poll the job
// queue on a fixed interval. Each worker claims at most one job per tick;
// the claim itself is the only point of contention and the database
// arbitrates it.
type WorkerCoordinator struct {
	queue     JobQueue
	processor JobProcessor
	jobTypes  []string
	count     int
	interval  time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorkerCoordinator(queue JobQueue, processor JobProcessor, count int, interval time.Duration) *WorkerCoordinator {
	if count < 1 {
		count = 1
	}
	// time.NewTicker rejects non-positive intervals.
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &WorkerCoordinator{
		queue:     queue,
		processor: processor,
		jobTypes:  []string{repositories.JobTypeDocumentProcessing},
		count:     count,
		interval:  interval,
	}
}

// Start launches the worker pool. It returns immediately; call Stop to
// drain and wait for in-flight jobs.
func (c *WorkerCoordinator) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	hostname, _ := os.Hostname()
	for i := 0; i < c.count; i++ {
		workerID := fmt.Sprintf("%s-worker-%d", hostname, i)
		c.wg.Add(1)
		go c.run(ctx, workerID)
	}

	fylogger.InfoLog(ctx, "worker coordinator started", map[string]interface{}{
		"workers":       c.count,
		"poll_interval": c.interval.String(),
	})
}

// Stop signals the workers and blocks until claimed jobs finish.
func (c *WorkerCoordinator) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *WorkerCoordinator) run(ctx context.Context, workerID string) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.RunOnce(ctx, workerID); err != nil {
				fylogger.ErrorLog(ctx, "worker tick failed", err, map[string]interface{}{
					"worker_id": workerID,
				})
			}
		}
	}
}

// RunOnce claims and processes at most one job. It reports whether a job
// was claimed; processing failures are recorded on the job, not returned.
func (c *WorkerCoordinator) RunOnce(ctx context.Context, workerID string) (bool, error) {
	job, err := c.queue.Claim(ctx, workerID, c.jobTypes)
	if err != nil {
		return false, fmt.Errorf("failed to claim job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	fylogger.InfoLog(ctx, "job claimed", map[string]interface{}{
		"job_id":    job.ID.String(),
		"job_type":  job.JobType,
		"worker_id": workerID,
	})

	result, err := c.processor.Process(ctx, job)
	if err != nil {
		if failErr := c.queue.Fail(ctx, job.ID, err.Error()); failErr != nil {
			fylogger.ErrorLog(ctx, "failed to record job failure", failErr, map[string]interface{}{
				"job_id": job.ID.String(),
			})
		}
		return true, nil
	}

	if err := c.queue.Complete(ctx, job.ID, result); err != nil {
		fylogger.ErrorLog(ctx, "failed to record job completion", err, map[string]interface{}{
			"job_id": job.ID.String(),
		})
	}
	return true, nil
}
