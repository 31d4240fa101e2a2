package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"masslaw-api/pkg/postgres"

	fylogger "github.com/FyersDev/trading-logger-go"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// JobStatus represents the current state of a processing job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// JobTypeDocumentProcessing is the only job type the ingestion worker handles
// today; the claim operation takes a set so new types can be added without
// touching the queue.
const JobTypeDocumentProcessing = "document_processing"

// ProcessingJob is a durable unit of ingestion work.
type ProcessingJob struct {
	ID           uuid.UUID              `json:"id"`
	JobType      string                 `json:"job_type"`
	JobData      map[string]interface{} `json:"job_data"`
	Status       JobStatus              `json:"status"`
	WorkerID     *string                `json:"worker_id,omitempty"`
	Attempts     int                    `json:"attempts"`
	Result       map[string]interface{} `json:"result,omitempty"`
	ErrorMessage *string                `json:"error_message,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// JobRepository coordinates the processing_jobs queue. Claim is the only
// mutation that needs exclusive access; the database provides it through a
// single conditional update.
type JobRepository struct {
	db *postgres.DB
}

func NewJobRepository(db *postgres.DB) *JobRepository {
	return &JobRepository{db: db}
}

// CreateSchema creates the processing_jobs table if it doesn't exist
func (r *JobRepository) CreateSchema(ctx context.Context) error {
	query := `
		DO $$ BEGIN
			CREATE TYPE job_status AS ENUM ('queued', 'processing', 'completed', 'failed');
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;

		CREATE TABLE IF NOT EXISTS processing_jobs (
			id UUID PRIMARY KEY,
			job_type VARCHAR(64) NOT NULL,
			job_data JSONB DEFAULT '{}' NOT NULL,
			status job_status DEFAULT 'queued' NOT NULL,
			worker_id VARCHAR(128),
			attempts INT DEFAULT 0 NOT NULL,
			result JSONB,
			error_message TEXT,
			created_at TIMESTAMP DEFAULT NOW() NOT NULL,
			updated_at TIMESTAMP DEFAULT NOW() NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_processing_jobs_claim
			ON processing_jobs(job_type, created_at) WHERE status = 'queued';
		CREATE INDEX IF NOT EXISTS idx_processing_jobs_status ON processing_jobs(status);
	`

	_, err := r.db.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create processing_jobs schema: %w", err)
	}

	return nil
}

// Enqueue creates a new job in queued status
func (r *JobRepository) Enqueue(ctx context.Context, jobType string, jobData map[string]interface{}) (*ProcessingJob, error) {
	dataJSON, err := json.Marshal(jobData)
	if err != nil {
		dataJSON = []byte("{}")
	}

	job := &ProcessingJob{
		ID:      uuid.New(),
		JobType: jobType,
		JobData: jobData,
		Status:  JobStatusQueued,
	}

	query := `
		INSERT INTO processing_jobs (id, job_type, job_data, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRow(ctx, query, job.ID, job.JobType, dataJSON, job.Status).
		Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	return job, nil
}

// Claim atomically selects the oldest queued job whose type is in jobTypes,
// transitions it to processing and stamps the worker identity. The inner
// SELECT ... FOR UPDATE SKIP LOCKED guarantees that concurrent claim calls
// never return the same job. Returns (nil, nil) when no job matches.
func (r *JobRepository) Claim(ctx context.Context, workerID string, jobTypes []string) (*ProcessingJob, error) {
	query := `
		UPDATE processing_jobs
		SET status = 'processing', worker_id = $1, updated_at = NOW()
		WHERE id = (
			SELECT id FROM processing_jobs
			WHERE status = 'queued' AND job_type = ANY($2)
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, job_type, job_data, status, worker_id, attempts, result, error_message, created_at, updated_at
	`

	job, err := scanJob(r.db.QueryRow(ctx, query, workerID, jobTypes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	return job, nil
}

// Complete transitions a processing job to completed and stores the result
// payload. A job no longer in processing is logged and ignored.
func (r *JobRepository) Complete(ctx context.Context, jobID uuid.UUID, result map[string]interface{}) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		resultJSON = []byte("{}")
	}

	query := `
		UPDATE processing_jobs
		SET status = 'completed', result = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'processing'
	`

	tag, err := r.db.Exec(ctx, query, resultJSON, jobID)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	if tag.RowsAffected() == 0 {
		fylogger.InfoLog(ctx, "complete ignored: job not in processing", map[string]interface{}{
			"job_id": jobID.String(),
		})
	}

	return nil
}

// Fail transitions a processing job to failed, records the error message and
// increments the attempt counter. It does not retry; re-queueing a failed job
// is the cleanup operation's business.
func (r *JobRepository) Fail(ctx context.Context, jobID uuid.UUID, errorMessage string) error {
	query := `
		UPDATE processing_jobs
		SET status = 'failed', error_message = $1, attempts = attempts + 1, updated_at = NOW()
		WHERE id = $2 AND status = 'processing'
	`

	tag, err := r.db.Exec(ctx, query, errorMessage, jobID)
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}

	if tag.RowsAffected() == 0 {
		fylogger.InfoLog(ctx, "fail ignored: job not in processing", map[string]interface{}{
			"job_id": jobID.String(),
		})
	}

	return nil
}

// ResetFailed re-queues every failed job whose attempts are below maxAttempts.
// Operator-triggered recovery, not part of the steady-state pipeline.
func (r *JobRepository) ResetFailed(ctx context.Context, maxAttempts int) (int64, error) {
	query := `
		UPDATE processing_jobs
		SET status = 'queued', worker_id = NULL, error_message = NULL, updated_at = NOW()
		WHERE status = 'failed' AND attempts < $1
	`

	tag, err := r.db.Exec(ctx, query, maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("failed to reset failed jobs: %w", err)
	}

	return tag.RowsAffected(), nil
}

// DeleteFailed removes every failed job. Operator-triggered cleanup.
func (r *JobRepository) DeleteFailed(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM processing_jobs WHERE status = 'failed'`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete failed jobs: %w", err)
	}

	return tag.RowsAffected(), nil
}

// GetByID retrieves a job by its ID
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*ProcessingJob, error) {
	query := `
		SELECT id, job_type, job_data, status, worker_id, attempts, result, error_message, created_at, updated_at
		FROM processing_jobs
		WHERE id = $1
	`

	job, err := scanJob(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// List retrieves jobs with pagination, newest first
func (r *JobRepository) List(ctx context.Context, page, limit int) ([]*ProcessingJob, error) {
	offset := (page - 1) * limit

	query := `
		SELECT id, job_type, job_data, status, worker_id, attempts, result, error_message, created_at, updated_at
		FROM processing_jobs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*ProcessingJob, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	return jobs, nil
}

func scanJob(row pgx.Row) (*ProcessingJob, error) {
	job := &ProcessingJob{}
	var jobDataJSON, resultJSON []byte

	err := row.Scan(
		&job.ID,
		&job.JobType,
		&jobDataJSON,
		&job.Status,
		&job.WorkerID,
		&job.Attempts,
		&resultJSON,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(jobDataJSON) > 0 {
		json.Unmarshal(jobDataJSON, &job.JobData)
	}
	if len(resultJSON) > 0 {
		json.Unmarshal(resultJSON, &job.Result)
	}

	return job, nil
}
