package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"masslaw-api/pkg/postgres"

	"github.com/google/uuid"
)

// QueryLogEntry is an append-only audit record for one classified query.
// Entries are write-once and never mutated.
type QueryLogEntry struct {
	ID             uuid.UUID     `json:"id"`
	Query          string        `json:"query"`
	InDomain       bool          `json:"in_domain"`
	ResponseTimeMs int64         `json:"response_time_ms"`
	Confidence     float64       `json:"confidence"`
	Sources        []interface{} `json:"sources,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// QueryLogRepository handles the append-only query audit trail
type QueryLogRepository struct {
	db *postgres.DB
}

func NewQueryLogRepository(db *postgres.DB) *QueryLogRepository {
	return &QueryLogRepository{db: db}
}

// CreateSchema creates the query_logs table if it doesn't exist
func (r *QueryLogRepository) CreateSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS query_logs (
			id UUID PRIMARY KEY,
			query TEXT NOT NULL,
			in_domain BOOLEAN NOT NULL,
			response_time_ms BIGINT DEFAULT 0 NOT NULL,
			confidence DOUBLE PRECISION DEFAULT 0 NOT NULL,
			sources JSONB DEFAULT '[]' NOT NULL,
			created_at TIMESTAMP DEFAULT NOW() NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_query_logs_created_at ON query_logs(created_at DESC);
	`

	_, err := r.db.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create query_logs schema: %w", err)
	}

	return nil
}

// Append writes one audit entry and returns its generated ID
func (r *QueryLogRepository) Append(ctx context.Context, entry *QueryLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	sourcesJSON, err := json.Marshal(entry.Sources)
	if err != nil {
		sourcesJSON = []byte("[]")
	}

	query := `
		INSERT INTO query_logs (id, query, in_domain, response_time_ms, confidence, sources)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err = r.db.QueryRow(ctx, query,
		entry.ID,
		entry.Query,
		entry.InDomain,
		entry.ResponseTimeMs,
		entry.Confidence,
		sourcesJSON,
	).Scan(&entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to append query log: %w", err)
	}

	return nil
}

// ListRecent retrieves the most recent audit entries
func (r *QueryLogRepository) ListRecent(ctx context.Context, limit int) ([]*QueryLogEntry, error) {
	query := `
		SELECT id, query, in_domain, response_time_ms, confidence, sources, created_at
		FROM query_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list query logs: %w", err)
	}
	defer rows.Close()

	entries := make([]*QueryLogEntry, 0)
	for rows.Next() {
		entry := &QueryLogEntry{}
		var sourcesJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.Query,
			&entry.InDomain,
			&entry.ResponseTimeMs,
			&entry.Confidence,
			&sourcesJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan query log: %w", err)
		}

		if len(sourcesJSON) > 0 {
			json.Unmarshal(sourcesJSON, &entry.Sources)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate query logs: %w", err)
	}

	return entries, nil
}
