package services

import (
	"context"
	"time"

	"masslaw-api/pkg/memorydb"
	"masslaw-api/pkg/postgres"
	"masslaw-api/pkg/weaviate"
)

// HealthStatus represents the status of one dependency
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details,omitempty"`
}

// HealthService checks the dependencies the query pipeline relies on
type HealthService struct {
	db    *postgres.DB
	redis *memorydb.RedisClient
	weav  *weaviate.WeaviateClient
	query *QueryService
}

func NewHealthService(
	db *postgres.DB,
	redis *memorydb.RedisClient,
	weav *weaviate.WeaviateClient,
	query *QueryService,
) *HealthService {
	return &HealthService{
		db:    db,
		redis: redis,
		weav:  weav,
		query: query,
	}
}

func statusFor(err error) HealthStatus {
	if err != nil {
		return HealthStatus{
			Status:    "error",
			Timestamp: time.Now(),
			Details:   err.Error(),
		}
	}
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
	}
}

// CheckOverall checks every dependency. Redis is optional at startup,
// so a missing client reports as skipped rather than failed.
func (s *HealthService) CheckOverall(ctx context.Context) map[string]interface{} {
	status := make(map[string]interface{})

	status["database"] = statusFor(s.db.Ping(ctx))

	if s.redis != nil {
		status["redis"] = statusFor(s.redis.Ping(ctx))
	} else {
		status["redis"] = HealthStatus{Status: "skipped", Timestamp: time.Now()}
	}

	ready, err := s.weav.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		status["weaviate"] = statusFor(err)
	} else if !ready {
		status["weaviate"] = HealthStatus{
			Status:    "error",
			Timestamp: time.Now(),
			Details:   "not ready",
		}
	} else {
		status["weaviate"] = HealthStatus{Status: "ok", Timestamp: time.Now()}
	}

	status["dropped_query_logs"] = s.query.DroppedLogCount()

	return status
}
