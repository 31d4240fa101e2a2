package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"masslaw-api/internal/repositories"
)

const defaultCleanupMaxAttempts = 3

type JobHandler struct {
	jobs *repositories.JobRepository
}

func NewJobHandler(jobs *repositories.JobRepository) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// Get handles the GET /api/v1/jobs/:id endpoint
func (h *JobHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
			return
		}

		job, err := h.jobs.GetByID(c.Request.Context(), id)
		if err != nil {
			c.Error(err)
			return
		}
		if job == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}

		c.JSON(http.StatusOK, job)
	}
}

// List handles the GET /api/v1/jobs endpoint
func (h *JobHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if page < 1 {
			page = 1
		}
		if limit < 1 || limit > 100 {
			limit = 20
		}

		jobs, err := h.jobs.List(c.Request.Context(), page, limit)
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"jobs":  jobs,
			"page":  page,
			"limit": limit,
		})
	}
}

// Cleanup handles the POST /api/v1/jobs/cleanup endpoint. Failed jobs
// with remaining attempts go back to queued; the rest are deleted.
func (h *JobHandler) Cleanup() gin.HandlerFunc {
	return func(c *gin.Context) {
		maxAttempts, _ := strconv.Atoi(c.DefaultQuery("max_attempts", strconv.Itoa(defaultCleanupMaxAttempts)))
		if maxAttempts < 1 {
			maxAttempts = defaultCleanupMaxAttempts
		}

		requeued, err := h.jobs.ResetFailed(c.Request.Context(), maxAttempts)
		if err != nil {
			c.Error(err)
			return
		}

		deleted, err := h.jobs.DeleteFailed(c.Request.Context())
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"requeued": requeued,
			"deleted":  deleted,
		})
	}
}
