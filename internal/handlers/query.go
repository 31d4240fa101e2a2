package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"masslaw-api/internal/repositories"
	"masslaw-api/internal/services"
)

type QueryHandler struct {
	query *services.QueryService
	logs  *repositories.QueryLogRepository
}

func NewQueryHandler(query *services.QueryService, logs *repositories.QueryLogRepository) *QueryHandler {
	return &QueryHandler{query: query, logs: logs}
}

type queryRequest struct {
	Query string `json:"query" binding:"required"`
}

// Ask handles the POST /api/v1/query endpoint
func (h *QueryHandler) Ask() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req queryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "query is required",
			})
			return
		}

		if strings.TrimSpace(req.Query) == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "query must not be empty",
			})
			return
		}

		// The pipeline never errors; refusals and outages come back as
		// well-formed responses.
		response := h.query.Answer(c.Request.Context(), req.Query)
		c.JSON(http.StatusOK, response)
	}
}

// Logs handles the GET /api/v1/query-logs endpoint
func (h *QueryHandler) Logs() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if limit < 1 || limit > 500 {
			limit = 50
		}

		entries, err := h.logs.ListRecent(c.Request.Context(), limit)
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"query_logs": entries,
			"limit":      limit,
		})
	}
}
