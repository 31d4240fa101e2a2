package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"masslaw-api/internal/services"
)

type HealthHandler struct {
	health *services.HealthService
}

func NewHealthHandler(health *services.HealthService) *HealthHandler {
	return &HealthHandler{health: health}
}

// Check handles the GET /health endpoint
func (h *HealthHandler) Check() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := h.health.CheckOverall(c.Request.Context())

		httpStatus := http.StatusOK
		for _, value := range status {
			if dep, ok := value.(services.HealthStatus); ok && dep.Status == "error" {
				httpStatus = http.StatusServiceUnavailable
				break
			}
		}

		c.JSON(httpStatus, status)
	}
}
