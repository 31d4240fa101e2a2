package middleware

import (
	"net/http"

	fylogger "github.com/FyersDev/trading-logger-go"
	"github.com/gin-gonic/gin"

	"masslaw-api/pkg/errors"
)

func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			if appErr, ok := err.Err.(*errors.AppError); ok {
				c.JSON(appErr.Status, errors.ErrorResponse{
					Error:   appErr.Code,
					Message: appErr.Message,
				})
				return
			}

			fylogger.ErrorLog(c.Request.Context(), "unhandled request error", err.Err, map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			})
			c.JSON(http.StatusInternalServerError, errors.ErrorResponse{
				Error:   errors.ErrInternalServer.Code,
				Message: "Internal server error",
			})
		}
	}
}
