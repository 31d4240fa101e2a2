package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"masslaw-api/internal/services"
	apperrors "masslaw-api/pkg/errors"
)

type DocumentHandler struct {
	documents *services.DocumentService
}

func NewDocumentHandler(documents *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Upload handles the POST /api/v1/documents endpoint. The document is
// accepted in pending state; a worker makes it searchable asynchronously.
func (h *DocumentHandler) Upload() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input services.UploadInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "invalid request body",
			})
			return
		}

		doc, err := h.documents.Upload(c.Request.Context(), &input)
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				c.JSON(appErr.Status, gin.H{"error": appErr.Message})
				return
			}
			c.Error(err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"id":     doc.ID,
			"title":  doc.Title,
			"status": doc.Status,
		})
	}
}

// Get handles the GET /api/v1/documents/:id endpoint
func (h *DocumentHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
			return
		}

		doc, chunkCount, err := h.documents.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
				return
			}
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"document":    doc,
			"chunk_count": chunkCount,
		})
	}
}

// List handles the GET /api/v1/documents endpoint
func (h *DocumentHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

		docs, total, err := h.documents.List(c.Request.Context(), page, limit)
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"documents": docs,
			"total":     total,
			"page":      page,
			"limit":     limit,
		})
	}
}

// Delete handles the DELETE /api/v1/documents/:id endpoint
func (h *DocumentHandler) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
			return
		}

		if err := h.documents.Delete(c.Request.Context(), id); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
				return
			}
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}
