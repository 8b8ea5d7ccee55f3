package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ragtutor/src/core/document"
	"ragtutor/src/core/rag"
	"ragtutor/src/core/vectorindex"
)

type Handler struct {
	ragService *rag.Service
}

func NewHandler(ragService *rag.Service) *Handler {
	return &Handler{
		ragService: ragService,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")

	// Query routes
	api.POST("/query", h.Query)
	api.POST("/query/stream", h.QueryStream)
	api.POST("/query/multi-document", h.QueryMultiDocument)

	// Document routes
	api.POST("/documents/index", h.IndexDocuments)

	// Conversation routes
	api.GET("/conversations/:sessionId", h.GetConversation)
	api.DELETE("/conversations/:sessionId", h.ClearConversation)

	// System routes
	r.GET("/health", h.CheckHealth)
}

// Common error response structure
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func sendError(c *gin.Context, status int, err error) {
	var code string
	var genErr *rag.GenerationError
	switch {
	case errors.Is(err, document.ErrNotFound), errors.Is(err, vectorindex.ErrNotFound):
		code = "NOT_FOUND"
		status = http.StatusNotFound
	case errors.Is(err, vectorindex.ErrSizeMismatch):
		code = "VALIDATION_ERROR"
		status = http.StatusBadRequest
	case errors.As(err, &genErr):
		code = "GENERATION_ERROR"
		status = http.StatusBadGateway
	case status == http.StatusBadRequest:
		code = "BAD_REQUEST"
	default:
		code = "INTERNAL_ERROR"
		status = http.StatusInternalServerError
	}

	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}

func sendJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
