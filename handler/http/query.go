package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ragtutor/src/core/rag"
)

type queryRequest struct {
	Query     string `json:"query" binding:"required"`
	TopK      int    `json:"topK,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

type multiDocumentQueryRequest struct {
	Query       string   `json:"query" binding:"required"`
	TopK        int      `json:"topK,omitempty"`
	DocumentIDs []string `json:"documentIds" binding:"required,min=1"`
}

// Query godoc
// @Summary Answer a question from the indexed corpus
// @Tags query
// @Accept json
// @Produce json
// @Param body body queryRequest true "Query parameters"
// @Success 200 {object} rag.Response
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /query [post]
func (h *Handler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	resp, err := h.ragService.Query(c.Request.Context(), rag.Request{
		Query:     req.Query,
		TopK:      req.TopK,
		SessionID: req.SessionID,
	})
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusOK, resp)
}

// QueryStream godoc
// @Summary Answer a question as a server-sent event stream
// @Tags query
// @Accept json
// @Produce text/event-stream
// @Param body body queryRequest true "Query parameters"
// @Failure 400 {object} ErrorResponse
// @Router /query/stream [post]
func (h *Handler) QueryStream(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	resp, err := h.ragService.QueryStream(c.Request.Context(), rag.Request{
		Query:     req.Query,
		TopK:      req.TopK,
		SessionID: req.SessionID,
	}, func(chunk string) error {
		c.SSEvent("chunk", gin.H{"content": chunk})
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		c.SSEvent("error", gin.H{"message": err.Error()})
		c.Writer.Flush()
		return
	}

	c.SSEvent("complete", gin.H{
		"sessionId": resp.SessionID,
		"citations": resp.Citations,
	})
	c.Writer.Flush()
}

// QueryMultiDocument godoc
// @Summary Answer a question restricted to a set of documents
// @Tags query
// @Accept json
// @Produce json
// @Param body body multiDocumentQueryRequest true "Query parameters"
// @Success 200 {object} rag.Response
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /query/multi-document [post]
func (h *Handler) QueryMultiDocument(c *gin.Context) {
	var req multiDocumentQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	resp, err := h.ragService.QueryMultiDocument(c.Request.Context(), rag.MultiDocumentRequest{
		Query:       req.Query,
		TopK:        req.TopK,
		DocumentIDs: req.DocumentIDs,
	})
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusOK, resp)
}
