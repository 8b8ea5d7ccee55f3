package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type indexRequest struct {
	Path      string `json:"path,omitempty"`
	Directory string `json:"directory,omitempty"`
}

type indexResponse struct {
	Status        string `json:"status"`
	ChunksCreated int    `json:"chunksCreated"`
	TotalChunks   int    `json:"totalChunks"`
}

// IndexDocuments godoc
// @Summary Index a file or a directory of documents
// @Tags documents
// @Accept json
// @Produce json
// @Param body body indexRequest true "Path to a file or directory"
// @Success 200 {object} indexResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /documents/index [post]
func (h *Handler) IndexDocuments(c *gin.Context) {
	var req indexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}
	if req.Path == "" && req.Directory == "" {
		sendError(c, http.StatusBadRequest, fmt.Errorf("either path or directory is required"))
		return
	}

	var created int
	var err error
	if req.Path != "" {
		created, err = h.ragService.IndexFile(c.Request.Context(), req.Path)
	} else {
		created, err = h.ragService.IndexDirectory(c.Request.Context(), req.Directory)
	}
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusOK, indexResponse{
		Status:        "success",
		ChunksCreated: created,
		TotalChunks:   h.ragService.IndexSize(),
	})
}
