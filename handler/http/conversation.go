package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetConversation godoc
// @Summary Get a session's conversation history
// @Tags conversations
// @Param sessionId path string true "Session ID"
// @Produce json
// @Success 200 {array} conversation.Message
// @Router /conversations/{sessionId} [get]
func (h *Handler) GetConversation(c *gin.Context) {
	sessionID := c.Param("sessionId")
	sendJSON(c, http.StatusOK, h.ragService.History(sessionID))
}

// ClearConversation godoc
// @Summary Delete a session's conversation history
// @Tags conversations
// @Param sessionId path string true "Session ID"
// @Produce json
// @Success 200 {object} map[string]string
// @Router /conversations/{sessionId} [delete]
func (h *Handler) ClearConversation(c *gin.Context) {
	sessionID := c.Param("sessionId")
	h.ragService.ClearConversation(sessionID)
	sendJSON(c, http.StatusOK, gin.H{"status": "cleared", "sessionId": sessionID})
}

// CheckHealth godoc
// @Summary Check service health
// @Tags system
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *Handler) CheckHealth(c *gin.Context) {
	sendJSON(c, http.StatusOK, gin.H{
		"status":        "healthy",
		"indexedChunks": h.ragService.IndexSize(),
	})
}
