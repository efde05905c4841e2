package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github/itish2003/notevault/models"
	"github/itish2003/notevault/services"
)

// ChatController handles the HTTP requests for the chat API.
type ChatController struct {
	chat *services.Chat
}

// NewChatController creates a new ChatController.
func NewChatController(chat *services.Chat) *ChatController {
	return &ChatController{chat: chat}
}

// Query is the Gin handler for POST /api/v1/chat/query. It runs one
// retrieval-augmented exchange and persists both sides of it.
func (c *ChatController) Query(ctx *gin.Context) {
	var req models.ChatQueryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Message == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}
	if req.Limit == 0 {
		req.Limit = 5
	}
	if req.Limit < 1 || req.Limit > 20 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Limit must be between 1 and 20"})
		return
	}

	resp, err := c.chat.Ask(ctx.Request.Context(), req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to answer query"})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// History is the Gin handler for GET /api/v1/chat/history.
func (c *ChatController) History(ctx *gin.Context) {
	sessionID := ctx.Query("session_id")
	if sessionID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'session_id' is required"})
		return
	}
	limit, ok := intQuery(ctx, "limit", 50, 1, 200)
	if !ok {
		return
	}

	messages, err := c.chat.History(sessionID, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load chat history"})
		return
	}
	ctx.JSON(http.StatusOK, models.ChatHistoryResponse{
		Messages:  messages,
		SessionID: sessionID,
		Total:     len(messages),
	})
}

// NewSession is the Gin handler for POST /api/v1/chat/sessions.
func (c *ChatController) NewSession(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, models.SessionCreateResponse{SessionID: c.chat.NewSession()})
}
