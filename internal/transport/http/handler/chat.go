package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"notetutor/internal/ai"
	"notetutor/internal/app"
	"notetutor/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type ChatTurn struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

type ChatRequest struct {
	// DocumentID narrows retrieval to one note; 0 searches every note.
	DocumentID uint       `json:"document_id"`
	Message    string     `json:"message" binding:"required"`
	History    []ChatTurn `json:"history" binding:"dive"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Stream answers one message over server-sent events. Failures before the
// first byte use the JSON envelope; later ones arrive as an "error" event.
func (h *ChatHandler) Stream(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	history := make([]ai.Message, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, ai.Message{Role: turn.Role, Content: turn.Content})
	}

	stream, err := h.chatService.Chat(c.Request.Context(), app.ChatInput{
		UserID:     userID,
		DocumentID: req.DocumentID,
		History:    history,
		Message:    req.Message,
	})
	if err != nil {
		writeServiceError(c, err, response.CodeDocumentNotFound, "chat failed")
		return
	}
	defer stream.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	for stream.Next() {
		if _, writeErr := c.Writer.Write(formatSSE("", stream.Text())); writeErr != nil {
			return
		}
		flusher.Flush()
	}

	if err := stream.Err(); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		_ = c.Error(err)
		if _, writeErr := c.Writer.Write(formatSSE("error", streamErrorMessage(err))); writeErr == nil {
			flusher.Flush()
		}
		return
	}

	if _, writeErr := c.Writer.Write(formatSSE("done", stream.Transcript())); writeErr == nil {
		flusher.Flush()
	}
}

func streamErrorMessage(err error) string {
	if errors.Is(err, ai.ErrOverloaded) {
		return modelBusyMessage
	}
	return "the AI model stopped responding, please try again"
}
