package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joejoe2/spring-chat-sub000/internal/middlewares"
	"github.com/joejoe2/spring-chat-sub000/internal/services"
)

type MessageHandler struct {
	Messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{Messages: messages}
}

// ListSent pages the caller's own messages across every channel.
func (h *MessageHandler) ListSent(c *gin.Context) {
	user, ok := middlewares.CurrentMember(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	since, err := sinceFrom(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	messages, err := h.Messages.ListSentMessages(c.Request.Context(), user.ID, since, pageFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	listResponse(c, messages)
}
