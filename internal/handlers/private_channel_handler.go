package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joejoe2/spring-chat-sub000/config"
	"github.com/joejoe2/spring-chat-sub000/internal/middlewares"
	"github.com/joejoe2/spring-chat-sub000/internal/services"
	"github.com/joejoe2/spring-chat-sub000/internal/subscriber"
	logger "github.com/joejoe2/spring-chat-sub000/middleware/log"
)

type PrivateChannelHandler struct {
	Channels *services.PrivateChannelService
	Messages *services.MessageService
	Realtime config.RealtimeConfig
	Log      *logger.Logger
}

func NewPrivateChannelHandler(channels *services.PrivateChannelService, messages *services.MessageService, realtime config.RealtimeConfig, log *logger.Logger) *PrivateChannelHandler {
	return &PrivateChannelHandler{
		Channels: channels,
		Messages: messages,
		Realtime: realtime,
		Log:      log,
	}
}

func (h *PrivateChannelHandler) Create(c *gin.Context) {
	requester, ok := middlewares.CurrentMember(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c)
		return
	}

	channel, err := h.Channels.CreateBetween(c.Request.Context(), requester, req.Username)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, channel)
}

func (h *PrivateChannelHandler) List(c *gin.Context) {
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

	channels, err := h.Channels.List(c.Request.Context(), user.ID, since, pageFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	listResponse(c, channels)
}

func (h *PrivateChannelHandler) Profile(c *gin.Context) {
	user, ok := middlewares.CurrentMember(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	channel, err := h.Channels.Profile(c.Request.Context(), user.ID, c.Param("channel_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, channel)
}

func (h *PrivateChannelHandler) Block(c *gin.Context) {
	h.setBlocked(c, h.Channels.Block)
}

func (h *PrivateChannelHandler) Unblock(c *gin.Context) {
	h.setBlocked(c, h.Channels.Unblock)
}

func (h *PrivateChannelHandler) setBlocked(c *gin.Context, op func(ctx context.Context, userID, channelID string) error) {
	user, ok := middlewares.CurrentMember(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := op(c.Request.Context(), user.ID, c.Param("channel_id")); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (h *PrivateChannelHandler) ListMessages(c *gin.Context) {
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

	messages, err := h.Messages.ListPrivateMessages(c.Request.Context(), user.ID, c.Param("channel_id"), since, pageFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	listResponse(c, messages)
}

func (h *PrivateChannelHandler) PostMessage(c *gin.Context) {
	sender, ok := middlewares.CurrentMember(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c)
		return
	}

	msg, err := h.Messages.CreatePrivateMessage(c.Request.Context(), sender, c.Param("channel_id"), req.Content)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// Subscribe attaches one stream carrying every private channel the caller is
// in; pushes are keyed by user, not by channel.
func (h *PrivateChannelHandler) Subscribe(c *gin.Context) {
	user, ok := middlewares.CurrentMember(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	serveSSE(c, h.Realtime.SSETimeout, func(ctx context.Context, sink subscriber.Sink) error {
		return h.Channels.Subscribe(ctx, user.ID, sink)
	})
}

func (h *PrivateChannelHandler) SubscribeWS(c *gin.Context) {
	user, ok := middlewares.CurrentMember(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	serveWS(c, h.Realtime.WSSessionCap, h.Log, func(ctx context.Context, sink subscriber.Sink) error {
		return h.Channels.Subscribe(ctx, user.ID, sink)
	})
}
