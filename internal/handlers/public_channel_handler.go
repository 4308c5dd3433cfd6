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

type PublicChannelHandler struct {
	Channels *services.PublicChannelService
	Messages *services.MessageService
	Realtime config.RealtimeConfig
	Log      *logger.Logger
}

func NewPublicChannelHandler(channels *services.PublicChannelService, messages *services.MessageService, realtime config.RealtimeConfig, log *logger.Logger) *PublicChannelHandler {
	return &PublicChannelHandler{
		Channels: channels,
		Messages: messages,
		Realtime: realtime,
		Log:      log,
	}
}

func (h *PublicChannelHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c)
		return
	}

	channel, err := h.Channels.Create(c.Request.Context(), req.Name)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, channel)
}

func (h *PublicChannelHandler) List(c *gin.Context) {
	since, err := sinceFrom(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	channels, err := h.Channels.List(c.Request.Context(), since, pageFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	listResponse(c, channels)
}

func (h *PublicChannelHandler) Profile(c *gin.Context) {
	channel, err := h.Channels.Profile(c.Request.Context(), c.Param("channel_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, channel)
}

func (h *PublicChannelHandler) ListMessages(c *gin.Context) {
	since, err := sinceFrom(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	messages, err := h.Messages.ListPublicMessages(c.Request.Context(), c.Param("channel_id"), since, pageFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	listResponse(c, messages)
}

func (h *PublicChannelHandler) PostMessage(c *gin.Context) {
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

	msg, err := h.Messages.CreatePublicMessage(c.Request.Context(), sender, c.Param("channel_id"), req.Content)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

func (h *PublicChannelHandler) Subscribe(c *gin.Context) {
	channelID := c.Param("channel_id")
	serveSSE(c, h.Realtime.SSETimeout, func(ctx context.Context, sink subscriber.Sink) error {
		return h.Channels.Subscribe(ctx, channelID, sink)
	})
}

func (h *PublicChannelHandler) SubscribeWS(c *gin.Context) {
	channelID := c.Param("channel_id")
	serveWS(c, h.Realtime.WSSessionCap, h.Log, func(ctx context.Context, sink subscriber.Sink) error {
		return h.Channels.Subscribe(ctx, channelID, sink)
	})
}
