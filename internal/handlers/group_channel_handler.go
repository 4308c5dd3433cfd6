package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joejoe2/spring-chat-sub000/config"
	"github.com/joejoe2/spring-chat-sub000/internal/middlewares"
	"github.com/joejoe2/spring-chat-sub000/internal/models"
	"github.com/joejoe2/spring-chat-sub000/internal/services"
	"github.com/joejoe2/spring-chat-sub000/internal/subscriber"
	logger "github.com/joejoe2/spring-chat-sub000/middleware/log"
)

type GroupChannelHandler struct {
	Channels *services.GroupChannelService
	Messages *services.MessageService
	Realtime config.RealtimeConfig
	Log      *logger.Logger
}

func NewGroupChannelHandler(channels *services.GroupChannelService, messages *services.MessageService, realtime config.RealtimeConfig, log *logger.Logger) *GroupChannelHandler {
	return &GroupChannelHandler{
		Channels: channels,
		Messages: messages,
		Realtime: realtime,
		Log:      log,
	}
}

func (h *GroupChannelHandler) Create(c *gin.Context) {
	founder, ok := middlewares.CurrentMember(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c)
		return
	}

	channel, err := h.Channels.Create(c.Request.Context(), founder, req.Name)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, channel)
}

func (h *GroupChannelHandler) List(c *gin.Context) {
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

func (h *GroupChannelHandler) ListInvited(c *gin.Context) {
	user, ok := middlewares.CurrentMember(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	channels, err := h.Channels.ListInvited(c.Request.Context(), user.ID, pageFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	listResponse(c, channels)
}

func (h *GroupChannelHandler) Profile(c *gin.Context) {
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

func (h *GroupChannelHandler) Invite(c *gin.Context) {
	inviter, ok := middlewares.CurrentMember(c)
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

	if err := h.Channels.Invite(c.Request.Context(), inviter, c.Param("channel_id"), req.Username); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (h *GroupChannelHandler) AcceptInvitation(c *gin.Context) {
	invitee, ok := middlewares.CurrentMember(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.Channels.AcceptInvitation(c.Request.Context(), invitee, c.Param("channel_id")); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (h *GroupChannelHandler) Leave(c *gin.Context) {
	user, ok := middlewares.CurrentMember(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.Channels.Leave(c.Request.Context(), user, c.Param("channel_id")); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (h *GroupChannelHandler) KickOff(c *gin.Context) {
	h.targetOp(c, h.Channels.KickOff)
}

func (h *GroupChannelHandler) Ban(c *gin.Context) {
	h.targetOp(c, h.Channels.Ban)
}

func (h *GroupChannelHandler) Unban(c *gin.Context) {
	h.targetOp(c, h.Channels.Unban)
}

func (h *GroupChannelHandler) AddAdministrator(c *gin.Context) {
	h.targetOp(c, h.Channels.AddAdministrator)
}

func (h *GroupChannelHandler) RemoveAdministrator(c *gin.Context) {
	h.targetOp(c, h.Channels.RemoveAdministrator)
}

// targetOp handles the moderation verbs that act on another member.
func (h *GroupChannelHandler) targetOp(c *gin.Context, op func(ctx context.Context, actor models.Member, channelID, targetID string) error) {
	actor, ok := middlewares.CurrentMember(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c)
		return
	}

	if err := op(c.Request.Context(), actor, c.Param("channel_id"), req.UserID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (h *GroupChannelHandler) ListMessages(c *gin.Context) {
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

	messages, err := h.Messages.ListGroupMessages(c.Request.Context(), user.ID, c.Param("channel_id"), since, pageFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	listResponse(c, messages)
}

func (h *GroupChannelHandler) PostMessage(c *gin.Context) {
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

	msg, err := h.Messages.CreateGroupMessage(c.Request.Context(), sender, c.Param("channel_id"), req.Content)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// Subscribe attaches one stream carrying every group channel the caller is
// in, invitations included.
func (h *GroupChannelHandler) Subscribe(c *gin.Context) {
	user, ok := middlewares.CurrentMember(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	serveSSE(c, h.Realtime.SSETimeout, func(ctx context.Context, sink subscriber.Sink) error {
		return h.Channels.Subscribe(ctx, user.ID, sink)
	})
}

func (h *GroupChannelHandler) SubscribeWS(c *gin.Context) {
	user, ok := middlewares.CurrentMember(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	serveWS(c, h.Realtime.WSSessionCap, h.Log, func(ctx context.Context, sink subscriber.Sink) error {
		return h.Channels.Subscribe(ctx, user.ID, sink)
	})
}
