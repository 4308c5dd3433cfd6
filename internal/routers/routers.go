package routers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/joejoe2/spring-chat-sub000/config"
	"github.com/joejoe2/spring-chat-sub000/internal/handlers"
	"github.com/joejoe2/spring-chat-sub000/internal/middlewares"
	"github.com/joejoe2/spring-chat-sub000/utils/ratelimit"
)

// SetupRoutes wires every route. Streaming routes (push subscriptions and
// websocket upgrades) are registered before AsyncMiddleware so they never
// occupy a pool worker for their whole connection lifetime.
func SetupRoutes(r *gin.Engine, cfg *config.Config,
	authHandler *handlers.AuthHandler,
	publicHandler *handlers.PublicChannelHandler,
	privateHandler *handlers.PrivateChannelHandler,
	groupHandler *handlers.GroupChannelHandler,
	messageHandler *handlers.MessageHandler,
	auth gin.HandlerFunc,
	limiter ratelimit.Limiter,
) {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	stream := r.Group("/api/v1", auth)
	{
		stream.GET("/channels/public/:channel_id/subscribe", publicHandler.Subscribe)
		stream.GET("/channels/public/:channel_id/ws", publicHandler.SubscribeWS)
		stream.GET("/channels/private/subscribe", privateHandler.Subscribe)
		stream.GET("/channels/private/ws", privateHandler.SubscribeWS)
		stream.GET("/channels/group/subscribe", groupHandler.Subscribe)
		stream.GET("/channels/group/ws", groupHandler.SubscribeWS)
	}

	// Everything below queues on the worker pool.
	r.Use(middlewares.AsyncMiddleware())

	if !cfg.RateLimit.Enabled {
		limiter = nil
	}
	authLimit := middlewares.RateLimitMiddleware(limiter, ratelimit.Rule{
		Limit:  cfg.RateLimit.AuthPerMinute,
		Window: time.Minute,
	})
	apiLimit := middlewares.RateLimitMiddleware(limiter, ratelimit.Rule{
		Limit:  cfg.RateLimit.APIPerMinute,
		Window: time.Minute,
	})
	messageLimit := middlewares.RateLimitMiddleware(limiter, ratelimit.Rule{
		Limit:  cfg.RateLimit.MessagePerMinute,
		Window: time.Minute,
	})

	registerAuthRoutes(r, authHandler, authLimit)
	registerPublicChannelRoutes(r, publicHandler, auth, apiLimit, messageLimit)
	registerPrivateChannelRoutes(r, privateHandler, auth, apiLimit, messageLimit)
	registerGroupChannelRoutes(r, groupHandler, auth, apiLimit, messageLimit)
	registerMessageRoutes(r, messageHandler, auth, apiLimit)
}

func registerAuthRoutes(r *gin.Engine, h *handlers.AuthHandler, limit gin.HandlerFunc) {
	group := r.Group("/api/v1/auth", limit)
	{
		group.POST("/register", h.Register)
		group.POST("/login", h.Login)
	}
}

func registerPublicChannelRoutes(r *gin.Engine, h *handlers.PublicChannelHandler, auth, limit, messageLimit gin.HandlerFunc) {
	group := r.Group("/api/v1/channels/public", auth, limit)
	{
		group.POST("", h.Create)
		group.GET("", h.List)
		group.GET("/:channel_id", h.Profile)
		group.GET("/:channel_id/messages", h.ListMessages)
		group.POST("/:channel_id/messages", messageLimit, h.PostMessage)
	}
}

func registerPrivateChannelRoutes(r *gin.Engine, h *handlers.PrivateChannelHandler, auth, limit, messageLimit gin.HandlerFunc) {
	group := r.Group("/api/v1/channels/private", auth, limit)
	{
		group.POST("", h.Create)
		group.GET("", h.List)
		group.GET("/:channel_id", h.Profile)
		group.POST("/:channel_id/block", h.Block)
		group.POST("/:channel_id/unblock", h.Unblock)
		group.GET("/:channel_id/messages", h.ListMessages)
		group.POST("/:channel_id/messages", messageLimit, h.PostMessage)
	}
}

func registerGroupChannelRoutes(r *gin.Engine, h *handlers.GroupChannelHandler, auth, limit, messageLimit gin.HandlerFunc) {
	group := r.Group("/api/v1/channels/group", auth, limit)
	{
		group.POST("", h.Create)
		group.GET("", h.List)
		group.GET("/invited", h.ListInvited)
		group.GET("/:channel_id", h.Profile)

		group.POST("/:channel_id/invitations", h.Invite)
		group.POST("/:channel_id/invitations/accept", h.AcceptInvitation)
		group.POST("/:channel_id/leave", h.Leave)
		group.POST("/:channel_id/kick", h.KickOff)
		group.POST("/:channel_id/ban", h.Ban)
		group.POST("/:channel_id/unban", h.Unban)
		group.POST("/:channel_id/administrators", h.AddAdministrator)
		group.POST("/:channel_id/administrators/remove", h.RemoveAdministrator)

		group.GET("/:channel_id/messages", h.ListMessages)
		group.POST("/:channel_id/messages", messageLimit, h.PostMessage)
	}
}

func registerMessageRoutes(r *gin.Engine, h *handlers.MessageHandler, auth, limit gin.HandlerFunc) {
	group := r.Group("/api/v1/messages", auth, limit)
	{
		group.GET("/sent", h.ListSent)
	}
}
