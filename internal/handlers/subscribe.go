package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/joejoe2/spring-chat-sub000/internal/subscriber"
	logger "github.com/joejoe2/spring-chat-sub000/middleware/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveSSE upgrades the response into an event stream, attaches the sink via
// register, and holds the handler goroutine until the sink finishes. The
// response writer dies with the handler, so blocking here is mandatory.
func serveSSE(c *gin.Context, ttl time.Duration, register func(ctx context.Context, sink subscriber.Sink) error) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	sink, err := subscriber.NewSSESink(c.Writer, ttl)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	if err := register(c.Request.Context(), sink); err != nil {
		sink.Close()
		abortWithError(c, err)
		return
	}

	sink.Wait(c.Request.Context())
	sink.Close()
}

// serveWS upgrades to a websocket and attaches the sink. Unlike SSE the
// connection outlives the handler, so this returns once registered; the
// sink's pumps own the connection from here.
func serveWS(c *gin.Context, sessionCap time.Duration, log *logger.Logger, register func(ctx context.Context, sink subscriber.Sink) error) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the failure response.
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sink := subscriber.NewWebSocketSink(conn, sessionCap, log)
	if err := register(c.Request.Context(), sink); err != nil {
		log.Warn("websocket registration failed", zap.Error(err))
		sink.Close()
		return
	}
}
