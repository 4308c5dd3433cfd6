package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/joejoe2/spring-chat-sub000/internal/utils"
)

// AsyncMiddleware runs the rest of the handler chain on the global worker
// pool instead of the goroutine gin spawned for the request. The pool caps
// how many requests are actually being processed at once; excess requests
// queue instead of piling up goroutines. The caller still blocks until its
// job finishes, so the request/response contract is unchanged.
//
// Streaming routes (push subscriptions, websocket upgrades) must be
// registered before this middleware: they hold their worker for the whole
// connection lifetime.
func AsyncMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if utils.GlobalWorkerPool == nil {
			c.Next()
			return
		}

		done := make(chan struct{})

		// The worker is the only goroutine touching c until done closes,
		// so handing the context across is safe.
		utils.GlobalWorkerPool.Submit(func() {
			defer close(done)
			c.Next()
		})

		<-done
	}
}
