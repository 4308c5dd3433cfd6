package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joejoe2/spring-chat-sub000/utils/ratelimit"
)

// RateLimitMiddleware refuses callers that exceed the rule within its
// window. Authenticated requests are keyed per user, anonymous ones (login,
// register) per client IP. A nil limiter disables the check.
func RateLimitMiddleware(limiter ratelimit.Limiter, rule ratelimit.Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := c.ClientIP()
		if member, ok := CurrentMember(c); ok {
			key = member.ID
		}

		allowed, err := limiter.Allow(c.Request.Context(), key, rule)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "rate limiter unavailable"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		c.Next()
	}
}
