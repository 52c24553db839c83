package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldpulse/surveyhub/internal/repository"
	"fieldpulse/surveyhub/pkg/response"
)

// RateLimit throttles public endpoints per client IP using a fixed window
// counter. The counter fails open: if the state store is unreachable the
// request is allowed through.
func RateLimit(store repository.StateStore, limit int64, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%s", c.ClientIP(), c.FullPath())
		n, err := store.Incr(c.Request.Context(), key, window)
		if err != nil {
			logger.Warn("rate limit counter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if n > limit {
			response.TooManyRequests(c, "too many requests, slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
