package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// ActionRateLimit limits mutating dashboard actions (clear, upload) per browser
// session rather than per IP. Requires Session to run before this.
func ActionRateLimit(action string, maxActions int, window time.Duration) gin.HandlerFunc {
	local := newMemoryLimiter()
	return func(c *gin.Context) {
		sid := SessionID(c)
		if sid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no session"})
			return
		}

		key := "action_rl:" + action + ":" + sid + ":" + strconv.FormatInt(int64(window.Seconds()), 10)

		var count int64
		if redisClient != nil {
			ctx := c.Request.Context()
			val, err := redisClient.Incr(ctx, key).Result()
			if err != nil {
				// On Redis error, fail-open but tell the client
				c.Header("X-ActionRateLimit-Error", "redis-error")
				c.Next()
				return
			}
			if val == 1 {
				redisClient.Expire(ctx, key, window)
			}
			count = val
		} else {
			if !local.allow(key, maxActions, window) {
				count = int64(maxActions) + 1
			}
		}

		c.Header("X-ActionRateLimit-Limit", strconv.Itoa(maxActions))
		if count > 0 {
			c.Header("X-ActionRateLimit-Remaining", strconv.FormatInt(max(0, int64(maxActions)-count), 10))
		}

		if count > int64(maxActions) {
			RLBlocked.WithLabelValues("action:" + action).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many " + action + " requests",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues("action:" + action).Inc()
		c.Next()
	}
}
