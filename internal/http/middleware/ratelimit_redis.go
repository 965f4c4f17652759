package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter sets the shared Redis client used by the limiters.
// A nil client, or one that does not answer a ping, leaves the limiters on
// their in-process fallback.
func InitRedisRateLimiter(client *redis.Client) {
	if client == nil {
		redisClient = nil
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		// on ping failure, disable redis client to keep server available
		redisClient = nil
		return
	}
	redisClient = client
}

// RateLimit picks the Redis limiter when Redis is available at request time,
// otherwise the in-process one. scope separates the counters of limiters that
// share a window, e.g. login and the API group.
func RateLimit(scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	fallback := SimpleRateLimit(maxRequests, window)
	distributed := RedisRateLimit(scope, maxRequests, window)
	return func(c *gin.Context) {
		if redisClient == nil {
			fallback(c)
			return
		}
		distributed(c)
	}
}

// RedisRateLimit implements a simple fixed-window rate limiter using Redis INCR/EXPIRE.
// key format: rl:<scope>:<window_seconds>:<identifier>
func RedisRateLimit(scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil {
			// fallback to allowing requests if Redis not configured
			c.Next()
			return
		}

		key := rateLimitKey(scope, window, c.ClientIP())
		ctx := c.Request.Context()

		val, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			// on Redis error, fail-open (allow) but set header
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}

		if val == 1 {
			redisClient.Expire(ctx, key, window)
		}

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}

func rateLimitKey(scope string, window time.Duration, ident string) string {
	return "rl:" + scope + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ident
}
