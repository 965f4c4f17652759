package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type clientInfo struct {
	last  time.Time
	count int
}

// sweepThreshold is the map size above which expired windows are dropped.
const sweepThreshold = 1024

type memoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	now     func() time.Time
}

func newMemoryLimiter() *memoryLimiter {
	return &memoryLimiter{clients: make(map[string]*clientInfo), now: time.Now}
}

// allow reports whether ident may send another request in the current window
func (l *memoryLimiter) allow(ident string, maxRequests int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.clients) >= sweepThreshold {
		l.sweep(now, window)
	}

	ci, ok := l.clients[ident]
	if !ok || now.Sub(ci.last) > window {
		l.clients[ident] = &clientInfo{last: now, count: 1}
		return true
	}

	ci.count++
	return ci.count <= maxRequests
}

// sweep drops clients whose window has already ended.
func (l *memoryLimiter) sweep(now time.Time, window time.Duration) {
	for ident, ci := range l.clients {
		if now.Sub(ci.last) > window {
			delete(l.clients, ident)
		}
	}
}

// SimpleRateLimit blocks clients that send more than maxRequests per window.
// It is the in-process fallback used when Redis is not configured.
func SimpleRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	limiter := newMemoryLimiter()
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP(), maxRequests, window) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
