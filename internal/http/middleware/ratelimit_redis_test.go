package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

func redisFromEnv(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	pass := os.Getenv("REDIS_PASSWORD")
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			db = n
		}
	}

	client := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	t.Cleanup(func() {
		InitRedisRateLimiter(nil)
		client.Close()
	})
	InitRedisRateLimiter(client)
	return client
}

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisRateLimitIntegration(t *testing.T) {
	redisFromEnv(t)

	// small window for test
	w := 2 * time.Second
	limit := 2

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/test", RedisRateLimit("test-"+strconv.FormatInt(time.Now().UnixNano(), 10), limit, w), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	httpClient := &http.Client{}

	// do max allowed requests
	for i := 0; i < limit; i++ {
		req, _ := http.NewRequest("GET", srv.URL+"/test", nil)
		res, err := httpClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		res.Body.Close()
		if res.StatusCode != 200 {
			t.Fatalf("expected 200 got %d", res.StatusCode)
		}
	}

	// next request should be blocked
	req, _ := http.NewRequest("GET", srv.URL+"/test", nil)
	res, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != 429 {
		t.Fatalf("expected 429 got %d", res.StatusCode)
	}
}

func TestRedisRateLimit_ScopesAreIndependent(t *testing.T) {
	client := redisFromEnv(t)
	ctx := context.Background()
	// the scoped keys are keyed by the test client IP, so start clean
	client.Del(ctx, rateLimitKey("api", time.Minute, "192.0.2.1"), rateLimitKey("login", time.Minute, "192.0.2.1"))

	gin.SetMode(gin.TestMode)
	assertScopesIndependent(t, scopedRouter())
}
