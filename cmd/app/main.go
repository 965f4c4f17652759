package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anomalyse_dashboard/internal/config"
	"anomalyse_dashboard/internal/db"
	"anomalyse_dashboard/internal/gateway"
	httpServer "anomalyse_dashboard/internal/http"
	"anomalyse_dashboard/internal/http/middleware"
	"anomalyse_dashboard/internal/logger"
	"anomalyse_dashboard/internal/repository"
	"anomalyse_dashboard/internal/service"
	"anomalyse_dashboard/internal/session"
	"anomalyse_dashboard/internal/view"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx := context.Background()

	// Sessions live in Redis when configured, in memory otherwise
	var (
		rdb      *redis.Client
		sessions session.Store = session.NewMemoryStore()
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb, "", cfg.SessionTTL)
	}
	middleware.InitRedisRateLimiter(rdb)

	// Audit trail is optional
	var (
		pool  *pgxpool.Pool
		audit = service.NewAuditService(nil)
	)
	if cfg.DatabaseURL != "" {
		p, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("audit database unavailable, audit disabled", "error", err)
		} else {
			pool = p
			defer pool.Close()
			audit = service.NewAuditService(repository.NewAuditRepository(pool))
		}
	}

	backend := gateway.NewClient(cfg.BackendURL, cfg.BackendTimeout, sessions)

	views := view.NewRegistry(cfg.SessionTTL)
	stopCleanup := make(chan struct{})
	views.StartCleanup(10*time.Minute, stopCleanup)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.Metrics(),
		middleware.CORS(),
	)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Config:   cfg,
		Backend:  backend,
		Sessions: sessions,
		Tokens:   service.NewTokenReader(cfg.JWTSecret),
		Views:    views,
		Audit:    audit,
		Redis:    rdb,
		DB:       pool,
		Version:  version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "backend", cfg.BackendURL, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	close(stopCleanup)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
