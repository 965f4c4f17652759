package http

import (
	"time"

	"anomalyse_dashboard/internal/config"
	"anomalyse_dashboard/internal/gateway"
	"anomalyse_dashboard/internal/http/handlers"
	"anomalyse_dashboard/internal/http/middleware"
	"anomalyse_dashboard/internal/service"
	"anomalyse_dashboard/internal/session"
	"anomalyse_dashboard/internal/view"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
)

// Deps are the collaborators built by main. Redis and DB are optional.
type Deps struct {
	Config   *config.Config
	Backend  *gateway.Client
	Sessions session.Store
	Tokens   session.AnalystReader
	Views    *view.Registry
	Audit    *service.AuditService
	Redis    *redis.Client
	DB       *pgxpool.Pool
	Version  string
}

// Per-session limits for the destructive actions
const (
	clearRateLimit   = 5
	uploadRateLimit  = 20
	actionRateWindow = time.Minute
	authRateLimit    = 10
	authRateWindow   = time.Minute
)

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config
	h := handlers.NewHandler(d.Backend, d.Sessions, d.Tokens, d.Views, d.Audit)
	h.DevToken = cfg.DevToken
	healthHandler := handlers.NewHealthHandler(d.Backend, d.Redis, d.DB, d.Version)

	r.SetHTMLTemplate(handlers.Templates())

	// one login budget per client across the form and the JSON endpoint
	loginRL := middleware.RateLimit("login", authRateLimit, authRateWindow)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	web := r.Group("/")
	web.Use(middleware.Session(cfg.SecureCookies))
	{
		web.GET("/login", h.LoginPage)
		web.POST("/login", loginRL, h.LoginForm)
		web.POST("/logout", h.LogoutForm)

		page := web.Group("/")
		page.Use(h.RequireLogin(true))
		page.GET("/", h.Page)
		page.POST("/refresh", h.RefreshForm)
		page.POST("/banner/dismiss", h.DismissBanner)
		page.POST("/clear", middleware.ActionRateLimit("clear", clearRateLimit, actionRateWindow), h.ClearForm)
		page.POST("/upload", middleware.ActionRateLimit("upload", uploadRateLimit, actionRateWindow), h.UploadForm)
	}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Session(cfg.SecureCookies), middleware.RateLimit("api", cfg.APIRateLimit, cfg.APIRateWindow))
	{
		v1.POST("/auth/login", loginRL, h.Login)
		v1.POST("/auth/logout", h.Logout)

		api := v1.Group("")
		api.Use(h.RequireLogin(false))
		api.GET("/me", h.Me)
		api.GET("/transactions", h.Transactions)
		api.POST("/transactions/sort", h.Sort)
		api.POST("/transactions/refresh", h.Refresh)
		api.POST("/transactions/clear", middleware.ActionRateLimit("clear", clearRateLimit, actionRateWindow), h.Clear)
		api.POST("/upload", middleware.ActionRateLimit("upload", uploadRateLimit, actionRateWindow), h.Upload)
		api.GET("/metrics", h.Metrics)
		api.POST("/predict", h.Predict)
		api.GET("/audit", h.AuditLogs)
	}
}
