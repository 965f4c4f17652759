package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"anomalyse_dashboard/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort        string
	BackendURL     string
	BackendTimeout time.Duration
	JWTSecret      string

	// Optional stores
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration
	DatabaseURL   string

	// Rate limits for the /api group
	APIRateLimit  int
	APIRateWindow time.Duration

	LogLevel string
	LogJSON  bool

	// Sent instead of a login when set; the backend accepts it in development
	DevToken      string
	SecureCookies bool
}

// Load reads the config from the environment, after loading .env if present.
func Load() *Config {
	_ = godotenv.Load()

	backendURL := strings.TrimRight(os.Getenv("BACKEND_URL"), "/")
	if backendURL == "" {
		logger.Fatal("BACKEND_URL is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	backendTimeout := 30 * time.Second
	if v := os.Getenv("BACKEND_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			backendTimeout = time.Duration(n) * time.Second
		}
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			redisDB = n
		}
	}

	sessionTTL := 24 * time.Hour
	if v := os.Getenv("SESSION_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			sessionTTL = time.Duration(n) * time.Hour
		}
	}

	apiRateLimit := 120
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			apiRateLimit = n
		}
	}

	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		AppPort:        port,
		BackendURL:     backendURL,
		BackendTimeout: backendTimeout,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        redisDB,
		SessionTTL:     sessionTTL,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		APIRateLimit:   apiRateLimit,
		APIRateWindow:  apiRateWindow,
		LogLevel:       logLevel,
		LogJSON:        os.Getenv("LOG_JSON") == "true",
		DevToken:       os.Getenv("DEV_TOKEN"),
		SecureCookies:  os.Getenv("SECURE_COOKIES") == "true",
	}
}
