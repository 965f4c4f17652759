package db

import (
	"context"
	"time"

	"anomalyse_dashboard/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens the audit database. Unlike the backend connection it is
// optional, so failures are returned instead of exiting.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("audit database connected")
	return db, nil
}
