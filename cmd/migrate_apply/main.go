package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"anomalyse_dashboard/internal/db"
	"anomalyse_dashboard/internal/logger"
	"anomalyse_dashboard/internal/migrations"

	"github.com/joho/godotenv"
)

func main() {
	apply := flag.Bool("apply", false, "apply migrations (default: list them)")
	flag.Parse()

	_ = godotenv.Load()
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_JSON") == "true")

	if !*apply {
		names, err := migrations.Names()
		if err != nil {
			logger.Fatal("read migrations", "error", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		logger.Fatal("connect database", "error", err)
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool, func(name string) {
		fmt.Printf("applied %s\n", name)
	}); err != nil {
		logger.Fatal("migration failed", "error", err)
	}
}
