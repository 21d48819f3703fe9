// cmd/historian is an asynchronous historian service that pops check-in events
// from the Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/courtside/internal/cache"
	"github.com/jason-s-yu/courtside/internal/config"
	"github.com/jason-s-yu/courtside/internal/database"
	"github.com/jason-s-yu/courtside/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("historian requires DATABASE_URL")
	}
	redisAddr := cfg.RedisAddr
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("database unavailable")
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}

	rdb, err := cache.ConnectRedis(ctx, redisAddr, cfg.RedisDB)
	if err != nil {
		logger.WithError(err).Fatal("redis unavailable")
	}
	defer rdb.Close()

	svc := historian.New(rdb, database.NewHistoryWriter(pool), historian.Config{
		Queue:      cfg.CheckInQueue,
		BatchSize:  cfg.HistorianBatch,
		FlushDelay: cfg.HistorianFlush,
	}, logger)
	if err := svc.Run(ctx); err != nil {
		logger.WithError(err).Error("historian failed")
	}
	logger.Info("Historian shutdown complete.")
}
