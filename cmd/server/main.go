// cmd/server runs the court directory HTTP API.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/courtside/internal/auth"
	"github.com/jason-s-yu/courtside/internal/cache"
	"github.com/jason-s-yu/courtside/internal/config"
	"github.com/jason-s-yu/courtside/internal/database"
	"github.com/jason-s-yu/courtside/internal/directory"
	"github.com/jason-s-yu/courtside/internal/handlers"
	"github.com/jason-s-yu/courtside/internal/presence"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if cfg.IsProduction() {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if err := auth.Init(cfg.TokenTTL); err != nil {
		logger.WithError(err).Fatal("auth init failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("could not open store")
	}
	defer closeStore()

	if cfg.SeedData {
		if err := directory.Seed(ctx, store, time.Now()); err != nil {
			logger.WithError(err).Fatal("seeding failed")
		}
		logger.Info("seed data loaded")
	}

	hub := presence.NewHub(logger, 32)
	defer hub.Close()
	dir := directory.NewService(store,
		directory.WithLogger(logger),
		directory.WithLatency(cfg.DirectoryLatency),
		directory.WithPublisher(hub),
	)

	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.WithError(err).Fatal("redis unavailable")
		}
		defer rdb.Close()
		dir.AddPublisher(cache.NewCheckInPublisher(rdb, cfg.CheckInQueue))
		logger.WithField("queue", cfg.CheckInQueue).Info("publishing check-ins to redis")
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handlers.NewRouter(handlers.RouterConfig{
			Directory:      dir,
			Hub:            hub,
			Logger:         logger,
			Production:     cfg.IsProduction(),
			AllowedOrigins: cfg.AllowedOrigins,
		}),
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
}

// openStore returns the configured directory store and its cleanup func.
func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (directory.Store, func(), error) {
	if cfg.StoreBackend != config.BackendPostgres {
		logger.Info("using in-memory store")
		return directory.NewMemoryStore(), func() {}, nil
	}
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("connected to postgres")
	return database.NewStore(pool), pool.Close, nil
}
