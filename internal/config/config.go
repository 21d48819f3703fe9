// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/courtside/internal/auth"
)

// Store backends accepted in STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config holds the server and historian settings.
type Config struct {
	Port             string
	Env              string
	AllowedOrigins   []string
	DirectoryLatency time.Duration
	StoreBackend     string
	DatabaseURL      string
	SeedData         bool
	RedisAddr        string
	RedisDB          int
	CheckInQueue     string
	TokenTTL         time.Duration
	HistorianBatch   int
	HistorianFlush   time.Duration
}

// IsProduction reports whether the service runs with production CORS rules.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	latency, err := getEnvDuration("DIRECTORY_LATENCY", 0)
	if err != nil {
		return nil, err
	}
	ttl, err := auth.ParseExpireTime(os.Getenv("TOKEN_EXPIRE_TIME"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("COURTSIDE_ENV", "dev"),
		AllowedOrigins:   splitList(os.Getenv("ALLOWED_ORIGINS")),
		DirectoryLatency: latency,
		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SeedData:         getEnvBool("SEED_DATA", true),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		CheckInQueue:     getEnv("CHECKIN_QUEUE_NAME", "courtside_checkins"),
		TokenTTL:         ttl,
		HistorianBatch:   getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlush:   time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
	}

	switch cfg.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("STORE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	if cfg.HistorianBatch <= 0 {
		cfg.HistorianBatch = 1
	}
	return cfg, nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
