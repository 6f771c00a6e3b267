// Package db provides database connection management and schema migration.
package db

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"arxiv-notifier/internal/resilience/retry"
)

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
// The bot's write load is light (one row per subscribe or delivery), so the
// pool is sized well below typical Postgres connection limits.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Open creates and configures a new database connection pool.
// It reads DATABASE_URL from environment and applies connection pool settings.
// A missing DATABASE_URL is fatal: the bot cannot run without its stores.
func Open() *sql.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal(err)
	}

	cfg := getConnectionConfigFromEnv()
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	// Verify connection, retrying past transient startup failures such as
	// the database container still coming up.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err = retry.WithBackoff(ctx, retry.DBConfig(), func() error {
		return db.PingContext(ctx)
	})
	if err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	slog.Info("database connection established successfully")
	return db
}

// getConnectionConfigFromEnv reads connection pool configuration from environment variables.
// Falls back to default values if not set.
func getConnectionConfigFromEnv() ConnectionConfig {
	cfg := DefaultConnectionConfig()

	if maxOpen := os.Getenv("DB_MAX_OPEN_CONNS"); maxOpen != "" {
		if val, err := strconv.Atoi(maxOpen); err == nil && val > 0 {
			cfg.MaxOpenConns = val
		}
	}

	if maxIdle := os.Getenv("DB_MAX_IDLE_CONNS"); maxIdle != "" {
		if val, err := strconv.Atoi(maxIdle); err == nil && val > 0 {
			cfg.MaxIdleConns = val
		}
	}

	if lifetime := os.Getenv("DB_CONN_MAX_LIFETIME"); lifetime != "" {
		if val, err := time.ParseDuration(lifetime); err == nil && val > 0 {
			cfg.ConnMaxLifetime = val
		}
	}

	if idleTime := os.Getenv("DB_CONN_MAX_IDLE_TIME"); idleTime != "" {
		if val, err := time.ParseDuration(idleTime); err == nil && val > 0 {
			cfg.ConnMaxIdleTime = val
		}
	}

	return cfg
}
