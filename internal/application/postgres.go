package application

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumenlms/pipeline/internal/config"
)

var (
	dbOpenBackoffBase  = 1 * time.Second
	dbOpenBackoffScale = 1.618
)

// OpenDBPoolWithRetry initializes a new PostgreSQL connection pool with retry logic.
func OpenDBPoolWithRetry(ctx context.Context, conf config.Config) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(conf.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	retries := conf.DatabaseRetries
	if retries <= 0 {
		retries = 10
	}

	var pool *pgxpool.Pool
	var lastErr error

	slog.Info("Connecting to database", "host", cfg.ConnConfig.Host)
	for i := 0; i < retries; i++ {
		if pool, err = pgxpool.NewWithConfig(ctx, cfg); err == nil {
			break
		}
		lastErr = err

		backoff := time.Duration(float64(dbOpenBackoffBase) * math.Pow(dbOpenBackoffScale, float64(i)))
		slog.Warn("database connect failed, retrying", "backoff", backoff, "error", err)
		time.Sleep(backoff)
	}
	if pool == nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", retries, lastErr)
	}

	for i := 0; i < retries; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
		err = pool.Ping(pingCtx)
		cancel()
		if err == nil {
			slog.Info("Database connection established", "host", cfg.ConnConfig.Host)
			return pool, nil
		}
		lastErr = err

		backoff := time.Duration(float64(dbOpenBackoffBase) * math.Pow(dbOpenBackoffScale, float64(i)))
		slog.Warn("database ping failed, retrying", "backoff", backoff, "error", err)
		time.Sleep(backoff)
	}

	pool.Close()
	return nil, fmt.Errorf("failed to ping database after %d attempts: %w", retries, lastErr)
}
