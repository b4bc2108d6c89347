package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

func newConnectBackoff(maxElapsed time.Duration) backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed
	return bo
}

// NewPgxPool creates a new PostgreSQL connection pool.
// The first ping is retried with exponential backoff for up to maxElapsed so the service can start
// alongside a database that is still booting. Configuration and authentication errors are not retried.
func NewPgxPool(ctx context.Context, databaseURL string, maxElapsed time.Duration, logger *slog.Logger) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL cannot be empty")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config from URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		pingErr := pool.Ping(ctx)
		if pingErr == nil {
			return nil
		}
		if !isRetryableConnectError(pingErr) {
			return backoff.Permanent(pingErr)
		}
		logger.Warn("Database not reachable yet, retrying",
			slog.Int("attempt", attempt),
			slog.String("error", pingErr.Error()))
		return pingErr
	}, backoff.WithContext(newConnectBackoff(maxElapsed), ctx))
	if err != nil {
		pool.Close() // Close the pool if ping fails
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to PostgreSQL database.", slog.Int("attempts", attempt))
	return pool, nil
}

// isRetryableConnectError reports whether a failed ping may succeed later.
// Errors reported by a running server (bad password, unknown database) are final.
func isRetryableConnectError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 57P03: cannot_connect_now, the server is starting up
		return pgErr.Code == "57P03"
	}
	return !errors.Is(err, context.Canceled)
}

// ClosePgxPool closes the PostgreSQL connection pool.
func ClosePgxPool(pool *pgxpool.Pool, logger *slog.Logger) {
	if pool != nil {
		pool.Close()
		logger.Info("PostgreSQL connection pool closed.")
	}
}
