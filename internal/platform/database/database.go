// Package database opens the PostgreSQL pool behind the question store and
// event log.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxConnLifetime = 30 * time.Minute
	maxConnIdleTime = 5 * time.Minute
)

// DB owns the pgx pool shared by PostgresStore and PostgresEventLogger.
type DB struct {
	Pool *pgxpool.Pool
}

// ParseURL checks a TRIVIA_DATABASE_URL value and returns its pool config.
func ParseURL(url string) (*pgxpool.Config, error) {
	if url == "" {
		return nil, fmt.Errorf("database URL is empty")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}
	return cfg, nil
}

// poolConfig applies the connection limits to a parsed URL.
func poolConfig(url string, maxConns, minConns int) (*pgxpool.Config, error) {
	if maxConns <= 0 {
		return nil, fmt.Errorf("max conns must be positive, got %d", maxConns)
	}
	if minConns < 0 || minConns > maxConns {
		return nil, fmt.Errorf("min conns %d must be between 0 and max conns %d", minConns, maxConns)
	}

	cfg, err := ParseURL(url)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = int32(maxConns)
	cfg.MinConns = int32(minConns)
	cfg.MaxConnLifetime = maxConnLifetime
	cfg.MaxConnIdleTime = maxConnIdleTime
	return cfg, nil
}

// New connects to Postgres and fails unless the server answers a ping, so a
// bad TRIVIA_DATABASE_URL stops startup instead of the first request.
func New(ctx context.Context, url string, maxConns, minConns int) (*DB, error) {
	cfg, err := poolConfig(url, maxConns, minConns)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening question store pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("reaching question store: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// ApplySchema runs idempotent DDL (CREATE ... IF NOT EXISTS) against the pool.
func (db *DB) ApplySchema(ctx context.Context, ddl string) error {
	if _, err := db.Pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

// HealthCheck pings the pool for /readyz.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
