// Package database records chapter runs in PostgreSQL.
package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Options configures Connect.
type Options struct {
	URL string
	// MaxConns caps the pool. A CLI run writes one row, the watcher one per
	// worker, so the default of 4 is plenty.
	MaxConns int32
	// ConnectTimeout bounds the initial ping (default 10s).
	ConnectTimeout time.Duration
	Log            zerolog.Logger
}

// DB wraps the pgx pool holding the run history.
type DB struct {
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

// Connect opens the pool and verifies the server answers.
func Connect(ctx context.Context, opts Options) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = opts.MaxConns
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 4
	}
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 5 * time.Minute

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(pingCtx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", maskDSN(opts.URL), err)
	}

	log := opts.Log.With().Str("component", "database").Logger()
	log.Info().
		Str("url", maskDSN(opts.URL)).
		Int32("max_conns", cfg.MaxConns).
		Msg("database connected")
	return &DB{Pool: pool, log: log}, nil
}

// HealthCheck pings the server with a short deadline and reports latency.
func (db *DB) HealthCheck(ctx context.Context) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	start := time.Now()
	err := db.Pool.Ping(ctx)
	return time.Since(start), err
}

// maskDSN hides the password so the URL can be logged.
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
	}
	return u.String()
}

func (db *DB) Close() {
	db.log.Debug().Msg("closing database pool")
	db.Pool.Close()
}
