// Package store owns the PostgreSQL connection pool and the schema it serves.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/flavorhub/internal/metrics"
)

var errNotInitialized = errors.New("store not initialized")

// Options controls connection-pool behaviour.
type Options struct {
	MaxConns               int32
	MinConns               int32
	MaxConnIdleTime        time.Duration
	MaxConnLifetime        time.Duration
	ConnTimeout            time.Duration
	StatementCacheCapacity int
	Logger                 zerolog.Logger
}

// Store wraps the pgx pool backing the recipe and rating repositories.
type Store struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
	opts   Options
}

// New connects to dbURL and pings the server before returning.
func New(ctx context.Context, dbURL string, opts Options) (*Store, error) {
	cfg, err := poolConfig(dbURL, opts)
	if err != nil {
		return nil, err
	}

	s := &Store{
		logger: opts.Logger.With().Str("component", "store").Logger(),
		opts:   opts,
	}
	s.logger.Info().
		Int32("max_conns", cfg.MaxConns).
		Int32("min_conns", cfg.MinConns).
		Dur("max_idle", cfg.MaxConnIdleTime).
		Dur("max_lifetime", cfg.MaxConnLifetime).
		Msg("opening connection pool")

	connCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s.pool = pool

	s.logger.Info().Msg("database connection established")
	return s, nil
}

func poolConfig(dbURL string, opts Options) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.StatementCacheCapacity >= 0 {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
		cfg.ConnConfig.StatementCacheCapacity = opts.StatementCacheCapacity
	}
	return cfg, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.ConnTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.ConnTimeout)
	}
	return ctx, func() {}
}

// Close releases the pool. It is safe on a nil Store.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.logger.Info().Msg("closing connection pool")
	s.pool.Close()
}

// HealthCheck pings the database within the configured connect timeout.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return errNotInitialized
	}
	checkCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.pool.Ping(checkCtx)
}

// Migrate brings the schema up to the latest embedded migration.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return errNotInitialized
	}
	state, err := MigrateUp(ctx, s.pool)
	if err != nil {
		return err
	}
	if state.Dirty {
		return fmt.Errorf("schema version %d is dirty", state.Version)
	}
	event := s.logger.Info().Uint("version", state.Version)
	if state.Changed {
		event.Msg("schema migrated")
	} else {
		event.Msg("schema up to date")
	}
	return nil
}

// Pool exposes the underlying pgx pool for repositories.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Stats returns pool statistics, or nil on an unopened Store.
func (s *Store) Stats() *pgxpool.Stat {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Stat()
}

// ReportStats publishes pool gauges every interval until ctx is done.
func (s *Store) ReportStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		s.recordStats()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Store) recordStats() {
	if stat := s.Stats(); stat != nil {
		metrics.RecordPoolStats(stat.TotalConns(), stat.IdleConns(), stat.AcquiredConns())
	}
}
