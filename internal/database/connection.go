package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the "mysql" driver
	_ "github.com/go-sql-driver/mysql"
	// Registers the "sqlite3" driver
	_ "github.com/mattn/go-sqlite3"

	"vidstream/internal/config"
	"vidstream/internal/logging"
	"vidstream/internal/metrics"
)

// Store is the relational store behind every VidStream operation.
// It is safe for concurrent use.
type Store struct {
	db           *sql.DB
	driver       string
	queryTimeout time.Duration
	clock        func() time.Time
}

// Option customizes a Store
type Option func(*Store)

// WithClock replaces the wall clock used for created_at and session expiry checks
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// Open connects to the configured database, verifies the connection and
// creates the schema if it does not exist yet
func Open(ctx context.Context, cfg config.DatabaseConfig, opts ...Option) (*Store, error) {
	logging.Info().Str("driver", cfg.Driver).Msg("🗄️  Initializing database connection...")

	db, err := sql.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// A single writer connection serializes statements; WAL keeps readers cheap
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	s := &Store{
		db:           db,
		driver:       cfg.Driver,
		queryTimeout: cfg.QueryTimeout,
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logging.Info().Str("driver", cfg.Driver).Msg("✅ Database initialized successfully!")
	return s, nil
}

// Ping checks that the database answers
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.db.PingContext(ctx)
}

// Close safely closes the database connection
// This should be called when the application shuts down
func (s *Store) Close() error {
	logging.Info().Msg("🔒 Closing database connection...")
	return s.db.Close()
}

// Driver returns the configured driver name
func (s *Store) Driver() string {
	return s.driver
}

// now returns the current time as stored: UTC with microsecond precision,
// which both dialects round-trip exactly
func (s *Store) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// observe records timing for a named operation and translates err into
// an application error
func (s *Store) observe(op string, start time.Time, err error) error {
	err = translate(err)
	kind := ""
	if err != nil {
		kind = kindLabel(err)
	}
	metrics.RecordDBQuery(op, time.Since(start), kind)
	return err
}
