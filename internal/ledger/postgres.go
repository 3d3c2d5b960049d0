// Package ledger persists the last-synchronized fingerprint per logical
// backup target.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/hashback/hashback/internal/domain"
)

// Config holds connection settings for the Postgres-backed store.
type Config struct {
	URL             string
	PingTimeout     time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("ledger url is required")
	}
	if c.PingTimeout <= 0 {
		return errors.New("ledger ping_timeout must be positive")
	}
	if c.MaxOpenConns < 1 {
		return errors.New("ledger max_open_conns must be at least 1")
	}
	if c.MaxIdleConns < 0 {
		return errors.New("ledger max_idle_conns cannot be negative")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("ledger max_idle_conns must be <= max_open_conns")
	}
	if c.ConnMaxLifetime < 0 {
		return errors.New("ledger conn_max_lifetime cannot be negative")
	}
	return nil
}

// PostgresStore implements domain.FingerprintStore on a single Postgres
// table with one row per logical name.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// StoreOption configures a PostgresStore.
type StoreOption func(*PostgresStore)

// WithStoreLogger sets the logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *PostgresStore) {
		s.logger = logger
	}
}

// Open connects to Postgres, applies pool limits, and verifies
// connectivity with a bounded ping.
func Open(ctx context.Context, cfg Config, opts ...StoreOption) (*PostgresStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %v", domain.ErrStoreUnavailable, err)
	}

	return NewPostgresStore(db, opts...), nil
}

// NewPostgresStore wraps an existing database handle.
func NewPostgresStore(db *sql.DB, opts ...StoreOption) *PostgresStore {
	s := &PostgresStore{
		db:     db,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS fingerprints (
	name       TEXT PRIMARY KEY,
	hash       TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the fingerprints table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("%w: ensure schema: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Get returns the stored hash for name, or found=false when no record
// exists. Absence is never an error.
func (s *PostgresStore) Get(ctx context.Context, name string) (string, bool, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT hash FROM fingerprints WHERE name = $1`, name).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %q: %v", domain.ErrStoreUnavailable, name, err)
	}
	return hash, true, nil
}

// Put upserts the hash for name as a single atomic statement. The primary
// key on name guarantees one row per logical name.
func (s *PostgresStore) Put(ctx context.Context, name, hash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fingerprints (name, hash, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET hash = EXCLUDED.hash, updated_at = now()`,
		name, hash)
	if err != nil {
		return fmt.Errorf("%w: put %q: %v", domain.ErrStoreUnavailable, name, err)
	}

	s.logger.Debug("ledger updated", "name", name, "hash", hash)
	return nil
}

// Ping checks connectivity to the database.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ensure PostgresStore implements domain.FingerprintStore.
var _ domain.FingerprintStore = (*PostgresStore)(nil)
