// Package postgres implements the repository interfaces on PostgreSQL using
// a pgx connection pool. The schema mirrors the sqlite package; gallery URLs
// are a native text array and timestamps are timestamptz.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sakif/ysws-hunt/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// DB wraps a pgx pool and implements repository.Store.
type DB struct {
	pool *pgxpool.Pool
}

// Options tunes the connection pool. Zero values keep pgx defaults.
type Options struct {
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// New connects to databaseURL, verifies the connection and runs migrations.
func New(ctx context.Context, databaseURL string, opts Options) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return db, nil
}

// Close releases every pooled connection.
func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id           TEXT PRIMARY KEY,
		provider     TEXT NOT NULL,
		provider_id  TEXT NOT NULL,
		email        TEXT NOT NULL DEFAULT '',
		username     TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		avatar_url   TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (provider, provider_id)
	)`,
	`CREATE TABLE IF NOT EXISTS credentials (
		email         TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		display_name  TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id    TEXT PRIMARY KEY,
		name  TEXT NOT NULL,
		slug  TEXT NOT NULL UNIQUE,
		color TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id               TEXT PRIMARY KEY,
		title            TEXT NOT NULL,
		slug             TEXT NOT NULL,
		description      TEXT NOT NULL,
		long_description TEXT NOT NULL DEFAULT '',
		demo_url         TEXT NOT NULL,
		github_url       TEXT NOT NULL DEFAULT '',
		category_id      TEXT REFERENCES categories(id),
		gallery_urls     TEXT[] NOT NULL DEFAULT '{}',
		maker_id         TEXT NOT NULL REFERENCES users(id),
		status           TEXT NOT NULL DEFAULT 'pending'
		                 CHECK (status IN ('pending', 'approved', 'rejected')),
		votes_count      INTEGER NOT NULL DEFAULT 0 CHECK (votes_count >= 0),
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_status_created ON projects(status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_maker_id ON projects(maker_id)`,
	`CREATE TABLE IF NOT EXISTS votes (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, project_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_votes_project_id ON votes(project_id)`,
	`CREATE TABLE IF NOT EXISTS daily_features (
		featured_date DATE PRIMARY KEY,
		project_id    TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_daily_features_project_id ON daily_features(project_id)`,
}

func (db *DB) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying %.40q: %w", stmt, err)
		}
	}

	for _, c := range repository.DefaultCategories {
		_, err := db.pool.Exec(ctx,
			`INSERT INTO categories (id, name, slug, color) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO NOTHING`,
			c.ID, c.Name, c.Slug, c.Color,
		)
		if err != nil {
			return fmt.Errorf("seeding category %s: %w", c.Slug, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
