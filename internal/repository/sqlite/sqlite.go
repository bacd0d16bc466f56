// Package sqlite implements the repository interfaces on SQLite.
//
// It backs local development and the test suites. Production deployments use
// the postgres package; both carry the same tables and the same contracts.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so no C toolchain is needed to build
// or cross-compile, and ":memory:" databases make store tests fast and
// hermetic.
//
// ONE CONNECTION:
// SQLite allows a single writer at a time. The pool is capped at one
// connection, which:
//   - serializes every transaction, so two vote toggles never interleave
//   - keeps a ":memory:" database alive for the lifetime of the DB (each new
//     connection would otherwise open its own empty database)
//
// THE VOTE TOGGLE (vote.go):
//
//	BEGIN
//	  SELECT 1 FROM projects WHERE id = ?           → 404 if missing
//	  DELETE FROM votes WHERE user_id = ? AND ...    → 1 row: un-vote
//	  INSERT INTO votes ...                          → 0 rows: vote
//	  UPDATE projects SET votes_count = votes_count ± 1
//	COMMIT
//
// The counter is always a relative update inside the same transaction as the
// vote row, so votes_count equals the number of vote rows after every commit.
//
// ERROR TRANSLATION:
// sql.ErrNoRows becomes apperror.NotFound and UNIQUE/PRIMARY KEY violations
// become apperror.Conflict. Everything else is wrapped with a "sqlite:"
// prefix and surfaces as a 500.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/ysws-hunt/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/ysws.db" → file-based database
//   - ":memory:"     → in-memory database, used by tests
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// migrate creates the schema and seeds reference data. Every statement is
// idempotent, so it runs on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			provider     TEXT NOT NULL,
			provider_id  TEXT NOT NULL,
			email        TEXT NOT NULL DEFAULT '',
			username     TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			avatar_url   TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (provider, provider_id)
		);

		CREATE TABLE IF NOT EXISTS credentials (
			email         TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			display_name  TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS categories (
			id    TEXT PRIMARY KEY,
			name  TEXT NOT NULL,
			slug  TEXT NOT NULL UNIQUE,
			color TEXT NOT NULL DEFAULT ''
		);
	`)
	if err != nil {
		return fmt.Errorf("creating account and category tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			id               TEXT PRIMARY KEY,
			title            TEXT NOT NULL,
			slug             TEXT NOT NULL,
			description      TEXT NOT NULL,
			long_description TEXT NOT NULL DEFAULT '',
			demo_url         TEXT NOT NULL,
			github_url       TEXT NOT NULL DEFAULT '',
			category_id      TEXT REFERENCES categories(id),
			gallery_urls     TEXT NOT NULL DEFAULT '[]',
			maker_id         TEXT NOT NULL REFERENCES users(id),
			status           TEXT NOT NULL DEFAULT 'pending'
			                 CHECK (status IN ('pending', 'approved', 'rejected')),
			votes_count      INTEGER NOT NULL DEFAULT 0 CHECK (votes_count >= 0),
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_projects_status_created ON projects(status, created_at);
		CREATE INDEX IF NOT EXISTS idx_projects_maker_id ON projects(maker_id);

		CREATE TABLE IF NOT EXISTS votes (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, project_id)
		);
		CREATE INDEX IF NOT EXISTS idx_votes_project_id ON votes(project_id);

		CREATE TABLE IF NOT EXISTS daily_features (
			featured_date TEXT PRIMARY KEY,
			project_id    TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_daily_features_project_id ON daily_features(project_id);
	`)
	if err != nil {
		return fmt.Errorf("creating project tables: %w", err)
	}

	for _, c := range repository.DefaultCategories {
		_, err := db.conn.Exec(
			`INSERT OR IGNORE INTO categories (id, name, slug, color) VALUES (?, ?, ?, ?)`,
			c.ID, c.Name, c.Slug, c.Color,
		)
		if err != nil {
			return fmt.Errorf("seeding category %s: %w", c.Slug, err)
		}
	}

	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullString maps "" to SQL NULL for optional foreign keys.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
