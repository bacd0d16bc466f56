package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/model"
	"github.com/sakif/ysws-hunt/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

// Upsert inserts or refreshes a user keyed by (provider, provider_id).
//
// The conflict branch leaves id, username and created_at untouched. Sessions
// carry the id, so it stays stable across sign-ins.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()

	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO users (id, provider, provider_id, email, username, display_name, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (provider, provider_id) DO UPDATE SET
			email        = excluded.email,
			display_name = excluded.display_name,
			avatar_url   = excluded.avatar_url,
			updated_at   = excluded.updated_at
		 RETURNING id, username, created_at, updated_at`,
		xid.New().String(),
		user.Provider,
		user.ProviderID,
		user.Email,
		user.Username,
		user.DisplayName,
		user.AvatarURL,
		now,
		now,
	).Scan(&user.ID, &user.Username, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: upserting user (%s/%s): %w", user.Provider, user.ProviderID, err)
	}

	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, provider, provider_id, email, username, display_name, avatar_url, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID,
		&u.Provider,
		&u.ProviderID,
		&u.Email,
		&u.Username,
		&u.DisplayName,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}
