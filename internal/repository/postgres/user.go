package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/model"
	"github.com/sakif/ysws-hunt/internal/repository"
)

var (
	_ repository.UserRepository       = (*DB)(nil)
	_ repository.CredentialRepository = (*DB)(nil)
)

func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()

	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (id, provider, provider_id, email, username, display_name, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 ON CONFLICT (provider, provider_id) DO UPDATE SET
			email        = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			avatar_url   = EXCLUDED.avatar_url,
			updated_at   = EXCLUDED.updated_at
		 RETURNING id, username, created_at, updated_at`,
		xid.New().String(),
		user.Provider,
		user.ProviderID,
		user.Email,
		user.Username,
		user.DisplayName,
		user.AvatarURL,
		now,
	).Scan(&user.ID, &user.Username, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: upserting user (%s/%s): %w", user.Provider, user.ProviderID, err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := db.pool.QueryRow(ctx,
		`SELECT id, provider, provider_id, email, username, display_name, avatar_url, created_at, updated_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Provider, &u.ProviderID, &u.Email, &u.Username, &u.DisplayName, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	return &u, nil
}

func (db *DB) CreateCredential(ctx context.Context, cred *model.Credential) error {
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO credentials (email, password_hash, display_name, created_at) VALUES ($1, $2, $3, $4)`,
		cred.Email, cred.PasswordHash, cred.DisplayName, cred.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("credential", cred.Email)
		}
		return fmt.Errorf("postgres: creating credential: %w", err)
	}
	return nil
}

func (db *DB) GetCredential(ctx context.Context, email string) (*model.Credential, error) {
	var c model.Credential
	err := db.pool.QueryRow(ctx,
		`SELECT email, password_hash, display_name, created_at FROM credentials WHERE email = $1`, email,
	).Scan(&c.Email, &c.PasswordHash, &c.DisplayName, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("credential", email)
		}
		return nil, fmt.Errorf("postgres: getting credential: %w", err)
	}
	return &c, nil
}
