package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/model"
)

// CreateCredential stores a new email/password credential.
// Returns apperror.ErrConflict if the email is already registered.
func (db *DB) CreateCredential(ctx context.Context, cred *model.Credential) error {
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO credentials (email, password_hash, display_name, created_at)
		 VALUES (?, ?, ?, ?)`,
		cred.Email,
		cred.PasswordHash,
		cred.DisplayName,
		cred.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("credential", cred.Email)
		}
		return fmt.Errorf("sqlite: creating credential: %w", err)
	}

	return nil
}

// GetCredential looks up a credential by (already normalized) email.
func (db *DB) GetCredential(ctx context.Context, email string) (*model.Credential, error) {
	var c model.Credential

	err := db.conn.QueryRowContext(ctx,
		`SELECT email, password_hash, display_name, created_at FROM credentials WHERE email = ?`,
		email,
	).Scan(&c.Email, &c.PasswordHash, &c.DisplayName, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("credential", email)
		}
		return nil, fmt.Errorf("sqlite: getting credential: %w", err)
	}

	return &c, nil
}
