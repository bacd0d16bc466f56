package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/repository"
)

var _ repository.VoteRepository = (*DB)(nil)

// ErrCounterUnderflow means a vote row existed for a project whose counter was
// already zero. The toggle is rolled back instead of clamping the counter.
var ErrCounterUnderflow = errors.New("sqlite: votes_count would go negative")

// ToggleVote flips userID's vote on projectID.
//
// Everything happens in one transaction: the existence check on the project,
// the vote row insert/delete and the relative counter update. The DELETE
// doubles as the "has this user voted" check, so there is no separate read
// whose answer could go stale. With a single pooled connection, transactions
// never interleave.
func (db *DB) ToggleVote(ctx context.Context, projectID, userID string) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: beginning vote transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = ?`, projectID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, apperror.NotFound("project", projectID)
		}
		return false, fmt.Errorf("sqlite: locating project %s: %w", projectID, err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM votes WHERE user_id = ? AND project_id = ?`, userID, projectID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: removing vote: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	voted := removed == 0
	if voted {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO votes (id, user_id, project_id, created_at) VALUES (?, ?, ?, ?)`,
			xid.New().String(), userID, projectID, time.Now().UTC(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return false, apperror.Conflict("vote", projectID)
			}
			return false, fmt.Errorf("sqlite: inserting vote: %w", err)
		}
		res, err = tx.ExecContext(ctx,
			`UPDATE projects SET votes_count = votes_count + 1 WHERE id = ?`, projectID,
		)
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE projects SET votes_count = votes_count - 1 WHERE id = ? AND votes_count > 0`, projectID,
		)
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: adjusting votes_count: %w", err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if updated != 1 {
		return false, fmt.Errorf("%w (project %s)", ErrCounterUnderflow, projectID)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: committing vote: %w", err)
	}

	return voted, nil
}

// ListVotedProjectIDs returns the ids of projects userID has voted for,
// most recent vote first.
func (db *DB) ListVotedProjectIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT project_id FROM votes WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing votes for user %s: %w", userID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning vote row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating votes: %w", err)
	}

	return ids, nil
}
