package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/repository"
)

var _ repository.VoteRepository = (*DB)(nil)

// ErrCounterUnderflow means a vote row existed for a project whose counter was
// already zero. The toggle is rolled back.
var ErrCounterUnderflow = errors.New("postgres: votes_count would go negative")

// ToggleVote flips userID's vote on projectID in one transaction.
//
// The project row is locked first (FOR NO KEY UPDATE, so vote inserts that
// only reference it are not blocked), which serializes concurrent toggles on
// the same project. The vote row change and the relative counter update then
// commit or roll back together.
func (db *DB) ToggleVote(ctx context.Context, projectID, userID string) (bool, error) {
	var voted bool

	err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx,
			`SELECT id FROM projects WHERE id = $1 FOR NO KEY UPDATE`, projectID,
		).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperror.NotFound("project", projectID)
			}
			return fmt.Errorf("locking project %s: %w", projectID, err)
		}

		tag, err := tx.Exec(ctx,
			`DELETE FROM votes WHERE user_id = $1 AND project_id = $2`, userID, projectID,
		)
		if err != nil {
			return fmt.Errorf("removing vote: %w", err)
		}

		voted = tag.RowsAffected() == 0
		if voted {
			_, err = tx.Exec(ctx,
				`INSERT INTO votes (id, user_id, project_id, created_at) VALUES ($1, $2, $3, $4)`,
				xid.New().String(), userID, projectID, time.Now().UTC(),
			)
			if err != nil {
				if isUniqueViolation(err) {
					return apperror.Conflict("vote", projectID)
				}
				return fmt.Errorf("inserting vote: %w", err)
			}
			tag, err = tx.Exec(ctx,
				`UPDATE projects SET votes_count = votes_count + 1 WHERE id = $1`, projectID,
			)
		} else {
			tag, err = tx.Exec(ctx,
				`UPDATE projects SET votes_count = votes_count - 1 WHERE id = $1 AND votes_count > 0`, projectID,
			)
		}
		if err != nil {
			return fmt.Errorf("adjusting votes_count: %w", err)
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("%w (project %s)", ErrCounterUnderflow, projectID)
		}
		return nil
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) || errors.Is(err, ErrCounterUnderflow) {
			return false, err
		}
		return false, fmt.Errorf("postgres: toggling vote: %w", err)
	}

	return voted, nil
}

func (db *DB) ListVotedProjectIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT project_id FROM votes WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing votes for user %s: %w", userID, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: scanning votes: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
