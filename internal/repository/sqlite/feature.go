package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/model"
	"github.com/sakif/ysws-hunt/internal/repository"
)

var _ repository.FeatureRepository = (*DB)(nil)

// GetFeatured returns the project featured on date (YYYY-MM-DD).
// Returns apperror.ErrNotFound when the date has no feature.
func (db *DB) GetFeatured(ctx context.Context, date string) (*model.Project, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+`
		 FROM daily_features f
		 JOIN projects p ON p.id = f.project_id
		 JOIN users u ON u.id = p.maker_id
		 LEFT JOIN categories c ON c.id = p.category_id
		 WHERE f.featured_date = ?`,
		date,
	)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("daily feature", date)
		}
		return nil, fmt.Errorf("sqlite: getting feature for %s: %w", date, err)
	}
	return p, nil
}

// CreateFeature records that feature.ProjectID is featured on feature.Date.
func (db *DB) CreateFeature(ctx context.Context, feature *model.DailyFeature) error {
	if feature.CreatedAt.IsZero() {
		feature.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO daily_features (featured_date, project_id, created_at) VALUES (?, ?, ?)`,
		feature.Date, feature.ProjectID, feature.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("daily feature", feature.Date)
		}
		return fmt.Errorf("sqlite: creating feature for %s: %w", feature.Date, err)
	}
	return nil
}

// NextFeatureCandidate picks the approved project with the most votes that has
// never been featured. Ties go to the older project.
func (db *DB) NextFeatureCandidate(ctx context.Context) (*model.Project, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+projectJoins+`
		 WHERE p.status = ?
		   AND NOT EXISTS (SELECT 1 FROM daily_features f WHERE f.project_id = p.id)
		 ORDER BY p.votes_count DESC, p.created_at ASC, p.id ASC
		 LIMIT 1`,
		model.StatusApproved,
	)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("feature candidate", "any")
		}
		return nil, fmt.Errorf("sqlite: selecting feature candidate: %w", err)
	}
	return p, nil
}
