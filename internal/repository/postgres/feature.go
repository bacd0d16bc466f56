package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/model"
	"github.com/sakif/ysws-hunt/internal/repository"
)

var _ repository.FeatureRepository = (*DB)(nil)

func (db *DB) GetFeatured(ctx context.Context, date string) (*model.Project, error) {
	p, err := scanProject(db.pool.QueryRow(ctx,
		`SELECT `+projectColumns+`
		 FROM daily_features f
		 JOIN projects p ON p.id = f.project_id
		 JOIN users u ON u.id = p.maker_id
		 LEFT JOIN categories c ON c.id = p.category_id
		 WHERE f.featured_date = $1::text::date`,
		date,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("daily feature", date)
		}
		return nil, fmt.Errorf("postgres: getting feature for %s: %w", date, err)
	}
	return p, nil
}

func (db *DB) CreateFeature(ctx context.Context, feature *model.DailyFeature) error {
	if feature.CreatedAt.IsZero() {
		feature.CreatedAt = time.Now().UTC()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO daily_features (featured_date, project_id, created_at) VALUES ($1::text::date, $2, $3)`,
		feature.Date, feature.ProjectID, feature.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("daily feature", feature.Date)
		}
		return fmt.Errorf("postgres: creating feature for %s: %w", feature.Date, err)
	}
	return nil
}

func (db *DB) NextFeatureCandidate(ctx context.Context) (*model.Project, error) {
	p, err := scanProject(db.pool.QueryRow(ctx,
		`SELECT `+projectColumns+projectJoins+`
		 WHERE p.status = $1
		   AND NOT EXISTS (SELECT 1 FROM daily_features f WHERE f.project_id = p.id)
		 ORDER BY p.votes_count DESC, p.created_at ASC, p.id ASC
		 LIMIT 1`,
		model.StatusApproved,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("feature candidate", "any")
		}
		return nil, fmt.Errorf("postgres: selecting feature candidate: %w", err)
	}
	return p, nil
}
