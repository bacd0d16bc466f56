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

var _ repository.ProjectRepository = (*DB)(nil)

// Column order must match scanProject.
const (
	projectColumns = `
		p.id, p.title, p.slug, p.description, p.long_description, p.demo_url,
		p.github_url, p.category_id, p.gallery_urls, p.maker_id, p.status,
		p.votes_count, p.created_at,
		u.username, u.display_name, u.avatar_url,
		c.name, c.slug, c.color`

	projectJoins = `
		FROM projects p
		JOIN users u ON u.id = p.maker_id
		LEFT JOIN categories c ON c.id = p.category_id`
)

func scanProject(row pgx.Row) (*model.Project, error) {
	var (
		p                          model.Project
		maker                      model.Maker
		categoryID                 *string
		catName, catSlug, catColor *string
	)

	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Description, &p.LongDescription, &p.DemoURL,
		&p.GitHubURL, &categoryID, &p.GalleryURLs, &p.MakerID, &p.Status,
		&p.VotesCount, &p.CreatedAt,
		&maker.Username, &maker.DisplayName, &maker.AvatarURL,
		&catName, &catSlug, &catColor,
	)
	if err != nil {
		return nil, err
	}

	if p.GalleryURLs == nil {
		p.GalleryURLs = []string{}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.Maker = &maker
	if categoryID != nil {
		p.CategoryID = *categoryID
	}
	if catName != nil {
		p.Category = &model.CategoryRef{Name: *catName, Slug: deref(catSlug), Color: deref(catColor)}
	}
	return &p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (db *DB) CreateProject(ctx context.Context, project *model.Project) error {
	project.ID = xid.New().String()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now().UTC()
	}
	if project.Status == "" {
		project.Status = model.StatusPending
	}
	if project.GalleryURLs == nil {
		project.GalleryURLs = []string{}
	}
	project.VotesCount = 0

	_, err := db.pool.Exec(ctx,
		`INSERT INTO projects (id, title, slug, description, long_description, demo_url,
			github_url, category_id, gallery_urls, maker_id, status, votes_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12)`,
		project.ID,
		project.Title,
		project.Slug,
		project.Description,
		project.LongDescription,
		project.DemoURL,
		project.GitHubURL,
		nullString(project.CategoryID),
		project.GalleryURLs,
		project.MakerID,
		project.Status,
		project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating project: %w", err)
	}
	return nil
}

func (db *DB) GetProject(ctx context.Context, id string) (*model.Project, error) {
	p, err := scanProject(db.pool.QueryRow(ctx,
		`SELECT `+projectColumns+projectJoins+` WHERE p.id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("project", id)
		}
		return nil, fmt.Errorf("postgres: getting project %s: %w", id, err)
	}
	return p, nil
}

func (db *DB) ListApproved(ctx context.Context) ([]model.Project, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+projectColumns+projectJoins+`
		 WHERE p.status = $1
		 ORDER BY p.created_at DESC, p.id DESC`,
		model.StatusApproved,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning project row: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating projects: %w", err)
	}
	return projects, nil
}
