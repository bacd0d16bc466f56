package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/model"
	"github.com/sakif/ysws-hunt/internal/repository"
)

var _ repository.ProjectRepository = (*DB)(nil)

// projectColumns and projectJoins build the joined read shape shared by the
// feed, the feature lookup and single-project reads. Keep the column order in
// sync with scanProject.
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

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*model.Project, error) {
	var (
		p                          model.Project
		maker                      model.Maker
		categoryID                 sql.NullString
		gallery                    string
		catName, catSlug, catColor sql.NullString
	)

	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Description, &p.LongDescription, &p.DemoURL,
		&p.GitHubURL, &categoryID, &gallery, &p.MakerID, &p.Status,
		&p.VotesCount, &p.CreatedAt,
		&maker.Username, &maker.DisplayName, &maker.AvatarURL,
		&catName, &catSlug, &catColor,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(gallery), &p.GalleryURLs); err != nil {
		return nil, fmt.Errorf("decoding gallery_urls of project %s: %w", p.ID, err)
	}
	if p.GalleryURLs == nil {
		p.GalleryURLs = []string{}
	}

	p.Maker = &maker
	p.CategoryID = categoryID.String
	if catName.Valid {
		p.Category = &model.CategoryRef{Name: catName.String, Slug: catSlug.String, Color: catColor.String}
	}

	return &p, nil
}

// CreateProject inserts a new project. ID and CreatedAt are generated here;
// the vote counter always starts at zero and an empty status means pending.
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

	gallery, err := json.Marshal(project.GalleryURLs)
	if err != nil {
		return fmt.Errorf("sqlite: encoding gallery_urls: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO projects (id, title, slug, description, long_description, demo_url,
			github_url, category_id, gallery_urls, maker_id, status, votes_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		project.ID,
		project.Title,
		project.Slug,
		project.Description,
		project.LongDescription,
		project.DemoURL,
		project.GitHubURL,
		nullString(project.CategoryID),
		string(gallery),
		project.MakerID,
		project.Status,
		project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating project: %w", err)
	}

	return nil
}

// GetProject returns a single project with maker and category joined.
func (db *DB) GetProject(ctx context.Context, id string) (*model.Project, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+projectJoins+` WHERE p.id = ?`, id,
	)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("project", id)
		}
		return nil, fmt.Errorf("sqlite: getting project %s: %w", id, err)
	}
	return p, nil
}

// ListApproved returns approved projects, newest first.
func (db *DB) ListApproved(ctx context.Context) ([]model.Project, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+projectColumns+projectJoins+`
		 WHERE p.status = ?
		 ORDER BY p.created_at DESC, p.id DESC`,
		model.StatusApproved,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning project row: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating projects: %w", err)
	}

	return projects, nil
}
