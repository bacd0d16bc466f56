package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/model"
)

// ListCategories returns every category, alphabetically by name.
func (db *DB) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, slug, color FROM categories ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Color); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating categories: %w", err)
	}

	return categories, nil
}

func (db *DB) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, slug, color FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("category", id)
		}
		return nil, fmt.Errorf("sqlite: getting category %s: %w", id, err)
	}

	return &c, nil
}
