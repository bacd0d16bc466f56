package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/model"
	"github.com/sakif/ysws-hunt/internal/repository"
)

var _ repository.CategoryRepository = (*DB)(nil)

func (db *DB) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := db.pool.Query(ctx, `SELECT id, name, slug, color FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Category, error) {
		var c model.Category
		err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Color)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: scanning categories: %w", err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

func (db *DB) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, slug, color FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Color)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("category", id)
		}
		return nil, fmt.Errorf("postgres: getting category %s: %w", id, err)
	}
	return &c, nil
}
