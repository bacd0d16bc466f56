package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/ysws-hunt/internal/model"
	"github.com/sakif/ysws-hunt/internal/repository"
)

type CategoryService struct {
	repo   repository.CategoryRepository
	logger *slog.Logger
}

func NewCategoryService(repo repository.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{repo: repo, logger: logger}
}

// List returns every category, ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		s.logger.Error("failed to list categories", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}
