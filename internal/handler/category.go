package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/ysws-hunt/internal/service"
)

type CategoryHandler struct {
	categories *service.CategoryService
	logger     *slog.Logger
}

func NewCategoryHandler(categories *service.CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logger: logger}
}

// HandleList serves GET /api/categories.
func (h *CategoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}
