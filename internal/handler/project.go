package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/auth"
	"github.com/sakif/ysws-hunt/internal/service"
)

// ProjectHandler serves the project feed, the daily feature, submissions
// and votes.
type ProjectHandler struct {
	projects *service.ProjectService
	logger   *slog.Logger
}

func NewProjectHandler(projects *service.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

// HandleList serves GET /api/projects. Signed-in callers see which entries
// they have voted on.
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())
	projects, err := h.projects.List(r.Context(), viewerID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// HandleFeatured serves GET /api/featured. A day without a feature is a
// 200 with a JSON null body.
func (h *ProjectHandler) HandleFeatured(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.Featured(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if project == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// HandleCreate serves POST /api/projects. Requires auth.
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	var in service.SubmitInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	project, err := h.projects.Submit(r.Context(), userID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// HandleVote serves POST /api/projects/{id}/vote. Requires auth.
func (h *ProjectHandler) HandleVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	result, err := h.projects.ToggleVote(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleMyVotes serves GET /api/me/votes: ids of projects the caller voted
// for. Requires auth.
func (h *ProjectHandler) HandleMyVotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	ids, err := h.projects.UserVotes(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}
