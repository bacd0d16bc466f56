// Package service holds the business rules between the HTTP handlers and
// the repositories. Services validate input, return apperror values the
// handlers map to status codes, and never touch HTTP themselves.
//
// THE THREE LAYERS:
//
//	Handler (HTTP layer)     → decodes requests, writes JSON responses
//	Service (business layer) → validates, applies rules, decides "today"
//	Repository (data layer)  → SQL against SQLite or Postgres
//
// WHY A SEPARATE SERVICE LAYER?
// The same rules run behind two entry points: the HTTP API and the
// cmd/feature job. FeatureToday is called by both, so it cannot live in a
// handler. Tests exercise the rules with plain function calls against an
// in-memory fake store (see fakes_test.go), with no HTTP or SQL involved.
//
// THE DEPENDENCY CHAIN:
//
//	server.New creates: Store → ProjectService / AuthService → Handlers
//	At runtime:         Handler calls Service calls Repository calls DB
//
// Services take repository interfaces (ProjectStore, AccountStore), not a
// concrete store, so the server picks SQLite or Postgres from configuration
// without this package importing either driver.
//
// CONCURRENCY:
// Services hold no mutable state. Anything that must be atomic, such as the
// vote toggle and its counter, is pushed into a single repository call that
// runs in one transaction.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/model"
	"github.com/sakif/ysws-hunt/internal/repository"
)

// Submission limits.
const (
	MaxTitleLength           = 120
	MaxDescriptionLength     = 500
	MaxLongDescriptionLength = 10000
	MaxGalleryURLs           = 8
	MaxURLLength             = 2048
)

// DateLayout is the calendar date format used for daily features.
const DateLayout = time.DateOnly

// SubmitInput is a project submission as received from a maker.
type SubmitInput struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	LongDescription string   `json:"long_description"`
	DemoURL         string   `json:"demo_url"`
	GitHubURL       string   `json:"github_url"`
	CategoryID      string   `json:"category_id"`
	GalleryURLs     []string `json:"gallery_urls"`
}

type ProjectService struct {
	store  repository.ProjectStore
	logger *slog.Logger
	now    func() time.Time
}

// ProjectOption customizes a ProjectService.
type ProjectOption func(*ProjectService)

// WithClock replaces time.Now, which decides what "today" is.
func WithClock(now func() time.Time) ProjectOption {
	return func(s *ProjectService) { s.now = now }
}

func NewProjectService(store repository.ProjectStore, logger *slog.Logger, opts ...ProjectOption) *ProjectService {
	s := &ProjectService{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current calendar date in UTC.
func (s *ProjectService) Today() string {
	return s.now().UTC().Format(DateLayout)
}

// List returns approved projects, newest first. The result is never nil.
// When viewerID is set, each project's Voted reports whether that user has
// voted for it.
func (s *ProjectService) List(ctx context.Context, viewerID string) ([]model.Project, error) {
	projects, err := s.store.ListApproved(ctx)
	if err != nil {
		s.logger.Error("failed to list projects", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	if projects == nil {
		projects = []model.Project{}
	}
	if viewerID == "" || len(projects) == 0 {
		return projects, nil
	}

	ids, err := s.store.ListVotedProjectIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("listing votes for user %s: %w", viewerID, err)
	}
	voted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		voted[id] = struct{}{}
	}
	for i := range projects {
		_, projects[i].Voted = voted[projects[i].ID]
	}
	return projects, nil
}

// Featured returns today's featured project, or nil when nothing is
// featured today.
func (s *ProjectService) Featured(ctx context.Context) (*model.Project, error) {
	today := s.Today()

	project, err := s.store.GetFeatured(ctx, today)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		s.logger.Error("failed to load featured project",
			slog.String("date", today),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("loading feature for %s: %w", today, err)
	}
	return project, nil
}

// Submit validates in and stores it as a pending project owned by makerID.
func (s *ProjectService) Submit(ctx context.Context, makerID string, in SubmitInput) (*model.Project, error) {
	if strings.TrimSpace(makerID) == "" {
		return nil, apperror.Unauthorized("authentication required")
	}

	project, err := s.validateSubmission(ctx, in)
	if err != nil {
		return nil, err
	}
	project.MakerID = makerID
	project.Status = model.StatusPending

	if err := s.store.CreateProject(ctx, project); err != nil {
		s.logger.Error("failed to create project",
			slog.String("maker", makerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project submitted",
		slog.String("id", project.ID),
		slog.String("slug", project.Slug),
		slog.String("maker", makerID),
	)
	return project, nil
}

func (s *ProjectService) validateSubmission(ctx context.Context, in SubmitInput) (*model.Project, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	demoURL := strings.TrimSpace(in.DemoURL)

	switch {
	case title == "":
		return nil, apperror.ValidationFailed("title", "title is required")
	case description == "":
		return nil, apperror.ValidationFailed("description", "description is required")
	case demoURL == "":
		return nil, apperror.ValidationFailed("demo_url", "demo_url is required")
	}

	if len([]rune(title)) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len([]rune(description)) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	longDescription := strings.TrimSpace(in.LongDescription)
	if len([]rune(longDescription)) > MaxLongDescriptionLength {
		return nil, apperror.ValidationFailed("long_description",
			fmt.Sprintf("long_description must be %d characters or less", MaxLongDescriptionLength))
	}

	if err := validateURL("demo_url", demoURL); err != nil {
		return nil, err
	}
	githubURL := strings.TrimSpace(in.GitHubURL)
	if githubURL != "" {
		if err := validateURL("github_url", githubURL); err != nil {
			return nil, err
		}
	}

	if len(in.GalleryURLs) > MaxGalleryURLs {
		return nil, apperror.ValidationFailed("gallery_urls",
			fmt.Sprintf("at most %d gallery images are allowed", MaxGalleryURLs))
	}
	gallery := make([]string, 0, len(in.GalleryURLs))
	for _, raw := range in.GalleryURLs {
		u := strings.TrimSpace(raw)
		if u == "" {
			continue
		}
		if err := validateURL("gallery_urls", u); err != nil {
			return nil, err
		}
		gallery = append(gallery, u)
	}

	categoryID := strings.TrimSpace(in.CategoryID)
	if categoryID != "" {
		if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return nil, apperror.ValidationFailed("category_id", "unknown category")
			}
			return nil, fmt.Errorf("checking category %s: %w", categoryID, err)
		}
	}

	return &model.Project{
		Title:           title,
		Slug:            Slugify(title),
		Description:     description,
		LongDescription: longDescription,
		DemoURL:         demoURL,
		GitHubURL:       githubURL,
		CategoryID:      categoryID,
		GalleryURLs:     gallery,
	}, nil
}

// validateURL accepts absolute http and https URLs only.
func validateURL(field, raw string) error {
	if len(raw) > MaxURLLength {
		return apperror.ValidationFailed(field, fmt.Sprintf("%s is too long", field))
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperror.ValidationFailed(field, fmt.Sprintf("%s must be an http(s) URL", field))
	}
	return nil
}

// ToggleVote flips userID's vote on projectID and reports the new state.
func (s *ProjectService) ToggleVote(ctx context.Context, projectID, userID string) (model.VoteResult, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return model.VoteResult{}, apperror.ValidationFailed("id", "project id is required")
	}
	if strings.TrimSpace(userID) == "" {
		return model.VoteResult{}, apperror.Unauthorized("authentication required")
	}

	voted, err := s.store.ToggleVote(ctx, projectID, userID)
	if err != nil {
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			s.logger.Error("failed to toggle vote",
				slog.String("project", projectID),
				slog.String("user", userID),
				slog.String("error", err.Error()),
			)
		}
		return model.VoteResult{}, fmt.Errorf("toggling vote: %w", err)
	}

	s.logger.Info("vote toggled",
		slog.String("project", projectID),
		slog.String("user", userID),
		slog.Bool("voted", voted),
	)
	return model.VoteResult{Voted: voted}, nil
}

// UserVotes lists the ids of projects userID has voted for.
func (s *ProjectService) UserVotes(ctx context.Context, userID string) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.Unauthorized("authentication required")
	}
	ids, err := s.store.ListVotedProjectIDs(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list votes",
			slog.String("user", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing votes: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// FeatureToday makes sure today has a featured project. An existing feature
// is returned untouched; otherwise the most-voted approved project that has
// never been featured is picked.
func (s *ProjectService) FeatureToday(ctx context.Context) (*model.Project, error) {
	today := s.Today()

	existing, err := s.store.GetFeatured(ctx, today)
	if err == nil {
		s.logger.Info("feature already set", slog.String("date", today), slog.String("project", existing.ID))
		return existing, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("loading feature for %s: %w", today, err)
	}

	candidate, err := s.store.NextFeatureCandidate(ctx)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("feature candidate", today)
		}
		return nil, fmt.Errorf("choosing feature for %s: %w", today, err)
	}

	err = s.store.CreateFeature(ctx, &model.DailyFeature{Date: today, ProjectID: candidate.ID})
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			// Another run won the race; report what it picked.
			return s.store.GetFeatured(ctx, today)
		}
		return nil, fmt.Errorf("featuring project %s: %w", candidate.ID, err)
	}

	s.logger.Info("project featured",
		slog.String("date", today),
		slog.String("project", candidate.ID),
		slog.Int("votes", candidate.VotesCount),
	)
	return candidate, nil
}

// FeatureProject features a specific approved project on date (YYYY-MM-DD).
// An empty date means today.
func (s *ProjectService) FeatureProject(ctx context.Context, projectID, date string) (*model.Project, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, apperror.ValidationFailed("project", "project id is required")
	}
	if date == "" {
		date = s.Today()
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, apperror.ValidationFailed("date", "date must be YYYY-MM-DD")
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != model.StatusApproved {
		return nil, apperror.ValidationFailed("project",
			fmt.Sprintf("project %s is %s; only approved projects can be featured", projectID, project.Status))
	}

	if err := s.store.CreateFeature(ctx, &model.DailyFeature{Date: date, ProjectID: projectID}); err != nil {
		return nil, err
	}

	s.logger.Info("project featured",
		slog.String("date", date),
		slog.String("project", projectID),
	)
	return project, nil
}
