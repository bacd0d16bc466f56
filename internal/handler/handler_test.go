package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ysws-hunt/internal/auth"
	"github.com/sakif/ysws-hunt/internal/handler"
	"github.com/sakif/ysws-hunt/internal/model"
	"github.com/sakif/ysws-hunt/internal/repository/sqlite"
	"github.com/sakif/ysws-hunt/internal/service"
)

const testSecret = "handler-test-secret-0123456789"

var testNow = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	router *chi.Mux
	db     *sqlite.DB
	tokens *auth.TokenService
}

// newTestEnv wires real services over an in-memory SQLite store. github may
// be nil to leave GitHub sign-in disabled.
func newTestEnv(t *testing.T, github *auth.GitHubProvider) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(4)

	providers := []auth.Provider{auth.NewPasswordProvider(db, passwords)}
	if github != nil {
		providers = append(providers, github)
	}

	authService := service.NewAuthService(db, providers, tokens, passwords, logger)
	projects := service.NewProjectService(db, logger, service.WithClock(func() time.Time { return testNow }))

	authHandler := handler.NewAuthHandler(authService, github, false, logger)
	projectHandler := handler.NewProjectHandler(projects, logger)
	categoryHandler := handler.NewCategoryHandler(service.NewCategoryService(db, logger), logger)
	healthHandler := handler.NewHealthHandler(db, logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", categoryHandler.HandleList)
		r.Get("/featured", projectHandler.HandleFeatured)
		r.With(auth.OptionalAuth(tokens)).Get("/projects", projectHandler.HandleList)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Post("/projects", projectHandler.HandleCreate)
			r.Post("/projects/{id}/vote", projectHandler.HandleVote)
			r.Get("/me", authHandler.HandleMe)
			r.Get("/me/votes", projectHandler.HandleMyVotes)
		})
	})
	r.Post("/auth/register", authHandler.HandleRegister)
	r.Post("/auth/login", authHandler.HandleLogin)
	r.Get("/auth/github/login", authHandler.HandleGitHubLogin)
	r.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	r.Post("/auth/logout", authHandler.HandleLogout)
	r.Get("/healthz", healthHandler.HandleHealth)

	return &testEnv{router: r, db: db, tokens: tokens}
}

func (e *testEnv) createUser(t *testing.T, email string) (*model.User, string) {
	t.Helper()
	user := &model.User{
		Provider:    auth.ProviderPassword,
		ProviderID:  email,
		Email:       email,
		Username:    auth.UsernameFromEmail(email),
		DisplayName: email,
	}
	require.NoError(t, e.db.Upsert(context.Background(), user))
	token, err := e.tokens.Generate(user.ID)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) createProject(t *testing.T, makerID, title, status string) *model.Project {
	t.Helper()
	p := &model.Project{
		Title:       title,
		Slug:        service.Slugify(title),
		Description: "about " + title,
		DemoURL:     "https://example.com/" + service.Slugify(title),
		MakerID:     makerID,
		Status:      status,
	}
	require.NoError(t, e.db.CreateProject(context.Background(), p))
	return p
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&v), rr.Body.String())
	return v
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}
