// Package server is the composition root: it opens the store, builds the
// services and handlers, mounts the routes and runs the HTTP server until a
// shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/ysws-hunt/internal/auth"
	"github.com/sakif/ysws-hunt/internal/config"
	"github.com/sakif/ysws-hunt/internal/handler"
	"github.com/sakif/ysws-hunt/internal/middleware"
	"github.com/sakif/ysws-hunt/internal/repository"
	"github.com/sakif/ysws-hunt/internal/repository/postgres"
	sqliteRepo "github.com/sakif/ysws-hunt/internal/repository/sqlite"
	"github.com/sakif/ysws-hunt/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the router and the store. The store is closed when Start
// returns.
type Server struct {
	router  *chi.Mux
	config  config.Config
	logger  *slog.Logger
	store   repository.Store
	metrics *middleware.Metrics
}

// Option customizes how New wires the server.
type Option func(*options)

type options struct {
	passwords      *auth.PasswordService
	githubOptions  []auth.GitHubOption
	projectOptions []service.ProjectOption
}

// WithPasswordService replaces the bcrypt settings, e.g. a low cost in tests.
func WithPasswordService(p *auth.PasswordService) Option {
	return func(o *options) { o.passwords = p }
}

// WithGitHubOptions is passed through to auth.NewGitHubProvider.
func WithGitHubOptions(opts ...auth.GitHubOption) Option {
	return func(o *options) { o.githubOptions = append(o.githubOptions, opts...) }
}

// WithProjectOptions is passed through to service.NewProjectService.
func WithProjectOptions(opts ...service.ProjectOption) Option {
	return func(o *options) { o.projectOptions = append(o.projectOptions, opts...) }
}

// OpenStore opens the store selected by cfg.DBDriver and runs migrations.
func OpenStore(ctx context.Context, cfg config.Config) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		if cfg.DBPath != ":memory:" {
			dir := filepath.Dir(cfg.DBPath)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.DatabaseURL, postgresOptions(cfg))
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DBDriver)
	}
}

func postgresOptions(cfg config.Config) postgres.Options {
	return postgres.Options{
		MaxConns:        cfg.DBMaxConns,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
	}
}

// New opens the store and wires every route. The caller owns the returned
// server and must call Start (or Close) to release the store.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		metrics: middleware.NewMetrics(),
	}

	if err := s.setupRoutes(opts...); err != nil {
		store.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes mounts:
//
//	GET  /api/categories
//	GET  /api/featured
//	GET  /api/projects
//	POST /api/projects              (auth)
//	POST /api/projects/{id}/vote    (auth)
//	GET  /api/me                    (auth)
//	GET  /api/me/votes              (auth)
//	POST /auth/register
//	POST /auth/login
//	GET  /auth/github/login
//	GET  /auth/github/callback
//	POST /auth/logout
//	GET  /healthz
//	GET  /metrics
func (s *Server) setupRoutes(opts ...Option) error {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	passwords := o.passwords
	if passwords == nil {
		passwords = auth.NewPasswordService()
	}

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	var (
		providers []auth.Provider
		github    *auth.GitHubProvider
	)
	if s.config.ProviderEnabled(auth.ProviderPassword) {
		providers = append(providers, auth.NewPasswordProvider(s.store, passwords))
	}
	if s.config.ProviderEnabled(auth.ProviderGitHub) {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
			o.githubOptions...,
		)
		providers = append(providers, github)
	}

	authService := service.NewAuthService(s.store, providers, tokens, passwords, s.logger)
	projectService := service.NewProjectService(s.store, s.logger, o.projectOptions...)
	categoryService := service.NewCategoryService(s.store, s.logger)

	authHandler := handler.NewAuthHandler(authService, github, s.config.CookieSecure, s.logger)
	projectHandler := handler.NewProjectHandler(projectService, s.logger)
	categoryHandler := handler.NewCategoryHandler(categoryService, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(s.metrics.Middleware)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/categories", categoryHandler.HandleList)
		r.Get("/featured", projectHandler.HandleFeatured)
		r.With(auth.OptionalAuth(tokens)).Get("/projects", projectHandler.HandleList)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/projects", projectHandler.HandleCreate)
			r.Post("/projects/{id}/vote", projectHandler.HandleVote)
			r.Get("/me", authHandler.HandleMe)
			r.Get("/me/votes", projectHandler.HandleMyVotes)
		})
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	return nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store without serving.
func (s *Server) Close() error {
	return s.store.Close()
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests and
// closes the store.
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("driver", s.config.DBDriver),
			slog.Any("auth_providers", s.config.AuthProviders),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
