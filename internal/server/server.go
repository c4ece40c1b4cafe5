// Package server wires the dependency graph and defines the routes. It is the
// composition root: main.go only loads config and calls New/Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/devlink/internal/auth"
	"github.com/sakif/devlink/internal/config"
	"github.com/sakif/devlink/internal/github"
	"github.com/sakif/devlink/internal/handler"
	"github.com/sakif/devlink/internal/middleware"
	sqliteRepo "github.com/sakif/devlink/internal/repository/sqlite"
	"github.com/sakif/devlink/internal/service"
)

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain:
// store → services → handlers → routes.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware, services, handlers, and URL patterns.
//
// Route map:
//
//	GET    /auth/github/login       → redirect to GitHub
//	GET    /auth/github/callback    → OAuth callback, sets session cookie
//	POST   /auth/logout             → clear session cookie
//	GET    /api/me                  → own profile            (auth)
//	PUT    /api/profile             → edit profile           (auth)
//	PUT    /api/profile/username    → claim username         (auth)
//	GET    /api/links               → list own links         (auth)
//	POST   /api/links               → add link               (auth)
//	PUT    /api/links/order         → reorder links          (auth)
//	PUT    /api/links/{linkID}      → edit link              (auth)
//	DELETE /api/links/{linkID}      → delete link            (auth)
//	POST   /api/links/import/github → import repos as links  (auth)
//	GET    /u/{username}            → public profile page payload
//	GET    /u/{username}/links/stream → public link SSE stream
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	provider := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)
	ghClient := github.NewClient(s.config.GitHubAPIBaseURL, s.logger)

	authService := service.NewAuthService(s.db, tokens, s.logger)
	profileService := service.NewProfileService(s.db, s.logger)
	linkService := service.NewLinkService(s.db, s.db, ghClient, s.logger)

	authHandler := handler.NewAuthHandler(provider, authService, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, linkService, s.logger)
	linkHandler := handler.NewLinkHandler(linkService, profileService, s.logger)

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/me", authHandler.HandleMe)
		r.Put("/profile", profileHandler.HandleUpdate)
		r.Put("/profile/username", profileHandler.HandleSetUsername)

		r.Get("/links", linkHandler.HandleList)
		r.Post("/links", linkHandler.HandleCreate)
		// /order before /{linkID} so "order" never parses as a link ID.
		r.Put("/links/order", linkHandler.HandleReorder)
		r.Put("/links/{linkID}", linkHandler.HandleUpdate)
		r.Delete("/links/{linkID}", linkHandler.HandleDelete)
		r.Post("/links/import/github", linkHandler.HandleImport)
	})

	s.router.Route("/u/{username}", func(r chi.Router) {
		r.Get("/", profileHandler.HandlePublicProfile)
		r.Get("/links/stream", linkHandler.HandleStream)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", s.config.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the SSE stream holds its response open
		// indefinitely and a write deadline would sever it.
		IdleTimeout: 60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// End the SSE streams first, otherwise Shutdown waits the full
		// timeout for them.
		s.db.CloseSubscriptions()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
