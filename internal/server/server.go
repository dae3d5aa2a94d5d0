// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root — the one place where every
// dependency is wired together:
//
//	config → sqlite store → github client → openai client → generator
//	       → wrapped service → wrapped handler → routes
//
// Each layer only receives what it needs: the service gets the repository
// interface (not the concrete sqlite.DB), the handler gets the service
// interface (not the repository or the API clients).
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it testable (a test can
// create a server without running main) and keeps main.go minimal.
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

	"github.com/sakif/github-wrapped/internal/config"
	"github.com/sakif/github-wrapped/internal/generator"
	"github.com/sakif/github-wrapped/internal/github"
	"github.com/sakif/github-wrapped/internal/handler"
	"github.com/sakif/github-wrapped/internal/middleware"
	"github.com/sakif/github-wrapped/internal/openai"
	sqliteRepo "github.com/sakif/github-wrapped/internal/repository/sqlite"
	"github.com/sakif/github-wrapped/internal/service"
)

// Server owns the router and the resources that must be released on
// shutdown. The database connection in particular has to be closed so the
// WAL is flushed and the file lock released.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain and registers the routes.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// POST /api/github-wrapped → run (or replay) the pipeline for a username
// GET  /healthz            → liveness probe
//
// MIDDLEWARE ORDER MATTERS — it executes in the order added:
// 1. RequestID — assigns a unique ID to each request (for tracing)
// 2. RealIP — extracts the real client IP from proxy headers
// 3. Recoverer — catches panics and returns 500 instead of crashing
// 4. Logger — logs each request with timing info
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === DEPENDENCY CHAIN ===
	// The handler never touches the database or the upstream APIs directly;
	// the service never touches HTTP.
	githubClient := github.NewClient(s.config.GitHub)
	openaiClient := openai.NewClient(s.config.OpenAI)

	artGenerator := generator.New(
		openaiClient,
		openaiClient,
		generator.FallbackPolicy{
			Primary:  s.config.OpenAI.PrimaryModel,
			Fallback: s.config.OpenAI.FallbackModel,
		},
		s.logger,
	)

	wrappedService := service.NewWrappedService(
		s.db,
		githubClient,
		artGenerator,
		s.config.Pipeline.RequestTimeout,
		s.logger,
	)
	wrappedHandler := handler.NewWrappedHandler(wrappedService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/github-wrapped", wrappedHandler.HandleGenerate)
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

// Start runs the HTTP server and handles graceful shutdown:
// 1. Stop accepting new connections on SIGINT/SIGTERM
// 2. Wait for in-flight requests to finish (bounded by the pipeline timeout,
//    since one request can hold a full pipeline run)
// 3. Close the database connection
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Server.Port),
		Handler: s.router,
		// WriteTimeout must outlast a full pipeline run or the server will
		// cut the connection mid-generation.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.Pipeline.RequestTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("database", s.config.Database.Path),
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

		// Give in-flight requests time to complete before forcing the close.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
