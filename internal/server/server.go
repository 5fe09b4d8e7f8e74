// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware, and routes.
// Think of it as the control centre that decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it:
// - Testable (we can create a test server without running main)
// - Reusable (the CLI's render command shares Core with the server)
// - Clean (main.go stays minimal: "run the CLI")
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Core (engine, registry, samples, RenderService)
//	             → sqlite.DB → SnippetService / AuthService
//	             → handlers → routes
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/component-playground/internal/auth"
	"github.com/sakif/component-playground/internal/config"
	"github.com/sakif/component-playground/internal/handler"
	"github.com/sakif/component-playground/internal/middleware"
	"github.com/sakif/component-playground/internal/playground"
	sqliteRepo "github.com/sakif/component-playground/internal/repository/sqlite"
	"github.com/sakif/component-playground/internal/service"
)

// shutdownTimeout is how long in-flight requests get to finish.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection and the Core (which may own a
// Docker container pool). Close releases both; Start calls it on the way out.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	core   *Core
	db     *sqliteRepo.DB
}

// New creates a new Server from cfg.
//
// DEPENDENCY INJECTION & WIRING:
//  1. Build the Core (engine backend, registry, samples, renderer)
//  2. Open the database (sqlite.New)
//  3. Create the services with the repositories they need
//  4. Create the handlers with the services they need
//  5. Wire handlers to routes
//
// Each layer only receives what it needs:
// - Services get repository interfaces (not the concrete sqlite.DB)
// - Handlers get services (not the repository or DB)
//
// IMPORT ALIAS:
// We import repository/sqlite as `sqliteRepo` to avoid confusion with
// the sqlite driver package.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	core, err := NewCore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// === CREATE DATABASE ===
	if cfg.Database.Path != sqliteRepo.MemoryPath {
		// os.MkdirAll creates all parent directories if needed (like `mkdir -p`).
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			core.Close()
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		core.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		core:   core,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler returns the router. Tests drive it through httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database and the engine backend.
func (s *Server) Close() error {
	return errors.Join(s.db.Close(), s.core.Close())
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                           → Playground page (HTML)
// GET    /preview                    → Standalone preview page (HTML)
// GET    /static/*                   → Stylesheet and client script
// GET    /ws/preview                 → Live preview session (WebSocket)
// POST   /api/render                 → One-shot render (JSON)
// GET    /api/samples                → Starter samples
// GET    /api/samples/{componentType}
// GET    /api/bindings               → Identifiers preview code may use
// GET    /api/snippets               → List snippets
// POST   /api/snippets               → Create snippet
// GET    /api/snippets/{id}          → Get snippet
// PUT    /api/snippets/{id}          → Update snippet (owner only)
// DELETE /api/snippets/{id}          → Delete snippet (owner only)
// GET    /api/snippets/{id}/preview  → Render a stored snippet
// GET    /api/me                     → Current user (login required)
// GET    /auth/github/login, /auth/github/callback; POST /auth/logout
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. Our order:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request with timing info
// 4. Recoverer: catches panics and returns 500 instead of crashing
func (s *Server) setupRoutes() error {
	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	// === Static Files ===
	// Assets are compiled into the binary. Setting server.static_dir serves
	// them from disk instead, which is handy while editing app.js.
	var static http.FileSystem = http.FS(handler.StaticFS())
	if dir := s.config.Server.StaticDir; dir != "" {
		static = http.Dir(dir)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static)))

	// === Services ===
	// s.db implements both repository.SnippetRepository and repository.UserRepository.
	snippetService := service.NewSnippetService(s.db, s.core.Renderer, s.logger)

	var (
		tokens      *auth.TokenService
		authHandler *handler.AuthHandler
	)
	if s.config.Auth.Enabled() {
		var err error
		if tokens, err = auth.NewTokenService(s.config.Auth.JWTSecret); err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
		authHandler = s.authHandler(tokens)
	} else {
		s.logger.Warn("GitHub login is not configured; snippets are saved anonymously")
	}

	// === Page Routes ===
	playgroundHandler, err := handler.NewPlaygroundHandler(s.core.Renderer, s.core.Samples, s.logger)
	if err != nil {
		return fmt.Errorf("creating playground handler: %w", err)
	}
	s.router.Get("/", playgroundHandler.HandlePlayground)
	s.router.Get("/preview", playgroundHandler.HandlePreview)

	// === Live Sessions ===
	liveHandler := handler.NewLiveHandler(playground.Options{
		Engine:     s.core.Engine,
		Registry:   s.core.Registry,
		EntryPoint: s.core.Renderer.EntryPoint(),
		Samples:    s.core.Samples,
	}, s.logger)
	s.router.Get("/ws/preview", liveHandler.HandleLive)

	// === API Routes ===
	renderHandler := handler.NewRenderHandler(s.core.Renderer, s.logger)
	catalogHandler := handler.NewCatalogHandler(s.core.Samples, s.core.Registry, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/render", renderHandler.HandleRender)
		r.Get("/samples", catalogHandler.HandleListSamples)
		r.Get("/samples/{componentType}", catalogHandler.HandleGetSample)
		r.Get("/bindings", catalogHandler.HandleListBindings)

		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Get("/snippets", snippetHandler.HandleList)
			r.Post("/snippets", snippetHandler.HandleCreate)
			r.Get("/snippets/{id}", snippetHandler.HandleGetByID)
			r.Put("/snippets/{id}", snippetHandler.HandleUpdate)
			r.Delete("/snippets/{id}", snippetHandler.HandleDelete)
			r.Get("/snippets/{id}/preview", snippetHandler.HandlePreview)
		})

		if authHandler != nil {
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(tokens))
				r.Get("/me", authHandler.HandleMe)
			})
		}
	})

	// === Auth Routes ===
	if authHandler != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		s.router.Post("/auth/logout", authHandler.HandleLogout)
	}

	return nil
}

func (s *Server) authHandler(tokens *auth.TokenService) *handler.AuthHandler {
	ac := s.config.Auth
	callback := ac.GitHubCallbackURL
	if callback == "" {
		callback = fmt.Sprintf("http://localhost:%d/auth/github/callback", s.config.Server.Port)
	}
	provider := auth.NewGitHubProvider(ac.GitHubClientID, ac.GitHubClientSecret, callback)
	accounts := service.NewAuthService(s.db, tokens, s.logger)
	return handler.NewAuthHandler(provider, accounts, strings.HasPrefix(callback, "https://"), s.logger)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection and the engine backend
//
// Live sessions are hijacked connections that Shutdown does not wait for.
// Cancelling BaseContext on shutdown ends their read loops.
func (s *Server) Start(ctx context.Context) error {
	defer s.Close()

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	// Create the HTTP server with sensible timeouts. The live handler lifts
	// the read/write deadlines for its own connections.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelBase)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("database", s.config.Database.Path),
			slog.String("engine", s.config.Engine.Backend),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
