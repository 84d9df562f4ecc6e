// Package server is the composition root of the HTTP API: it wires
// handlers, middleware and routes, and runs the listener with graceful
// shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"

	"github.com/sakif/job-board/internal/auth"
	"github.com/sakif/job-board/internal/config"
	"github.com/sakif/job-board/internal/handler"
	"github.com/sakif/job-board/internal/middleware"
	"github.com/sakif/job-board/internal/service"
)

// Server is the HTTP API over a set of Deps. It does not own the Deps;
// the caller closes them after Start returns.
type Server struct {
	router *chi.Mux
	cfg    config.Config
	deps   *Deps
	tokens *auth.TokenService
	logger *slog.Logger
}

// New wires the router. A JWT secret is required: every write route needs
// a caller identity.
func New(cfg config.Config, deps *Deps, logger *slog.Logger) (*Server, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("server: auth.jwt_secret (JWT_SECRET) is required to serve the API")
	}
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, auth.WithTokenTTL(cfg.Auth.TokenTTL))
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		deps:   deps,
		tokens: tokens,
		logger: logger,
	}
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
//	GET    /healthz                     liveness
//	GET    /auth/github/login           → GitHub (when configured)
//	GET    /auth/github/callback        ← GitHub (when configured)
//	POST   /auth/logout
//	GET    /api/me                      auth
//	GET    /api/stats
//	GET    /api/postings                ?from_index=&limit=
//	POST   /api/postings                auth, rate limited
//	DELETE /api/postings/{id}           auth, rate limited, owner only
//	GET    /api/postings/{id}/replies
//	POST   /api/postings/{id}/replies   auth, rate limited
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) })

	r.Get("/healthz", handler.HandleHealth)

	authService := service.NewAuthService(s.deps.Users, s.tokens, s.logger)
	var github handler.OAuthProvider
	if s.cfg.Auth.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.cfg.Auth.GitHubClientID, s.cfg.Auth.GitHubClientSecret, s.cfg.Auth.GitHubCallbackURL)
	} else {
		s.logger.Warn("GitHub OAuth is not configured; login routes are disabled")
	}
	authHandler := handler.NewAuthHandler(github, authService, handler.AuthHandlerConfig{
		CookieMaxAge: int(s.tokens.TTL().Seconds()),
		SecureCookie: s.cfg.Auth.SecureCookie,
	}, s.logger)

	r.Route("/auth", func(r chi.Router) {
		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
		r.Post("/logout", authHandler.HandleLogout)
	})

	boardHandler := handler.NewBoardHandler(s.deps.Board, s.logger)

	var writeLimit func(http.Handler) http.Handler
	if n := s.cfg.RateLimit.WritesPerMinute; n > 0 {
		writeLimit = middleware.NewRateLimiter(n).Middleware
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", boardHandler.HandleStats)
		r.Get("/postings", boardHandler.HandleListPostings)
		r.Get("/postings/{id}/replies", boardHandler.HandleListReplies)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(s.tokens))
			r.Get("/me", authHandler.HandleMe)

			r.Group(func(r chi.Router) {
				if writeLimit != nil {
					r.Use(writeLimit)
				}
				r.Post("/postings", boardHandler.HandleCreatePosting)
				r.Delete("/postings/{id}", boardHandler.HandleDeletePosting)
				r.Post("/postings/{id}/replies", boardHandler.HandleCreateReply)
			})
		})
	})
}

// Start initializes the board if needed, serves until ctx is cancelled or
// SIGINT/SIGTERM arrives, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	if err := s.deps.Board.EnsureInitialized(ctx); err != nil {
		return fmt.Errorf("server: initializing board: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Server.Port),
			slog.String("store", s.cfg.Store.Driver),
			slog.String("database", s.cfg.Store.Path),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
