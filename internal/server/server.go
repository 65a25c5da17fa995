// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware, and
// routes, and decides how the server starts and stops.
//
// DEPENDENCY INJECTION FLOW:
// main.go loads config.Config and builds the logger, then
//
//	Server.New() creates: sqlite.DB → Auth/Profile/Post services → handlers
//	                      tokens, passwords, GitHub client, Redis client
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/devconnector/internal/auth"
	"github.com/sakif/devconnector/internal/config"
	"github.com/sakif/devconnector/internal/handler"
	"github.com/sakif/devconnector/internal/middleware"
	sqliteRepo "github.com/sakif/devconnector/internal/repository/sqlite"
	"github.com/sakif/devconnector/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection and, when rate limiting is on,
// the Redis client. Close releases both; Start calls it on shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	rdb    *redis.Client // nil when REDIS_URL is unset
}

// New creates a Server from cfg and wires every route.
//
// IMPORT ALIAS:
// We import repository/sqlite as `sqliteRepo` to avoid confusion with
// the sqlite driver package.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords, err := auth.NewPasswordService(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("creating password service: %w", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opts)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		if rdb != nil {
			rdb.Close()
		}
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		rdb:    rdb,
	}

	s.setupRoutes(tokens, passwords)

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /api/users                          → register
//	POST   /api/auth                           → login
//	GET    /api/auth                           → current user              [auth]
//	GET    /api/profile                        → all profiles
//	GET    /api/profile/user/{userID}          → profile by user
//	GET    /api/profile/github/{username}      → latest GitHub repos
//	GET    /api/profile/me                     → own profile               [auth]
//	POST   /api/profile                        → create / update profile   [auth]
//	DELETE /api/profile                        → delete account            [auth]
//	PUT    /api/profile/experience             → add experience            [auth]
//	DELETE /api/profile/experience/{expID}     → remove experience         [auth]
//	PUT    /api/profile/education              → add education             [auth]
//	DELETE /api/profile/education/{eduID}      → remove education          [auth]
//	POST   /api/posts                          → create post               [auth]
//	GET    /api/posts                          → list posts                [auth]
//	GET    /api/posts/{postID}                 → get post                  [auth]
//	DELETE /api/posts/{postID}                 → delete own post           [auth]
//	PUT    /api/posts/like/{postID}            → like                      [auth]
//	PUT    /api/posts/unlike/{postID}          → unlike                    [auth]
//	POST   /api/posts/comment/{postID}         → add comment               [auth]
//	DELETE /api/posts/comments/{postID}/{cID}  → remove own comment        [auth]
//	       (also /api/posts/comment/{postID}/{cID})
//	GET    /healthz                            → liveness
//	GET    /metrics                            → Prometheus
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. RealIP is only installed
// when TRUST_PROXY_HEADERS is set. Logger and Metrics sit
// outside Recoverer so a recovered panic is still logged and counted as 500.
func (s *Server) setupRoutes(tokens *auth.TokenService, passwords *auth.PasswordService) {
	s.router.Use(chimiddleware.RequestID)
	// RealIP rewrites RemoteAddr from X-Forwarded-For / X-Real-IP, which any
	// client can send. Without a proxy in front that sets them, the rate
	// limiter has to key on the TCP peer.
	if s.config.TrustProxyHeaders {
		s.router.Use(chimiddleware.RealIP)
	}
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)
	s.router.Use(chimiddleware.Recoverer)

	// === Services and handlers ===
	// s.db implements all three repository interfaces. Handlers never
	// touch the database directly; services never touch HTTP.
	github := auth.NewGitHubClient(s.config.GitHubAPIURL, s.config.GitHubToken)

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	profileService := service.NewProfileService(s.db, s.db, github, s.logger)
	postService := service.NewPostService(s.db, s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	limiter := middleware.NewRateLimiter(s.rdb, s.config.RateLimit, s.config.RateLimitWindow, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.NotFound(handler.NotFound)

		r.With(limiter.Limit("register")).Post("/users", authHandler.HandleRegister)
		r.With(limiter.Limit("login")).Post("/auth", authHandler.HandleLogin)

		// Public profile reads.
		r.Get("/profile", profileHandler.HandleList)
		r.Get("/profile/user/{userID}", profileHandler.HandleGetByUser)
		r.Get("/profile/github/{username}", profileHandler.HandleGitHub)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/auth", authHandler.HandleMe)

			r.Get("/profile/me", profileHandler.HandleMe)
			r.Post("/profile", profileHandler.HandleUpsert)
			r.Delete("/profile", profileHandler.HandleDeleteAccount)
			r.Put("/profile/experience", profileHandler.HandleAddExperience)
			r.Delete("/profile/experience/{expID}", profileHandler.HandleDeleteExperience)
			r.Put("/profile/education", profileHandler.HandleAddEducation)
			r.Delete("/profile/education/{eduID}", profileHandler.HandleDeleteEducation)

			r.Post("/posts", postHandler.HandleCreate)
			r.Get("/posts", postHandler.HandleList)
			r.Get("/posts/{postID}", postHandler.HandleGet)
			r.Delete("/posts/{postID}", postHandler.HandleDelete)
			r.Put("/posts/like/{postID}", postHandler.HandleLike)
			r.Put("/posts/unlike/{postID}", postHandler.HandleUnlike)
			r.Post("/posts/comment/{postID}", postHandler.HandleComment)
			r.Delete("/posts/comments/{postID}/{commentID}", postHandler.HandleUncomment)
			// singular alias, matching the add-comment path
			r.Delete("/posts/comment/{postID}/{commentID}", postHandler.HandleUncomment)
		})
	})

	// === Client bundle ===
	// Everything outside /api is the single-page client: real files are
	// served as-is, any other path gets index.html so client-side routes
	// survive a reload.
	if s.config.StaticDir != "" {
		s.router.NotFound(spaHandler(s.config.StaticDir))
	} else {
		s.router.NotFound(handler.NotFound)
	}
}

// spaHandler serves files from dir, falling back to dir/index.html.
func spaHandler(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			handler.NotFound(w, r)
			return
		}

		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}

// Handler returns the root handler. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database and, if configured, the Redis client.
func (s *Server) Close() error {
	var errs []error
	if s.rdb != nil {
		errs = append(errs, s.rdb.Close())
	}
	errs = append(errs, s.db.Close())
	return errors.Join(errs...)
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.Close()

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

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Env),
			slog.String("database", s.config.DBPath),
			slog.Bool("rate_limiting", s.rdb != nil),
			slog.Bool("static", s.config.StaticDir != ""),
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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
