package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cloudeng.io/logging/ctxlog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unklstewy/nightsky/internal/auth"
	"github.com/unklstewy/nightsky/internal/db"
	"github.com/unklstewy/nightsky/internal/metrics"
	"github.com/unklstewy/nightsky/pkg/config"
	"github.com/unklstewy/nightsky/pkg/events"
)

type userStore interface {
	GetByID(ctx context.Context, id int) (*db.User, error)
	GetByUsername(ctx context.Context, username string) (*db.User, error)
	UpdateLastLogin(ctx context.Context, userID int) error
}

type siteStore interface {
	List(ctx context.Context, userID int) ([]db.ObservationSite, error)
	Active(ctx context.Context, userID int) (*db.ObservationSite, error)
	Get(ctx context.Context, siteID, userID int) (*db.ObservationSite, error)
	Create(ctx context.Context, site *db.ObservationSite) error
	Update(ctx context.Context, site *db.ObservationSite) error
	Delete(ctx context.Context, siteID, userID int) error
	Activate(ctx context.Context, siteID, userID int) error
}

type snapshotStore interface {
	Save(ctx context.Context, siteID int, result *events.Result) (*db.Snapshot, error)
	Get(ctx context.Context, siteID int, date string) (*db.Snapshot, error)
	ListForSite(ctx context.Context, siteID, limit int) ([]db.Snapshot, error)
}

type statsSource interface {
	GetStats(ctx context.Context) (db.Stats, error)
}

// store groups the persistence collaborators. All fields are nil when the
// database is disabled.
type store struct {
	users     userStore
	sites     siteStore
	snapshots snapshotStore
	stats     statsSource
}

// Server holds the HTTP router and its dependencies.
type Server struct {
	router  *chi.Mux
	events  *events.Aggregator
	authSvc *auth.Service
	store   store
	limiter *httprate.RateLimiter
	cfg     *config.Config
	logger  *slog.Logger
	started time.Time
}

func newServer(cfg *config.Config, agg *events.Aggregator, authSvc *auth.Service, st store, logger *slog.Logger) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		events:  agg,
		authSvc: authSvc,
		store:   st,
		limiter: newRateLimiter(cfg.Server.RateLimitPerSecond, cfg.Server.RateLimitBurst),
		cfg:     cfg,
		logger:  logger,
		started: time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit)

		// Public routes
		r.Get("/events", s.handleGetEvents)
		r.Get("/showers", s.handleGetShowers)

		r.Group(func(r chi.Router) {
			r.Use(s.requireDatabase)

			r.Post("/auth/login", s.handleLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware)

				r.Get("/auth/me", s.handleGetCurrentUser)

				r.Get("/sites", s.handleListSites)
				r.Get("/sites/active", s.handleGetActiveSite)
				r.Post("/sites", s.handleCreateSite)
				r.Put("/sites/{id}", s.handleUpdateSite)
				r.Delete("/sites/{id}", s.handleDeleteSite)
				r.Post("/sites/{id}/activate", s.handleActivateSite)
				r.Get("/sites/{id}/events", s.handleGetSiteEvents)
				r.Get("/sites/{id}/snapshots", s.handleListSnapshots)

				r.Get("/system/status", s.handleGetSystemStatus)
			})
		})
	})
}

// logRequests attaches a request-scoped logger to the context and records
// each request's outcome in the log and in Prometheus.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		ctx := ctxlog.WithLogger(r.Context(), logger)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		metrics.ObserveRequest(route, r.Method, status, elapsed)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed)
	})
}

// requireDatabase answers 503 for routes that need persistence when the
// database is disabled.
func (s *Server) requireDatabase(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.store.users == nil || s.store.sites == nil {
			respondError(w, http.StatusServiceUnavailable, "persistence is disabled on this server")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates the bearer token and stores its claims in the context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := s.authSvc.ValidateToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := auth.WithClaims(r.Context(), claims)
		ctx = ctxlog.WithAttributes(ctx, "user_id", claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
