// Package server exposes the dashboard over HTTP: session endpoints,
// chart aggregations, map payloads, and the static shell. Every data
// endpoint resolves a dataset through the loader and answers 503 when
// the dataset could not be prepared.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/metroviz/crimedash/internal/auth"
	"github.com/metroviz/crimedash/internal/boundary"
	"github.com/metroviz/crimedash/internal/config"
	"github.com/metroviz/crimedash/internal/loader"
)

const sessionCookie = "crimedash_session"

// Server wires the dashboard handlers to their collaborators.
type Server struct {
	cfg        *config.Config
	datasets   *loader.Manager
	boundaries *boundary.Set
	creds      *auth.Credentials
	sessions   *auth.SessionManager
	throttle   *auth.LoginThrottle
	log        *zap.Logger
}

// New builds a Server. boundaries may not be nil; the caller fails
// startup when the boundary set is unavailable.
func New(cfg *config.Config, datasets *loader.Manager, boundaries *boundary.Set, creds *auth.Credentials) *Server {
	return &Server{
		cfg:        cfg,
		datasets:   datasets,
		boundaries: boundaries,
		creds:      creds,
		sessions:   auth.NewSessionManager(),
		throttle:   auth.NewLoginThrottle(cfg.Auth.LoginRate, cfg.Auth.LoginBurst),
		log:        zap.L().With(zap.String("component", "server")),
	}
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Auth.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/login/guest", s.handleGuestLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Post("/logout", s.handleLogout)
			r.Get("/session", s.handleSession)

			r.Get("/datasets", s.handleDatasets)
			r.Get("/incidents/summary", s.handleSummary)

			r.Get("/charts/hourly-categories", s.handleHourlyCategories)
			r.Get("/charts/hourly-volume", s.handleHourlyVolume)
			r.Get("/charts/hourly-ratio", s.handleHourlyRatio)
			r.Get("/charts/heatmap", s.handleHeatmap)
			r.Get("/charts/polar", s.handlePolar)
			r.Get("/charts/by-area", s.handleByArea)

			r.Get("/map/points", s.handleMapPoints)
			r.Get("/map/choropleth", s.handleChoropleth)
			r.Get("/boundaries", s.handleBoundaries)

			r.Group(func(r chi.Router) {
				r.Use(s.requirePrivileged)
				r.Get("/analysis/detailed", s.handleDetailedAnalysis)
			})
		})
	})

	return r
}

// logRequests emits one structured line per request, the same shape the
// rest of the process logs in.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

// session resolves the request's session from its cookie.
func (s *Server) session(r *http.Request) (*auth.Session, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	return s.sessions.Get(c.Value)
}

// requireSession rejects requests without a live session.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.session(r); !ok {
			respondError(w, http.StatusUnauthorized, "not logged in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requirePrivileged gates the detailed-analysis views.
func (s *Server) requirePrivileged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.session(r)
		if !ok || !sess.Privileged() {
			respondError(w, http.StatusForbidden, "privileged access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
