// Package api exposes read-only HTTP access to mutation-testing
// results stored on disk.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/testgen-hq/pymute/internal/config"
)

// Server represents the API server
type Server struct {
	cfg    *config.Config
	router *chi.Mux
}

// NewServer creates a new API server
func NewServer(cfg *config.Config) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.healthCheck)

	// API v1
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/modules/{module}", func(r chi.Router) {
			r.Get("/runs", s.listRuns)
			r.Get("/runs/latest", s.getLatestRun)
			r.Get("/survivors", s.listSurvivors)
		})
	})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
