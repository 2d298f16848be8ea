// Package server exposes the census pipeline over HTTP: year registry,
// district boundaries as GeoJSON, reduced statistics, and choropleth
// payloads.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sigmafelix/censuskr/internal/census"
	"github.com/sigmafelix/censuskr/internal/store"
)

// Options configures the HTTP server.
type Options struct {
	Accessor       *census.Accessor
	Postgres       *store.Postgres // optional; enables DB-side dissolve
	Cache          *store.SQLite   // optional; enables /status
	AllowedOrigins []string
}

// Server routes census API requests.
type Server struct {
	accessor *census.Accessor
	pg       *store.Postgres
	cache    *store.SQLite
	router   chi.Router
}

// New builds the router with middleware and all routes mounted.
func New(opts Options) *Server {
	s := &Server{
		accessor: opts.Accessor,
		pg:       opts.Postgres,
		cache:    opts.Cache,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/years", s.handleYears)
	r.Get("/districts/{year}", s.handleDistricts)
	r.Get("/districts/{year}/dissolved", s.handleDissolved)
	r.Get("/stats/{year}/{category}", s.handleStats)
	r.Get("/choropleth/{year}/{category}", s.handleChoropleth)
	r.Get("/status", s.handleStatus)

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
