// Package admin implements the operator-facing HTTP API: health, per-
// index usage stats, and a Prometheus metrics scrape endpoint. Adapted
// from the teacher's pkg/api/rest, minus its gRPC client dial (this
// service has no gRPC surface) and its vector-CRUD handlers (replaced by
// the read-only registry/indexstats views this spec's admin surface
// actually needs).
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/api/admin/middleware"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/indexstats"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/registry"
)

// Config holds the admin server's listen address, auth and rate-limit
// settings.
type Config struct {
	Host        string
	Port        int
	CORSEnabled bool
	CORSOrigins []string
	Auth        middleware.AuthConfig
	RateLimit   middleware.RateLimitConfig
}

// Server is the admin HTTP API.
type Server struct {
	config     Config
	reg        *registry.Registry
	stats      *indexstats.Tracker
	httpServer *http.Server
	mux        *http.ServeMux
}

// NewServer builds the admin API server, wired against the same registry
// and usage tracker the query server updates.
func NewServer(config Config, reg *registry.Registry, stats *indexstats.Tracker) *Server {
	s := &Server{
		config: config,
		reg:    reg,
		stats:  stats,
		mux:    http.NewServeMux(),
	}
	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.withMiddleware(s.mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/admin/health", s.handleHealth)
	s.mux.HandleFunc("/admin/stats", s.handleStats)
	s.mux.Handle("/admin/metrics", promhttp.Handler())
}

func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	handler = loggingMiddleware(handler)
	if s.config.CORSEnabled {
		handler = corsMiddleware(s.config.CORSOrigins)(handler)
	}
	rateLimiter := middleware.NewRateLimiter(s.config.RateLimit)
	handler = middleware.RateLimitMiddleware(rateLimiter)(handler)
	handler = middleware.AuthMiddleware(s.config.Auth)(handler)
	return handler
}

// handleHealth reports whether the registry has finished ingesting and
// is serving queries.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	status := "loading"
	if s.reg.Frozen() {
		status = "serving"
	}
	writeJSON(w, map[string]string{"status": status}, http.StatusOK)
}

// handleStats reports per-index point counts and query activity.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	d2, d3 := s.reg.Names()
	writeJSON(w, map[string]interface{}{
		"indexes_2d": d2,
		"indexes_3d": d3,
		"usage":      s.stats.Snapshot(),
	}, http.StatusOK)
}

// Start blocks serving the admin API until Stop is called.
func (s *Server) Start() error {
	log.Printf("admin API listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("admin server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the admin API.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		log.Printf("%s %s %d %v", r.Method, r.URL.Path, wrapped.statusCode, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*")
			if !allowed {
				for _, o := range allowedOrigins {
					if o == origin {
						allowed = true
						break
					}
				}
			} else {
				origin = "*"
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, map[string]string{"error": message}, status)
}
