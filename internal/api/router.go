package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// The embed page, at the root and at the legacy PHP path
	r.Get("/", s.handlePage)
	r.Get("/index.php", s.handlePage)
	r.Head("/", s.handlePageHead)
	r.Head("/index.php", s.handlePageHead)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/invocation", s.handleInvocation)
		r.Get("/launches", s.handleListLaunches)

		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeNotFound(w, "unknown API endpoint")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
		})
	})

	// Everything else is a static asset next to the page
	if s.assets != nil {
		r.Get("/*", s.assets.ServeHTTP)
		r.Head("/*", s.assets.ServeHTTP)
	}

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
