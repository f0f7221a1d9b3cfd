package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zafiri/cms-core/internal/content"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// Collection routes are generated from the content registry; paths follow
// the consumed API convention of trailing slashes ("/api/news/",
// "/api/news/{id}/").
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Uploaded media (public; URLs are embedded in the rendered website)
	r.Handle("/media/*", http.StripPrefix("/media/",
		http.FileServer(http.Dir(s.uploads.Dir))))

	r.Route("/api", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health/", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/login/", s.handleLogin)
		r.Post("/token/refresh/", s.handleTokenRefresh)

		// Content-change event stream. Auth happens in the handler:
		// browsers cannot set headers on WebSocket dials, so the token
		// is accepted as a query parameter too.
		r.Get("/events/ws", s.handleEvents)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/profile/", s.handleGetProfile)
			r.Put("/profile/", s.handleUpdateProfile)
			r.Post("/profile/password/", s.handleChangePassword)

			// Generated CRUD for every registered collection
			for _, col := range content.Collections {
				s.mountCollection(r, col)
			}
		})
	})

	return r
}

// mountCollection registers the CRUD routes for one collection.
func (s *Server) mountCollection(r chi.Router, col content.Collection) {
	r.Route("/"+strings.TrimSuffix(col.Path, "/"), func(r chi.Router) {
		r.Get("/", s.handleListRecords(col))
		r.Post("/", s.handleCreateRecord(col))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetRecord(col))
			r.Put("/", s.handleUpdateRecord(col))
			r.Patch("/", s.handlePatchRecord(col))
			r.Delete("/", s.handleDeleteRecord(col))
		})
	})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
