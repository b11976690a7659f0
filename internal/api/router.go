// Package api assembles the HTTP router: middleware chain plus the
// query, tool, memory and passage endpoints.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/adarshp14/AgentInsights/internal/api/handlers"
	"github.com/adarshp14/AgentInsights/internal/api/middleware"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.OrgExtractor)
	r.Use(middleware.Logger)
	r.Use(middleware.Telemetry)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Org-Id", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Get("/version", h.VersionInfo)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/query", h.Query)

		r.Route("/tools", func(r chi.Router) {
			r.Get("/", h.ListTools)
			r.Post("/{tool}/{method}", h.InvokeTool)
		})

		r.Route("/memory", func(r chi.Router) {
			r.Get("/", h.MemoryStats)
			r.Delete("/", h.ClearMemory)
			r.Get("/{key}", h.GetConversation)
			r.Delete("/{key}", h.ClearConversation)
		})

		r.Route("/passages", func(r chi.Router) {
			r.Post("/", h.UpsertPassages)
			r.Get("/count", h.CountPassages)
		})
	})

	return r
}
