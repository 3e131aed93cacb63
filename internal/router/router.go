// Package router sets up all HTTP routes and middleware chains for RuleHub.
// It mounts the server-rendered catalog pages, the JSON API, static assets,
// the health check and, when enabled, the Prometheus endpoint.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rulehub/internal/handlers"
	"rulehub/internal/metrics"
	"rulehub/internal/middleware"
	"rulehub/web"
)

// New creates and returns the configured Chi router. m may be nil, in which
// case /metrics is not mounted. suggestLimiter guards the autocomplete
// endpoint, which fires on every keystroke.
func New(public *handlers.Public, api *handlers.API, m *metrics.Metrics, suggestLimiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(m.Middleware)

	r.NotFound(public.NotFound)

	r.Get("/health", api.Health)
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	staticFS, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("router: embedded static assets missing: " + err.Error())
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Public pages.
	r.Get("/", public.Home)
	r.Get("/categories", public.Categories)
	r.Get("/categories/{slug}", public.Category)
	r.Get("/rules/{id}", public.Rule)
	r.Get("/rules/{id}/raw", public.RuleRaw)
	r.Get("/search", public.Search)

	// JSON API.
	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", api.Categories)
		r.Get("/tags", api.Tags)

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", api.Rules)
			r.Post("/", api.CreateRule)
			r.Get("/popular", api.PopularRules)
			r.Get("/{id}", api.Rule)
		})

		r.Get("/search", api.Search)
		r.With(suggestLimiter.Middleware).Get("/search/suggestions", api.Suggestions)
	})

	return r
}
