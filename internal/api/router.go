package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/launcher"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *launcher.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Index.
	r.Get("/apps", h.ListApps)
	r.Get("/apps/search", h.SearchApps)

	// Launching.
	r.Post("/apps/open", h.OpenApp)
	r.Post("/apps/reload", h.ReloadApps)

	// Introspection.
	r.Get("/status", h.Status)
	r.Get("/history", h.History)

	return r
}
