package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/deksa89/argo-connectors/internal/httpserver/deps"
	"github.com/deksa89/argo-connectors/internal/httpserver/handlers"
)

func init() { Register(registerProbes) }

// Probes stay open to the orchestrator.
func registerProbes(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.Get("/readyz", handlers.Readyz(d))
}
