package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/deksa89/argo-connectors/internal/httpserver/deps"
	"github.com/deksa89/argo-connectors/internal/httpserver/handlers"
	"github.com/deksa89/argo-connectors/internal/httpserver/mw"
)

func init() { Register(registerTopology) }

func registerTopology(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
		r.Get("/topology/{customer}/{job}/{view}", handlers.Topology(d))
		r.Get("/state", handlers.State(d))
	})
}
