package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/deksa89/argo-connectors/internal/httpserver/deps"
	"github.com/deksa89/argo-connectors/internal/httpserver/handlers"
	"github.com/deksa89/argo-connectors/internal/httpserver/mw"
)

func init() { Register(registerReload) }

func registerReload(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.RequireBearer(d.ReloadToken, d.Logger)).Post("/reload", handlers.Reload(d))
}
