package handlers

import (
	"net/http"

	"github.com/deksa89/argo-connectors/internal/httpserver/deps"
	"github.com/deksa89/argo-connectors/internal/logger"
	"github.com/deksa89/argo-connectors/internal/scheduler"
)

// Reload asks the scheduler for an immediate harvest pass
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ReloadTrigger == nil || !scheduler.Trigger(d.ReloadTrigger) {
			d.Logger.Warn("harvest already pending",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := w.Write([]byte("harvest already pending, please wait\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
			return
		}

		d.Logger.Info("manual harvest triggered via endpoint",
			logger.String("remote_ip", r.RemoteAddr))
		w.WriteHeader(http.StatusAccepted)
		if _, err := w.Write([]byte("harvest triggered\n")); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}
