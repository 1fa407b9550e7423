package mw

import (
	"net/http"

	"github.com/deksa89/argo-connectors/internal/metrics"
)

// Metrics counts requests per route pattern and status. A nil m disables it.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	if m == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(ww, r)
			m.Request(routePattern(r), ww.code())
		})
	}
}
