package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/deksa89/argo-connectors/internal/httpserver/deps"
)

type componentStatus struct {
	OK        bool   `json:"ok"`
	Snapshots *int   `json:"snapshots,omitempty"`
	LastPass  string `json:"last_pass,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Error     string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz turns ready once the first harvest pass finished. Redis is
// reported but never blocks readiness.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		harvest := checkHarvest(d)
		components := map[string]componentStatus{
			"harvest": harvest,
			"redis":   checkRedis(r.Context(), d),
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if harvest.OK {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(readyzResponse{
			Ready:      harvest.OK,
			Components: components,
		})
	}
}

func checkHarvest(d deps.Deps) componentStatus {
	var count int
	if d.MemoryIndex != nil {
		count = d.MemoryIndex.Count()
	}
	st := componentStatus{Snapshots: &count, LastPass: "never"}
	if d.Harvest == nil {
		st.Error = "scheduler not running"
		return st
	}
	if last := d.Harvest.LastPass(); !last.IsZero() {
		st.LastPass = last.UTC().Format(time.RFC3339)
	}
	st.OK = d.Harvest.Ready()
	if !st.OK {
		st.Mode = "first pass running"
	}
	return st
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:    false,
			Mode:  "degraded",
			Error: err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: "optimal"}
}
