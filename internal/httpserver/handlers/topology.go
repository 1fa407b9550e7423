package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/httpserver/deps"
)

// Views of a snapshot served under /topology/{customer}/{job}/{view}.
const (
	ViewGroups       = "groups"
	ViewEndpoints    = "endpoints"
	ViewContacts     = "contacts"
	ViewServiceTypes = "service-types"
)

type topologyResponse struct {
	Customer string `json:"customer"`
	Job      string `json:"job"`
	Date     string `json:"date"`
	RunID    string `json:"run_id"`
	Count    int    `json:"count"`
	Data     any    `json:"data"`
}

// Topology serves one view of the last published snapshot of a job.
func Topology(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customer := chi.URLParam(r, "customer")
		job := chi.URLParam(r, "job")
		view := chi.URLParam(r, "view")

		task := domain.TaskTopology
		if view == ViewServiceTypes {
			task = domain.TaskServiceTypes
		}
		snap, ok := d.MemoryIndex.Get(customer, job, task)
		if !ok {
			writeError(w, http.StatusNotFound, "no snapshot for "+domain.SnapshotKey(customer, job, task))
			return
		}

		resp := topologyResponse{Customer: snap.Customer, Job: snap.Job, Date: snap.Date, RunID: snap.RunID}
		switch view {
		case ViewGroups:
			resp.Data, resp.Count = nonNil(snap.Groups), len(snap.Groups)
		case ViewEndpoints:
			resp.Data, resp.Count = nonNil(snap.Endpoints), len(snap.Endpoints)
		case ViewContacts:
			resp.Data, resp.Count = nonNil(snap.Contacts), len(snap.Contacts)
		case ViewServiceTypes:
			resp.Data, resp.Count = nonNil(snap.ServiceTypes), len(snap.ServiceTypes)
		default:
			writeError(w, http.StatusNotFound, "unknown view "+view)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// State lists the last outcome of every customer job task.
func State(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.MemoryIndex.States())
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
