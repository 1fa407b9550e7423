package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/httpserver/deps"
	"github.com/deksa89/argo-connectors/internal/index"
	"github.com/deksa89/argo-connectors/internal/logger"
	"github.com/deksa89/argo-connectors/internal/metrics"
)

type fakeHarvest struct {
	ready bool
	last  time.Time
}

func (f *fakeHarvest) Ready() bool         { return f.ready }
func (f *fakeHarvest) LastPass() time.Time { return f.last }

func testDeps(t *testing.T) (deps.Deps, *fakeHarvest) {
	t.Helper()
	idx := index.NewMemoryIndex()
	idx.Put(&domain.Snapshot{
		Customer: "EGI",
		Job:      "Critical",
		Task:     domain.TaskTopology,
		Date:     "2026-10-19",
		RunID:    "run-1",
		Groups: []domain.GroupRecord{
			{Type: domain.GroupTypeNGI, Group: "NGI_GRNET", Subgroup: "HG-03-AUTH"},
		},
		Endpoints: []domain.EndpointRecord{
			{Type: domain.EndpointTypeSites, Group: "HG-03-AUTH", Service: "CREAM-CE", Hostname: "cream.afroditi.hellasgrid.gr"},
			{Type: domain.EndpointTypeSites, Group: "HG-03-AUTH", Service: "SRM", Hostname: "se01.afroditi.hellasgrid.gr"},
		},
	})
	require.NoError(t, idx.Write(context.Background(), domain.State{
		Customer: "EGI", Job: "Critical", Task: domain.TaskTopology, Date: "2026-10-19", OK: true, RunID: "run-1",
	}))

	h := &fakeHarvest{}
	return deps.Deps{
		Logger:        logger.NewNop(),
		StartTime:     time.Now(),
		Version:       "test",
		MemoryIndex:   idx,
		Metrics:       metrics.New(),
		Harvest:       h,
		ReloadTrigger: make(chan struct{}, 1),
		ReloadToken:   "s3cret",
	}, h
}

func serve(h http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "10.0.0.5:40000"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	d, _ := testDeps(t)
	rec := serve(Router(d.Logger, d), http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"version":"test"`)
}

func TestReadyzFollowsFirstPass(t *testing.T) {
	d, h := testDeps(t)
	router := Router(d.Logger, d)

	rec := serve(router, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h.ready = true
	h.last = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	rec = serve(router, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Ready      bool `json:"ready"`
		Components map[string]struct {
			OK        bool   `json:"ok"`
			Snapshots *int   `json:"snapshots"`
			LastPass  string `json:"last_pass"`
			Mode      string `json:"mode"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Ready)
	assert.Equal(t, 1, *body.Components["harvest"].Snapshots)
	assert.Equal(t, "2026-10-19T08:00:00Z", body.Components["harvest"].LastPass)
	assert.Equal(t, "disabled", body.Components["redis"].Mode)
}

func TestReload(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{name: "missing token", token: "s3cret", want: http.StatusUnauthorized},
		{name: "wrong token", token: "s3cret", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "disabled", token: "", header: "Bearer s3cret", want: http.StatusNotFound},
		{name: "accepted", token: "s3cret", header: "Bearer s3cret", want: http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := testDeps(t)
			d.ReloadToken = tt.token
			rec := serve(Router(d.Logger, d), http.MethodPost, "/reload", map[string]string{"Authorization": tt.header})
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestReloadAlreadyPending(t *testing.T) {
	d, _ := testDeps(t)
	router := Router(d.Logger, d)
	auth := map[string]string{"Authorization": "Bearer s3cret"}

	assert.Equal(t, http.StatusAccepted, serve(router, http.MethodPost, "/reload", auth).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodPost, "/reload", auth).Code)

	<-d.ReloadTrigger
	assert.Equal(t, http.StatusAccepted, serve(router, http.MethodPost, "/reload", auth).Code)
}

func TestTopologyViews(t *testing.T) {
	d, _ := testDeps(t)
	router := Router(d.Logger, d)

	tests := []struct {
		path  string
		want  int
		count int
	}{
		{path: "/topology/EGI/Critical/groups", want: http.StatusOK, count: 1},
		{path: "/topology/EGI/Critical/endpoints", want: http.StatusOK, count: 2},
		{path: "/topology/EGI/Critical/contacts", want: http.StatusOK, count: 0},
		{path: "/topology/EGI/Critical/service-types", want: http.StatusNotFound},
		{path: "/topology/EGI/Critical/sites", want: http.StatusNotFound},
		{path: "/topology/EGI/Other/groups", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(router, http.MethodGet, tt.path, nil)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.want != http.StatusOK {
				return
			}
			var body struct {
				Date  string            `json:"date"`
				Count int               `json:"count"`
				Data  []json.RawMessage `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "2026-10-19", body.Date)
			assert.Equal(t, tt.count, body.Count)
			assert.Len(t, body.Data, tt.count)
		})
	}
}

func TestStateAndMetrics(t *testing.T) {
	d, _ := testDeps(t)
	router := Router(d.Logger, d)

	rec := serve(router, http.MethodGet, "/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var states []domain.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &states))
	require.Len(t, states, 1)
	assert.True(t, states[0].OK)

	rec = serve(router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `connectors_http_requests_total{route="/state",status="200"} 1`))
}

func TestAllowedCIDRs(t *testing.T) {
	d, _ := testDeps(t)
	d.AllowedCIDRS = []string{"192.168.0.0/16", "127.0.0.1"}
	router := Router(d.Logger, d)

	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodGet, "/state", nil).Code)
	// probes stay open
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/healthz", nil).Code)

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.RemoteAddr = "192.168.10.4:5000"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// proxy headers count only when trusted
	d.TrustProxy = true
	router = Router(d.Logger, d)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/state", map[string]string{"X-Forwarded-For": "127.0.0.1, 10.0.0.5"}).Code)
}
