package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFinished(t *testing.T) {
	m := New()
	m.RunFinished("EGI", "Critical", "topology", nil)
	m.RunFinished("EGI", "Critical", "topology", nil)
	m.RunFinished("EGI", "Critical", "topology", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Runs.WithLabelValues("EGI", "Critical", "topology", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("EGI", "Critical", "topology", ResultFailed)))
}

func TestSetRecords(t *testing.T) {
	m := New()
	m.SetRecords("EGI", "Critical", "groups", 12)
	m.SetRecords("EGI", "Critical", "groups", 7)
	assert.Equal(t, 7.0, testutil.ToFloat64(m.Records.WithLabelValues("EGI", "Critical", "groups")))
}

type stubGetter struct{}

func (stubGetter) Get(context.Context, string) ([]byte, error) { return []byte("ok"), nil }

func TestTimedGetter(t *testing.T) {
	m := New()
	data, err := m.Time(stubGetter{}, "gocdb").Get(context.Background(), "https://example.org")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchDuration))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Request("/healthz", 200)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), `connectors_http_requests_total{route="/healthz",status="200"} 1`))
}
