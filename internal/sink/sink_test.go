package sink

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/logger"
)

type recorder struct {
	name string
	err  error
	got  []*Batch
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Publish(_ context.Context, b *Batch) error {
	r.got = append(r.got, b)
	return r.err
}

func TestMultiStopsAtFirstFailure(t *testing.T) {
	first := &recorder{name: "first"}
	broken := &recorder{name: "broken", err: errors.New("connection refused")}
	last := &recorder{name: "last"}

	err := Multi{first, broken, last}.Publish(context.Background(), &Batch{Customer: "EGI"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Len(t, first.got, 1)
	assert.Empty(t, last.got)
}

type call struct {
	method string
	url    string
	body   string
}

type fakeDoer struct {
	mu    sync.Mutex
	calls []call
}

func (f *fakeDoer) Do(_ context.Context, method, url string, body []byte, _ http.Header) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{method: method, url: url, body: string(body)})
	return nil, nil
}

func TestWebAPIPublishesTopology(t *testing.T) {
	doer := &fakeDoer{}
	p := NewWebAPI(doer, "api.example.org", "token", logger.NewNop())

	err := p.Publish(context.Background(), &Batch{
		Task:   domain.TaskTopology,
		Date:   "2026-10-19",
		Groups: []domain.GroupRecord{{Type: "NGI", Group: "NGI_AZ", Subgroup: "AZ-IFAN", Tags: map[string]string{}}},
	})
	require.NoError(t, err)
	require.Len(t, doer.calls, 2)
	assert.Equal(t, "https://api.example.org/api/v2/topology/groups?date=2026-10-19", doer.calls[0].url)
	assert.Equal(t, "https://api.example.org/api/v2/topology/endpoints?date=2026-10-19", doer.calls[1].url)
	assert.Equal(t, "[]", doer.calls[1].body)
}

func TestWebAPIPublishesServiceTypes(t *testing.T) {
	doer := &fakeDoer{}
	p := NewWebAPI(doer, "https://api.example.org", "token", logger.NewNop())

	err := p.Publish(context.Background(), &Batch{
		Task:         domain.TaskServiceTypes,
		Date:         "2026-10-19",
		ServiceTypes: []domain.ServiceType{{Name: "CREAM-CE", Tags: []string{"connectors"}}},
	})
	require.NoError(t, err)
	require.Len(t, doer.calls, 1)
	assert.Contains(t, doer.calls[0].url, "/api/v2/topology/service-types")
	assert.JSONEq(t, `[{"name":"CREAM-CE","description":"","tags":["connectors"]}]`, doer.calls[0].body)
}
