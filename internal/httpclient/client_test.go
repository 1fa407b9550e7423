package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deksa89/argo-connectors/internal/config"
	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/logger"
)

func newTestClient(t *testing.T, retries int, auth config.Auth) *DefaultClient {
	t.Helper()
	c, err := New(Options{
		Timeout:    2 * time.Second,
		Retries:    retries,
		SleepRetry: time.Millisecond,
		Auth:       auth,
	}, logger.NewNop())
	require.NoError(t, err)
	return c
}

func TestGetRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("<results/>"))
	}))
	defer srv.Close()

	data, err := newTestClient(t, 3, config.Auth{}).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<results/>", string(data))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(t, 2, config.Auth{}).Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())

	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, srv.URL, te.URL)

	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusServiceUnavailable, he.StatusCode)
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such method", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(t, 3, config.Auth{}).Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.Contains(t, err.Error(), "no such method")
}

func TestAuthHeaders(t *testing.T) {
	tests := []struct {
		name string
		auth config.Auth
		want string
	}{
		{name: "bearer", auth: config.Auth{BearerToken: "s3cret"}, want: "Bearer s3cret"},
		{name: "basic", auth: config.Auth{Username: "argo", Password: "pw"}, want: "Basic YXJnbzpwdw=="},
		{name: "none", auth: config.Auth{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
				assert.Contains(t, r.Header.Get("User-Agent"), "argo-connectors/")
			}))
			defer srv.Close()

			_, err := newTestClient(t, 1, tt.auth).Get(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSleepBackOffJitterBounds(t *testing.T) {
	b := sleepBackOff{base: 10 * time.Millisecond, jitter: 5 * time.Millisecond}
	for range 50 {
		d := b.NextBackOff()
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.Less(t, d, 15*time.Millisecond)
	}
	assert.Equal(t, 10*time.Millisecond, sleepBackOff{base: 10 * time.Millisecond}.NextBackOff())
}

func TestHTTPErrorMessage(t *testing.T) {
	err := NewHTTPError(500, "http://api.example.com/v1/data", "Internal Server Error")
	assert.Equal(t, "HTTP 500 for URL http://api.example.com/v1/data: Internal Server Error", err.Error())
	assert.True(t, err.Temporary())
	assert.False(t, NewHTTPError(403, "u", "").Temporary())
}
