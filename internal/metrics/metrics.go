// Package metrics exposes run and fetch counters on a private registry.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run results.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

type Metrics struct {
	registry *prometheus.Registry

	Runs          *prometheus.CounterVec
	Records       *prometheus.GaugeVec
	FetchDuration *prometheus.HistogramVec
	HTTPRequests  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "connectors_runs_total",
			Help: "Harvest runs by customer, job, task and result.",
		}, []string{"customer", "job", "task", "result"}),
		Records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "connectors_records",
			Help: "Records produced by the last successful run.",
		}, []string{"customer", "job", "kind"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "connectors_fetch_duration_seconds",
			Help:    "Upstream fetch latency including retries.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 180, 600},
		}, []string{"feed"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "connectors_http_requests_total",
			Help: "Ops API requests by route and status.",
		}, []string{"route", "status"}),
	}
	reg.MustRegister(
		m.Runs, m.Records, m.FetchDuration, m.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) RunFinished(customer, job, task string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultFailed
	}
	m.Runs.WithLabelValues(customer, job, task, result).Inc()
}

func (m *Metrics) SetRecords(customer, job, kind string, n int) {
	m.Records.WithLabelValues(customer, job, kind).Set(float64(n))
}

func (m *Metrics) Request(route string, status int) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Getter is the fetch capability being timed.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// TimedGetter observes the duration of every Get under one feed label.
type TimedGetter struct {
	Getter
	feed string
	hist *prometheus.HistogramVec
}

func (m *Metrics) Time(g Getter, feed string) *TimedGetter {
	return &TimedGetter{Getter: g, feed: feed, hist: m.FetchDuration}
}

func (t *TimedGetter) Get(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	defer func() { t.hist.WithLabelValues(t.feed).Observe(time.Since(start).Seconds()) }()
	return t.Getter.Get(ctx, url)
}
