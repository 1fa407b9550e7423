// Package harvest runs one customer job end to end: fetch, parse, assemble,
// merge contacts, record state and publish.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/deksa89/argo-connectors/internal/config"
	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/httpclient"
	"github.com/deksa89/argo-connectors/internal/logger"
	"github.com/deksa89/argo-connectors/internal/metrics"
	"github.com/deksa89/argo-connectors/internal/sink"
	"github.com/deksa89/argo-connectors/internal/sink/avro"
	"github.com/deksa89/argo-connectors/internal/state"
	"github.com/deksa89/argo-connectors/internal/webapi"
)

// Client fetches feeds and talks to the web API.
type Client interface {
	httpclient.Client
	webapi.Doer
}

// ClientFactory builds the client of one job from its effective auth.
type ClientFactory func(auth config.Auth) (Client, error)

type Deps struct {
	Config    *config.Config
	Log       logger.Logger
	Metrics   *metrics.Metrics
	Marker    state.Marker
	Sinks     []sink.Publisher // process-wide publishers, after webapi and avro
	NewClient ClientFactory    // defaults to httpclient.New
	Now       func() time.Time
}

// Request names the job to run and the date it publishes under.
type Request struct {
	Customer config.Customer
	Job      config.Job
	Date     string // YYYY-MM-DD, today when empty
}

type Runner struct {
	cfg       *config.Config
	log       logger.Logger
	metrics   *metrics.Metrics
	marker    state.Marker
	sinks     []sink.Publisher
	newClient ClientFactory
	now       func() time.Time
}

func NewRunner(d Deps) *Runner {
	r := &Runner{
		cfg:       d.Config,
		log:       d.Log,
		metrics:   d.Metrics,
		marker:    d.Marker,
		sinks:     d.Sinks,
		newClient: d.NewClient,
		now:       d.Now,
	}
	if r.log == nil {
		r.log = logger.NewNop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.newClient == nil {
		r.newClient = r.defaultClient
	}
	return r
}

func (r *Runner) defaultClient(auth config.Auth) (Client, error) {
	c, err := httpclient.New(httpclient.OptionsFromConfig(r.cfg, auth), r.log)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Run harvests the job topology and, when configured, its service types.
// Both tasks run even when the first fails.
func (r *Runner) Run(ctx context.Context, req Request) error {
	var errs []error
	if _, err := r.Topology(ctx, req); err != nil {
		errs = append(errs, err)
	}
	if req.Job.ServiceTypes != nil {
		if _, err := r.ServiceTypes(ctx, req); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RunAll runs every job of every customer in file order.
func (r *Runner) RunAll(ctx context.Context, customers *config.Customers, date string) error {
	var errs []error
	for _, cust := range customers.Customers {
		for _, job := range cust.Jobs {
			if ctx.Err() != nil {
				return errors.Join(append(errs, ctx.Err())...)
			}
			if err := r.Run(ctx, Request{Customer: cust, Job: job, Date: date}); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) Topology(ctx context.Context, req Request) (*domain.Snapshot, error) {
	return r.task(ctx, req, domain.TaskTopology, r.topology)
}

func (r *Runner) ServiceTypes(ctx context.Context, req Request) (*domain.Snapshot, error) {
	if req.Job.ServiceTypes == nil {
		return nil, fmt.Errorf("customer %s job %s has no service_types section", req.Customer.Name, req.Job.Name)
	}
	return r.task(ctx, req, domain.TaskServiceTypes, r.serviceTypes)
}

// run carries what every stage of one task needs.
type run struct {
	Request
	id     string
	log    logger.Logger
	client Client
}

type taskFunc func(ctx context.Context, rn *run) (*domain.Snapshot, error)

func (r *Runner) task(ctx context.Context, req Request, task string, fn taskFunc) (*domain.Snapshot, error) {
	if req.Date == "" {
		req.Date = r.now().Format(time.DateOnly)
	}
	rn := &run{Request: req, id: uuid.NewString()}
	rn.log = r.log.With(
		logger.Customer(req.Customer.Name),
		logger.Job(req.Job.Name),
		logger.RunID(rn.id),
		logger.String("task", task),
	)

	start := r.now()
	snap, err := r.execute(ctx, rn, task, fn)
	r.record(ctx, rn, task, snap, err)
	if err != nil {
		rn.log.Error("run failed", logger.Duration("elapsed", r.now().Sub(start)), logger.Error(err))
		return nil, err
	}
	rn.log.Info("run finished",
		logger.Duration("elapsed", r.now().Sub(start)),
		logger.Int("groups", len(snap.Groups)),
		logger.Int("endpoints", len(snap.Endpoints)),
		logger.Int("service_types", len(snap.ServiceTypes)))
	return snap, nil
}

func (r *Runner) execute(ctx context.Context, rn *run, task string, fn taskFunc) (*domain.Snapshot, error) {
	client, err := r.newClient(rn.Customer.EffectiveAuth(rn.Job))
	if err != nil {
		return nil, fmt.Errorf("building http client: %w", err)
	}
	rn.client = client

	snap, err := fn(ctx, rn)
	if err != nil {
		return nil, err
	}
	snap.Customer = rn.Customer.Name
	snap.Job = rn.Job.Name
	snap.Task = task
	snap.Date = rn.Date
	snap.RunID = rn.id
	snap.At = r.now()

	pub, err := r.publishers(rn)
	if err != nil {
		return nil, err
	}
	if err := pub.Publish(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// record writes the state marker and metrics. A state write failure is
// logged but does not change the run outcome.
func (r *Runner) record(ctx context.Context, rn *run, task string, snap *domain.Snapshot, runErr error) {
	st := domain.State{
		Customer: rn.Customer.Name,
		Job:      rn.Job.Name,
		Task:     task,
		Date:     rn.Date,
		OK:       runErr == nil,
		RunID:    rn.id,
		At:       r.now(),
	}
	if runErr != nil {
		st.Error = runErr.Error()
	}
	if r.marker != nil {
		if err := r.marker.Write(ctx, st); err != nil {
			rn.log.Warn("failed to write state", logger.Error(err))
		}
	}

	if r.metrics == nil {
		return
	}
	r.metrics.RunFinished(rn.Customer.Name, rn.Job.Name, task, runErr)
	if runErr != nil {
		return
	}
	switch task {
	case domain.TaskTopology:
		r.metrics.SetRecords(rn.Customer.Name, rn.Job.Name, webapi.KindGroups, len(snap.Groups))
		r.metrics.SetRecords(rn.Customer.Name, rn.Job.Name, webapi.KindEndpoints, len(snap.Endpoints))
	case domain.TaskServiceTypes:
		r.metrics.SetRecords(rn.Customer.Name, rn.Job.Name, webapi.KindServiceTypes, len(snap.ServiceTypes))
	}
}

// publishers returns webapi and avro (per customer) followed by the
// process-wide sinks.
func (r *Runner) publishers(rn *run) (sink.Multi, error) {
	var out sink.Multi
	if r.cfg.PublishWebAPI {
		wa := r.webAPI(rn)
		if wa.Host == "" {
			return nil, errors.New("webapi publishing is enabled but no webapi host is configured")
		}
		out = append(out, sink.NewWebAPI(rn.client, wa.Host, wa.Token, rn.log))
	}
	if r.cfg.WriteAvro {
		dir := rn.Customer.OutputDir
		if dir == "" {
			dir = filepath.Join(r.cfg.OutputDir, rn.Customer.Name)
		}
		out = append(out, avro.New(filepath.Join(dir, rn.Job.Name)))
	}
	return append(out, r.sinks...), nil
}

func (r *Runner) webAPI(rn *run) config.WebAPI {
	return rn.Customer.EffectiveWebAPI(rn.Job, config.WebAPI{Host: r.cfg.WebAPIHost, Token: r.cfg.WebAPIToken})
}

// fetcher wraps the run client with fetch timing under feed.
func (r *Runner) fetcher(rn *run, feed string) httpclient.Client {
	if r.metrics == nil {
		return rn.client
	}
	return r.metrics.Time(rn.client, feed)
}
