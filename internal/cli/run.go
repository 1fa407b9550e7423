package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/deksa89/argo-connectors/internal/app"
	"github.com/deksa89/argo-connectors/internal/config"
	"github.com/deksa89/argo-connectors/internal/harvest"
	"github.com/deksa89/argo-connectors/internal/logger"
)

// Values of --task.
const (
	TaskAll          = "all"
	TaskTopology     = "topology"
	TaskServiceTypes = "service-types"
)

type runOptions struct {
	customer string
	job      string
	date     string
	task     string
}

func newRunCmd() *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Harvest one customer job once",
		Long: `Fetch the job feeds, assemble group_groups and group_endpoints, merge
contacts and publish. Exits non-zero when the run failed; the state marker
is written either way.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}
	cmd.Flags().StringVarP(&o.customer, "customer", "c", "", "customer name")
	cmd.Flags().StringVarP(&o.job, "job", "j", "", "job name")
	cmd.Flags().StringVarP(&o.date, "date", "d", "", "publish under this date (YYYY-MM-DD), today by default")
	cmd.Flags().StringVarP(&o.task, "task", "t", TaskAll, "topology, service-types or all")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

func (o *runOptions) validate() error {
	switch o.task {
	case TaskAll, TaskTopology, TaskServiceTypes:
	default:
		return fmt.Errorf("unknown task %q, want topology, service-types or all", o.task)
	}
	if o.date != "" {
		if _, err := time.Parse(time.DateOnly, o.date); err != nil {
			return fmt.Errorf("invalid date %q, want YYYY-MM-DD", o.date)
		}
	}
	return nil
}

func (o *runOptions) run(cmd *cobra.Command) error {
	if err := o.validate(); err != nil {
		return err
	}
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	unlock, err := lockJob(cfg.StateDir, o.customer, o.job)
	if err != nil {
		return err
	}
	defer unlock()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// an explicit run ignores CONNECTORS_ONLY_CUSTOMERS
	customers, err := config.LoadCustomers(cfg.CustomersFile)
	if err != nil {
		return err
	}
	cust, job, err := customers.Find(o.customer, o.job)
	if err != nil {
		return err
	}
	req := harvest.Request{Customer: cust, Job: job, Date: o.date}
	log.Debug("run requested", logger.Customer(cust.Name), logger.Job(job.Name), logger.String("task", o.task))

	return o.dispatch(ctx, a.Runner(), req)
}

func (o *runOptions) dispatch(ctx context.Context, r *harvest.Runner, req harvest.Request) error {
	switch o.task {
	case TaskTopology:
		_, err := r.Topology(ctx, req)
		return err
	case TaskServiceTypes:
		_, err := r.ServiceTypes(ctx, req)
		return err
	default:
		return r.Run(ctx, req)
	}
}

// ErrLocked is returned when another process runs the same job.
var ErrLocked = errors.New("job is already running")

// lockJob takes <stateDir>/<customer>/<job>.lock without waiting.
func lockJob(stateDir, customer, job string) (func(), error) {
	dir := filepath.Join(stateDir, customer)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}
	lock := flock.New(filepath.Join(dir, job+".lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", lock.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w (lock %s)", customer, job, ErrLocked, lock.Path())
	}
	return func() { _ = lock.Unlock() }, nil
}
