package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/deksa89/argo-connectors/internal/config"
	"github.com/deksa89/argo-connectors/internal/logger"
)

// JobRunner is the part of harvest.Runner the harvester needs.
type JobRunner interface {
	RunAll(ctx context.Context, customers *config.Customers, date string) error
}

// Harvester runs every configured job on start, every interval and on
// manual trigger.
type Harvester struct {
	runner        JobRunner
	customers     *CustomerSet
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
	ready         atomic.Bool
	lastPass      atomic.Pointer[time.Time]
	passes        sync.WaitGroup
}

func NewHarvester(
	runner JobRunner,
	customers *CustomerSet,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Harvester {
	return &Harvester{
		runner:        runner,
		customers:     customers,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start launches the loop. The first pass runs in the background so the
// HTTP server comes up while slow feeds are fetched; Ready turns true once
// it is done.
func (h *Harvester) Start(ctx context.Context) error {
	h.passes.Add(1)
	go func() {
		defer h.passes.Done()

		h.harvest(ctx)
		h.ready.Store(true)

		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				h.harvest(ctx)
			case <-h.manualTrigger:
				h.logger.Info("manual harvest triggered")
				h.harvest(ctx)
			case <-h.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop ends the loop and waits for a running pass to return.
func (h *Harvester) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
	h.passes.Wait()
}

func (h *Harvester) Ready() bool { return h.ready.Load() }

// LastPass returns when the last pass finished, zero before the first.
func (h *Harvester) LastPass() time.Time {
	if t := h.lastPass.Load(); t != nil {
		return *t
	}
	return time.Time{}
}

// Harvest runs one pass over every configured job.
func (h *Harvester) Harvest(ctx context.Context) error {
	customers := h.customers.Get()
	start := time.Now()
	h.logger.Info("harvest started", logger.Int("customers", len(customers.Customers)))

	err := h.runner.RunAll(ctx, customers, "")

	now := time.Now()
	h.lastPass.Store(&now)
	if err != nil {
		h.logger.Error("harvest finished with errors",
			logger.Duration("took", now.Sub(start)),
			logger.Error(err))
		return err
	}
	h.logger.Info("harvest finished", logger.Duration("took", now.Sub(start)))
	return nil
}

func (h *Harvester) harvest(ctx context.Context) {
	_ = h.Harvest(ctx)
}
