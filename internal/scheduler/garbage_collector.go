package scheduler

import (
	"context"
	"time"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/index"
	"github.com/deksa89/argo-connectors/internal/logger"
	redisstore "github.com/deksa89/argo-connectors/internal/store/redis"
)

const (
	// DefaultSnapshotRetention is how long a snapshot outlives its last run
	DefaultSnapshotRetention = 7 * 24 * time.Hour
)

// GarbageCollector drops snapshots that went stale or whose job left the
// customers file
type GarbageCollector struct {
	store     *redisstore.Store
	index     *index.MemoryIndex
	customers *CustomerSet
	logger    logger.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stopCh    chan struct{}
}

// NewGarbageCollector creates a new garbage collector. store and customers
// may be nil.
func NewGarbageCollector(
	store *redisstore.Store,
	idx *index.MemoryIndex,
	customers *CustomerSet,
	log logger.Logger,
	interval time.Duration,
	retention time.Duration,
) *GarbageCollector {
	if retention == 0 {
		retention = DefaultSnapshotRetention
	}

	return &GarbageCollector{
		store:     store,
		index:     idx,
		customers: customers,
		logger:    log,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic garbage collection process
func (gc *GarbageCollector) Start(ctx context.Context) error {
	// Run immediately on start
	if err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial garbage collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gc.Collect(ctx); err != nil {
					gc.logger.Error("garbage collection failed",
						logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the garbage collector
func (gc *GarbageCollector) Stop() {
	close(gc.stopCh)
}

// Collect removes expired and orphaned snapshots from the index and Redis
func (gc *GarbageCollector) Collect(ctx context.Context) error {
	now := gc.now()
	deleted := 0

	for _, snap := range gc.index.All() {
		reason := gc.reason(snap, now)
		if reason == "" {
			continue
		}
		slot := snap.Key()

		gc.index.Delete(slot)

		// best effort
		if gc.store != nil {
			if err := gc.store.DeleteSnapshot(ctx, slot); err != nil {
				gc.logger.Warn("failed to delete snapshot from redis",
					logger.String("slot", slot),
					logger.Error(err))
			}
			if err := gc.store.DeleteState(ctx, slot); err != nil {
				gc.logger.Warn("failed to delete state from redis",
					logger.String("slot", slot),
					logger.Error(err))
			}
		}

		gc.logger.Info("garbage collected snapshot",
			logger.String("slot", slot),
			logger.String("reason", reason),
			logger.String("age", now.Sub(snap.At).Round(time.Second).String()))
		deleted++
	}

	if deleted > 0 {
		gc.logger.Info("garbage collection completed", logger.Int("snapshots_deleted", deleted))
	} else {
		gc.logger.Debug("no snapshots to garbage collect")
	}
	return nil
}

func (gc *GarbageCollector) reason(snap *domain.Snapshot, now time.Time) string {
	if gc.customers != nil && !gc.customers.Configured(snap.Customer, snap.Job) {
		return "job not configured"
	}
	if !snap.At.IsZero() && now.Sub(snap.At) >= gc.retention {
		return "expired"
	}
	return ""
}
