package scheduler

import (
	"context"

	"github.com/deksa89/argo-connectors/internal/index"
	"github.com/deksa89/argo-connectors/internal/logger"
	redisstore "github.com/deksa89/argo-connectors/internal/store/redis"
)

// RedisSyncer warms the memory index from Redis on startup
type RedisSyncer struct {
	store  *redisstore.Store
	index  *index.MemoryIndex
	logger logger.Logger
}

// NewRedisSyncer creates a new Redis syncer
func NewRedisSyncer(
	store *redisstore.Store,
	idx *index.MemoryIndex,
	log logger.Logger,
) *RedisSyncer {
	return &RedisSyncer{
		store:  store,
		index:  idx,
		logger: log,
	}
}

// Sync loads snapshots and states from Redis into the memory index
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	rs.logger.Info("syncing snapshots from redis to memory")

	snaps, err := rs.store.GetAllSnapshots(ctx)
	if err != nil {
		return err
	}
	states, err := rs.store.ListStates(ctx)
	if err != nil {
		return err
	}

	if len(snaps) == 0 && len(states) == 0 {
		rs.logger.Info("no snapshots found in redis")
		return nil
	}

	rs.index.Load(snaps)
	for _, st := range states {
		_ = rs.index.Write(ctx, st)
	}

	rs.logger.Info("synced snapshots from redis",
		logger.Int("snapshots", len(snaps)),
		logger.Int("states", len(states)))

	return nil
}
