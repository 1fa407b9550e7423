package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deksa89/argo-connectors/internal/domain"
)

// DefaultSnapshotTTL is the default TTL of stored snapshots (7 days)
const DefaultSnapshotTTL = 7 * 24 * time.Hour

// Store keeps the last snapshot and state of every job in Redis
type Store struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewStore creates a new Redis store
func NewStore(client redis.UniversalClient, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Name() string { return "redis" }

// Publish stores the snapshot, replacing the previous one of the same job.
func (s *Store) Publish(ctx context.Context, snap *domain.Snapshot) error {
	return s.SaveSnapshot(ctx, snap)
}

func (s *Store) SaveSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, SnapshotKey(snap.Key()), data, s.ttl)
		p.SAdd(ctx, KeyAllSnapshots, snap.Key())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns nil, nil when the slot holds nothing.
func (s *Store) GetSnapshot(ctx context.Context, slot string) (*domain.Snapshot, error) {
	data, err := s.client.Get(ctx, SnapshotKey(slot)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// GetAllSnapshots returns every stored snapshot. Slots whose key expired
// are dropped from the set on the way.
func (s *Store) GetAllSnapshots(ctx context.Context) ([]*domain.Snapshot, error) {
	slots, err := s.client.SMembers(ctx, KeyAllSnapshots).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	out := make([]*domain.Snapshot, 0, len(slots))
	for _, slot := range slots {
		snap, err := s.GetSnapshot(ctx, slot)
		if err != nil {
			continue
		}
		if snap == nil {
			_ = s.client.SRem(ctx, KeyAllSnapshots, slot).Err()
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

func (s *Store) DeleteSnapshot(ctx context.Context, slot string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, SnapshotKey(slot))
		p.SRem(ctx, KeyAllSnapshots, slot)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
