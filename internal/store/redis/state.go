package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/deksa89/argo-connectors/internal/domain"
)

// Write stores the latest state of a job task. It makes Store a state.Marker.
func (s *Store) Write(ctx context.Context, st domain.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, StateKey(st.Key()), data, 0)
		p.SAdd(ctx, KeyAllStates, st.Key())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// ListStates returns every stored state ordered by slot.
func (s *Store) ListStates(ctx context.Context) ([]domain.State, error) {
	slots, err := s.client.SMembers(ctx, KeyAllStates).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	if len(slots) == 0 {
		return nil, nil
	}

	keys := make([]string, len(slots))
	for i, slot := range slots {
		keys[i] = StateKey(slot)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read states: %w", err)
	}

	out := make([]domain.State, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var st domain.State
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			continue
		}
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b domain.State) int { return strings.Compare(a.Key(), b.Key()) })
	return out, nil
}

func (s *Store) DeleteState(ctx context.Context, slot string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, StateKey(slot))
		p.SRem(ctx, KeyAllStates, slot)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}
