package index

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/deksa89/argo-connectors/internal/domain"
)

// MemoryIndex holds the last published snapshot and the last state of
// every customer job task. The ops API reads from it.
type MemoryIndex struct {
	mu         sync.RWMutex
	snapshots  map[string]*domain.Snapshot // customer/job/task -> Snapshot
	states     map[string]domain.State     // customer/job/task -> State
	lastUpdate time.Time                   // Timestamp of the last snapshot stored
}

// NewMemoryIndex creates a new memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		snapshots: make(map[string]*domain.Snapshot),
		states:    make(map[string]domain.State),
	}
}

func (idx *MemoryIndex) Name() string { return "index" }

// Publish stores the snapshot, replacing the previous one of the same slot
func (idx *MemoryIndex) Publish(_ context.Context, snap *domain.Snapshot) error {
	idx.Put(snap)
	return nil
}

func (idx *MemoryIndex) Put(snap *domain.Snapshot) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.snapshots[snap.Key()] = snap
	idx.lastUpdate = time.Now()
}

// Load replaces all snapshots, keeping the newest per slot
func (idx *MemoryIndex) Load(snaps []*domain.Snapshot) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, s := range snaps {
		if cur, ok := idx.snapshots[s.Key()]; ok && cur.At.After(s.At) {
			continue
		}
		idx.snapshots[s.Key()] = s
	}
	idx.lastUpdate = time.Now()
}

// Get retrieves a snapshot by customer, job and task
func (idx *MemoryIndex) Get(customer, job, task string) (*domain.Snapshot, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	snap, ok := idx.snapshots[domain.SnapshotKey(customer, job, task)]
	return snap, ok
}

// All returns every snapshot ordered by slot
func (idx *MemoryIndex) All() []*domain.Snapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]*domain.Snapshot, 0, len(idx.snapshots))
	for _, s := range idx.snapshots {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *domain.Snapshot) int { return strings.Compare(a.Key(), b.Key()) })
	return out
}

// Delete removes the snapshot and state of a slot
func (idx *MemoryIndex) Delete(slot string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.snapshots, slot)
	delete(idx.states, slot)
}

// Count returns the number of snapshots in the index
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.snapshots)
}

// GetLastUpdate returns the timestamp of the last stored snapshot
func (idx *MemoryIndex) GetLastUpdate() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastUpdate
}

// Write records the latest state of a slot. It makes the index a state.Marker.
func (idx *MemoryIndex) Write(_ context.Context, st domain.State) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.states[st.Key()] = st
	return nil
}

// States returns every recorded state ordered by slot
func (idx *MemoryIndex) States() []domain.State {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]domain.State, 0, len(idx.states))
	for _, st := range idx.states {
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b domain.State) int { return strings.Compare(a.Key(), b.Key()) })
	return out
}
