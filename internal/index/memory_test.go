package index

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/deksa89/argo-connectors/internal/domain"
)

func snapshot(customer, job string, at time.Time) *domain.Snapshot {
	return &domain.Snapshot{Customer: customer, Job: job, Task: domain.TaskTopology, At: at}
}

func TestNewMemoryIndex(t *testing.T) {
	index := NewMemoryIndex()
	if index == nil {
		t.Fatal("NewMemoryIndex() returned nil")
	}
	if index.Count() != 0 {
		t.Errorf("NewMemoryIndex() should start empty, got %v", index.Count())
	}
}

func TestPublishReplacesSlot(t *testing.T) {
	index := NewMemoryIndex()
	now := time.Now()

	_ = index.Publish(context.Background(), snapshot("EGI", "Critical", now))
	second := snapshot("EGI", "Critical", now.Add(time.Hour))
	second.RunID = "second"
	_ = index.Publish(context.Background(), second)

	if index.Count() != 1 {
		t.Fatalf("Publish() should replace the slot, got %v snapshots", index.Count())
	}
	got, ok := index.Get("EGI", "Critical", domain.TaskTopology)
	if !ok || got.RunID != "second" {
		t.Errorf("Get() = %+v, %v, want the second snapshot", got, ok)
	}
	if index.GetLastUpdate().IsZero() {
		t.Error("GetLastUpdate() should be set after Publish()")
	}
}

func TestLoadKeepsNewest(t *testing.T) {
	index := NewMemoryIndex()
	now := time.Now()

	fresh := snapshot("EGI", "Critical", now)
	fresh.RunID = "fresh"
	index.Put(fresh)
	index.Load([]*domain.Snapshot{
		snapshot("EGI", "Critical", now.Add(-time.Hour)),
		snapshot("EOSC", "Core", now.Add(-time.Hour)),
	})

	if index.Count() != 2 {
		t.Fatalf("Load() count = %v, want 2", index.Count())
	}
	got, _ := index.Get("EGI", "Critical", domain.TaskTopology)
	if got.RunID != "fresh" {
		t.Errorf("Load() replaced a newer snapshot with an older one")
	}
}

func TestAllIsOrdered(t *testing.T) {
	index := NewMemoryIndex()
	index.Put(snapshot("EOSC", "Core", time.Now()))
	index.Put(snapshot("EGI", "Critical", time.Now()))

	all := index.All()
	if len(all) != 2 || all[0].Customer != "EGI" || all[1].Customer != "EOSC" {
		t.Errorf("All() not ordered by slot: %v, %v", all[0].Customer, all[1].Customer)
	}
}

func TestDeleteDropsState(t *testing.T) {
	index := NewMemoryIndex()
	snap := snapshot("EGI", "Critical", time.Now())
	index.Put(snap)
	_ = index.Write(context.Background(), domain.State{Customer: "EGI", Job: "Critical", Task: domain.TaskTopology, OK: true})

	index.Delete(snap.Key())

	if index.Count() != 0 || len(index.States()) != 0 {
		t.Errorf("Delete() left %v snapshots and %v states", index.Count(), len(index.States()))
	}
}

func TestConcurrentAccess(t *testing.T) {
	index := NewMemoryIndex()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = index.All()
			_ = index.States()
		}()
		go func() {
			defer wg.Done()
			index.Put(snapshot("EGI", "Critical", time.Now()))
			_ = index.Write(context.Background(), domain.State{Customer: "EGI", Job: "Critical", Task: domain.TaskTopology})
		}()
	}
	wg.Wait()

	if index.Count() != 1 || len(index.States()) != 1 {
		t.Errorf("concurrent writes to one slot should leave one entry, got %v/%v", index.Count(), len(index.States()))
	}
}
