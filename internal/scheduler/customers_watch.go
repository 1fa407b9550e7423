package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/deksa89/argo-connectors/internal/config"
	"github.com/deksa89/argo-connectors/internal/logger"
)

// DefaultWatchDebounce groups the burst of events editors and ConfigMap
// swaps produce into one reload.
const DefaultWatchDebounce = 2 * time.Second

// CustomerSet holds the current customers file, filtered to the customers
// this process harvests. A failed reload keeps the previous set.
type CustomerSet struct {
	path string
	only []string

	mu  sync.RWMutex
	cur *config.Customers
}

func NewCustomerSet(path string, only []string) *CustomerSet {
	return &CustomerSet{path: path, only: only, cur: &config.Customers{}}
}

// Static wraps an already loaded customers file. Reload is a no-op.
func Static(c *config.Customers) *CustomerSet {
	return &CustomerSet{cur: c}
}

func (s *CustomerSet) Path() string { return s.path }

func (s *CustomerSet) Reload() error {
	if s.path == "" {
		return nil
	}
	c, err := config.LoadCustomers(s.path)
	if err != nil {
		return err
	}
	c = c.Filter(s.only)

	s.mu.Lock()
	s.cur = c
	s.mu.Unlock()
	return nil
}

func (s *CustomerSet) Get() *config.Customers {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Configured reports whether the customer still has the job.
func (s *CustomerSet) Configured(customer, job string) bool {
	_, _, err := s.Get().Find(customer, job)
	return err == nil
}

// CustomersWatcher reloads the customer set when its file changes and
// asks the harvester for a pass.
type CustomersWatcher struct {
	set      *CustomerSet
	logger   logger.Logger
	trigger  chan<- struct{}
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

func NewCustomersWatcher(set *CustomerSet, log logger.Logger, trigger chan<- struct{}) *CustomersWatcher {
	return &CustomersWatcher{
		set:      set,
		logger:   log,
		trigger:  trigger,
		debounce: DefaultWatchDebounce,
	}
}

// Start watches the directory of the customers file, which also survives
// the file being replaced by rename.
func (cw *CustomersWatcher) Start(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	dir := filepath.Dir(cw.set.Path())
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	cw.watcher = w

	go cw.loop(ctx)
	return nil
}

func (cw *CustomersWatcher) Stop() {
	if cw.watcher != nil {
		_ = cw.watcher.Close()
	}
}

func (cw *CustomersWatcher) loop(ctx context.Context) {
	target := filepath.Clean(cw.set.Path())
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(cw.debounce)
			} else {
				timer.Reset(cw.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			cw.reload()

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Error("customers watcher error", logger.Error(err))
		}
	}
}

func (cw *CustomersWatcher) reload() {
	if err := cw.set.Reload(); err != nil {
		cw.logger.Error("failed to reload customers file, keeping previous",
			logger.String("file", cw.set.Path()),
			logger.Error(err))
		return
	}
	cw.logger.Info("customers file changed, harvest triggered",
		logger.String("file", cw.set.Path()),
		logger.Int("customers", len(cw.set.Get().Customers)))
	Trigger(cw.trigger)
}

// Trigger requests a harvest pass without blocking. It reports false when
// one is already pending.
func Trigger(ch chan<- struct{}) bool {
	select {
	case ch <- struct{}{}:
		return true
	default:
		return false
	}
}
