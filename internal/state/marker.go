// Package state records the outcome of every run so operators and the
// status command can see which jobs last succeeded.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/deksa89/argo-connectors/internal/domain"
)

// Marker persists run outcomes.
type Marker interface {
	Write(ctx context.Context, st domain.State) error
}

// Multi writes to every marker and joins the failures.
type Multi []Marker

func (m Multi) Write(ctx context.Context, st domain.State) error {
	var errs []error
	for _, mk := range m {
		if err := mk.Write(ctx, st); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FileMarker keeps one JSON file per customer, job, task and date under dir:
// <dir>/<customer>/<job>/<task>-ok_<YYYY_MM_DD>.json
type FileMarker struct {
	dir string
}

func NewFileMarker(dir string) *FileMarker {
	return &FileMarker{dir: dir}
}

func (f *FileMarker) path(st domain.State) string {
	name := fmt.Sprintf("%s-ok_%s.json", st.Task, strings.ReplaceAll(st.Date, "-", "_"))
	return filepath.Join(f.dir, st.Customer, st.Job, name)
}

// Write replaces the marker atomically.
func (f *FileMarker) Write(_ context.Context, st domain.State) error {
	target := f.path(st)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".state-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to move state file in place: %w", err)
	}
	return nil
}

// Latest returns the most recent marker of every customer/job/task found
// under dir, ordered by key.
func (f *FileMarker) Latest() ([]domain.State, error) {
	latest := make(map[string]domain.State)
	err := filepath.WalkDir(f.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var st domain.State
		if err := json.Unmarshal(data, &st); err != nil {
			return fmt.Errorf("corrupt state file %s: %w", path, err)
		}
		if cur, ok := latest[st.Key()]; !ok || st.At.After(cur.At) {
			latest[st.Key()] = st
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read state dir: %w", err)
	}

	out := make([]domain.State, 0, len(latest))
	for _, st := range latest {
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b domain.State) int { return strings.Compare(a.Key(), b.Key()) })
	return out, nil
}
