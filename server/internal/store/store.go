package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/obsidianstack/regionstats/server/internal/dataset"
)

// Store holds the dataset table the API answers from. Readers always see a
// complete, immutable table; Replace swaps in a new one atomically.
type Store struct {
	table atomic.Pointer[dataset.Table]
	load  func(path string) (*dataset.Table, error) // injectable for tests
}

// New creates a Store serving t.
func New(t *dataset.Table) *Store {
	s := &Store{load: dataset.LoadFile}
	s.table.Store(t)
	return s
}

// Table returns the current table. Callers must treat it as read-only.
func (s *Store) Table() *dataset.Table {
	return s.table.Load()
}

// Replace swaps in t and returns the previous table.
func (s *Store) Replace(t *dataset.Table) *dataset.Table {
	return s.table.Swap(t)
}

// Watch reloads the dataset at path whenever the file changes and swaps the
// new table in. onReload, if non-nil, is called after each successful swap.
// It runs until ctx is cancelled.
//
// The parent directory is watched so a file replaced by rename is picked up.
// A reload that fails is logged and the previous table stays active.
func (s *Store) Watch(ctx context.Context, path string, onReload func(*dataset.Table)) error {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("store: watch %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("store: watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("store: watch %s: %w", filepath.Dir(path), err)
	}

	slog.Info("store: watching dataset for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			// A rename over the file arrives as Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			s.reload(path, onReload)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("store: watcher error", "err", err)
		}
	}
}

func (s *Store) reload(path string, onReload func(*dataset.Table)) {
	t, err := s.load(path)
	if err != nil {
		slog.Error("store: reload failed, keeping previous dataset", "path", path, "err", err)
		return
	}

	prev := s.Replace(t)
	slog.Info("store: dataset reloaded",
		"path", path,
		"records", t.Len(),
		"regions", len(t.Regions()),
		"previous_records", prev.Len(),
	)
	if onReload != nil {
		onReload(t)
	}
}
