// Package watcher re-runs exports when a snapshot-file store changes on disk.
// Only file-backed stores are watchable; a bolt store has no local files to
// observe.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rdswitchboard/graph-exporter/pkg/logging"
)

// ChangeEvent represents a batch of snapshot file changes
type ChangeEvent struct {
	Paths     []string
	Timestamp time.Time
}

// SnapshotWatcher watches a snapshot file for changes
type SnapshotWatcher struct {
	watcher  *fsnotify.Watcher
	snapshot string
	events   chan ChangeEvent
	done     chan struct{}
	mu       sync.Mutex
}

// NewSnapshotWatcher creates a watcher for the given snapshot file path
func NewSnapshotWatcher(snapshot string) (*SnapshotWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &SnapshotWatcher{
		watcher:  watcher,
		snapshot: snapshot,
		events:   make(chan ChangeEvent, 100),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching for snapshot changes. The containing directory is
// watched rather than the file itself so atomic replace (write + rename)
// is observed.
func (sw *SnapshotWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(sw.snapshot)
	if err := sw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	logging.Info("watching snapshot", "path", sw.snapshot)
	go sw.processEvents(ctx)
	return nil
}

// processEvents filters directory events down to the snapshot file
func (sw *SnapshotWatcher) processEvents(ctx context.Context) {
	target := filepath.Clean(sw.snapshot)

	for {
		select {
		case <-ctx.Done():
			sw.watcher.Close()
			close(sw.events)
			close(sw.done)
			return

		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			sw.events <- ChangeEvent{
				Paths:     []string{event.Name},
				Timestamp: time.Now(),
			}

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (sw *SnapshotWatcher) Events() <-chan ChangeEvent {
	return sw.events
}

// Stop stops the watcher
func (sw *SnapshotWatcher) Stop() error {
	close(sw.done)
	return sw.watcher.Close()
}
