package jsonl

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/steveyegge/workitems/internal/debug"
	"github.com/steveyegge/workitems/internal/storage"
)

// Watch calls fn after the project's file changes on disk, until ctx is
// done. Bursts of events are collapsed into one call. The directory is
// watched rather than the file because writes replace the file by rename.
func (s *Store) Watch(ctx context.Context, projectID string, fn func()) error {
	if err := storage.ValidateProjectID(projectID); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }() // Best effort cleanup

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("error watching directory: %w", err)
	}

	target := filepath.Base(s.Path(projectID))
	var (
		mu            sync.Mutex
		debounceTimer *time.Timer
	)
	defer func() {
		mu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			mu.Lock()
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(s.debounce, func() {
				if ctx.Err() == nil {
					fn()
				}
			})
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			debug.Logf("jsonl: watcher error: %v\n", err)
		}
	}
}
