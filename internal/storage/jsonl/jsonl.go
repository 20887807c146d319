// Package jsonl implements storage.Adapter over one JSONL file per project.
//
// Layout: <dir>/<project>.jsonl, one JSON work item per line in stored
// order. Every write replaces the file through a temp file and rename while
// holding an exclusive flock on <dir>/.lock, so readers never observe a
// partial file and concurrent wi processes do not lose updates.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/steveyegge/workitems/internal/debug"
	"github.com/steveyegge/workitems/internal/storage"
	"github.com/steveyegge/workitems/internal/types"
)

const (
	fileExt  = ".jsonl"
	lockName = ".lock"

	// DefaultLockTimeout bounds how long a write waits for the directory lock.
	DefaultLockTimeout = 5 * time.Second

	maxLineSize = 4 * 1024 * 1024
)

// Store is a directory of project files.
type Store struct {
	dir         string
	lockTimeout time.Duration
	debounce    time.Duration

	mu sync.Mutex // serializes writers inside this process
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout sets the maximum wait for the directory lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithDebounce sets how long Watch waits for a burst of file events to settle.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// New opens (and creates if needed) the data directory and removes temp
// files left by writes that never reached their rename.
func New(dir string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: jsonl data directory is required", types.ErrValidation)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	s := &Store{
		dir:         dir,
		lockTimeout: DefaultLockTimeout,
		debounce:    200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	if removed := removeStaleTemps(dir, staleTempAge, time.Now()); len(removed) > 0 {
		debug.Logf("jsonl: removed %d stale temp file(s) from %s\n", len(removed), dir)
	}
	return s, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file backing projectID.
func (s *Store) Path(projectID string) string {
	return filepath.Join(s.dir, projectID+fileExt)
}

// LoadItems implements storage.Adapter. A missing file is an empty project.
func (s *Store) LoadItems(ctx context.Context, projectID string) ([]*types.WorkItem, error) {
	if err := storage.ValidateProjectID(projectID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items, err := s.read(projectID)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// SaveItem implements storage.Adapter. An existing item keeps its position;
// a new one is appended.
func (s *Store) SaveItem(ctx context.Context, projectID string, item *types.WorkItem) error {
	if item == nil {
		return fmt.Errorf("%w: nil item", types.ErrValidation)
	}
	return s.modify(ctx, projectID, func(items []*types.WorkItem) []*types.WorkItem {
		for i, existing := range items {
			if existing.ID == item.ID {
				items[i] = item
				return items
			}
		}
		return append(items, item)
	})
}

// SaveItems implements storage.Adapter.
func (s *Store) SaveItems(ctx context.Context, projectID string, items []*types.WorkItem) error {
	return s.modify(ctx, projectID, func([]*types.WorkItem) []*types.WorkItem {
		return items
	})
}

// DeleteItem implements storage.ItemDeleter.
func (s *Store) DeleteItem(ctx context.Context, projectID, id string) error {
	return s.modify(ctx, projectID, func(items []*types.WorkItem) []*types.WorkItem {
		out := items[:0]
		for _, existing := range items {
			if existing.ID != id {
				out = append(out, existing)
			}
		}
		return out
	})
}

// ListProjects implements storage.ProjectLister.
func (s *Store) ListProjects(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		id := strings.TrimSuffix(name, fileExt)
		if storage.ValidateProjectID(id) == nil {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) modify(ctx context.Context, projectID string, fn func([]*types.WorkItem) []*types.WorkItem) error {
	if err := storage.ValidateProjectID(projectID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	items, err := s.read(projectID)
	if err != nil {
		return err
	}
	return s.write(projectID, fn(items))
}

func (s *Store) read(projectID string) ([]*types.WorkItem, error) {
	path := s.Path(projectID)
	f, err := os.Open(path) // #nosec G304 - path built from a validated project id
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*types.WorkItem{}, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	items := []*types.WorkItem{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var item types.WorkItem
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		if item.ID == "" {
			return nil, fmt.Errorf("%s:%d: item without id", path, lineNo)
		}
		items = append(items, &item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}

	items, dropped := dedupe(items)
	if dropped > 0 {
		debug.Logf("jsonl: %s: dropped %d duplicate line(s)\n", path, dropped)
	}
	return items, nil
}

// write atomically replaces the project file. Writing an empty project
// removes the file.
func (s *Store) write(projectID string, items []*types.WorkItem) error {
	path := s.Path(projectID)
	if len(items) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		return nil
	}

	tempFile, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() {
		_ = tempFile.Close()
		_ = os.Remove(tempPath) // no-op after a successful rename
	}()

	w := bufio.NewWriter(tempFile)
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("failed to encode item %s: %w", item.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
