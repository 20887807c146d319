// Package memory implements storage.Adapter in process memory.
//
// Besides ephemeral CLI runs (backend "memory") it is the adapter used by
// store tests, so it records calls and can be told to fail.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/steveyegge/workitems/internal/storage"
	"github.com/steveyegge/workitems/internal/types"
)

// Op names an adapter method for failure injection and call counting.
type Op string

// Op constants
const (
	OpLoad    Op = "LoadItems"
	OpSave    Op = "SaveItem"
	OpSaveAll Op = "SaveItems"
	OpDelete  Op = "DeleteItem"
)

// MemoryStorage keeps items per project. Stored items are deep copies; callers
// never share memory with the adapter.
type MemoryStorage struct {
	mu       sync.RWMutex
	projects map[string][]*types.WorkItem
	failures map[Op]error
	calls    map[Op]int
	noDelete bool
}

// Option configures a MemoryStorage.
type Option func(*MemoryStorage)

// WithoutDelete hides DeleteItem so callers fall back to SaveItems.
func WithoutDelete() Option {
	return func(m *MemoryStorage) { m.noDelete = true }
}

// New returns an empty adapter. When WithoutDelete is given the result does
// not implement storage.ItemDeleter.
func New(opts ...Option) storage.Adapter {
	m := NewMemoryStorage(opts...)
	if m.noDelete {
		return saveOnly{m}
	}
	return m
}

// NewMemoryStorage returns the concrete adapter.
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	m := &MemoryStorage{
		projects: make(map[string][]*types.WorkItem),
		failures: make(map[Op]error),
		calls:    make(map[Op]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Fail makes every subsequent call of op return err. A nil err clears it.
func (m *MemoryStorage) Fail(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Calls returns how many times op was invoked, including failed calls.
func (m *MemoryStorage) Calls(op Op) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// Seed replaces a project's items without counting a call.
func (m *MemoryStorage) Seed(projectID string, items ...*types.WorkItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[projectID] = cloneAll(items)
}

// Snapshot returns a copy of what is stored for projectID.
func (m *MemoryStorage) Snapshot(projectID string) []*types.WorkItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneAll(m.projects[projectID])
}

func (m *MemoryStorage) begin(ctx context.Context, op Op) error {
	m.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.failures[op]
}

// LoadItems implements storage.Adapter.
func (m *MemoryStorage) LoadItems(ctx context.Context, projectID string) ([]*types.WorkItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpLoad); err != nil {
		return nil, err
	}
	out := cloneAll(m.projects[projectID])
	if out == nil {
		out = []*types.WorkItem{}
	}
	return out, nil
}

// SaveItem implements storage.Adapter.
func (m *MemoryStorage) SaveItem(ctx context.Context, projectID string, item *types.WorkItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpSave); err != nil {
		return err
	}
	items := m.projects[projectID]
	for i, existing := range items {
		if existing.ID == item.ID {
			items[i] = item.Clone()
			return nil
		}
	}
	m.projects[projectID] = append(items, item.Clone())
	return nil
}

// SaveItems implements storage.Adapter.
func (m *MemoryStorage) SaveItems(ctx context.Context, projectID string, items []*types.WorkItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpSaveAll); err != nil {
		return err
	}
	m.projects[projectID] = cloneAll(items)
	return nil
}

// DeleteItem implements storage.ItemDeleter. Deleting an unknown id is a no-op.
func (m *MemoryStorage) DeleteItem(ctx context.Context, projectID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, OpDelete); err != nil {
		return err
	}
	items := m.projects[projectID]
	for i, existing := range items {
		if existing.ID == id {
			m.projects[projectID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

// ListProjects implements storage.ProjectLister.
func (m *MemoryStorage) ListProjects(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.projects))
	for id, items := range m.projects {
		if len(items) > 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func cloneAll(items []*types.WorkItem) []*types.WorkItem {
	if items == nil {
		return nil
	}
	out := make([]*types.WorkItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// saveOnly exposes only the required adapter methods.
type saveOnly struct{ m *MemoryStorage }

func (s saveOnly) LoadItems(ctx context.Context, projectID string) ([]*types.WorkItem, error) {
	return s.m.LoadItems(ctx, projectID)
}

func (s saveOnly) SaveItem(ctx context.Context, projectID string, item *types.WorkItem) error {
	return s.m.SaveItem(ctx, projectID, item)
}

func (s saveOnly) SaveItems(ctx context.Context, projectID string, items []*types.WorkItem) error {
	return s.m.SaveItems(ctx, projectID, items)
}

// Unwrap returns the underlying adapter.
func (s saveOnly) Unwrap() *MemoryStorage { return s.m }
