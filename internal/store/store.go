// Package store owns the canonical in-memory collection of work items.
//
// The Store is the only writer. Every mutation is validated, handed to the
// persistence adapter, and committed to memory only after the adapter
// accepted it, so a failed save never leaves a half-applied item behind.
// Successful and failed mutations both emit a notify.Event; successful ones
// also touch the session's last-saved timestamp.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/steveyegge/workitems/internal/lifecycle"
	"github.com/steveyegge/workitems/internal/notify"
	"github.com/steveyegge/workitems/internal/session"
	"github.com/steveyegge/workitems/internal/storage"
	"github.com/steveyegge/workitems/internal/templates"
	"github.com/steveyegge/workitems/internal/types"
)

// Store is the work item store. The zero value is not usable; call New.
type Store struct {
	adapter  storage.Adapter
	sink     notify.Sink
	session  *session.State
	defaults templates.Defaults
	machine  *lifecycle.Machine
	now      func() time.Time
	newID    func() string

	actor  string
	policy lifecycle.Policy

	// writeMu serializes mutations end to end, including the adapter call.
	writeMu sync.Mutex

	// mu guards the collection. It is write-locked only to commit.
	mu       sync.RWMutex
	projects map[string][]*types.WorkItem
	owner    map[string]string // item id -> project id
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithActor sets the default resolver for bugs resolved without one.
func WithActor(actor string) Option {
	return func(s *Store) { s.actor = actor }
}

// WithPolicy sets the bug transition policy.
func WithPolicy(p lifecycle.Policy) Option {
	return func(s *Store) { s.policy = p }
}

// WithSink sets the notification sink.
func WithSink(sink notify.Sink) Option {
	return func(s *Store) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithSession shares session state with the caller.
func WithSession(st *session.State) Option {
	return func(s *Store) {
		if st != nil {
			s.session = st
		}
	}
}

// WithDefaults sets the per-kind defaults merged on create.
func WithDefaults(d templates.Defaults) Option {
	return func(s *Store) {
		if d != nil {
			s.defaults = d
		}
	}
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New returns an empty store backed by adapter. Call Load to populate it.
func New(adapter storage.Adapter, opts ...Option) *Store {
	s := &Store{
		adapter:  adapter,
		sink:     notify.Discard,
		session:  session.New(),
		defaults: templates.Builtin(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		projects: make(map[string][]*types.WorkItem),
		owner:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.machine = lifecycle.New(lifecycle.WithPolicy(s.policy), lifecycle.WithDefaultResolver(s.actor))
	return s
}

// Session returns the session state the store updates.
func (s *Store) Session() *session.State {
	return s.session
}

// Adapter returns the persistence adapter.
func (s *Store) Adapter() storage.Adapter {
	return s.adapter
}

// Get returns a copy of the item with id.
func (s *Store) Get(id string) (*types.WorkItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, _ := s.lookup(id)
	if item == nil {
		return nil, fmt.Errorf("%w: work item %s", types.ErrNotFound, id)
	}
	return item.Clone(), nil
}

// Items returns copies of the items of projectID in stored order.
// An empty projectID returns every loaded project, ordered by project id.
func (s *Store) Items(projectID string) []*types.WorkItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.snapshot(projectID))
}

// Projects lists the loaded project ids.
func (s *Store) Projects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.projects))
	for id := range s.projects {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// snapshot returns the live items of projectID; callers hold mu.
func (s *Store) snapshot(projectID string) []*types.WorkItem {
	if projectID != "" {
		return s.projects[projectID]
	}
	ids := make([]string, 0, len(s.projects))
	for id := range s.projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []*types.WorkItem
	for _, id := range ids {
		out = append(out, s.projects[id]...)
	}
	return out
}

// lookup finds the live item and its index; callers hold mu.
func (s *Store) lookup(id string) (*types.WorkItem, int) {
	project, ok := s.owner[id]
	if !ok {
		return nil, -1
	}
	for i, item := range s.projects[project] {
		if item.ID == id {
			return item, i
		}
	}
	return nil, -1
}

// commitPut replaces or appends item in its project.
func (s *Store) commitPut(item *types.WorkItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.projects[item.ProjectID]
	if _, i := s.lookup(item.ID); i >= 0 {
		next := make([]*types.WorkItem, len(list))
		copy(next, list)
		next[i] = item
		s.projects[item.ProjectID] = next
		return
	}
	next := make([]*types.WorkItem, len(list), len(list)+1)
	copy(next, list)
	s.projects[item.ProjectID] = append(next, item)
	s.owner[item.ID] = item.ProjectID
}

// commitRemove drops id from its project.
func (s *Store) commitRemove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	project := s.owner[id]
	list := s.projects[project]
	next := make([]*types.WorkItem, 0, len(list))
	for _, item := range list {
		if item.ID != id {
			next = append(next, item)
		}
	}
	s.projects[project] = next
	delete(s.owner, id)
}

func cloneAll(items []*types.WorkItem) []*types.WorkItem {
	out := make([]*types.WorkItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

func (s *Store) emit(ctx context.Context, e notify.Event) {
	if e.At.IsZero() {
		e.At = s.now()
	}
	s.sink.Notify(ctx, e)
}

func (s *Store) succeeded(ctx context.Context, op notify.Op, item *types.WorkItem, message string) {
	s.session.Touch(s.now())
	s.emit(ctx, notify.Event{
		Severity: notify.SeveritySuccess,
		Title:    item.Label(),
		Message:  message,
		Op:       op,
		ItemID:   item.ID,
		Kind:     string(item.Kind),
		Project:  item.ProjectID,
	})
}

func (s *Store) failed(ctx context.Context, op notify.Op, kind types.Kind, id, project string, err error) error {
	s.emit(ctx, notify.Event{
		Severity: notify.SeverityError,
		Title:    kind.Label(),
		Message:  err.Error(),
		Op:       op,
		ItemID:   id,
		Kind:     string(kind),
		Project:  project,
	})
	return err
}

func persistErr(action, id string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", types.ErrPersistence, action, id, err)
}
