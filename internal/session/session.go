// Package session holds state shared between the store and its callers for
// the lifetime of one process: the last successful save and the current
// selection.
package session

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// State is safe for concurrent use.
type State struct {
	lastSaved atomic.Pointer[time.Time]

	mu       sync.RWMutex
	selected map[string]bool
}

// New returns an empty session.
func New() *State {
	return &State{selected: make(map[string]bool)}
}

// Touch records a successful save at t. Earlier timestamps are ignored so
// the value never moves backwards.
func (s *State) Touch(t time.Time) {
	for {
		cur := s.lastSaved.Load()
		if cur != nil && !t.After(*cur) {
			return
		}
		if s.lastSaved.CompareAndSwap(cur, &t) {
			return
		}
	}
}

// LastSaved returns the time of the last successful save.
func (s *State) LastSaved() (time.Time, bool) {
	t := s.lastSaved.Load()
	if t == nil {
		return time.Time{}, false
	}
	return *t, true
}

// Select adds ids to the selection.
func (s *State) Select(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.selected[id] = true
	}
}

// Deselect removes ids from the selection.
func (s *State) Deselect(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.selected, id)
	}
}

// ClearSelection empties the selection.
func (s *State) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[string]bool)
}

// IsSelected reports whether id is selected.
func (s *State) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected[id]
}

// Selected returns the selected ids in sorted order.
func (s *State) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.selected))
	for id := range s.selected {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
