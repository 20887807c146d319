// Package lifecycle implements status transitions and their side effects.
//
// Non-bug kinds may move freely within their vocabulary. Bug transitions keep
// the resolution fields consistent: entering resolved stamps date_resolved
// and requires a resolver, and leaving the resolved/closed pair for any other
// status clears both fields in the same mutation.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/steveyegge/workitems/internal/types"
)

// Change classifies what a transition did.
type Change string

// Change constants
const (
	ChangeNone     Change = ""
	ChangeMoved    Change = "moved"
	ChangeResolved Change = "resolved"
	ChangeClosed   Change = "closed"
	ChangeReopened Change = "reopened"
)

// Machine applies status transitions.
type Machine struct {
	policy          Policy
	defaultResolver string
}

// Option configures a Machine.
type Option func(*Machine)

// WithPolicy sets the bug transition policy.
func WithPolicy(p Policy) Option {
	return func(m *Machine) {
		if p != nil {
			m.policy = p
		}
	}
}

// WithDefaultResolver sets the resolver used when a resolve names nobody.
func WithDefaultResolver(actor string) Option {
	return func(m *Machine) { m.defaultResolver = actor }
}

// New returns a permissive machine unless configured otherwise.
func New(opts ...Option) *Machine {
	m := &Machine{policy: Permissive{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Transition moves item to status to. from is the status before the update,
// or empty when the item was not a bug before it. The resolver for a resolve
// is taken from item.Bug.ResolvedBy (already merged from the patch), then the
// default resolver. On error the item must be discarded.
func (m *Machine) Transition(item *types.WorkItem, from, to types.Status, now time.Time) (Change, error) {
	if !item.Kind.Allows(to) {
		return ChangeNone, fmt.Errorf("%w: status %q is not valid for kind %s", types.ErrValidation, to, item.Kind)
	}
	if !item.IsBug() {
		item.Status = to
		if from == to {
			return ChangeNone, nil
		}
		return ChangeMoved, nil
	}
	if item.Bug == nil {
		item.Bug = &types.BugDetails{}
	}

	if from == to {
		if to != types.StatusResolved && to != types.StatusClosed {
			item.Bug.DateResolved = nil
			item.Bug.ResolvedBy = ""
		}
		return ChangeNone, nil
	}
	if from != "" {
		if err := m.policy.Check(from, to); err != nil {
			return ChangeNone, err
		}
	}

	change := ChangeMoved
	switch to {
	case types.StatusResolved:
		if item.Bug.ResolvedBy == "" {
			item.Bug.ResolvedBy = m.defaultResolver
		}
		if item.Bug.ResolvedBy == "" {
			return ChangeNone, fmt.Errorf("%w: resolving %s requires resolved_by", types.ErrInvalidTransition, item.ID)
		}
		resolved := now
		item.Bug.DateResolved = &resolved
		change = ChangeResolved
	case types.StatusClosed:
		// Resolution fields are kept from a prior resolve; closing without one leaves them empty.
		if from != types.StatusResolved {
			item.Bug.DateResolved = nil
			item.Bug.ResolvedBy = ""
		}
		change = ChangeClosed
	default:
		if from == types.StatusResolved || from == types.StatusClosed {
			change = ChangeReopened
		}
		item.Bug.DateResolved = nil
		item.Bug.ResolvedBy = ""
	}
	item.Status = to
	return change, nil
}

// IsReopen reports whether moving from from to to reopens a bug.
func IsReopen(from, to types.Status) bool {
	return (from == types.StatusResolved || from == types.StatusClosed) &&
		to != types.StatusResolved && to != types.StatusClosed
}
