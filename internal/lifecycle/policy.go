package lifecycle

import (
	"fmt"

	"github.com/steveyegge/workitems/internal/types"
)

// Policy decides whether a bug may move between two statuses. Both statuses
// are already known to be in the bug vocabulary and differ.
type Policy interface {
	Check(from, to types.Status) error
}

// Permissive allows every transition.
type Permissive struct{}

// Check always returns nil.
func (Permissive) Check(from, to types.Status) error { return nil }

// strictBugTransitions is the graph enforced by the strict policy.
var strictBugTransitions = map[types.Status]map[types.Status]bool{
	types.StatusOpen: {
		types.StatusInProgress: true,
		types.StatusTesting:    true,
		types.StatusResolved:   true,
		types.StatusClosed:     true,
	},
	types.StatusInProgress: {
		types.StatusOpen:     true,
		types.StatusTesting:  true,
		types.StatusResolved: true,
	},
	types.StatusTesting: {
		types.StatusOpen:       true,
		types.StatusInProgress: true,
		types.StatusResolved:   true,
	},
	types.StatusResolved: {
		types.StatusOpen:       true,
		types.StatusInProgress: true,
		types.StatusClosed:     true,
	},
	types.StatusClosed: {
		types.StatusOpen: true,
	},
}

// Strict enforces an explicit bug transition graph.
type Strict struct{}

// Check returns ErrInvalidTransition for edges outside the graph.
func (Strict) Check(from, to types.Status) error {
	next, ok := strictBugTransitions[from]
	if !ok || !next[to] {
		return fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, from, to)
	}
	return nil
}

// Allowed lists the statuses reachable from from under the strict graph.
func Allowed(from types.Status) []types.Status {
	var out []types.Status
	for _, s := range types.BugStatuses {
		if strictBugTransitions[from][s] {
			out = append(out, s)
		}
	}
	return out
}

// PolicyFor maps the lifecycle.strict setting to a policy.
func PolicyFor(strict bool) Policy {
	if strict {
		return Strict{}
	}
	return Permissive{}
}
