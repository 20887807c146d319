package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/steveyegge/workitems/internal/timeparsing"
	"github.com/steveyegge/workitems/internal/types"
)

// Predicate reports whether an item matches.
type Predicate func(*types.WorkItem) bool

// KnownFields lists the fields that can be queried, with aliases.
var KnownFields = map[string]bool{
	"id":           true,
	"title":        true,
	"content":      true,
	"kind":         true,
	"type":         true, // alias
	"status":       true,
	"priority":     true,
	"severity":     true,
	"tag":          true,
	"tags":         true, // alias
	"assignee":     true,
	"category":     true,
	"source":       true,
	"environment":  true,
	"reported_by":  true,
	"resolved_by":  true,
	"estimated":    true,
	"actual":       true,
	"created":      true,
	"updated":      true,
	"resolved":     true,
	"reported":     true,
	"created_at":   true, // alias
	"updated_at":   true, // alias
	"dependencies": true,
	"depends_on":   true, // alias
}

// Compile parses a query and builds its predicate. Time values are
// resolved against now: "updated>7d" means updated within the last 7 days.
func Compile(input string, now time.Time) (Predicate, error) {
	node, err := Parse(input)
	if err != nil {
		return nil, err
	}
	return (&compiler{now: now}).build(node)
}

type compiler struct {
	now time.Time
}

func (c *compiler) build(node Node) (Predicate, error) {
	switch n := node.(type) {
	case *ComparisonNode:
		return c.comparison(n)
	case *AndNode:
		left, right, err := c.pair(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return func(w *types.WorkItem) bool { return left(w) && right(w) }, nil
	case *OrNode:
		left, right, err := c.pair(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return func(w *types.WorkItem) bool { return left(w) || right(w) }, nil
	case *NotNode:
		operand, err := c.build(n.Operand)
		if err != nil {
			return nil, err
		}
		return func(w *types.WorkItem) bool { return !operand(w) }, nil
	}
	return nil, fmt.Errorf("unexpected node type: %T", node)
}

func (c *compiler) pair(l, r Node) (Predicate, Predicate, error) {
	left, err := c.build(l)
	if err != nil {
		return nil, nil, err
	}
	right, err := c.build(r)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func (c *compiler) comparison(comp *ComparisonNode) (Predicate, error) {
	switch comp.Field {
	case "id":
		return c.idPredicate(comp)
	case "title":
		return containsPredicate(comp, func(w *types.WorkItem) string { return w.Title })
	case "content":
		return containsPredicate(comp, func(w *types.WorkItem) string { return w.Content })
	case "kind", "type":
		kind := types.Kind(strings.ToLower(comp.Value))
		if !kind.IsValid() {
			return nil, fmt.Errorf("invalid kind: %s", comp.Value)
		}
		return equalityPredicate(comp, func(w *types.WorkItem) bool { return w.Kind == kind })
	case "status":
		status := types.Status(strings.ToLower(comp.Value))
		if !status.IsValid() {
			return nil, fmt.Errorf("invalid status: %s", comp.Value)
		}
		return equalityPredicate(comp, func(w *types.WorkItem) bool { return w.Status == status })
	case "priority":
		return c.priorityPredicate(comp)
	case "severity":
		return c.severityPredicate(comp)
	case "tag", "tags":
		return c.listPredicate(comp, func(w *types.WorkItem) []string { return w.Meta.Tags })
	case "dependencies", "depends_on":
		return c.listPredicate(comp, func(w *types.WorkItem) []string { return w.Meta.Dependencies })
	case "assignee":
		return c.assigneePredicate(comp)
	case "category":
		return bugStringPredicate(comp, func(b *types.BugDetails) string { return b.Category })
	case "source":
		return bugStringPredicate(comp, func(b *types.BugDetails) string { return b.Source })
	case "environment":
		return bugStringPredicate(comp, func(b *types.BugDetails) string { return b.Environment })
	case "reported_by":
		return bugStringPredicate(comp, func(b *types.BugDetails) string { return b.ReportedBy })
	case "resolved_by":
		return bugStringPredicate(comp, func(b *types.BugDetails) string { return b.ResolvedBy })
	case "estimated":
		return c.hoursPredicate(comp, func(w *types.WorkItem) *float64 { return w.Meta.EstimatedTime })
	case "actual":
		return c.hoursPredicate(comp, func(w *types.WorkItem) *float64 { return w.Meta.ActualTime })
	case "created", "created_at":
		return c.timePredicate(comp, func(w *types.WorkItem) *time.Time { return &w.CreatedAt })
	case "updated", "updated_at":
		return c.timePredicate(comp, func(w *types.WorkItem) *time.Time { return &w.UpdatedAt })
	case "reported":
		return c.timePredicate(comp, func(w *types.WorkItem) *time.Time {
			if w.Bug == nil {
				return nil
			}
			return &w.Bug.DateReported
		})
	case "resolved":
		return c.timePredicate(comp, func(w *types.WorkItem) *time.Time {
			if w.Bug == nil {
				return nil
			}
			return w.Bug.DateResolved
		})
	}
	return nil, fmt.Errorf("unknown field: %s", comp.Field)
}

func isNone(v string) bool {
	v = strings.ToLower(v)
	return v == "" || v == "none" || v == "null"
}

func equalityPredicate(comp *ComparisonNode, eq Predicate) (Predicate, error) {
	switch comp.Op {
	case OpEquals:
		return eq, nil
	case OpNotEquals:
		return func(w *types.WorkItem) bool { return !eq(w) }, nil
	}
	return nil, fmt.Errorf("%s does not support %s operator", comp.Field, comp.Op)
}

func containsPredicate(comp *ComparisonNode, get func(*types.WorkItem) string) (Predicate, error) {
	needle := strings.ToLower(comp.Value)
	return equalityPredicate(comp, func(w *types.WorkItem) bool {
		return strings.Contains(strings.ToLower(get(w)), needle)
	})
}

func bugStringPredicate(comp *ComparisonNode, get func(*types.BugDetails) string) (Predicate, error) {
	value := comp.Value
	none := isNone(value)
	return equalityPredicate(comp, func(w *types.WorkItem) bool {
		if w.Bug == nil {
			return false
		}
		if none {
			return get(w.Bug) == ""
		}
		return strings.EqualFold(get(w.Bug), value)
	})
}

func (c *compiler) idPredicate(comp *ComparisonNode) (Predicate, error) {
	if prefix, ok := strings.CutSuffix(comp.Value, "*"); ok {
		return equalityPredicate(comp, func(w *types.WorkItem) bool { return strings.HasPrefix(w.ID, prefix) })
	}
	value := comp.Value
	return equalityPredicate(comp, func(w *types.WorkItem) bool { return w.ID == value })
}

func (c *compiler) assigneePredicate(comp *ComparisonNode) (Predicate, error) {
	value := comp.Value
	if isNone(value) {
		return equalityPredicate(comp, func(w *types.WorkItem) bool {
			return w.Meta.Assignee == nil || *w.Meta.Assignee == ""
		})
	}
	return equalityPredicate(comp, func(w *types.WorkItem) bool {
		return w.Meta.Assignee != nil && strings.EqualFold(*w.Meta.Assignee, value)
	})
}

func (c *compiler) listPredicate(comp *ComparisonNode, get func(*types.WorkItem) []string) (Predicate, error) {
	value := comp.Value
	if isNone(value) {
		return equalityPredicate(comp, func(w *types.WorkItem) bool { return len(get(w)) == 0 })
	}
	return equalityPredicate(comp, func(w *types.WorkItem) bool {
		for _, v := range get(w) {
			if strings.EqualFold(v, value) {
				return true
			}
		}
		return false
	})
}

// priorityPredicate accepts names (high) or ordinals (3). Missing priority
// compares as medium.
func (c *compiler) priorityPredicate(comp *ComparisonNode) (Predicate, error) {
	target, err := parseRank(comp.Value, 4, func(s string) int { return types.Priority(s).Rank() })
	if err != nil {
		return nil, fmt.Errorf("invalid priority: %s", comp.Value)
	}
	return rankPredicate(comp, target, func(w *types.WorkItem) (int, bool) {
		return w.Meta.Priority.OrMedium().Rank(), true
	})
}

// severityPredicate never matches non-bugs, whatever the operator.
func (c *compiler) severityPredicate(comp *ComparisonNode) (Predicate, error) {
	target, err := parseRank(comp.Value, 5, func(s string) int { return types.Severity(s).Rank() })
	if err != nil {
		return nil, fmt.Errorf("invalid severity: %s", comp.Value)
	}
	return rankPredicate(comp, target, func(w *types.WorkItem) (int, bool) {
		if w.Bug == nil {
			return 0, false
		}
		return w.Bug.Severity.OrMedium().Rank(), true
	})
}

func parseRank(value string, max int, byName func(string) int) (int, error) {
	if r := byName(strings.ToLower(value)); r > 0 {
		return r, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > max {
		return 0, fmt.Errorf("out of range")
	}
	return n, nil
}

func rankPredicate(comp *ComparisonNode, target int, get func(*types.WorkItem) (int, bool)) (Predicate, error) {
	cmp, err := intComparator(comp.Op)
	if err != nil {
		return nil, err
	}
	return func(w *types.WorkItem) bool {
		v, ok := get(w)
		return ok && cmp(v, target)
	}, nil
}

func intComparator(op ComparisonOp) (func(a, b int) bool, error) {
	switch op {
	case OpEquals:
		return func(a, b int) bool { return a == b }, nil
	case OpNotEquals:
		return func(a, b int) bool { return a != b }, nil
	case OpLess:
		return func(a, b int) bool { return a < b }, nil
	case OpLessEq:
		return func(a, b int) bool { return a <= b }, nil
	case OpGreater:
		return func(a, b int) bool { return a > b }, nil
	case OpGreaterEq:
		return func(a, b int) bool { return a >= b }, nil
	}
	return nil, fmt.Errorf("unexpected operator: %s", op)
}

// hoursPredicate compares a nullable number of hours. Items without a value
// only match "=none" and "!=" comparisons against a number.
func (c *compiler) hoursPredicate(comp *ComparisonNode, get func(*types.WorkItem) *float64) (Predicate, error) {
	if isNone(comp.Value) {
		return equalityPredicate(comp, func(w *types.WorkItem) bool { return get(w) == nil })
	}
	target, err := strconv.ParseFloat(comp.Value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s hours: %s", comp.Field, comp.Value)
	}
	var cmp func(a, b float64) bool
	switch comp.Op {
	case OpEquals:
		cmp = func(a, b float64) bool { return a == b }
	case OpNotEquals:
		return func(w *types.WorkItem) bool {
			v := get(w)
			return v == nil || *v != target
		}, nil
	case OpLess:
		cmp = func(a, b float64) bool { return a < b }
	case OpLessEq:
		cmp = func(a, b float64) bool { return a <= b }
	case OpGreater:
		cmp = func(a, b float64) bool { return a > b }
	case OpGreaterEq:
		cmp = func(a, b float64) bool { return a >= b }
	}
	return func(w *types.WorkItem) bool {
		v := get(w)
		return v != nil && cmp(*v, target)
	}, nil
}

// timePredicate compares timestamps. Durations count back from now, so
// "updated>7d" keeps items touched in the last week. Equality is by day.
func (c *compiler) timePredicate(comp *ComparisonNode, get func(*types.WorkItem) *time.Time) (Predicate, error) {
	if isNone(comp.Value) && comp.ValueType != TokenString {
		return equalityPredicate(comp, func(w *types.WorkItem) bool {
			t := get(w)
			return t == nil || t.IsZero()
		})
	}
	var target time.Time
	var err error
	if comp.ValueType == TokenDuration {
		target, err = timeparsing.ParseAgo(comp.Value, c.now)
	} else {
		target, err = timeparsing.ParseRelativeTime(comp.Value, c.now)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s time: %w", comp.Field, err)
	}
	return func(w *types.WorkItem) bool {
		t := get(w)
		if t == nil || t.IsZero() {
			return false
		}
		return compareTime(comp.Op, *t, target)
	}, nil
}

func compareTime(op ComparisonOp, actual, target time.Time) bool {
	sameDay := actual.Year() == target.Year() && actual.YearDay() == target.YearDay()
	switch op {
	case OpEquals:
		return sameDay
	case OpNotEquals:
		return !sameDay
	case OpLess:
		return actual.Before(target)
	case OpLessEq:
		return !actual.After(target)
	case OpGreater:
		return actual.After(target)
	case OpGreaterEq:
		return !actual.Before(target)
	}
	return false
}
