// Package query filters and orders work items.
//
// Apply and Sort are pure functions of their inputs, so callers can re-run
// them on every read. The query language in this package (see Compile)
// builds predicates for Filter.Match:
//
//	kind=bug AND (severity=critical OR severity=major)
//	NOT status=done AND updated>7d
//	tag=ui OR assignee=none
package query

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/steveyegge/workitems/internal/types"
)

// Apply returns the items of projectID that match f, in input order.
// An empty projectID applies no project scoping.
func Apply(items []*types.WorkItem, projectID string, f types.Filter) []*types.WorkItem {
	out := make([]*types.WorkItem, 0, len(items))
	m := newMatcher()
	for _, item := range items {
		if projectID != "" && item.ProjectID != projectID {
			continue
		}
		if !m.matches(item, f) {
			continue
		}
		out = append(out, item)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

// Matches reports whether item satisfies every criterion of f.
// Limit and project scoping are not considered.
func Matches(item *types.WorkItem, f types.Filter) bool {
	return newMatcher().matches(item, f)
}

// matcher carries a case folder, which must not be shared between goroutines.
type matcher struct {
	fold cases.Caser
}

func newMatcher() *matcher {
	return &matcher{fold: cases.Fold()}
}

func (m *matcher) matches(item *types.WorkItem, f types.Filter) bool {
	if len(f.Statuses) > 0 && !contains(f.Statuses, item.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !contains(f.Priorities, item.Meta.Priority.OrMedium()) {
		return false
	}
	if len(f.Kinds) > 0 && !contains(f.Kinds, item.Kind) {
		return false
	}
	if len(f.Severities) > 0 {
		if item.Bug == nil || !contains(f.Severities, item.Bug.Severity.OrMedium()) {
			return false
		}
	}
	if len(f.Tags) > 0 && !hasAnyTag(item, f.Tags) {
		return false
	}
	if f.Search != "" && !m.search(item, f.Search) {
		return false
	}
	if f.Assignee != "" {
		if item.Meta.Assignee == nil || !strings.EqualFold(*item.Meta.Assignee, f.Assignee) {
			return false
		}
	}
	if len(f.IDs) > 0 && !contains(f.IDs, item.ID) {
		return false
	}
	if f.CreatedAfter != nil && !item.CreatedAt.After(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && !item.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	if f.UpdatedAfter != nil && !item.UpdatedAt.After(*f.UpdatedAfter) {
		return false
	}
	if f.UpdatedBefore != nil && !item.UpdatedAt.Before(*f.UpdatedBefore) {
		return false
	}
	if f.Match != nil && !f.Match(item) {
		return false
	}
	return true
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func hasAnyTag(item *types.WorkItem, tags []string) bool {
	for _, t := range tags {
		if item.HasTag(t) {
			return true
		}
	}
	return false
}

func (m *matcher) search(item *types.WorkItem, search string) bool {
	needle := m.fold.String(search)
	if strings.Contains(m.fold.String(item.Title), needle) || strings.Contains(m.fold.String(item.Content), needle) {
		return true
	}
	for _, tag := range item.Meta.Tags {
		if strings.Contains(m.fold.String(tag), needle) {
			return true
		}
	}
	return false
}

// Sort orders items in place by the given options. The first option is the
// primary key; later options break ties and remaining ties keep input order.
func Sort(items []*types.WorkItem, opts []types.SortOption) {
	if len(opts) == 0 || len(items) < 2 {
		return
	}
	// Folding is done once per item rather than once per comparison.
	var titles map[*types.WorkItem]string
	for _, o := range opts {
		if o.Field == types.SortFieldTitle {
			fold := cases.Fold()
			titles = make(map[*types.WorkItem]string, len(items))
			for _, it := range items {
				titles[it] = fold.String(it.Title)
			}
			break
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		for _, o := range opts {
			c := compare(a, b, o.Field, titles)
			if c == 0 {
				continue
			}
			if o.Direction == types.SortDesc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// Sorted returns a sorted copy of items.
func Sorted(items []*types.WorkItem, opts []types.SortOption) []*types.WorkItem {
	out := append([]*types.WorkItem(nil), items...)
	Sort(out, opts)
	return out
}

func compare(a, b *types.WorkItem, field types.SortField, titles map[*types.WorkItem]string) int {
	switch field {
	case types.SortFieldTitle:
		return strings.Compare(titles[a], titles[b])
	case types.SortFieldPriority:
		return a.Meta.Priority.OrMedium().Rank() - b.Meta.Priority.OrMedium().Rank()
	case types.SortFieldSeverity:
		return SeverityRank(a) - SeverityRank(b)
	case types.SortFieldCreated:
		return a.CreatedAt.Compare(b.CreatedAt)
	case types.SortFieldUpdated:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return 0
}

// SeverityRank is the sort ordinal of an item's severity: 0 for non-bugs,
// medium for bugs with a missing or unknown severity.
func SeverityRank(item *types.WorkItem) int {
	if item.Bug == nil {
		return 0
	}
	return item.Bug.Severity.OrMedium().Rank()
}

// Run filters then sorts, the common path for list views.
func Run(items []*types.WorkItem, projectID string, f types.Filter, opts []types.SortOption) []*types.WorkItem {
	limit := f.Limit
	f.Limit = 0
	out := Apply(items, projectID, f)
	Sort(out, opts)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
