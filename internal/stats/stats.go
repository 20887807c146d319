// Package stats computes summary counts over work item sets.
package stats

import "github.com/steveyegge/workitems/internal/types"

// Aggregate counts items by status, kind, priority and, for bugs, by
// severity and category. Every status of both vocabularies is present in
// ByStatus, so dashboards can render zero buckets. Missing priorities count
// as medium and missing bug severities as medium, matching the sort order.
func Aggregate(items []*types.WorkItem) types.Statistics {
	s := types.Statistics{
		ByStatus:   make(map[types.Status]int),
		ByKind:     make(map[types.Kind]int),
		ByPriority: make(map[types.Priority]int),
		Tasks:      types.TaskStatistics{ByStatus: make(map[types.Status]int)},
		Bugs: types.BugStatistics{
			ByStatus:   make(map[types.Status]int),
			BySeverity: make(map[types.Severity]int),
			ByCategory: make(map[string]int),
		},
	}
	for _, st := range types.AllStatuses() {
		s.ByStatus[st] = 0
	}
	for _, k := range types.Kinds {
		s.ByKind[k] = 0
	}
	for _, p := range types.Priorities {
		s.ByPriority[p] = 0
	}
	for _, st := range types.TaskStatuses {
		s.Tasks.ByStatus[st] = 0
	}
	for _, st := range types.BugStatuses {
		s.Bugs.ByStatus[st] = 0
	}
	for _, sev := range types.Severities {
		s.Bugs.BySeverity[sev] = 0
	}

	var resolutionHours float64
	for _, item := range items {
		s.Total++
		s.ByStatus[item.Status]++
		s.ByKind[item.Kind]++
		s.ByPriority[item.Meta.Priority.OrMedium()]++
		if !item.Status.IsTerminal() {
			s.Open++
		}

		if !item.IsBug() {
			s.Tasks.Total++
			s.Tasks.ByStatus[item.Status]++
			continue
		}

		s.Bugs.Total++
		s.Bugs.ByStatus[item.Status]++
		bug := item.Bug
		if bug == nil {
			bug = &types.BugDetails{}
		}
		s.Bugs.BySeverity[bug.Severity.OrMedium()]++
		category := bug.Category
		if category == "" {
			category = types.UncategorizedBucket
		}
		s.Bugs.ByCategory[category]++

		if bug.DateResolved != nil && !bug.DateReported.IsZero() {
			if d := bug.DateResolved.Sub(bug.DateReported); d >= 0 {
				s.Bugs.Resolved++
				resolutionHours += d.Hours()
			}
		}
	}
	if s.Bugs.Resolved > 0 {
		s.Bugs.AverageResolutionHours = resolutionHours / float64(s.Bugs.Resolved)
	}
	return s
}

// Sum adds up the values of a count map.
func Sum[K comparable](m map[K]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}
