package types

import "time"

// Filter selects work items. Empty sets mean no restriction; the criteria are
// ANDed together. Tags match when the item has any of the listed tags.
type Filter struct {
	Statuses   []Status
	Priorities []Priority // missing priority on an item counts as medium
	Kinds      []Kind
	Severities []Severity // non-empty excludes every non-bug item
	Tags       []string
	Search     string // case-insensitive substring of title, content or a tag

	Assignee string
	IDs      []string

	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	UpdatedAfter  *time.Time
	UpdatedBefore *time.Time

	// Match is an extra predicate, typically a compiled query expression.
	Match func(*WorkItem) bool

	Limit int
}

// IsEmpty reports whether the filter places no restriction.
func (f Filter) IsEmpty() bool {
	return len(f.Statuses) == 0 && len(f.Priorities) == 0 && len(f.Kinds) == 0 &&
		len(f.Severities) == 0 && len(f.Tags) == 0 && f.Search == "" && f.Assignee == "" &&
		len(f.IDs) == 0 && f.CreatedAfter == nil && f.CreatedBefore == nil &&
		f.UpdatedAfter == nil && f.UpdatedBefore == nil && f.Match == nil && f.Limit == 0
}
