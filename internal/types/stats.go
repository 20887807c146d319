package types

// Statistics provides aggregate counts over a work item set.
type Statistics struct {
	Total      int              `json:"total"`
	Open       int              `json:"open"`
	ByStatus   map[Status]int   `json:"by_status"`
	ByKind     map[Kind]int     `json:"by_kind"`
	ByPriority map[Priority]int `json:"by_priority"`
	Tasks      TaskStatistics   `json:"tasks"`
	Bugs       BugStatistics    `json:"bugs"`
}

// TaskStatistics counts the non-bug kinds.
type TaskStatistics struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
}

// BugStatistics counts bugs only.
type BugStatistics struct {
	Total                  int              `json:"total"`
	ByStatus               map[Status]int   `json:"by_status"`
	BySeverity             map[Severity]int `json:"by_severity"`
	ByCategory             map[string]int   `json:"by_category"`
	Resolved               int              `json:"resolved"`
	AverageResolutionHours float64          `json:"average_resolution_hours"`
}

// UncategorizedBucket is the category key for bugs with no category.
const UncategorizedBucket = "uncategorized"
