// Package types defines core data structures for the work item store.
package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// WorkItem is the unifying entity for tasks, features, improvements and bugs.
// Bug is non-nil exactly when Kind is KindBug.
type WorkItem struct {
	ID        string      `json:"id"`
	ProjectID string      `json:"project_id"`
	Title     string      `json:"title"`
	Content   string      `json:"content,omitempty"`
	Kind      Kind        `json:"kind"`
	Status    Status      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Meta      Metadata    `json:"metadata"`
	Bug       *BugDetails `json:"bug,omitempty"`
}

// Metadata holds the attributes shared by every kind.
type Metadata struct {
	Tags          []string `json:"tags,omitempty"`
	Priority      Priority `json:"priority,omitempty"`
	EstimatedTime *float64 `json:"estimated_time,omitempty"` // hours
	ActualTime    *float64 `json:"actual_time,omitempty"`    // hours
	Dependencies  []string `json:"dependencies,omitempty"`
	Assignee      *string  `json:"assignee,omitempty"`
}

// BugDetails holds the bug-only attributes.
type BugDetails struct {
	Severity     Severity   `json:"severity,omitempty"`
	Category     string     `json:"category,omitempty"`
	Source       string     `json:"source,omitempty"`
	Reproduction string     `json:"reproduction,omitempty"`
	Environment  string     `json:"environment,omitempty"`
	ReportedBy   string     `json:"reported_by,omitempty"`
	ResolvedBy   string     `json:"resolved_by,omitempty"`
	DateReported time.Time  `json:"date_reported"`
	DateResolved *time.Time `json:"date_resolved,omitempty"`
	FixCommit    string     `json:"fix_commit,omitempty"`
	TestCase     string     `json:"test_case,omitempty"`
}

// IsBug reports whether the item follows the bug lifecycle.
func (w *WorkItem) IsBug() bool {
	return w.Kind == KindBug
}

// Label returns the human-readable label used in notifications.
func (w *WorkItem) Label() string {
	return w.Kind.Label()
}

// Clone returns a deep copy of the item.
func (w *WorkItem) Clone() *WorkItem {
	if w == nil {
		return nil
	}
	c := *w
	c.Meta = w.Meta.clone()
	if w.Bug != nil {
		b := *w.Bug
		if w.Bug.DateResolved != nil {
			t := *w.Bug.DateResolved
			b.DateResolved = &t
		}
		c.Bug = &b
	}
	return &c
}

func (m Metadata) clone() Metadata {
	c := m
	if m.Tags != nil {
		c.Tags = append([]string(nil), m.Tags...)
	}
	if m.Dependencies != nil {
		c.Dependencies = append([]string(nil), m.Dependencies...)
	}
	if m.EstimatedTime != nil {
		v := *m.EstimatedTime
		c.EstimatedTime = &v
	}
	if m.ActualTime != nil {
		v := *m.ActualTime
		c.ActualTime = &v
	}
	if m.Assignee != nil {
		v := *m.Assignee
		c.Assignee = &v
	}
	return c
}

// HasTag reports whether the item carries tag.
func (w *WorkItem) HasTag(tag string) bool {
	for _, t := range w.Meta.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Validate checks field values and the cross-field invariants.
func (w *WorkItem) Validate() error {
	if strings.TrimSpace(w.ProjectID) == "" {
		return fmt.Errorf("%w: project_id is required", ErrValidation)
	}
	if !w.Kind.IsValid() {
		return fmt.Errorf("%w: invalid kind: %q", ErrValidation, w.Kind)
	}
	if !w.Kind.Allows(w.Status) {
		return fmt.Errorf("%w: status %q is not valid for kind %s", ErrValidation, w.Status, w.Kind)
	}
	if w.Meta.Priority != "" && !w.Meta.Priority.IsValid() {
		return fmt.Errorf("%w: invalid priority: %q", ErrValidation, w.Meta.Priority)
	}
	if w.Meta.EstimatedTime != nil && *w.Meta.EstimatedTime < 0 {
		return fmt.Errorf("%w: estimated_time cannot be negative", ErrValidation)
	}
	if w.Meta.ActualTime != nil && *w.Meta.ActualTime < 0 {
		return fmt.Errorf("%w: actual_time cannot be negative", ErrValidation)
	}
	for _, dep := range w.Meta.Dependencies {
		if dep == w.ID && dep != "" {
			return fmt.Errorf("%w: item cannot depend on itself", ErrValidation)
		}
	}
	if !w.IsBug() {
		if w.Bug != nil {
			return fmt.Errorf("%w: bug details on non-bug kind %s", ErrValidation, w.Kind)
		}
		return nil
	}
	if w.Bug == nil {
		return fmt.Errorf("%w: bug details are required for bugs", ErrValidation)
	}
	if w.Bug.Severity != "" && !w.Bug.Severity.IsValid() {
		return fmt.Errorf("%w: invalid severity: %q", ErrValidation, w.Bug.Severity)
	}
	// date_resolved is only carried by resolved bugs and by bugs closed after a resolve.
	if w.Bug.DateResolved != nil && w.Status != StatusResolved && w.Status != StatusClosed {
		return fmt.Errorf("%w: %s bugs cannot have date_resolved", ErrValidation, w.Status)
	}
	if w.Status == StatusResolved && w.Bug.DateResolved == nil {
		return fmt.Errorf("%w: resolved bugs must have date_resolved", ErrValidation)
	}
	if w.Status == StatusResolved && strings.TrimSpace(w.Bug.ResolvedBy) == "" {
		return fmt.Errorf("%w: resolved bugs must have resolved_by", ErrValidation)
	}
	return nil
}

// Kind is the discriminator selecting the status vocabulary and metadata shape.
type Kind string

// Kind constants
const (
	KindTask        Kind = "task"
	KindBug         Kind = "bug"
	KindFeature     Kind = "feature"
	KindImprovement Kind = "improvement"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindTask, KindBug, KindFeature, KindImprovement}

// IsValid checks if the kind value is valid
func (k Kind) IsValid() bool {
	switch k {
	case KindTask, KindBug, KindFeature, KindImprovement:
		return true
	}
	return false
}

// Label returns "Bug" for bugs and "Task" for every other kind.
func (k Kind) Label() string {
	if k == KindBug {
		return "Bug"
	}
	return "Task"
}

// DefaultStatus is the status assigned on create when the caller gives none.
func (k Kind) DefaultStatus() Status {
	if k == KindBug {
		return StatusOpen
	}
	return StatusTodo
}

// Statuses returns the status vocabulary of the kind.
func (k Kind) Statuses() []Status {
	if k == KindBug {
		return BugStatuses
	}
	return TaskStatuses
}

// Allows reports whether s belongs to the kind's vocabulary.
func (k Kind) Allows(s Status) bool {
	for _, v := range k.Statuses() {
		if v == s {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of a work item.
type Status string

// Status constants. StatusInProgress is shared by both vocabularies.
const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusTesting    Status = "testing"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"

	StatusTodo    Status = "todo"
	StatusReview  Status = "review"
	StatusDone    Status = "done"
	StatusBlocked Status = "blocked"
)

// BugStatuses and TaskStatuses are the two vocabularies, in lifecycle order.
var (
	BugStatuses  = []Status{StatusOpen, StatusInProgress, StatusTesting, StatusResolved, StatusClosed}
	TaskStatuses = []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone, StatusBlocked}
)

// AllStatuses returns the union of both vocabularies without duplicates.
func AllStatuses() []Status {
	return []Status{
		StatusOpen, StatusInProgress, StatusTesting, StatusResolved, StatusClosed,
		StatusTodo, StatusReview, StatusDone, StatusBlocked,
	}
}

// IsValid checks if the status belongs to either vocabulary
func (s Status) IsValid() bool {
	for _, v := range AllStatuses() {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the work on an item.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusClosed || s == StatusDone
}

// Priority is the common urgency scale.
type Priority string

// Priority constants
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists priorities from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// IsValid checks if the priority value is valid
func (p Priority) IsValid() bool {
	return p.Rank() > 0
}

// Rank maps the priority to its ordinal (low=1 .. urgent=4). Unknown values are 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

// OrMedium returns p, or PriorityMedium when p is missing or unknown.
func (p Priority) OrMedium() Priority {
	if p.IsValid() {
		return p
	}
	return PriorityMedium
}

// Severity is the bug-only impact classification.
type Severity string

// Severity constants
const (
	SeverityTrivial  Severity = "trivial"
	SeverityMinor    Severity = "minor"
	SeverityMedium   Severity = "medium"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// Severities lists severities from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityMajor, SeverityMedium, SeverityMinor, SeverityTrivial}

// IsValid checks if the severity value is valid
func (s Severity) IsValid() bool {
	return s.Rank() > 0
}

// Rank maps the severity to its ordinal (trivial=1 .. critical=5). Unknown values are 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityTrivial:
		return 1
	case SeverityMinor:
		return 2
	case SeverityMedium:
		return 3
	case SeverityMajor:
		return 4
	case SeverityCritical:
		return 5
	}
	return 0
}

// OrMedium returns s, or SeverityMedium when s is missing or unknown.
func (s Severity) OrMedium() Severity {
	if s.IsValid() {
		return s
	}
	return SeverityMedium
}

// NormalizeTags trims, de-duplicates and sorts a tag set. Empty tags are dropped.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
