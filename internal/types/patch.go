package types

import (
	"fmt"
	"strings"
	"time"
)

// Null is a patch value for nullable fields. The zero value leaves the field
// untouched, Some sets it, None clears it.
type Null[T any] struct {
	Value T
	Valid bool
	Set   bool
}

// Some returns a Null that sets the field to v.
func Some[T any](v T) Null[T] {
	return Null[T]{Value: v, Valid: true, Set: true}
}

// None returns a Null that clears the field.
func None[T any]() Null[T] {
	return Null[T]{Set: true}
}

func (n Null[T]) applyTo(dst **T) {
	if !n.Set {
		return
	}
	if !n.Valid {
		*dst = nil
		return
	}
	v := n.Value
	*dst = &v
}

// Patch is a partial update. Nil fields are left unchanged. Status is not
// applied by Apply; the lifecycle machine owns status changes.
type Patch struct {
	Title   *string
	Content *string
	Kind    *Kind
	Status  *Status
	Meta    *MetadataPatch
	Bug     *BugPatch
}

// MetadataPatch merges into Metadata field by field.
type MetadataPatch struct {
	Tags          *[]string
	Priority      *Priority
	EstimatedTime Null[float64]
	ActualTime    Null[float64]
	Dependencies  *[]string
	Assignee      Null[string]
}

// BugPatch merges into BugDetails field by field.
type BugPatch struct {
	Severity     *Severity
	Category     *string
	Source       *string
	Reproduction *string
	Environment  *string
	ReportedBy   *string
	ResolvedBy   *string
	DateReported *time.Time
	FixCommit    *string
	TestCase     *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Kind == nil && p.Status == nil && p.Meta == nil && p.Bug == nil
}

// StatusPatch returns a patch that only changes status.
func StatusPatch(s Status) Patch {
	return Patch{Status: &s}
}

// Apply merges every field except Status into w. It reports whether the
// kind crossed the bug boundary, in which case bug details were created
// empty or dropped and the caller must reconcile status and defaults.
func (p Patch) Apply(w *WorkItem) (kindChanged bool) {
	if p.Title != nil {
		w.Title = *p.Title
	}
	if p.Content != nil {
		w.Content = *p.Content
	}
	if p.Kind != nil && *p.Kind != w.Kind {
		wasBug := w.IsBug()
		w.Kind = *p.Kind
		if w.IsBug() != wasBug {
			kindChanged = true
			if w.IsBug() {
				w.Bug = &BugDetails{}
			} else {
				w.Bug = nil
			}
		}
	}
	if p.Meta != nil {
		p.Meta.applyTo(&w.Meta)
	}
	if p.Bug != nil && w.Bug != nil {
		p.Bug.applyTo(w.Bug)
	}
	return kindChanged
}

func (m *MetadataPatch) applyTo(dst *Metadata) {
	if m.Tags != nil {
		dst.Tags = NormalizeTags(*m.Tags)
	}
	if m.Priority != nil {
		dst.Priority = *m.Priority
	}
	m.EstimatedTime.applyTo(&dst.EstimatedTime)
	m.ActualTime.applyTo(&dst.ActualTime)
	if m.Dependencies != nil {
		dst.Dependencies = append([]string(nil), (*m.Dependencies)...)
	}
	m.Assignee.applyTo(&dst.Assignee)
}

func (b *BugPatch) applyTo(dst *BugDetails) {
	if b.Severity != nil {
		dst.Severity = *b.Severity
	}
	setString(&dst.Category, b.Category)
	setString(&dst.Source, b.Source)
	setString(&dst.Reproduction, b.Reproduction)
	setString(&dst.Environment, b.Environment)
	setString(&dst.ReportedBy, b.ReportedBy)
	setString(&dst.ResolvedBy, b.ResolvedBy)
	setString(&dst.FixCommit, b.FixCommit)
	setString(&dst.TestCase, b.TestCase)
	if b.DateReported != nil {
		dst.DateReported = *b.DateReported
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// PatchFromMap builds a Patch from loosely typed updates, as produced by
// CLI flags and tool arguments. Keys use the JSON field names. A nil value
// clears a nullable field.
func PatchFromMap(updates map[string]interface{}) (Patch, error) {
	var p Patch
	meta := func() *MetadataPatch {
		if p.Meta == nil {
			p.Meta = &MetadataPatch{}
		}
		return p.Meta
	}
	bug := func() *BugPatch {
		if p.Bug == nil {
			p.Bug = &BugPatch{}
		}
		return p.Bug
	}

	for key, value := range updates {
		var err error
		switch key {
		case "title":
			p.Title, err = stringPtr(key, value)
		case "content":
			p.Content, err = stringPtr(key, value)
		case "kind":
			var s *string
			if s, err = stringPtr(key, value); err == nil {
				k := Kind(*s)
				if !k.IsValid() {
					err = fmt.Errorf("%w: invalid kind: %q", ErrValidation, *s)
				}
				p.Kind = &k
			}
		case "status":
			var s *string
			if s, err = stringPtr(key, value); err == nil {
				st := Status(*s)
				if !st.IsValid() {
					err = fmt.Errorf("%w: invalid status: %q", ErrValidation, *s)
				}
				p.Status = &st
			}
		case "priority":
			var s *string
			if s, err = stringPtr(key, value); err == nil {
				pr := Priority(*s)
				if !pr.IsValid() {
					err = fmt.Errorf("%w: invalid priority: %q", ErrValidation, *s)
				}
				meta().Priority = &pr
			}
		case "tags":
			var tags []string
			if tags, err = stringList(key, value); err == nil {
				meta().Tags = &tags
			}
		case "dependencies":
			var deps []string
			if deps, err = stringList(key, value); err == nil {
				meta().Dependencies = &deps
			}
		case "estimated_time":
			meta().EstimatedTime, err = nullFloat(key, value)
		case "actual_time":
			meta().ActualTime, err = nullFloat(key, value)
		case "assignee":
			if value == nil {
				meta().Assignee = None[string]()
				continue
			}
			var s *string
			if s, err = stringPtr(key, value); err == nil {
				meta().Assignee = Some(*s)
			}
		case "severity":
			var s *string
			if s, err = stringPtr(key, value); err == nil {
				sev := Severity(*s)
				if !sev.IsValid() {
					err = fmt.Errorf("%w: invalid severity: %q", ErrValidation, *s)
				}
				bug().Severity = &sev
			}
		case "category":
			bug().Category, err = stringPtr(key, value)
		case "source":
			bug().Source, err = stringPtr(key, value)
		case "reproduction":
			bug().Reproduction, err = stringPtr(key, value)
		case "environment":
			bug().Environment, err = stringPtr(key, value)
		case "reported_by":
			bug().ReportedBy, err = stringPtr(key, value)
		case "resolved_by":
			bug().ResolvedBy, err = stringPtr(key, value)
		case "fix_commit":
			bug().FixCommit, err = stringPtr(key, value)
		case "test_case":
			bug().TestCase, err = stringPtr(key, value)
		case "date_reported":
			var t time.Time
			if t, err = timeValue(key, value); err == nil {
				bug().DateReported = &t
			}
		default:
			err = fmt.Errorf("%w: unknown field %q", ErrValidation, key)
		}
		if err != nil {
			return Patch{}, err
		}
	}
	return p, nil
}

func stringPtr(key string, value interface{}) (*string, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a string", ErrValidation, key)
	}
	return &s, nil
}

func stringList(key string, value interface{}) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return []string{}, nil
		}
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must contain strings", ErrValidation, key)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s must be a list of strings", ErrValidation, key)
}

func nullFloat(key string, value interface{}) (Null[float64], error) {
	switch v := value.(type) {
	case nil:
		return None[float64](), nil
	case float64:
		return Some(v), nil
	case float32:
		return Some(float64(v)), nil
	case int:
		return Some(float64(v)), nil
	case int64:
		return Some(float64(v)), nil
	}
	return Null[float64]{}, fmt.Errorf("%w: %s must be a number of hours", ErrValidation, key)
}

func timeValue(key string, value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s: %v", ErrValidation, key, err)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %s must be an RFC3339 timestamp", ErrValidation, key)
}
