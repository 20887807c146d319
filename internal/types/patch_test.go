package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchApplyMergesMetadata(t *testing.T) {
	est := 3.0
	who := "alice"
	w := &WorkItem{
		Kind:   KindTask,
		Status: StatusTodo,
		Title:  "old",
		Meta:   Metadata{Tags: []string{"a"}, Priority: PriorityLow, EstimatedTime: &est, Assignee: &who},
	}
	prio := PriorityHigh
	title := "new"
	changed := Patch{
		Title: &title,
		Meta:  &MetadataPatch{Priority: &prio, Assignee: None[string]()},
	}.Apply(w)

	assert.False(t, changed)
	assert.Equal(t, "new", w.Title)
	assert.Equal(t, PriorityHigh, w.Meta.Priority)
	assert.Equal(t, []string{"a"}, w.Meta.Tags, "unset fields survive the merge")
	require.NotNil(t, w.Meta.EstimatedTime)
	assert.Equal(t, 3.0, *w.Meta.EstimatedTime)
	assert.Nil(t, w.Meta.Assignee)
	assert.Equal(t, StatusTodo, w.Status, "apply never touches status")
}

func TestPatchApplyKindBoundary(t *testing.T) {
	w := &WorkItem{Kind: KindTask, Status: StatusTodo}
	bug := KindBug
	assert.True(t, Patch{Kind: &bug}.Apply(w))
	require.NotNil(t, w.Bug)

	feature := KindFeature
	assert.True(t, Patch{Kind: &feature}.Apply(w))
	assert.Nil(t, w.Bug)

	task := KindTask
	assert.False(t, Patch{Kind: &task}.Apply(w))
}

func TestPatchBugFieldsIgnoredOnTasks(t *testing.T) {
	w := &WorkItem{Kind: KindTask, Status: StatusTodo}
	cat := "ui"
	Patch{Bug: &BugPatch{Category: &cat}}.Apply(w)
	assert.Nil(t, w.Bug)
}

func TestPatchFromMap(t *testing.T) {
	p, err := PatchFromMap(map[string]interface{}{
		"title":          "Crash on save",
		"status":         "resolved",
		"resolved_by":    "alice",
		"tags":           []interface{}{"ui", "crash"},
		"estimated_time": float64(4),
		"actual_time":    nil,
		"assignee":       "bob",
		"severity":       "critical",
	})
	require.NoError(t, err)
	require.NotNil(t, p.Status)
	assert.Equal(t, StatusResolved, *p.Status)
	require.NotNil(t, p.Bug)
	assert.Equal(t, "alice", *p.Bug.ResolvedBy)
	assert.Equal(t, SeverityCritical, *p.Bug.Severity)
	require.NotNil(t, p.Meta)
	assert.Equal(t, []string{"ui", "crash"}, *p.Meta.Tags)
	assert.Equal(t, Some(4.0), p.Meta.EstimatedTime)
	assert.Equal(t, None[float64](), p.Meta.ActualTime)
	assert.Equal(t, Some("bob"), p.Meta.Assignee)
}

func TestPatchFromMapRejects(t *testing.T) {
	cases := []map[string]interface{}{
		{"status": "sideways"},
		{"priority": 3},
		{"kind": "epic"},
		{"severity": "blocker"},
		{"id": "x"},
		{"estimated_time": "soon"},
		{"date_reported": "yesterday"},
	}
	for _, c := range cases {
		_, err := PatchFromMap(c)
		assert.ErrorIs(t, err, ErrValidation, "%v", c)
	}
}
