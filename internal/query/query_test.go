package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/workitems/internal/types"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type itemOpt func(*types.WorkItem)

func withPriority(p types.Priority) itemOpt { return func(w *types.WorkItem) { w.Meta.Priority = p } }
func withTags(tags ...string) itemOpt       { return func(w *types.WorkItem) { w.Meta.Tags = tags } }
func withStatus(s types.Status) itemOpt     { return func(w *types.WorkItem) { w.Status = s } }
func withProject(p string) itemOpt          { return func(w *types.WorkItem) { w.ProjectID = p } }
func withContent(c string) itemOpt          { return func(w *types.WorkItem) { w.Content = c } }
func withCreated(d time.Duration) itemOpt {
	return func(w *types.WorkItem) { w.CreatedAt = base.Add(d); w.UpdatedAt = base.Add(d) }
}

func task(id, title string, opts ...itemOpt) *types.WorkItem {
	w := &types.WorkItem{ID: id, ProjectID: "p1", Title: title, Kind: types.KindTask, Status: types.StatusTodo, CreatedAt: base, UpdatedAt: base}
	for _, o := range opts {
		o(w)
	}
	return w
}

func bug(id, title string, sev types.Severity, opts ...itemOpt) *types.WorkItem {
	w := task(id, title, opts...)
	w.Kind = types.KindBug
	if w.Status == types.StatusTodo {
		w.Status = types.StatusOpen
	}
	w.Bug = &types.BugDetails{Severity: sev}
	return w
}

func ids(items []*types.WorkItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestApplyProjectScoping(t *testing.T) {
	items := []*types.WorkItem{task("a", "A"), task("b", "B", withProject("p2")), task("c", "C")}
	assert.Equal(t, []string{"a", "c"}, ids(Apply(items, "p1", types.Filter{})))
	assert.Len(t, Apply(items, "", types.Filter{}), 3)
}

func TestApplyFilters(t *testing.T) {
	items := []*types.WorkItem{
		task("t1", "Write docs", withPriority(types.PriorityHigh), withTags("docs")),
		task("t2", "Refactor parser", withStatus(types.StatusDone)),
		bug("b1", "Crash on save", types.SeverityCritical, withTags("ui", "crash")),
		bug("b2", "Typo in footer", types.SeverityTrivial, withContent("the FOOTER says teh")),
		{ID: "f1", ProjectID: "p1", Title: "Dark mode", Kind: types.KindFeature, Status: types.StatusReview, Meta: types.Metadata{Priority: types.PriorityUrgent}},
	}

	tests := []struct {
		name   string
		filter types.Filter
		want   []string
	}{
		{"empty filter", types.Filter{}, []string{"t1", "t2", "b1", "b2", "f1"}},
		{"status", types.Filter{Statuses: []types.Status{types.StatusOpen, types.StatusDone}}, []string{"t2", "b1", "b2"}},
		{"missing priority is medium", types.Filter{Priorities: []types.Priority{types.PriorityMedium}}, []string{"t2", "b1", "b2"}},
		{"kind", types.Filter{Kinds: []types.Kind{types.KindFeature, types.KindTask}}, []string{"t1", "t2", "f1"}},
		{"severity excludes non-bugs", types.Filter{Severities: []types.Severity{types.SeverityCritical, types.SeverityTrivial}}, []string{"b1", "b2"}},
		{"tags are OR", types.Filter{Tags: []string{"docs", "crash"}}, []string{"t1", "b1"}},
		{"search title", types.Filter{Search: "CRASH"}, []string{"b1"}},
		{"search content", types.Filter{Search: "footer says"}, []string{"b2"}},
		{"search tags", types.Filter{Search: "doc"}, []string{"t1"}},
		{"criteria are ANDed", types.Filter{Kinds: []types.Kind{types.KindBug}, Tags: []string{"ui"}}, []string{"b1"}},
		{"ids", types.Filter{IDs: []string{"f1", "t2"}}, []string{"t2", "f1"}},
		{"limit", types.Filter{Limit: 2}, []string{"t1", "t2"}},
		{"match predicate", types.Filter{Match: func(w *types.WorkItem) bool { return w.Title == "Dark mode" }}, []string{"f1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(items, "p1", tt.filter)))
		})
	}
}

func TestApplySeverityWithUnknownBugSeverity(t *testing.T) {
	items := []*types.WorkItem{bug("b1", "x", ""), bug("b2", "y", types.SeverityMajor)}
	got := Apply(items, "p1", types.Filter{Severities: []types.Severity{types.SeverityMedium}})
	assert.Equal(t, []string{"b1"}, ids(got))
}

func TestApplyDateRangesAndAssignee(t *testing.T) {
	alice := "Alice"
	a := task("a", "old", withCreated(-48*time.Hour))
	b := task("b", "new", withCreated(time.Hour))
	b.Meta.Assignee = &alice
	after := base
	assert.Equal(t, []string{"b"}, ids(Apply([]*types.WorkItem{a, b}, "p1", types.Filter{CreatedAfter: &after})))
	assert.Equal(t, []string{"a"}, ids(Apply([]*types.WorkItem{a, b}, "p1", types.Filter{UpdatedBefore: &after})))
	assert.Equal(t, []string{"b"}, ids(Apply([]*types.WorkItem{a, b}, "p1", types.Filter{Assignee: "alice"})))
}

func TestFilterIdempotence(t *testing.T) {
	items := []*types.WorkItem{
		task("t1", "alpha", withTags("x")),
		bug("b1", "beta", types.SeverityMajor, withTags("x")),
		bug("b2", "gamma", types.SeverityMinor),
		task("t2", "delta alpha", withPriority(types.PriorityLow)),
	}
	filters := []types.Filter{
		{},
		{Tags: []string{"x"}},
		{Search: "alpha"},
		{Severities: []types.Severity{types.SeverityMajor}},
		{Priorities: []types.Priority{types.PriorityMedium}, Kinds: []types.Kind{types.KindBug, types.KindTask}},
	}
	for _, f := range filters {
		once := Apply(items, "p1", f)
		twice := Apply(once, "p1", f)
		assert.Equal(t, ids(once), ids(twice))
	}
}

func TestSortPriorityDesc(t *testing.T) {
	items := []*types.WorkItem{
		task("high", "h", withPriority(types.PriorityHigh)),
		task("low", "l", withPriority(types.PriorityLow)),
		task("medium", "m", withPriority(types.PriorityMedium)),
	}
	Sort(items, []types.SortOption{{Field: types.SortFieldPriority, Direction: types.SortDesc}})
	assert.Equal(t, []string{"high", "medium", "low"}, ids(items))
}

func TestSortMissingPriorityRanksAsMedium(t *testing.T) {
	items := []*types.WorkItem{
		task("none", "n"),
		task("low", "l", withPriority(types.PriorityLow)),
		task("high", "h", withPriority(types.PriorityHigh)),
	}
	Sort(items, []types.SortOption{{Field: types.SortFieldPriority, Direction: types.SortAsc}})
	assert.Equal(t, []string{"low", "none", "high"}, ids(items))
}

func TestSortSeverity(t *testing.T) {
	items := []*types.WorkItem{
		task("task", "t"),
		bug("minor", "m", types.SeverityMinor),
		bug("unknown", "u", ""),
		bug("critical", "c", types.SeverityCritical),
		bug("trivial", "tr", types.SeverityTrivial),
	}
	Sort(items, []types.SortOption{{Field: types.SortFieldSeverity, Direction: types.SortDesc}})
	assert.Equal(t, []string{"critical", "unknown", "minor", "trivial", "task"}, ids(items))
}

func TestSortTitleIsCaseInsensitive(t *testing.T) {
	items := []*types.WorkItem{task("1", "banana"), task("2", "Apple"), task("3", "cherry"), task("4", "apple")}
	Sort(items, []types.SortOption{{Field: types.SortFieldTitle, Direction: types.SortAsc}})
	assert.Equal(t, []string{"2", "4", "1", "3"}, ids(items), "equal folded titles keep input order")
}

func TestSortCompositeAndStable(t *testing.T) {
	items := []*types.WorkItem{
		task("a", "z", withPriority(types.PriorityHigh), withCreated(3*time.Hour)),
		task("b", "y", withPriority(types.PriorityLow), withCreated(1*time.Hour)),
		task("c", "x", withPriority(types.PriorityHigh), withCreated(1*time.Hour)),
		task("d", "w", withPriority(types.PriorityLow), withCreated(1*time.Hour)),
		task("e", "v", withPriority(types.PriorityHigh), withCreated(3*time.Hour)),
	}
	opts := []types.SortOption{
		{Field: types.SortFieldPriority, Direction: types.SortDesc},
		{Field: types.SortFieldCreated, Direction: types.SortAsc},
	}
	first := Sorted(items, opts)
	assert.Equal(t, []string{"c", "a", "e", "b", "d"}, ids(first))

	second := Sorted(first, opts)
	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(items), "Sorted does not reorder its input")
}

func TestSortUpdated(t *testing.T) {
	a := task("a", "a", withCreated(time.Hour))
	b := task("b", "b", withCreated(2*time.Hour))
	items := []*types.WorkItem{a, b}
	Sort(items, []types.SortOption{{Field: types.SortFieldUpdated, Direction: types.SortDesc}})
	assert.Equal(t, []string{"b", "a"}, ids(items))
}

func TestRunSortsBeforeLimiting(t *testing.T) {
	items := []*types.WorkItem{
		task("low", "l", withPriority(types.PriorityLow)),
		task("urgent", "u", withPriority(types.PriorityUrgent)),
		task("high", "h", withPriority(types.PriorityHigh)),
	}
	got := Run(items, "p1", types.Filter{Limit: 2}, types.DefaultSortOptions())
	require.Len(t, got, 2)
	assert.Equal(t, []string{"urgent", "high"}, ids(got))
}
