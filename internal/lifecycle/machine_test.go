package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/workitems/internal/types"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newBug(status types.Status) *types.WorkItem {
	return &types.WorkItem{
		ID:        "bug-1",
		ProjectID: "p1",
		Kind:      types.KindBug,
		Status:    status,
		Bug:       &types.BugDetails{Severity: types.SeverityMedium},
	}
}

func resolved(t *testing.T, m *Machine) *types.WorkItem {
	t.Helper()
	item := newBug(types.StatusOpen)
	item.Bug.ResolvedBy = "alice"
	_, err := m.Transition(item, types.StatusOpen, types.StatusResolved, now)
	require.NoError(t, err)
	return item
}

func TestResolveStampsDate(t *testing.T) {
	item := resolved(t, New())
	assert.Equal(t, types.StatusResolved, item.Status)
	require.NotNil(t, item.Bug.DateResolved)
	assert.True(t, item.Bug.DateResolved.Equal(now))
	assert.Equal(t, "alice", item.Bug.ResolvedBy)
	assert.NoError(t, item.Validate())
}

func TestResolveRequiresResolver(t *testing.T) {
	item := newBug(types.StatusTesting)
	_, err := New().Transition(item, types.StatusTesting, types.StatusResolved, now)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)

	item = newBug(types.StatusTesting)
	change, err := New(WithDefaultResolver("ci")).Transition(item, types.StatusTesting, types.StatusResolved, now)
	require.NoError(t, err)
	assert.Equal(t, ChangeResolved, change)
	assert.Equal(t, "ci", item.Bug.ResolvedBy)
}

func TestReopenClearsResolution(t *testing.T) {
	for _, target := range []types.Status{types.StatusOpen, types.StatusInProgress, types.StatusTesting} {
		t.Run(string(target), func(t *testing.T) {
			m := New()
			item := resolved(t, m)
			change, err := m.Transition(item, types.StatusResolved, target, now.Add(time.Hour))
			require.NoError(t, err)
			assert.Equal(t, ChangeReopened, change)
			assert.Nil(t, item.Bug.DateResolved)
			assert.Empty(t, item.Bug.ResolvedBy)
			assert.NoError(t, item.Validate())
		})
	}
}

func TestCloseAfterResolveKeepsResolution(t *testing.T) {
	m := New()
	item := resolved(t, m)
	change, err := m.Transition(item, types.StatusResolved, types.StatusClosed, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, ChangeClosed, change)
	require.NotNil(t, item.Bug.DateResolved)
	assert.True(t, item.Bug.DateResolved.Equal(now))
	assert.Equal(t, "alice", item.Bug.ResolvedBy)

	change, err = m.Transition(item, types.StatusClosed, types.StatusOpen, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, ChangeReopened, change)
	assert.Nil(t, item.Bug.DateResolved)
	assert.Empty(t, item.Bug.ResolvedBy)
}

func TestCloseWithoutResolveLeavesDateEmpty(t *testing.T) {
	item := newBug(types.StatusOpen)
	_, err := New().Transition(item, types.StatusOpen, types.StatusClosed, now)
	require.NoError(t, err)
	assert.Nil(t, item.Bug.DateResolved)
}

func TestPlainMovesHaveNoSideEffects(t *testing.T) {
	item := newBug(types.StatusOpen)
	m := New()
	for _, next := range []types.Status{types.StatusInProgress, types.StatusTesting} {
		change, err := m.Transition(item, item.Status, next, now)
		require.NoError(t, err)
		assert.Equal(t, ChangeMoved, change)
		assert.Nil(t, item.Bug.DateResolved)
	}
}

func TestVocabularyIsEnforced(t *testing.T) {
	item := newBug(types.StatusOpen)
	_, err := New().Transition(item, types.StatusOpen, types.StatusDone, now)
	assert.ErrorIs(t, err, types.ErrValidation)

	task := &types.WorkItem{ProjectID: "p1", Kind: types.KindTask, Status: types.StatusTodo}
	_, err = New().Transition(task, types.StatusTodo, types.StatusTesting, now)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestTasksMoveFreely(t *testing.T) {
	task := &types.WorkItem{ProjectID: "p1", Kind: types.KindFeature, Status: types.StatusDone}
	m := New(WithPolicy(Strict{}))
	for _, next := range []types.Status{types.StatusTodo, types.StatusBlocked, types.StatusReview, types.StatusDone} {
		_, err := m.Transition(task, task.Status, next, now)
		require.NoError(t, err)
		assert.Equal(t, next, task.Status)
	}
}

func TestStrictPolicy(t *testing.T) {
	m := New(WithPolicy(PolicyFor(true)), WithDefaultResolver("ci"))
	item := newBug(types.StatusClosed)
	_, err := m.Transition(item, types.StatusClosed, types.StatusTesting, now)
	if !errors.Is(err, types.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	assert.Equal(t, types.StatusClosed, item.Status)

	_, err = m.Transition(item, types.StatusClosed, types.StatusOpen, now)
	require.NoError(t, err)
	assert.Equal(t, []types.Status{types.StatusOpen}, Allowed(types.StatusClosed))
}

func TestBecomingBugEntersWithoutPolicyCheck(t *testing.T) {
	item := newBug(types.StatusResolved)
	item.Status = types.StatusTodo
	item.Bug.ResolvedBy = "alice"
	change, err := New(WithPolicy(Strict{})).Transition(item, "", types.StatusResolved, now)
	require.NoError(t, err)
	assert.Equal(t, ChangeResolved, change)
	assert.NotNil(t, item.Bug.DateResolved)
}

func TestIsReopen(t *testing.T) {
	assert.True(t, IsReopen(types.StatusResolved, types.StatusTesting))
	assert.True(t, IsReopen(types.StatusClosed, types.StatusOpen))
	assert.False(t, IsReopen(types.StatusResolved, types.StatusClosed))
	assert.False(t, IsReopen(types.StatusOpen, types.StatusInProgress))
}
