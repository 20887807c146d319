package jsonl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/workitems/internal/storage"
	"github.com/steveyegge/workitems/internal/types"
)

var (
	_ storage.Adapter       = (*Store)(nil)
	_ storage.ItemDeleter   = (*Store)(nil)
	_ storage.ProjectLister = (*Store)(nil)
)

func newItem(id, title string) *types.WorkItem {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &types.WorkItem{
		ID: id, ProjectID: "alpha", Title: title,
		Kind: types.KindTask, Status: types.StatusTodo,
		CreatedAt: now, UpdatedAt: now,
		Meta: types.Metadata{Priority: types.PriorityMedium, Tags: []string{"x"}},
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), WithLockTimeout(200*time.Millisecond), WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	return s
}

func TestLoadMissingProjectIsEmpty(t *testing.T) {
	s := newStore(t)
	items, err := s.LoadItems(context.Background(), "alpha")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestSaveItemUpsertsInPlace(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.SaveItem(ctx, "alpha", newItem("a", "first")))
	require.NoError(t, s.SaveItem(ctx, "alpha", newItem("b", "second")))
	require.NoError(t, s.SaveItem(ctx, "alpha", newItem("a", "first, edited")))

	items, err := s.LoadItems(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "first, edited", items[0].Title)
	assert.Equal(t, "b", items[1].ID)
	assert.Equal(t, []string{"x"}, items[1].Meta.Tags)

	data, err := os.ReadFile(s.Path("alpha"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestSaveItemsAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.SaveItems(ctx, "alpha", []*types.WorkItem{newItem("a", "A"), newItem("b", "B"), newItem("c", "C")}))
	require.NoError(t, s.DeleteItem(ctx, "alpha", "b"))

	items, err := s.LoadItems(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "c", items[1].ID)

	require.NoError(t, s.SaveItems(ctx, "alpha", nil))
	_, err = os.Stat(s.Path("alpha"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.SaveItem(ctx, "alpha", newItem("a", "A")))

	matches, err := filepath.Glob(filepath.Join(s.Dir(), "*.tmp.*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestNewRemovesStaleTempFiles(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "alpha.jsonl.tmp.123")
	fresh := filepath.Join(dir, "alpha.jsonl.tmp.456")
	data := filepath.Join(dir, "alpha.jsonl")
	for _, p := range []string{stale, fresh, data} {
		require.NoError(t, os.WriteFile(p, []byte("{}\n"), 0o600))
	}
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))
	require.NoError(t, os.Chtimes(data, old, old))

	_, err := New(dir)
	require.NoError(t, err)

	_, err = os.Stat(stale)
	assert.True(t, errors.Is(err, os.ErrNotExist), "stale temp should be removed")
	assert.FileExists(t, fresh)
	assert.FileExists(t, data)
}

func TestInvalidProjectID(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.LoadItems(ctx, "../escape")
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.ErrorIs(t, s.SaveItem(ctx, "a/b", newItem("a", "A")), types.ErrValidation)
}

func TestCorruptLineFailsLoad(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.WriteFile(s.Path("alpha"), []byte("{\"id\":\"a\"}\nnot json\n"), 0o600))

	_, err := s.LoadItems(context.Background(), "alpha")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alpha.jsonl:2")
}

func TestDuplicateLinesKeepNewest(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	old := newItem("a", "old")
	other := newItem("b", "other")
	newer := newItem("a", "new")
	newer.UpdatedAt = old.UpdatedAt.Add(time.Hour)
	require.NoError(t, s.write("alpha", []*types.WorkItem{old, other, newer}))

	items, err := s.LoadItems(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "new", items[0].Title)
	assert.Equal(t, "b", items[1].ID)
}

func TestListProjects(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.SaveItem(ctx, "beta", newItem("b", "B")))
	require.NoError(t, s.SaveItem(ctx, "alpha", newItem("a", "A")))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0o600))

	got, err := s.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, got)
}

func TestLockTimeout(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	unlock, err := s.lock(ctx)
	require.NoError(t, err)
	defer unlock()

	// a second handle on the lock file conflicts with the first
	start := time.Now()
	_, err = s.lock(ctx)
	if err == nil {
		t.Skip("platform without flock")
	}
	assert.ErrorIs(t, err, ErrLockBusy)
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestWatchSeesWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newStore(t)

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, "alpha", func() { calls.Add(1) })
	}()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, s.SaveItem(context.Background(), "alpha", newItem("a", "A")))
	require.NoError(t, s.SaveItem(context.Background(), "beta", newItem("b", "B")))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
