package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/workitems/internal/config"
	"github.com/steveyegge/workitems/internal/types"
)

// newWorkspace creates a project directory named demo and makes it the
// working directory, with user-level config isolated from the host.
func newWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "demo")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	t.Chdir(dir)
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, ".config"))
	t.Setenv("USER", "tester")
	t.Setenv("NO_COLOR", "1")
	t.Setenv("WI_NO_EMOJI", "1")
	t.Setenv("WI_NO_PAGER", "1")
	return dir
}

// resetCommandState clears flag values left over from a previous Execute.
func resetCommandState(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetCommandState(sub)
	}
}

// runWI executes the root command with args and returns stdout, stderr and
// the command error.
func runWI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetCommandState(rootCmd)
	config.ResetForTesting()
	app = nil

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	closeApp()
	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := runWI(t, args...)
	require.NoError(t, err, "wi %s\nstderr: %s", strings.Join(args, " "), stderr)
	return out
}

func decodeItem(t *testing.T, out string) types.WorkItem {
	t.Helper()
	var item types.WorkItem
	require.NoError(t, json.Unmarshal([]byte(out), &item), out)
	return item
}

func decodeItems(t *testing.T, out string) []types.WorkItem {
	t.Helper()
	var items []types.WorkItem
	require.NoError(t, json.Unmarshal([]byte(out), &items), out)
	return items
}

func TestCreateAndShow(t *testing.T) {
	newWorkspace(t)

	bug := decodeItem(t, mustRun(t, "create", "Login fails", "--kind", "bug",
		"--severity", "major", "--tags", "auth,web", "--json"))
	assert.Equal(t, "demo", bug.ProjectID)
	assert.Equal(t, types.StatusOpen, bug.Status)
	require.NotNil(t, bug.Bug)
	assert.Equal(t, types.SeverityMajor, bug.Bug.Severity)
	assert.False(t, bug.Bug.DateReported.IsZero())
	assert.Equal(t, []string{"auth", "web"}, bug.Meta.Tags)

	task := decodeItem(t, mustRun(t, "create", "--title", "Write docs", "--priority", "high", "--json"))
	assert.Equal(t, types.KindTask, task.Kind)
	assert.Equal(t, types.StatusTodo, task.Status)
	assert.Nil(t, task.Bug)

	shown := decodeItem(t, mustRun(t, "show", bug.ID[:8], "--json"))
	assert.Equal(t, bug.ID, shown.ID)

	out := mustRun(t, "show", task.ID)
	assert.Contains(t, out, "Write docs")
	assert.Contains(t, out, "high")
}

func TestCreateRequiresTitle(t *testing.T) {
	newWorkspace(t)

	_, _, err := runWI(t, "create")
	assert.ErrorIs(t, err, types.ErrValidation)

	_, _, err = runWI(t, "create", "Task with bug fields", "--severity", "major")
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestCreatePrintsEventMessage(t *testing.T) {
	newWorkspace(t)

	out := mustRun(t, "create", "Plain task")
	assert.Contains(t, out, `Task "Plain task" created`)
	assert.Contains(t, out, "ID: ")

	out = mustRun(t, "--quiet", "create", "Silent task")
	assert.Empty(t, out)
}

func TestBugLifecycleCommands(t *testing.T) {
	newWorkspace(t)
	bug := decodeItem(t, mustRun(t, "create", "Crash on save", "--kind", "bug", "--json"))

	resolved := decodeItem(t, mustRun(t, "status", bug.ID, "resolved", "--by", "alice", "--json"))
	assert.Equal(t, types.StatusResolved, resolved.Status)
	require.NotNil(t, resolved.Bug.DateResolved)
	assert.Equal(t, "alice", resolved.Bug.ResolvedBy)

	closed := decodeItem(t, mustRun(t, "status", bug.ID, "closed", "--json"))
	assert.Equal(t, types.StatusClosed, closed.Status)
	assert.NotNil(t, closed.Bug.DateResolved)

	reopened := decodeItem(t, mustRun(t, "reopen", bug.ID, "--json"))
	assert.Equal(t, types.StatusOpen, reopened.Status)
	assert.Nil(t, reopened.Bug.DateResolved)
	assert.Empty(t, reopened.Bug.ResolvedBy)

	// Without --by the actor resolves.
	again := decodeItem(t, mustRun(t, "resolve", bug.ID, "--json"))
	assert.Equal(t, "tester", again.Bug.ResolvedBy)
}

func TestResolveTaskMarksDone(t *testing.T) {
	newWorkspace(t)
	task := decodeItem(t, mustRun(t, "create", "Ship it", "--json"))

	done := decodeItem(t, mustRun(t, "resolve", task.ID, "--json"))
	assert.Equal(t, types.StatusDone, done.Status)

	todo := decodeItem(t, mustRun(t, "reopen", task.ID, "--json"))
	assert.Equal(t, types.StatusTodo, todo.Status)
}

func TestStrictLifecycleRejectsSkippedSteps(t *testing.T) {
	newWorkspace(t)
	t.Setenv("WI_LIFECYCLE_STRICT", "true")
	bug := decodeItem(t, mustRun(t, "create", "Flaky test", "--kind", "bug", "--json"))
	mustRun(t, "status", bug.ID, "in-progress")

	_, _, err := runWI(t, "status", bug.ID, "closed")
	assert.ErrorIs(t, err, types.ErrInvalidTransition)

	shown := decodeItem(t, mustRun(t, "show", bug.ID, "--json"))
	assert.Equal(t, types.StatusInProgress, shown.Status)
}

func TestStatusOutsideVocabulary(t *testing.T) {
	newWorkspace(t)
	task := decodeItem(t, mustRun(t, "create", "Task", "--json"))

	_, _, err := runWI(t, "status", task.ID, "resolved")
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestUpdateFields(t *testing.T) {
	newWorkspace(t)
	task := decodeItem(t, mustRun(t, "create", "Refactor", "--assignee", "bob", "--estimate", "3", "--json"))

	updated := decodeItem(t, mustRun(t, "update", task.ID, "--title", "Refactor parser",
		"--priority", "urgent", "--assignee", "", "--estimate-clear", "--actual", "2.5", "--json"))
	assert.Equal(t, "Refactor parser", updated.Title)
	assert.Equal(t, types.PriorityUrgent, updated.Meta.Priority)
	assert.Nil(t, updated.Meta.Assignee)
	assert.Nil(t, updated.Meta.EstimatedTime)
	require.NotNil(t, updated.Meta.ActualTime)
	assert.InDelta(t, 2.5, *updated.Meta.ActualTime, 1e-9)
	assert.True(t, !updated.UpdatedAt.Before(task.UpdatedAt))

	_, _, err := runWI(t, "update", task.ID)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestUpdateKindToBug(t *testing.T) {
	newWorkspace(t)
	task := decodeItem(t, mustRun(t, "create", "Turns out broken", "--json"))

	bug := decodeItem(t, mustRun(t, "update", task.ID, "--kind", "bug", "--severity", "critical", "--json"))
	assert.Equal(t, types.KindBug, bug.Kind)
	assert.Equal(t, types.StatusOpen, bug.Status)
	require.NotNil(t, bug.Bug)
	assert.Equal(t, types.SeverityCritical, bug.Bug.Severity)
}

func TestBulkUpdateReportsFailuresPerID(t *testing.T) {
	newWorkspace(t)
	a := decodeItem(t, mustRun(t, "create", "A", "--json"))
	b := decodeItem(t, mustRun(t, "create", "B", "--json"))

	out, _, err := runWI(t, "update", a.ID, "missing-id", b.ID, "--status", "in-progress")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, 2, strings.Count(out, "updated"), out)

	items := decodeItems(t, mustRun(t, "list", "--status", "in-progress", "--json"))
	assert.Len(t, items, 2)
}

func TestBulkUpdateJSON(t *testing.T) {
	newWorkspace(t)
	a := decodeItem(t, mustRun(t, "create", "A", "--json"))

	out, _, err := runWI(t, "update", a.ID, "nope", "--priority", "low", "--json")
	require.Error(t, err)

	var res struct {
		Updated []types.WorkItem `json:"updated"`
		Failed  []struct {
			ID    string `json:"id"`
			Error string `json:"error"`
		} `json:"failed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	require.Len(t, res.Updated, 1)
	assert.Equal(t, types.PriorityLow, res.Updated[0].Meta.Priority)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "nope", res.Failed[0].ID)
	assert.Contains(t, res.Failed[0].Error, "not found")
}

func TestDeleteAndDuplicate(t *testing.T) {
	newWorkspace(t)
	src := decodeItem(t, mustRun(t, "create", "Original", "--kind", "bug", "--json"))
	mustRun(t, "resolve", src.ID, "--by", "carol")
	mustRun(t, "update", src.ID, "--actual", "4")

	dup := decodeItem(t, mustRun(t, "duplicate", src.ID, "--json"))
	assert.NotEqual(t, src.ID, dup.ID)
	assert.Equal(t, "Original (Copy)", dup.Title)
	assert.Equal(t, types.StatusOpen, dup.Status)
	assert.Nil(t, dup.Meta.ActualTime)
	assert.Empty(t, dup.Bug.ResolvedBy)
	assert.Nil(t, dup.Bug.DateResolved)

	mustRun(t, "delete", src.ID)
	items := decodeItems(t, mustRun(t, "list", "--json"))
	require.Len(t, items, 1)
	assert.Equal(t, dup.ID, items[0].ID)

	_, _, err := runWI(t, "delete", src.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestBulkDelete(t *testing.T) {
	newWorkspace(t)
	a := decodeItem(t, mustRun(t, "create", "A", "--json"))
	b := decodeItem(t, mustRun(t, "create", "B", "--json"))
	mustRun(t, "create", "C")

	mustRun(t, "delete", a.ID, b.ID)
	items := decodeItems(t, mustRun(t, "list", "--json"))
	require.Len(t, items, 1)
	assert.Equal(t, "C", items[0].Title)
}

func TestListFiltersAndSort(t *testing.T) {
	newWorkspace(t)
	mustRun(t, "create", "Low task", "--priority", "low")
	mustRun(t, "create", "Urgent task", "--priority", "urgent", "--tags", "release")
	mustRun(t, "create", "Critical bug", "--kind", "bug", "--severity", "critical")
	mustRun(t, "create", "Minor bug", "--kind", "bug", "--severity", "minor")

	items := decodeItems(t, mustRun(t, "list", "--json"))
	require.Len(t, items, 4)
	assert.Equal(t, "Urgent task", items[0].Title)

	items = decodeItems(t, mustRun(t, "list", "--kind", "bug", "--sort", "severity-desc", "--json"))
	require.Len(t, items, 2)
	assert.Equal(t, "Critical bug", items[0].Title)

	items = decodeItems(t, mustRun(t, "list", "--severity", "minor", "--json"))
	require.Len(t, items, 1)
	assert.Equal(t, "Minor bug", items[0].Title)

	items = decodeItems(t, mustRun(t, "list", "--tags", "release", "--json"))
	require.Len(t, items, 1)

	items = decodeItems(t, mustRun(t, "list", "--search", "TASK", "--sort", "title-asc", "--json"))
	require.Len(t, items, 2)
	assert.Equal(t, "Low task", items[0].Title)

	items = decodeItems(t, mustRun(t, "list", "--query", "kind=bug AND severity=critical", "--json"))
	require.Len(t, items, 1)
	assert.Equal(t, "Critical bug", items[0].Title)

	items = decodeItems(t, mustRun(t, "list", "--created-after", "1h", "--limit", "2", "--json"))
	assert.Len(t, items, 2)

	_, _, err := runWI(t, "list", "--status", "bogus")
	assert.ErrorIs(t, err, types.ErrValidation)
	_, _, err = runWI(t, "list", "--sort", "nonsense")
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestListText(t *testing.T) {
	newWorkspace(t)

	out := mustRun(t, "list")
	assert.Contains(t, out, "No work items found.")

	mustRun(t, "create", "Visible item")
	out = mustRun(t, "list")
	assert.Contains(t, out, "Visible item")
	assert.Contains(t, out, "1 item")
}

func TestProjectsAreSeparate(t *testing.T) {
	newWorkspace(t)
	mustRun(t, "create", "In demo")
	mustRun(t, "--project", "other", "create", "In other")

	items := decodeItems(t, mustRun(t, "list", "--json"))
	require.Len(t, items, 1)
	assert.Equal(t, "In demo", items[0].Title)

	items = decodeItems(t, mustRun(t, "list", "--all", "--json"))
	assert.Len(t, items, 2)

	var s types.Statistics
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "stats", "--all", "--json")), &s))
	assert.Equal(t, 2, s.Total)
}

func TestStats(t *testing.T) {
	newWorkspace(t)
	mustRun(t, "create", "Task")
	bug := decodeItem(t, mustRun(t, "create", "Bug", "--kind", "bug", "--category", "ui", "--json"))
	mustRun(t, "resolve", bug.ID)

	var s types.Statistics
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "stats", "--json")), &s))
	assert.Equal(t, 2, s.Total)

	out := mustRun(t, "stats")
	assert.Contains(t, out, "Statistics for demo")
	assert.Contains(t, out, "BUGS")
}

func TestConfigSetGet(t *testing.T) {
	dir := newWorkspace(t)

	out := mustRun(t, "config", "set", "actor", "dana")
	assert.Contains(t, out, filepath.Join(dir, ".workitems", "config.yaml"))
	assert.Equal(t, "dana\n", mustRun(t, "config", "get", "actor"))

	bug := decodeItem(t, mustRun(t, "create", "Resolved by config actor", "--kind", "bug", "--json"))
	resolved := decodeItem(t, mustRun(t, "resolve", bug.ID, "--json"))
	assert.Equal(t, "dana", resolved.Bug.ResolvedBy)

	// Flags override the config file.
	bug2 := decodeItem(t, mustRun(t, "create", "Another", "--kind", "bug", "--json"))
	resolved = decodeItem(t, mustRun(t, "--actor", "erin", "resolve", bug2.ID, "--json"))
	assert.Equal(t, "erin", resolved.Bug.ResolvedBy)

	_, _, err := runWI(t, "config", "set", "no-such-key", "x")
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestMemoryBackendStartsEmpty(t *testing.T) {
	newWorkspace(t)
	mustRun(t, "--backend", "memory", "create", "Ephemeral")

	items := decodeItems(t, mustRun(t, "--backend", "memory", "list", "--json"))
	assert.Empty(t, items)
}

func TestSQLiteBackend(t *testing.T) {
	dir := newWorkspace(t)
	dsn := filepath.Join(dir, "items.db")
	item := decodeItem(t, mustRun(t, "--backend", "sqlite", "--dsn", dsn, "create", "Stored in sqlite", "--json"))

	shown := decodeItem(t, mustRun(t, "--backend", "sqlite", "--dsn", dsn, "show", item.ID, "--json"))
	assert.Equal(t, "Stored in sqlite", shown.Title)
}

func TestVersion(t *testing.T) {
	newWorkspace(t)
	assert.Contains(t, mustRun(t, "version"), "wi version "+Version)

	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "version", "--json")), &v))
	assert.Equal(t, Version, v["version"])
}

func TestReportError(t *testing.T) {
	defer func(orig bool) { jsonOutput = orig }(jsonOutput)
	err := errors.Join(types.ErrNotFound, errors.New("work item x"))

	var buf bytes.Buffer
	jsonOutput = false
	reportError(&buf, err)
	assert.True(t, strings.HasPrefix(buf.String(), "Error: "))

	buf.Reset()
	jsonOutput = true
	reportError(&buf, err)
	var obj map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &obj))
	assert.Equal(t, "not_found", obj["code"])
}

func TestWatchNeedsJSONL(t *testing.T) {
	newWorkspace(t)
	_, _, err := runWI(t, "--backend", "memory", "list", "--watch")
	assert.ErrorContains(t, err, "jsonl")
}
