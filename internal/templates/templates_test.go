package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/workitems/internal/types"
)

func TestBuiltin(t *testing.T) {
	d := Builtin()
	for _, k := range types.Kinds {
		assert.Equal(t, types.PriorityMedium, d[k].Priority, k)
	}
	assert.Equal(t, types.SeverityMedium, d[types.KindBug].Severity)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[bug]
priority = "high"
severity = "major"
category = "regression"

[feature]
tags = ["roadmap", "roadmap", " q3 "]
`), 0o600))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, types.PriorityHigh, d[types.KindBug].Priority)
	assert.Equal(t, types.SeverityMajor, d[types.KindBug].Severity)
	assert.Equal(t, "regression", d[types.KindBug].Category)
	assert.Equal(t, types.PriorityMedium, d[types.KindFeature].Priority, "unset fields keep the built-in")

	feature := &types.WorkItem{Kind: types.KindFeature}
	d.Apply(feature)
	assert.Equal(t, []string{"q3", "roadmap"}, feature.Meta.Tags)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := map[string]string{
		"unknown kind":   "[epic]\npriority = \"low\"\n",
		"bad priority":   "[task]\npriority = \"p0\"\n",
		"bad severity":   "[bug]\nseverity = \"catastrophic\"\n",
		"unknown key":    "[task]\ncolour = \"red\"\n",
		"malformed toml": "[task\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "d.toml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestApplyKeepsCallerValues(t *testing.T) {
	d := Defaults{
		types.KindBug: {Priority: types.PriorityHigh, Severity: types.SeverityMajor, Category: "ui", Tags: []string{"triage"}},
	}
	bug := &types.WorkItem{
		Kind: types.KindBug,
		Meta: types.Metadata{Priority: types.PriorityLow, Tags: []string{"mine"}},
		Bug:  &types.BugDetails{Severity: types.SeverityCritical},
	}
	d.Apply(bug)
	assert.Equal(t, types.PriorityLow, bug.Meta.Priority)
	assert.Equal(t, []string{"mine"}, bug.Meta.Tags)
	assert.Equal(t, types.SeverityCritical, bug.Bug.Severity)
	assert.Equal(t, "ui", bug.Bug.Category)

	task := &types.WorkItem{Kind: types.KindTask}
	Defaults{}.Apply(task)
	assert.Equal(t, types.PriorityMedium, task.Meta.Priority)
	assert.Nil(t, task.Bug)
}
