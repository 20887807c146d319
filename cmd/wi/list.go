package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/workitems/internal/query"
	"github.com/steveyegge/workitems/internal/timeparsing"
	"github.com/steveyegge/workitems/internal/types"
	"github.com/steveyegge/workitems/internal/ui"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List work items",
	Long: `List work items of the current project, or of every project with --all.

Filters combine with AND; comma-separated values within one filter combine
with OR. --query takes an expression such as

  kind=bug AND (severity=critical OR priority>high)
  status!=done AND updated>7d

Dates accept RFC3339, YYYY-MM-DD, compact durations (3d, 2w, -1h) and
natural language ("last monday").`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringSliceP("status", "s", nil, "Filter by status")
	listCmd.Flags().StringSliceP("kind", "k", nil, "Filter by kind")
	listCmd.Flags().StringSlice("priority", nil, "Filter by priority (items without one count as medium)")
	listCmd.Flags().StringSlice("severity", nil, "Filter by bug severity")
	listCmd.Flags().StringSlice("tags", nil, "Match items carrying any listed tag")
	listCmd.Flags().String("search", "", "Case-insensitive text in title, content or tags")
	listCmd.Flags().String("assignee", "", "Filter by assignee")
	listCmd.Flags().String("created-after", "", "Only items created after this time")
	listCmd.Flags().String("created-before", "", "Only items created before this time")
	listCmd.Flags().String("updated-after", "", "Only items updated after this time")
	listCmd.Flags().String("updated-before", "", "Only items updated before this time")
	listCmd.Flags().String("query", "", "Query expression")
	listCmd.Flags().String("sort", "", "Sort order, e.g. priority-desc,updated-desc (default)")
	listCmd.Flags().IntP("limit", "n", 0, "Maximum number of items (0 = all)")
	listCmd.Flags().Bool("all", false, "List items of every stored project")
	listCmd.Flags().BoolP("watch", "w", false, "Refresh the list when the project file changes (jsonl backend)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	watch, _ := cmd.Flags().GetBool("watch")
	if all && watch {
		return fmt.Errorf("--watch follows a single project and cannot be combined with --all")
	}

	f, err := filterFromFlags(cmd, time.Now())
	if err != nil {
		return err
	}
	opts := types.DefaultSortOptions()
	if raw, _ := cmd.Flags().GetString("sort"); raw != "" {
		if opts = types.ParseSortOrder(raw); len(opts) == 0 {
			return fmt.Errorf("%w: invalid sort order %q", types.ErrValidation, raw)
		}
	}

	a, err := openApp(rootCtx, openOptions{allProjects: all})
	if err != nil {
		return err
	}
	project := a.Project
	if all {
		project = ""
	}

	render := func(w io.Writer) error {
		items := a.Store.Query(project, f, opts)
		if jsonOutput {
			return outputJSON(cmd, items)
		}
		return ui.RenderList(w, items)
	}
	if !watch {
		return render(cmd.OutOrStdout())
	}
	return watchList(cmd, a, render)
}

// projectWatcher is implemented by backends that can report file changes.
type projectWatcher interface {
	Watch(ctx context.Context, projectID string, fn func()) error
}

func watchList(cmd *cobra.Command, a *App, render func(io.Writer) error) error {
	w, ok := a.raw.(projectWatcher)
	if !ok {
		return fmt.Errorf("--watch requires the jsonl backend")
	}
	out := cmd.OutOrStdout()
	if err := render(out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching for changes... (Press Ctrl+C to exit)\n")

	err := w.Watch(rootCtx, a.Project, func() {
		if err := a.Store.Load(rootCtx, a.Project); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error refreshing items: %v\n", err)
			return
		}
		fmt.Fprintln(out, ui.RenderSeparator())
		if err := render(out); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error rendering items: %v\n", err)
			return
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching for changes... (Press Ctrl+C to exit)\n")
	})
	fmt.Fprintf(cmd.ErrOrStderr(), "\nStopped watching.\n")
	return err
}

// filterFromFlags builds a filter from the list flags. Enumerated values
// are checked against their vocabularies.
func filterFromFlags(cmd *cobra.Command, now time.Time) (types.Filter, error) {
	var f types.Filter
	values := func(flag string) []string {
		raw, _ := cmd.Flags().GetStringSlice(flag)
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
				out = append(out, v)
			}
		}
		return out
	}

	for _, s := range values("status") {
		if st := types.Status(s); st.IsValid() {
			f.Statuses = append(f.Statuses, st)
			continue
		}
		return f, fmt.Errorf("%w: invalid status %q", types.ErrValidation, s)
	}
	for _, s := range values("kind") {
		if k := types.Kind(s); k.IsValid() {
			f.Kinds = append(f.Kinds, k)
			continue
		}
		return f, fmt.Errorf("%w: invalid kind %q", types.ErrValidation, s)
	}
	for _, s := range values("priority") {
		if p := types.Priority(s); p.IsValid() {
			f.Priorities = append(f.Priorities, p)
			continue
		}
		return f, fmt.Errorf("%w: invalid priority %q", types.ErrValidation, s)
	}
	for _, s := range values("severity") {
		if sev := types.Severity(s); sev.IsValid() {
			f.Severities = append(f.Severities, sev)
			continue
		}
		return f, fmt.Errorf("%w: invalid severity %q", types.ErrValidation, s)
	}
	f.Tags, _ = cmd.Flags().GetStringSlice("tags")
	f.Search, _ = cmd.Flags().GetString("search")
	f.Assignee, _ = cmd.Flags().GetString("assignee")
	f.Limit, _ = cmd.Flags().GetInt("limit")

	dates := []struct {
		flag string
		dst  **time.Time
	}{
		{"created-after", &f.CreatedAfter},
		{"created-before", &f.CreatedBefore},
		{"updated-after", &f.UpdatedAfter},
		{"updated-before", &f.UpdatedBefore},
	}
	for _, d := range dates {
		raw, _ := cmd.Flags().GetString(d.flag)
		if raw == "" {
			continue
		}
		t, err := timeparsing.ParseRelativeTime(raw, now)
		if err != nil {
			return f, fmt.Errorf("%w: --%s: %v", types.ErrValidation, d.flag, err)
		}
		*d.dst = &t
	}

	if expr, _ := cmd.Flags().GetString("query"); expr != "" {
		pred, err := query.Compile(expr, now)
		if err != nil {
			return f, err
		}
		f.Match = pred
	}
	return f, nil
}
