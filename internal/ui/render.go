package ui

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/steveyegge/workitems/internal/types"
)

const timeLayout = "2006-01-02 15:04"

// ShortID returns the first eight characters of an id.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// RenderList writes one line per item followed by a count footer.
func RenderList(w io.Writer, items []*types.WorkItem) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, RenderMuted("No work items found."))
		return err
	}
	var b strings.Builder
	for _, item := range items {
		b.WriteString(listLine(item))
		b.WriteString("\n")
	}
	noun := "items"
	if len(items) == 1 {
		noun = "item"
	}
	b.WriteString(RenderMuted(fmt.Sprintf("%d %s", len(items), noun)))
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func listLine(item *types.WorkItem) string {
	attrs := []string{string(item.Kind), RenderStatus(item.Status), RenderPriority(item.Meta.Priority)}
	if item.Bug != nil {
		attrs = append(attrs, RenderSeverity(item.Bug.Severity))
	}
	line := StatusIcon(item.Status) + " " + RenderAccent(ShortID(item.ID)) + "  " +
		TruncateSimple(item.Title, DefaultTitleWidth) + "  " +
		RenderMuted("[") + strings.Join(attrs, RenderMuted(" · ")) + RenderMuted("]")
	if len(item.Meta.Tags) > 0 {
		tags := make([]string, len(item.Meta.Tags))
		for i, t := range item.Meta.Tags {
			tags[i] = "#" + t
		}
		line += "  " + RenderMuted(strings.Join(tags, " "))
	}
	return line
}

// ItemOptions controls RenderItem.
type ItemOptions struct {
	// Full disables content truncation.
	Full bool
}

// RenderItem writes the detail view of a single item.
func RenderItem(w io.Writer, item *types.WorkItem, opts ItemOptions) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s · %s\n", StatusIcon(item.Status), RenderAccent(item.ID), RenderBold(item.Title))
	field := func(name, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s %s\n", RenderMuted(padRight(name+":", 14)), value)
	}

	field("Project", item.ProjectID)
	field("Kind", string(item.Kind))
	field("Status", RenderStatus(item.Status))
	field("Priority", RenderPriority(item.Meta.Priority))
	if item.Bug != nil {
		bug := item.Bug
		field("Severity", RenderSeverity(bug.Severity))
		field("Category", bug.Category)
		field("Source", bug.Source)
		field("Environment", bug.Environment)
		field("Reported by", bug.ReportedBy)
		if !bug.DateReported.IsZero() {
			field("Reported", bug.DateReported.UTC().Format(timeLayout))
		}
		field("Resolved by", bug.ResolvedBy)
		if bug.DateResolved != nil {
			field("Resolved", bug.DateResolved.UTC().Format(timeLayout))
		}
		field("Fix commit", bug.FixCommit)
		field("Test case", bug.TestCase)
	}
	if item.Meta.Assignee != nil {
		field("Assignee", *item.Meta.Assignee)
	}
	if len(item.Meta.Tags) > 0 {
		field("Tags", strings.Join(item.Meta.Tags, ", "))
	}
	if item.Meta.EstimatedTime != nil {
		field("Estimated", formatHours(*item.Meta.EstimatedTime))
	}
	if item.Meta.ActualTime != nil {
		field("Actual", formatHours(*item.Meta.ActualTime))
	}
	if len(item.Meta.Dependencies) > 0 {
		field("Depends on", strings.Join(item.Meta.Dependencies, ", "))
	}
	field("Created", formatTime(item.CreatedAt))
	field("Updated", formatTime(item.UpdatedAt))

	if item.Bug != nil && item.Bug.Reproduction != "" {
		b.WriteString("\n")
		b.WriteString(RenderCategory("Reproduction"))
		b.WriteString("\n")
		b.WriteString(WrapText(item.Bug.Reproduction, DefaultWrapWidth))
		b.WriteString("\n")
	}
	if item.Content != "" {
		content := item.Content
		if !opts.Full {
			content = TruncateLines(content, DefaultMaxLines, DefaultContextLines)
		}
		b.WriteString("\n")
		b.WriteString(RenderCategory("Content"))
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(RenderMarkdown(content), "\n"))
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderStats writes the aggregate view of a project.
func RenderStats(w io.Writer, project string, s types.Statistics) error {
	var b strings.Builder
	title := "Statistics"
	if project != "" {
		title += " for " + project
	}
	b.WriteString(RenderBold(title))
	b.WriteString("\n")
	b.WriteString(RenderSeparator())
	b.WriteString("\n")
	row := func(name string, n int) {
		fmt.Fprintf(&b, "  %s %d\n", padRight(name, 14), n)
	}
	row("Total", s.Total)
	row("Open", s.Open)

	section := func(name string) {
		b.WriteString("\n")
		b.WriteString(RenderCategory(name))
		b.WriteString("\n")
	}

	section("By status")
	for _, st := range types.AllStatuses() {
		if n := s.ByStatus[st]; n > 0 {
			row(string(st), n)
		}
	}
	section("By kind")
	for _, k := range types.Kinds {
		if n := s.ByKind[k]; n > 0 {
			row(string(k), n)
		}
	}
	section("By priority")
	for i := len(types.Priorities) - 1; i >= 0; i-- {
		p := types.Priorities[i]
		if n := s.ByPriority[p]; n > 0 {
			row(string(p), n)
		}
	}

	if s.Bugs.Total > 0 {
		section("Bugs")
		row("Total", s.Bugs.Total)
		for _, sev := range types.Severities {
			if n := s.Bugs.BySeverity[sev]; n > 0 {
				row(string(sev), n)
			}
		}
		categories := make([]string, 0, len(s.Bugs.ByCategory))
		for c := range s.Bugs.ByCategory {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		for _, c := range categories {
			row("category "+c, s.Bugs.ByCategory[c])
		}
		if s.Bugs.Resolved > 0 {
			fmt.Fprintf(&b, "  %s %.1fh over %d resolved\n", padRight("Avg fix time", 14), s.Bugs.AverageResolutionHours, s.Bugs.Resolved)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func padRight(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64) + "h"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
