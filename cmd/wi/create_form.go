package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/steveyegge/workitems/internal/store"
	"github.com/steveyegge/workitems/internal/types"
)

// runCreateForm collects a new item interactively. It returns nil without
// error when the user aborts.
func runCreateForm() (*store.CreateInput, error) {
	var (
		title       string
		content     string
		kind        = string(types.KindTask)
		priority    = string(types.PriorityMedium)
		assignee    string
		tagsInput   string
		estimateStr string
	)

	kindOptions := make([]huh.Option[string], 0, len(types.Kinds))
	for _, k := range types.Kinds {
		kindOptions = append(kindOptions, huh.NewOption(strings.ToUpper(string(k[:1]))+string(k[1:]), string(k)))
	}
	priorityOptions := []huh.Option[string]{
		huh.NewOption("Urgent", string(types.PriorityUrgent)),
		huh.NewOption("High", string(types.PriorityHigh)),
		huh.NewOption("Medium (default)", string(types.PriorityMedium)),
		huh.NewOption("Low", string(types.PriorityLow)),
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Description("Brief summary of the work item (required)").
				Placeholder("e.g., Login fails with expired session").
				Value(&title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					if len(s) > 500 {
						return fmt.Errorf("title must be 500 characters or less")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Description("Markdown content (optional)").
				CharLimit(5000).
				Value(&content),
			huh.NewSelect[string]().
				Title("Kind").
				Options(kindOptions...).
				Value(&kind),
			huh.NewSelect[string]().
				Title("Priority").
				Options(priorityOptions...).
				Value(&priority),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Assignee").
				Description("Who should work on this? (optional)").
				Value(&assignee),
			huh.NewInput().
				Title("Tags").
				Description("Comma-separated tags (optional)").
				Placeholder("e.g., backend, auth").
				Value(&tagsInput),
			huh.NewInput().
				Title("Estimate").
				Description("Estimated hours (optional)").
				Value(&estimateStr).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil || v < 0 {
						return fmt.Errorf("estimate must be a non-negative number")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Create this item?").
				Affirmative("Create").
				Negative("Cancel"),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, nil
		}
		return nil, fmt.Errorf("form error: %w", err)
	}

	in := &store.CreateInput{
		Title:   strings.TrimSpace(title),
		Content: content,
		Kind:    types.Kind(kind),
	}
	in.Meta.Priority = types.Priority(priority)
	if tagsInput != "" {
		in.Meta.Tags = strings.Split(tagsInput, ",")
	}
	if a := strings.TrimSpace(assignee); a != "" {
		in.Meta.Assignee = &a
	}
	if s := strings.TrimSpace(estimateStr); s != "" {
		v, _ := strconv.ParseFloat(s, 64)
		in.Meta.EstimatedTime = &v
	}
	return in, nil
}
