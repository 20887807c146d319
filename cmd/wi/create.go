package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/workitems/internal/store"
	"github.com/steveyegge/workitems/internal/types"
)

var createCmd = &cobra.Command{
	Use:     "create [title]",
	Aliases: []string{"new"},
	Short:   "Create a new work item",
	Long: `Create a new work item in the current project.

Kind defaults to task. Bugs start open and record the report date; other
kinds start in todo. Bug-only flags (--severity, --category, ...) require
--kind bug.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringP("title", "t", "", "Title (alternative to the positional argument)")
	createCmd.Flags().StringP("content", "d", "", "Description (markdown)")
	createCmd.Flags().StringP("kind", "k", "task", "Kind: task, bug, feature or improvement")
	createCmd.Flags().StringP("status", "s", "", "Initial status (default: the kind's initial status)")
	addMetadataFlags(createCmd)
	addBugFlags(createCmd)
	createCmd.Flags().Bool("form", false, "Fill in the item with an interactive form")
	rootCmd.AddCommand(createCmd)
}

func addMetadataFlags(cmd *cobra.Command) {
	cmd.Flags().String("priority", "", "Priority: low, medium, high or urgent")
	cmd.Flags().StringSlice("tags", nil, "Comma-separated tags")
	cmd.Flags().String("assignee", "", "Assignee")
	cmd.Flags().Float64("estimate", 0, "Estimated time in hours")
	cmd.Flags().StringSlice("depends", nil, "Comma-separated ids this item depends on")
}

// bugFlags maps bug-only flags to their patch keys.
var bugFlags = []struct{ flag, key, usage string }{
	{"severity", "severity", "Bug severity: critical, major, medium, minor or trivial"},
	{"category", "category", "Bug category"},
	{"source", "source", "Where the bug was found"},
	{"environment", "environment", "Environment the bug occurs in"},
	{"reproduction", "reproduction", "Steps to reproduce"},
	{"reported-by", "reported_by", "Reporter"},
}

func addBugFlags(cmd *cobra.Command) {
	for _, f := range bugFlags {
		cmd.Flags().String(f.flag, "", f.usage)
	}
}

func runCreate(cmd *cobra.Command, args []string) error {
	if form, _ := cmd.Flags().GetBool("form"); form {
		in, err := runCreateForm()
		if err != nil {
			return err
		}
		if in == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Item creation cancelled.")
			return nil
		}
		return createItem(cmd, *in)
	}

	in, err := createInputFromFlags(cmd, args)
	if err != nil {
		return err
	}
	return createItem(cmd, in)
}

func createInputFromFlags(cmd *cobra.Command, args []string) (store.CreateInput, error) {
	title, _ := cmd.Flags().GetString("title")
	if len(args) > 0 {
		if title != "" && title != args[0] {
			return store.CreateInput{}, fmt.Errorf("title given both as argument and --title")
		}
		title = args[0]
	}
	if strings.TrimSpace(title) == "" {
		return store.CreateInput{}, fmt.Errorf("%w: title is required", types.ErrValidation)
	}

	content, _ := cmd.Flags().GetString("content")
	kind, _ := cmd.Flags().GetString("kind")
	status, _ := cmd.Flags().GetString("status")
	in := store.CreateInput{
		Title:   title,
		Content: content,
		Kind:    types.Kind(strings.ToLower(kind)),
		Status:  types.Status(strings.ToLower(status)),
	}

	priority, _ := cmd.Flags().GetString("priority")
	in.Meta.Priority = types.Priority(strings.ToLower(priority))
	in.Meta.Tags, _ = cmd.Flags().GetStringSlice("tags")
	in.Meta.Dependencies, _ = cmd.Flags().GetStringSlice("depends")
	if cmd.Flags().Changed("assignee") {
		assignee, _ := cmd.Flags().GetString("assignee")
		in.Meta.Assignee = &assignee
	}
	if cmd.Flags().Changed("estimate") {
		estimate, _ := cmd.Flags().GetFloat64("estimate")
		in.Meta.EstimatedTime = &estimate
	}

	for _, f := range bugFlags {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		if in.Bug == nil {
			in.Bug = &types.BugDetails{}
		}
		v, _ := cmd.Flags().GetString(f.flag)
		setBugField(in.Bug, f.key, v)
	}
	return in, nil
}

func setBugField(b *types.BugDetails, key, v string) {
	switch key {
	case "severity":
		b.Severity = types.Severity(strings.ToLower(v))
	case "category":
		b.Category = v
	case "source":
		b.Source = v
	case "environment":
		b.Environment = v
	case "reproduction":
		b.Reproduction = v
	case "reported_by":
		b.ReportedBy = v
	}
}

func createItem(cmd *cobra.Command, in store.CreateInput) error {
	a, err := openApp(rootCtx, openOptions{})
	if err != nil {
		return err
	}
	in.ProjectID = a.Project
	item, err := a.Store.Create(rootCtx, in)
	if err != nil {
		return err
	}
	if jsonOutput {
		return outputJSON(cmd, item)
	}
	reportEvents(cmd, a)
	if !quietFlag {
		fmt.Fprintf(cmd.OutOrStdout(), "  ID: %s\n", item.ID)
	}
	return nil
}
