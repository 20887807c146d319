package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/workitems/internal/store"
	"github.com/steveyegge/workitems/internal/types"
)

var updateCmd = &cobra.Command{
	Use:   "update <id>...",
	Short: "Update one or more work items",
	Long: `Update fields of one or more work items. Only the flags you pass
change; with several ids the same change is applied to each, and ids that
fail are reported without undoing the others.

An empty --assignee clears the assignee; --estimate-clear and
--actual-clear remove recorded hours.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringP("title", "t", "", "New title")
	updateCmd.Flags().StringP("content", "d", "", "New description")
	updateCmd.Flags().StringP("kind", "k", "", "New kind")
	updateCmd.Flags().StringP("status", "s", "", "New status")
	addMetadataFlags(updateCmd)
	updateCmd.Flags().Float64("actual", 0, "Actual time spent in hours")
	updateCmd.Flags().Bool("estimate-clear", false, "Remove the estimate")
	updateCmd.Flags().Bool("actual-clear", false, "Remove the actual time")
	addBugFlags(updateCmd)
	updateCmd.Flags().String("resolved-by", "", "Resolver of the bug")
	updateCmd.Flags().String("fix-commit", "", "Commit that fixed the bug")
	updateCmd.Flags().String("test-case", "", "Test case covering the fix")
	rootCmd.AddCommand(updateCmd)
}

// patchFromFlags collects the explicitly set flags into a patch.
func patchFromFlags(cmd *cobra.Command) (types.Patch, error) {
	updates := make(map[string]interface{})
	str := func(flag, key string) {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetString(flag)
			updates[key] = v
		}
	}
	lower := func(flag, key string) {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetString(flag)
			updates[key] = strings.ToLower(v)
		}
	}

	str("title", "title")
	str("content", "content")
	lower("kind", "kind")
	lower("status", "status")
	lower("priority", "priority")
	if cmd.Flags().Changed("tags") {
		v, _ := cmd.Flags().GetStringSlice("tags")
		updates["tags"] = v
	}
	if cmd.Flags().Changed("depends") {
		v, _ := cmd.Flags().GetStringSlice("depends")
		updates["dependencies"] = v
	}
	if cmd.Flags().Changed("assignee") {
		if v, _ := cmd.Flags().GetString("assignee"); v != "" {
			updates["assignee"] = v
		} else {
			updates["assignee"] = nil
		}
	}
	hours := func(flag, clearFlag, key string) {
		if drop, _ := cmd.Flags().GetBool(clearFlag); drop {
			updates[key] = nil
		} else if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetFloat64(flag)
			updates[key] = v
		}
	}
	hours("estimate", "estimate-clear", "estimated_time")
	hours("actual", "actual-clear", "actual_time")

	for _, f := range bugFlags {
		if f.key == "severity" {
			lower(f.flag, f.key)
			continue
		}
		str(f.flag, f.key)
	}
	str("resolved-by", "resolved_by")
	str("fix-commit", "fix_commit")
	str("test-case", "test_case")

	return types.PatchFromMap(updates)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	patch, err := patchFromFlags(cmd)
	if err != nil {
		return err
	}
	if patch.IsEmpty() {
		return fmt.Errorf("%w: no updates specified", types.ErrValidation)
	}
	return applyPatch(cmd, args, patch)
}

// applyPatch updates one id directly, or several through BulkUpdate.
func applyPatch(cmd *cobra.Command, ids []string, patch types.Patch) error {
	a, err := openApp(rootCtx, openOptions{})
	if err != nil {
		return err
	}
	if ids, err = a.resolveIDs(ids); err != nil {
		return err
	}
	if len(ids) == 1 {
		item, err := a.Store.Update(rootCtx, ids[0], patch)
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(cmd, item)
		}
		reportEvents(cmd, a)
		return nil
	}
	return reportBulk(cmd, a, a.Store.BulkUpdate(rootCtx, ids, patch))
}

func reportBulk(cmd *cobra.Command, a *App, res store.BulkResult) error {
	if jsonOutput {
		type failure struct {
			ID    string `json:"id"`
			Error string `json:"error"`
		}
		out := struct {
			store.BulkResult
			Failed []failure `json:"failed,omitempty"`
		}{BulkResult: res}
		for _, f := range res.Failed {
			out.Failed = append(out.Failed, failure{ID: f.ID, Error: f.Err.Error()})
		}
		if err := outputJSON(cmd, out); err != nil {
			return err
		}
	} else {
		reportEvents(cmd, a)
	}
	return res.Err()
}

var statusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Move a work item to a new status",
	Long: `Move a work item to a new status. Bugs follow their lifecycle:
moving to resolved records the resolution date and resolver (--by, else
the actor), and moving back to an open status clears the resolution.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := types.StatusPatch(types.Status(strings.ToLower(args[1])))
		if by, _ := cmd.Flags().GetString("by"); by != "" {
			patch.Bug = &types.BugPatch{ResolvedBy: &by}
		}
		return applyPatch(cmd, args[:1], patch)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Resolve a bug, or mark another item done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(rootCtx, openOptions{})
		if err != nil {
			return err
		}
		by, _ := cmd.Flags().GetString("by")
		id, err := a.resolveID(args[0])
		if err != nil {
			return err
		}
		item, err := a.Store.Resolve(rootCtx, id, by)
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(cmd, item)
		}
		reportEvents(cmd, a)
		return nil
	},
}

var reopenCmd = &cobra.Command{
	Use:   "reopen <id>",
	Short: "Move a work item back to its initial status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(rootCtx, openOptions{})
		if err != nil {
			return err
		}
		id, err := a.resolveID(args[0])
		if err != nil {
			return err
		}
		item, err := a.Store.Reopen(rootCtx, id)
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(cmd, item)
		}
		reportEvents(cmd, a)
		return nil
	},
}

func init() {
	statusCmd.Flags().String("by", "", "Resolver recorded when a bug moves to resolved")
	resolveCmd.Flags().String("by", "", "Resolver (default: the actor)")
	rootCmd.AddCommand(statusCmd, resolveCmd, reopenCmd)
}
