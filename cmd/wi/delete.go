package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>...",
	Aliases: []string{"rm"},
	Short:   "Delete one or more work items",
	Long: `Delete work items by id or unique id prefix. With several ids each is
deleted in turn; failures are reported per id and do not undo earlier
deletions.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(rootCtx, openOptions{})
		if err != nil {
			return err
		}
		ids, err := a.resolveIDs(args)
		if err != nil {
			return err
		}
		if len(ids) == 1 {
			if err := a.Store.Delete(rootCtx, ids[0]); err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(cmd, map[string][]string{"deleted": ids})
			}
			reportEvents(cmd, a)
			return nil
		}
		return reportBulk(cmd, a, a.Store.BulkDelete(rootCtx, ids))
	},
}

var duplicateCmd = &cobra.Command{
	Use:     "duplicate <id>",
	Aliases: []string{"dup"},
	Short:   "Copy a work item under a new id",
	Long: `Copy a work item. The copy gets a new id, a " (Copy)" title suffix and
its kind's initial status; recorded actual time and bug resolution are not
copied.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(rootCtx, openOptions{})
		if err != nil {
			return err
		}
		id, err := a.resolveID(args[0])
		if err != nil {
			return err
		}
		item, err := a.Store.Duplicate(rootCtx, id)
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
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd, duplicateCmd)
}
