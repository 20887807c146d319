package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/workitems/internal/types"
	"github.com/steveyegge/workitems/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <id>...",
	Short: "Show work item details",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(rootCtx, openOptions{})
		if err != nil {
			return err
		}
		full, _ := cmd.Flags().GetBool("full")
		noPager, _ := cmd.Flags().GetBool("no-pager")

		items := make([]*types.WorkItem, 0, len(args))
		for _, arg := range args {
			id, err := a.resolveID(arg)
			if err != nil {
				return err
			}
			item, err := a.Store.Get(id)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		if jsonOutput {
			if len(items) == 1 {
				return outputJSON(cmd, items[0])
			}
			return outputJSON(cmd, items)
		}

		var b strings.Builder
		for i, item := range items {
			if i > 0 {
				fmt.Fprintln(&b)
			}
			if err := ui.RenderItem(&b, item, ui.ItemOptions{Full: full}); err != nil {
				return err
			}
		}
		return ui.ToPager(cmd.OutOrStdout(), b.String(), ui.PagerOptions{NoPager: noPager})
	},
}

func init() {
	showCmd.Flags().Bool("full", false, "Show the full description without truncation")
	showCmd.Flags().Bool("no-pager", false, "Disable the pager")
	rootCmd.AddCommand(showCmd)
}
