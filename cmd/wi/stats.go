package main

import (
	"github.com/spf13/cobra"

	"github.com/steveyegge/workitems/internal/ui"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show project statistics",
	Long: `Show counts by status, kind and priority, plus bug severity, category
and average resolution time. With --all the statistics cover every stored
project.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		a, err := openApp(rootCtx, openOptions{allProjects: all})
		if err != nil {
			return err
		}
		project := a.Project
		if all {
			project = ""
		}
		s := a.Store.Stats(project)
		if jsonOutput {
			return outputJSON(cmd, s)
		}
		label := project
		if all {
			label = "all projects"
		}
		return ui.RenderStats(cmd.OutOrStdout(), label, s)
	},
}

func init() {
	statsCmd.Flags().Bool("all", false, "Aggregate every stored project")
	rootCmd.AddCommand(statsCmd)
}
