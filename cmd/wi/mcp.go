package main

import (
	"github.com/spf13/cobra"

	wimcp "github.com/steveyegge/workitems/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the work item tools over MCP (stdio)",
	Long: `Run a Model Context Protocol server on stdin/stdout. Tools operate on
the current project unless a call names another project_id; every stored
project is loaded at start.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(rootCtx, openOptions{allProjects: true})
		if err != nil {
			return err
		}
		return wimcp.Serve(wimcp.NewServer(a.Store, wimcp.Config{
			Project: a.Project,
			Version: Version,
		}))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
