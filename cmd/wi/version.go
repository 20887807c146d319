package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	// Version is the current version of wi (overridden by ldflags at build time)
	Version = "0.3.0"
	// Build can be set via ldflags at compile time
	Build = "dev"
	// Commit is the git revision the binary was built from (optional ldflag)
	Commit = ""
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{skipSetupAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		printVersion(cmd)
		return nil
	},
}

func printVersion(cmd *cobra.Command) {
	commit := resolveCommitHash()
	if jsonOutput {
		result := map[string]string{
			"version": Version,
			"build":   Build,
		}
		if commit != "" {
			result["commit"] = commit
		}
		_ = outputJSON(cmd, result)
		return
	}
	if commit != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "wi version %s (%s: %s)\n", Version, Build, shortCommit(commit))
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wi version %s (%s)\n", Version, Build)
}

func resolveCommitHash() string {
	if Commit != "" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				return setting.Value
			}
		}
	}
	return ""
}

func shortCommit(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
