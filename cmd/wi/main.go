package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/steveyegge/workitems/internal/config"
	"github.com/steveyegge/workitems/internal/debug"
	"github.com/steveyegge/workitems/internal/ui"
)

var (
	projectFlag string
	backendFlag string
	dataDirFlag string
	dsnFlag     string
	actor       string
	jsonOutput  bool
	verboseFlag bool // Enable verbose/debug output
	quietFlag   bool // Suppress non-essential output
	noColorFlag bool

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc

	// Opened on demand by commands that touch the store; closed after the command.
	app *App
)

// Annotation marking commands that run without configuration, like version.
const skipSetupAnnotation = "wi:skip-setup"

var rootCmd = &cobra.Command{
	Use:           "wi",
	Short:         "wi - Work item tracker",
	Long:          `Track tasks, features, bugs and notes per project, with a lifecycle for bugs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			printVersion(cmd)
			return nil
		}
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupSignalContext()
		debug.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)
		if cmd.Annotations[skipSetupAnnotation] == "true" {
			return nil
		}
		if err := config.Initialize(); err != nil {
			return err
		}
		applyFlagOverrides(cmd)
		ui.SetNoColor(config.GetBool("no-color"))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeApp()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "p", "", "Project id (default: config 'project' or the current directory name)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Storage backend: jsonl, sqlite, mysql or memory")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Data directory (default: .workitems)")
	rootCmd.PersistentFlags().StringVar(&dsnFlag, "dsn", "", "Database file or DSN for sql backends")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "Actor name recorded as resolver (default: $WI_ACTOR or $USER)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
	rootCmd.Flags().BoolP("version", "V", false, "Print version information")
}

func setupSignalContext() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// applyFlagOverrides pushes explicitly set flags into config so that
// flags > environment > config file > defaults.
func applyFlagOverrides(cmd *cobra.Command) {
	overrides := []struct {
		flag, key string
		value     interface{}
	}{
		{"project", "project", projectFlag},
		{"backend", "backend", backendFlag},
		{"data-dir", "data-dir", dataDirFlag},
		{"dsn", "dsn", dsnFlag},
		{"actor", "actor", actor},
		{"json", "json", jsonOutput},
		{"no-color", "no-color", noColorFlag},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			config.Set(o.key, o.value)
		}
	}
	jsonOutput = config.GetBool("json")
}

func main() {
	err := rootCmd.Execute()
	// PersistentPostRun is skipped when a command fails.
	closeApp()
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}
