package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/workitems/internal/config"
	"github.com/steveyegge/workitems/internal/types"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Read and write wi configuration.

Values come from command-line flags, WI_* environment variables (dots and
dashes become underscores, e.g. WI_LIFECYCLE_STRICT), .workitems/config.yaml
in the project, then ~/.config/workitems/config.yaml. 'config set' writes
the project file.`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		path, err := config.SetYamlConfig(key, value)
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrValidation, err)
		}
		if jsonOutput {
			return outputJSON(cmd, map[string]string{
				"key":      key,
				"value":    value,
				"location": path,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s (in %s)\n", key, value, path)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if !config.IsKnownKey(key) {
			return fmt.Errorf("%w: unknown config key %q", types.ErrValidation, key)
		}
		value := config.GetString(key)
		if jsonOutput {
			return outputJSON(cmd, map[string]string{"key": key, "value": value})
		}
		if value == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (not set)\n", key)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := config.SortedKeys()
		if jsonOutput {
			out := make(map[string]string, len(keys))
			for _, k := range keys {
				out[k] = config.GetString(k)
			}
			return outputJSON(cmd, out)
		}
		w := cmd.OutOrStdout()
		if path := config.ConfigFileUsed(); path != "" {
			fmt.Fprintf(w, "# %s\n", path)
		}
		for _, k := range keys {
			fmt.Fprintf(w, "%s = %s\n", k, config.GetString(k))
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetCmd, configGetCmd, configListCmd)
	rootCmd.AddCommand(configCmd)
}
