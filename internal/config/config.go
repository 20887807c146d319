// Package config holds wi configuration.
//
// Sources, in decreasing precedence: explicit Set (command-line flags bound
// by the CLI), WI_* environment variables, the project file
// .workitems/config.yaml found by walking up from the working directory,
// the user file ~/.config/workitems/config.yaml, and built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProjectDirName is the per-project configuration and data directory.
const ProjectDirName = ".workitems"

const configFileName = "config.yaml"

var v *viper.Viper

// Initialize sets up the viper configuration singleton.
// Should be called once at application startup.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvPrefix("WI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	path, err := findConfigFile()
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", "jsonl")
	v.SetDefault("data-dir", "")
	v.SetDefault("dsn", "")
	v.SetDefault("actor", "")
	v.SetDefault("project", "")
	v.SetDefault("json", false)
	v.SetDefault("no-color", false)
	v.SetDefault("lifecycle.strict", false)
	v.SetDefault("defaults-file", "")
	v.SetDefault("notify.webhook-url", "")
	v.SetDefault("notify.webhook-timeout", 5*time.Second)
	v.SetDefault("lock-timeout", 5*time.Second)
}

// findConfigFile returns the project config if one exists above the working
// directory, else the user config, else "".
func findConfigFile() (string, error) {
	if path, err := FindProjectConfig(); err == nil {
		return path, nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", nil
	}
	path := filepath.Join(configDir, "workitems", configFileName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return "", nil
}

// FindProjectConfig walks up from the working directory looking for
// .workitems/config.yaml.
func FindProjectConfig() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	for dir := cwd; ; dir = filepath.Dir(dir) {
		path := filepath.Join(dir, ProjectDirName, configFileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		if dir == filepath.Dir(dir) {
			break
		}
	}
	return "", fmt.Errorf("no %s/%s found", ProjectDirName, configFileName)
}

// ConfigFileUsed returns the path of the loaded config file, if any.
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// DataDir returns the configured data directory. Without one it defaults to
// the .workitems directory next to the discovered project config, then to
// .workitems under the working directory.
func DataDir() string {
	if dir := GetString("data-dir"); dir != "" {
		return dir
	}
	if path, err := FindProjectConfig(); err == nil {
		return filepath.Dir(path)
	}
	return ProjectDirName
}

// ResetForTesting drops the singleton so tests start from a clean state.
func ResetForTesting() {
	v = nil
}

// GetString retrieves a string configuration value
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt retrieves an integer configuration value
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// GetDuration retrieves a duration configuration value
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// Set sets a configuration value, overriding every other source.
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// AllSettings returns the effective configuration.
func AllSettings() map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v.AllSettings()
}
