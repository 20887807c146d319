package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// KnownKeys are the settings `wi config set` accepts.
var KnownKeys = map[string]bool{
	"backend":                true,
	"data-dir":               true,
	"dsn":                    true,
	"actor":                  true,
	"project":                true,
	"json":                   true,
	"no-color":               true,
	"lifecycle.strict":       true,
	"defaults-file":          true,
	"notify.webhook-url":     true,
	"notify.webhook-timeout": true,
	"lock-timeout":           true,
}

// IsKnownKey reports whether key is a recognised setting.
func IsKnownKey(key string) bool {
	return KnownKeys[key]
}

// SortedKeys returns KnownKeys in order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetYamlConfig sets a configuration value in the project's config.yaml file.
// It handles both adding new keys and updating existing (possibly commented) keys.
// Without a project config one is created under the working directory.
func SetYamlConfig(key, value string) (string, error) {
	if !IsKnownKey(key) {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	configPath, err := FindProjectConfig()
	if err != nil {
		cwd, werr := os.Getwd()
		if werr != nil {
			return "", fmt.Errorf("failed to get working directory: %w", werr)
		}
		configPath = filepath.Join(cwd, ProjectDirName, configFileName)
		if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", ProjectDirName, err)
		}
	}

	content, err := os.ReadFile(configPath) //nolint:gosec // configPath is from FindProjectConfig
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read config.yaml: %w", err)
	}

	newContent := updateYamlKey(string(content), key, value)
	if err := os.WriteFile(configPath, []byte(newContent+"\n"), 0o600); err != nil { //nolint:gosec // configPath is validated
		return "", fmt.Errorf("failed to write config.yaml: %w", err)
	}
	return configPath, nil
}

// updateYamlKey updates a key in yaml content, handling commented-out keys.
// If the key exists (commented or not), it updates it in place.
// If the key doesn't exist, it appends it at the end.
// Dotted keys are written flat ("lifecycle.strict: true"); viper reads
// them as nested keys.
func updateYamlKey(content, key, value string) string {
	newLine := fmt.Sprintf("%s: %s", key, formatYamlValue(value))

	// Matches: "key: value" or "# key: value" with optional leading whitespace
	keyPattern := regexp.MustCompile(`^(\s*)(#\s*)?` + regexp.QuoteMeta(key) + `\s*:`)

	found := false
	var result []string

	scanner := bufio.NewScanner(strings.NewReader(strings.TrimRight(content, "\n")))
	for scanner.Scan() {
		line := scanner.Text()
		if !found && keyPattern.MatchString(line) {
			matches := keyPattern.FindStringSubmatch(line)
			result = append(result, matches[1]+newLine)
			found = true
			continue
		}
		result = append(result, line)
	}

	if !found {
		if len(result) > 0 && result[len(result)-1] != "" {
			result = append(result, "")
		}
		result = append(result, newLine)
	}

	return strings.Join(result, "\n")
}

// formatYamlValue formats a value appropriately for YAML.
func formatYamlValue(value string) string {
	lower := strings.ToLower(value)
	if lower == "true" || lower == "false" {
		return lower
	}
	if isNumeric(value) || isDuration(value) {
		return value
	}
	if needsQuoting(value) {
		return fmt.Sprintf("%q", value)
	}
	return value
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		if c == '-' && i == 0 {
			continue
		}
		if c == '.' {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isDuration(s string) bool {
	if len(s) < 2 {
		return false
	}
	suffix := s[len(s)-1]
	if suffix != 's' && suffix != 'm' && suffix != 'h' {
		return false
	}
	return isNumeric(s[:len(s)-1])
}

func needsQuoting(s string) bool {
	special := []string{":", "#", "[", "]", "{", "}", ",", "&", "*", "!", "|", ">", "'", "\"", "%", "@", "`"}
	for _, c := range special {
		if strings.Contains(s, c) {
			return true
		}
	}
	return strings.TrimSpace(s) != s || s == ""
}
