package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig represents the subset of config.yaml fields that need to be read
// directly from the file rather than through the viper singleton, e.g. when
// inspecting a data directory other than the one viper was initialized with.
type LocalConfig struct {
	Backend string `yaml:"backend"`
	DataDir string `yaml:"data-dir"`
	DSN     string `yaml:"dsn"`
	Actor   string `yaml:"actor"`
	Project string `yaml:"project"`
}

// LoadLocalConfig reads and parses config.yaml directly from dir.
//
// Returns an empty LocalConfig (not nil) if the file doesn't exist or can't be parsed.
func LoadLocalConfig(dir string) *LocalConfig {
	configPath := filepath.Join(dir, configFileName)
	data, err := os.ReadFile(configPath) // #nosec G304 - config file path from dir
	if err != nil {
		return &LocalConfig{}
	}

	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &LocalConfig{}
	}

	return &cfg
}

// LoadLocalConfigWithEnv reads config.yaml and applies environment variable overrides.
// Environment variables take precedence over config file values.
func LoadLocalConfigWithEnv(dir string) *LocalConfig {
	cfg := LoadLocalConfig(dir)
	if backend := os.Getenv("WI_BACKEND"); backend != "" {
		cfg.Backend = backend
	}
	if actor := os.Getenv("WI_ACTOR"); actor != "" {
		cfg.Actor = actor
	}
	return cfg
}
