package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLocalConfig(t *testing.T) {
	dir := t.TempDir()
	content := `# comment
backend: sqlite
data-dir: /var/lib/wi
actor: carol
project: web
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := LoadLocalConfig(dir)
	if cfg.Backend != "sqlite" || cfg.DataDir != "/var/lib/wi" || cfg.Actor != "carol" || cfg.Project != "web" {
		t.Errorf("LoadLocalConfig() = %+v", cfg)
	}
}

func TestLoadLocalConfigMissingOrInvalid(t *testing.T) {
	if cfg := LoadLocalConfig(t.TempDir()); cfg == nil || *cfg != (LocalConfig{}) {
		t.Errorf("missing file should give empty config, got %+v", cfg)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("backend: [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}
	if cfg := LoadLocalConfig(dir); *cfg != (LocalConfig{}) {
		t.Errorf("invalid file should give empty config, got %+v", cfg)
	}
}

func TestLoadLocalConfigWithEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("backend: jsonl\nactor: a\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WI_BACKEND", "memory")
	t.Setenv("WI_ACTOR", "")

	cfg := LoadLocalConfigWithEnv(dir)
	if cfg.Backend != "memory" {
		t.Errorf("Backend = %q, want env override", cfg.Backend)
	}
	if cfg.Actor != "a" {
		t.Errorf("Actor = %q, empty env must not override", cfg.Actor)
	}
}
