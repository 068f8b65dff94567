package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	cfg := &Config{
		RepositoryFormatVersion: 0,
		FileMode:                false,
		Bare:                    true,
		DefaultBranch:           "trunk",
	}
	if err := writeConfig(path, cfg); err != nil {
		t.Fatalf("writeConfig: %v", err)
	}

	loaded, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if loaded.FileMode != cfg.FileMode || loaded.Bare != cfg.Bare {
		t.Errorf("loaded = %+v, want %+v", loaded, cfg)
	}
	if loaded.DefaultBranch != "trunk" {
		t.Errorf("DefaultBranch = %q, want trunk", loaded.DefaultBranch)
	}
}

func TestConfigRejectsUnsupportedFormatVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := "[core]\nrepositoryformatversion = 1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected error for repositoryformatversion 1")
	}
}

func TestConfigMissingFileFails(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
