package repo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// Config holds the repository settings stored in .grit/config (INI format).
// The core receives it as a plain structure; parsing stays at the edges.
type Config struct {
	RepositoryFormatVersion int
	FileMode                bool
	Bare                    bool
	DefaultBranch           string
}

func defaultConfig() *Config {
	return &Config{
		RepositoryFormatVersion: 0,
		FileMode:                true,
		Bare:                    false,
		DefaultBranch:           "main",
	}
}

func (r *Repo) configPath() string {
	return filepath.Join(r.GritDir, "config")
}

func loadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("load config: %s missing", path)
	}
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg := defaultConfig()
	core := f.Section("core")
	cfg.RepositoryFormatVersion = core.Key("repositoryformatversion").MustInt(0)
	cfg.FileMode = core.Key("filemode").MustBool(true)
	cfg.Bare = core.Key("bare").MustBool(false)
	if branch := f.Section("init").Key("defaultbranch").String(); branch != "" {
		cfg.DefaultBranch = branch
	}

	if cfg.RepositoryFormatVersion != 0 {
		return nil, fmt.Errorf("load config: unsupported repositoryformatversion %d", cfg.RepositoryFormatVersion)
	}
	return cfg, nil
}

// writeConfig persists cfg atomically via temp file + rename.
func writeConfig(path string, cfg *Config) error {
	f := ini.Empty()
	core, err := f.NewSection("core")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	core.NewKey("repositoryformatversion", fmt.Sprintf("%d", cfg.RepositoryFormatVersion))
	core.NewKey("filemode", fmt.Sprintf("%t", cfg.FileMode))
	core.NewKey("bare", fmt.Sprintf("%t", cfg.Bare))
	initSec, err := f.NewSection("init")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	initSec.NewKey("defaultbranch", cfg.DefaultBranch)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return atomicWriteFile(path, buf.Bytes(), 0o644)
}

// atomicWriteFile writes data to a temp file in the target directory and
// renames it into place.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("atomic write %s: tmpfile: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("atomic write %s: write: %w", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("atomic write %s: chmod: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("atomic write %s: close: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("atomic write %s: rename: %w", path, err)
	}
	return nil
}
