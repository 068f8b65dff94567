package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gritvc/grit/pkg/object"
)

// Init creates a new grit repository at path. It creates the .grit/
// directory structure: config, HEAD, objects/, refs/heads/, refs/tags/ and
// logs/. Returns an error if a .grit/ directory already exists.
func Init(path string) (*Repo, error) {
	gritDir := filepath.Join(path, ".grit")

	if _, err := os.Stat(gritDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", gritDir)
	}

	dirs := []string{
		filepath.Join(gritDir, "objects"),
		filepath.Join(gritDir, "refs", "heads"),
		filepath.Join(gritDir, "refs", "tags"),
		filepath.Join(gritDir, "logs", "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	cfg := defaultConfig()
	if err := writeConfig(filepath.Join(gritDir, "config"), cfg); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	headPath := filepath.Join(gritDir, "HEAD")
	head := "ref: refs/heads/" + cfg.DefaultBranch + "\n"
	if err := os.WriteFile(headPath, []byte(head), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	return &Repo{
		RootDir: path,
		GritDir: gritDir,
		Store:   object.NewStore(gritDir),
		Config:  cfg,
	}, nil
}

// Open searches upward from path for a .grit/ directory and opens the
// repository, loading and validating its config.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		gritDir := filepath.Join(cur, ".grit")
		info, err := os.Stat(gritDir)
		if err == nil && info.IsDir() {
			cfg, err := loadConfig(filepath.Join(gritDir, "config"))
			if err != nil {
				return nil, fmt.Errorf("open: %w", err)
			}
			return &Repo{
				RootDir: cur,
				GritDir: gritDir,
				Store:   object.NewStore(gritDir),
				Config:  cfg,
			}, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open: not a grit repository (or any parent up to /)")
		}
		cur = parent
	}
}
