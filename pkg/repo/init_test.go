package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gritvc/grit/pkg/object"
)

// tempRepo initializes a fresh repository in a test temp dir.
func tempRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

// writeWorkFile writes a file under the repo root, creating parent dirs.
func writeWorkFile(t *testing.T, r *Repo, rel, content string) string {
	t.Helper()
	abs := filepath.Join(r.RootDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return abs
}

// addAndCommit stages the given paths and commits them.
func addAndCommit(t *testing.T, r *Repo, message string, rels ...string) object.Hash {
	t.Helper()
	abs := make([]string, len(rels))
	for i, rel := range rels {
		abs[i] = filepath.Join(r.RootDir, filepath.FromSlash(rel))
	}
	if err := r.Add(abs); err != nil {
		t.Fatalf("Add: %v", err)
	}
	h, err := r.Commit(message, "Test Author <test@example.com>")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return h
}

func TestInitCreatesLayout(t *testing.T) {
	r := tempRepo(t)

	for _, d := range []string{
		"objects",
		"refs/heads",
		"refs/tags",
		"logs/refs/heads",
	} {
		info, err := os.Stat(filepath.Join(r.GritDir, filepath.FromSlash(d)))
		if err != nil {
			t.Fatalf("missing %s: %v", d, err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", d)
		}
	}

	head, err := os.ReadFile(filepath.Join(r.GritDir, "HEAD"))
	if err != nil {
		t.Fatalf("read HEAD: %v", err)
	}
	if got := strings.TrimSpace(string(head)); got != "ref: refs/heads/main" {
		t.Errorf("HEAD = %q, want symbolic ref to main", got)
	}

	if _, err := os.Stat(filepath.Join(r.GritDir, "config")); err != nil {
		t.Fatalf("missing config: %v", err)
	}
}

func TestInitRefusesExistingRepo(t *testing.T) {
	r := tempRepo(t)
	if _, err := Init(r.RootDir); err == nil {
		t.Fatal("expected error initializing over an existing repository")
	}
}

func TestOpenFindsRepoFromSubdirectory(t *testing.T) {
	r := tempRepo(t)

	sub := filepath.Join(r.RootDir, "a", "b", "c")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	opened, err := Open(sub)
	if err != nil {
		t.Fatalf("Open from subdirectory: %v", err)
	}
	wantRoot, _ := filepath.Abs(r.RootDir)
	if opened.RootDir != wantRoot {
		t.Errorf("RootDir = %q, want %q", opened.RootDir, wantRoot)
	}
	if opened.Config.DefaultBranch != "main" {
		t.Errorf("DefaultBranch = %q, want main", opened.Config.DefaultBranch)
	}
}

func TestOpenOutsideRepoFails(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("expected error opening a directory with no repository")
	}
}
