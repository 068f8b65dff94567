package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func checkerWithRules(t *testing.T, rules string) *IgnoreChecker {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".gritignore"), []byte(rules), 0o644); err != nil {
		t.Fatalf("write .gritignore: %v", err)
	}
	return mustChecker(t, dir)
}

func mustChecker(t *testing.T, dir string) *IgnoreChecker {
	t.Helper()
	ic, err := NewIgnoreChecker(dir)
	if err != nil {
		t.Fatalf("NewIgnoreChecker: %v", err)
	}
	return ic
}

func TestIgnoreAlwaysHidesRepoDir(t *testing.T) {
	ic := mustChecker(t, t.TempDir())
	for _, p := range []string{".grit", ".grit/objects/ab/cdef"} {
		if !ic.IsIgnored(p) {
			t.Errorf("IsIgnored(%q) = false, want true", p)
		}
	}
	if ic.IsIgnored(".gritignore") {
		t.Error(".gritignore itself must not be ignored")
	}
}

func TestIgnorePatterns(t *testing.T) {
	ic := checkerWithRules(t, `
# build artifacts
*.log
build/
/top-only.txt
temp
`)

	cases := []struct {
		path string
		want bool
	}{
		{"app.log", true},
		{"nested/deep/app.log", true},
		{"applog", false},
		{"build/out.bin", true},
		{"src/build/out.bin", true},
		{"builder/x", false},
		{"top-only.txt", true},
		{"sub/top-only.txt", false},
		{"temp", true},
		{"a/temp/b", true},
		{"kept.txt", false},
	}
	for _, tc := range cases {
		if got := ic.IsIgnored(tc.path); got != tc.want {
			t.Errorf("IsIgnored(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestIgnoreMissingFileMatchesNothing(t *testing.T) {
	ic := mustChecker(t, t.TempDir())
	if ic.IsIgnored("anything.txt") {
		t.Error("checker with no rules ignored a file")
	}
}

func TestIgnoreUnreadableRuleFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	// A directory in place of the rule file opens fine but fails on read;
	// the checker must report that instead of returning partial rules.
	if err := os.Mkdir(filepath.Join(dir, ".gritignore"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := NewIgnoreChecker(dir); err == nil {
		t.Fatal("expected error for unreadable .gritignore")
	}
}

func TestIgnoreCommentsAndBlankLines(t *testing.T) {
	ic := checkerWithRules(t, "# only a comment\n\n   \n")
	if ic.IsIgnored("file.txt") {
		t.Error("comment-only rules ignored a file")
	}
}
