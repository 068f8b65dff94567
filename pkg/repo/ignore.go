package repo

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IgnoreChecker matches repo-relative paths against the rules in
// .gritignore at the repository root. The .grit directory is always
// ignored.
type IgnoreChecker struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	pattern  string
	anchored bool // leading "/" in the rule
}

// NewIgnoreChecker loads .gritignore from root. A missing file yields a
// checker with no user rules; any other read failure is an error, so a
// partially read rule file never silently drops patterns. A trailing "/"
// on a rule is accepted and stripped; matching a directory already ignores
// everything beneath it.
func NewIgnoreChecker(root string) (*IgnoreChecker, error) {
	ic := &IgnoreChecker{}

	name := filepath.Join(root, ".gritignore")
	f, err := os.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return ic, nil
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p := ignorePattern{pattern: strings.TrimSuffix(line, "/")}
		if strings.HasPrefix(p.pattern, "/") {
			p.anchored = true
			p.pattern = strings.TrimPrefix(p.pattern, "/")
		}
		if p.pattern != "" {
			ic.patterns = append(ic.patterns, p)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return ic, nil
}

// IsIgnored reports whether the slash-separated repo-relative path matches
// an ignore rule. A rule matching any leading directory of the path ignores
// everything beneath it.
func (ic *IgnoreChecker) IsIgnored(rel string) bool {
	if rel == ".grit" || strings.HasPrefix(rel, ".grit/") {
		return true
	}

	for _, p := range ic.patterns {
		if p.matches(rel) {
			return true
		}
	}
	return false
}

func (p ignorePattern) matches(rel string) bool {
	segments := strings.Split(rel, "/")
	for i := range segments {
		candidate := strings.Join(segments[:i+1], "/")
		if p.anchored {
			if ok, _ := path.Match(p.pattern, candidate); ok {
				return true
			}
			continue
		}
		if ok, _ := path.Match(p.pattern, segments[i]); ok {
			return true
		}
		if ok, _ := path.Match(p.pattern, candidate); ok {
			return true
		}
	}
	return false
}
