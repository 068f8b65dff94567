package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gritvc/grit/pkg/object"
)

// ErrRefCycle marks a symbolic ref chain that loops back on itself or
// exceeds the depth bound.
var ErrRefCycle = errors.New("symbolic ref cycle")

// ErrAmbiguous marks a name specification matching more than one object.
var ErrAmbiguous = errors.New("ambiguous reference")

// AmbiguousError lists the candidate hashes matched by a short prefix.
// errors.Is(err, ErrAmbiguous) matches it.
type AmbiguousError struct {
	Prefix     string
	Candidates []object.Hash
}

func (e *AmbiguousError) Error() string {
	parts := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		parts[i] = string(c)
	}
	return fmt.Sprintf("ambiguous reference %q: candidates %s", e.Prefix, strings.Join(parts, ", "))
}

func (e *AmbiguousError) Is(target error) bool {
	return target == ErrAmbiguous
}

const (
	symbolicRefPrefix = "ref: "
	maxSymbolicDepth  = 10

	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second
)

// minAbbrevLen is the shortest hex prefix treated as an abbreviated
// identifier; anything shorter falls through to ref-name resolution.
const minAbbrevLen = 4

// Resolve maps a name specification to an object hash using the ordered
// strategy:
//
//  1. A full 64-hex identifier is used directly (after an existence check).
//  2. A shorter hex prefix is matched against the store; zero matches is
//     not-found, more than one is ambiguous.
//  3. Otherwise the spec is tried as refs/heads/<spec>, refs/tags/<spec>,
//     and finally a literal ref path (which covers HEAD and refs/...).
func (r *Repo) Resolve(spec string) (object.Hash, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", fmt.Errorf("resolve: empty spec: %w", object.ErrNotFound)
	}

	if hex := object.NormalizeHex(spec); len(hex) == len(spec) {
		if object.ValidHash(hex) {
			if !r.Store.Has(object.Hash(hex)) {
				return "", fmt.Errorf("resolve %q: %w", spec, object.ErrNotFound)
			}
			return object.Hash(hex), nil
		}
		if len(hex) >= minAbbrevLen && len(hex) < 64 && isHexString(hex) {
			matches, err := r.Store.FindPrefix(hex)
			if err != nil {
				return "", fmt.Errorf("resolve %q: %w", spec, err)
			}
			switch len(matches) {
			case 0:
				return "", fmt.Errorf("resolve %q: %w", spec, object.ErrNotFound)
			case 1:
				return matches[0], nil
			default:
				return "", &AmbiguousError{Prefix: hex, Candidates: matches}
			}
		}
	}

	for _, name := range []string{"refs/heads/" + spec, "refs/tags/" + spec, spec} {
		if !r.refExists(name) {
			continue
		}
		return r.ResolveRef(name)
	}
	return "", fmt.Errorf("resolve %q: %w", spec, object.ErrNotFound)
}

// ResolvePeel resolves spec and then peels annotated tags until the result
// is not a tag object, so callers get a commit/tree/blob to operate on.
func (r *Repo) ResolvePeel(spec string) (object.Hash, error) {
	h, err := r.Resolve(spec)
	if err != nil {
		return "", err
	}
	for depth := 0; depth < maxSymbolicDepth; depth++ {
		objType, data, err := r.Store.Read(h)
		if err != nil {
			return "", fmt.Errorf("peel %q: %w", spec, err)
		}
		if objType != object.TypeTag {
			return h, nil
		}
		tag, err := object.UnmarshalTag(data)
		if err != nil {
			return "", fmt.Errorf("peel %q: %w", spec, err)
		}
		h = tag.TargetHash
	}
	return "", fmt.Errorf("peel %q: tag chain too deep: %w", spec, ErrRefCycle)
}

// ResolveRef resolves a ref name to an object hash, following symbolic refs
// with a visited-set and a depth bound. A repeated name before reaching a
// direct ref is a cycle.
func (r *Repo) ResolveRef(name string) (object.Hash, error) {
	visited := make(map[string]struct{}, 2)
	cur := name
	for depth := 0; depth <= maxSymbolicDepth; depth++ {
		if _, seen := visited[cur]; seen {
			return "", fmt.Errorf("resolve ref %q: %w via %q", name, ErrRefCycle, cur)
		}
		visited[cur] = struct{}{}

		value, err := r.readRefValue(cur)
		if err != nil {
			return "", err
		}
		if target, ok := strings.CutPrefix(value, symbolicRefPrefix); ok {
			cur = strings.TrimSpace(target)
			continue
		}
		if !object.ValidHash(value) {
			return "", &object.CorruptError{Reason: fmt.Sprintf("ref %q holds malformed hash %q", cur, value)}
		}
		return object.Hash(value), nil
	}
	return "", fmt.Errorf("resolve ref %q: chain exceeds %d links: %w", name, maxSymbolicDepth, ErrRefCycle)
}

// Head reads .grit/HEAD. If the content is symbolic it returns the target
// ref path (e.g. "refs/heads/main"); otherwise the detached hash string.
func (r *Repo) Head() (string, error) {
	value, err := r.readRefValue("HEAD")
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	if target, ok := strings.CutPrefix(value, symbolicRefPrefix); ok {
		return strings.TrimSpace(target), nil
	}
	return value, nil
}

// UpdateRef writes a hash to the named ref file under .grit/.
func (r *Repo) UpdateRef(name string, h object.Hash) error {
	return r.UpdateRefCAS(name, h)
}

// UpdateRefCAS writes a hash to the named ref file using lockfile + rename
// atomic semantics. If expectedOld is provided, the update only succeeds
// when the current ref hash matches it. Two uncoordinated writers remain
// last-writer-wins; the lock only serializes the read-modify-write window.
func (r *Repo) UpdateRefCAS(name string, h object.Hash, expectedOld ...object.Hash) error {
	if len(expectedOld) > 1 {
		return fmt.Errorf("update ref %q: expected at most one old hash", name)
	}
	if !object.ValidHash(string(h)) {
		return fmt.Errorf("update ref %q: malformed hash %q", name, h)
	}

	refPath := r.refPath(name)
	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", name, err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	oldHash, err := readRefHash(refPath)
	if err != nil {
		return fmt.Errorf("update ref %q: read old hash: %w", name, err)
	}
	if len(expectedOld) == 1 && oldHash != expectedOld[0] {
		return fmt.Errorf("update ref %q: %w (expected %q, found %q)",
			name, ErrRefCASMismatch, expectedOld[0], oldHash)
	}

	if _, err := lockFile.WriteString(string(h) + "\n"); err != nil {
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	if err := lockFile.Sync(); err != nil {
		return fmt.Errorf("update ref %q: sync: %w", name, err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("update ref %q: close: %w", name, err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	cleanupLock = false

	if err := r.appendReflog(name, oldHash, h, "update"); err != nil {
		return fmt.Errorf("update ref %q: %w", name, err)
	}
	return nil
}

// ErrRefCASMismatch reports a compare-and-swap ref update that found an
// unexpected current value.
var ErrRefCASMismatch = errors.New("ref compare-and-swap mismatch")

// SetSymbolicRef atomically points name at another ref name, e.g.
// SetSymbolicRef("HEAD", "refs/heads/main").
func (r *Repo) SetSymbolicRef(name, target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return fmt.Errorf("set symbolic ref %q: empty target", name)
	}
	refPath := r.refPath(name)
	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("set symbolic ref %q: mkdir: %w", name, err)
	}
	content := symbolicRefPrefix + target + "\n"
	if err := atomicWriteFile(refPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("set symbolic ref %q: %w", name, err)
	}
	return nil
}

// ListRefs lists direct references under .grit/refs. Names are returned
// relative to the refs root, e.g. "heads/main", "tags/v1".
func (r *Repo) ListRefs(prefix string) (map[string]object.Hash, error) {
	root := filepath.Join(r.GritDir, "refs")
	dir := root
	if strings.TrimSpace(prefix) != "" {
		dir = filepath.Join(root, filepath.FromSlash(prefix))
	}

	refs := make(map[string]object.Hash)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(path, ".lock") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		refs[filepath.ToSlash(rel)] = object.Hash(strings.TrimSpace(string(data)))
		return nil
	})
	if os.IsNotExist(err) {
		return refs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	return refs, nil
}

func (r *Repo) refPath(name string) string {
	return filepath.Join(r.GritDir, filepath.FromSlash(name))
}

func (r *Repo) refExists(name string) bool {
	info, err := os.Stat(r.refPath(name))
	return err == nil && !info.IsDir()
}

// readRefValue reads and trims a ref file, mapping absence to ErrNotFound.
func (r *Repo) readRefValue(name string) (string, error) {
	data, err := os.ReadFile(r.refPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("ref %q: %w", name, object.ErrNotFound)
		}
		return "", fmt.Errorf("ref %q: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}

func readRefHash(refPath string) (object.Hash, error) {
	data, err := os.ReadFile(refPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return object.Hash(strings.TrimSpace(string(data))), nil
}

func isHexString(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return len(s) > 0
}
