package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gritvc/grit/pkg/object"
)

// CheckoutTree materializes a tree object into dest, creating directories as
// needed and honoring stored file modes. Pre-existing files are overwritten.
// Files absent from the tree are left alone unless clean is set, in which
// case dest's contents are removed first (full-replace mode).
func (r *Repo) CheckoutTree(treeHash object.Hash, dest string, clean bool) error {
	files, err := r.FlattenTree(treeHash)
	if err != nil {
		return fmt.Errorf("checkout tree: %w", err)
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("checkout tree: mkdir %q: %w", dest, err)
	}
	if clean {
		if err := clearDir(dest); err != nil {
			return fmt.Errorf("checkout tree: clear %q: %w", dest, err)
		}
	}

	for _, f := range files {
		absPath := filepath.Join(dest, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return fmt.Errorf("checkout tree: mkdir %q: %w", filepath.Dir(absPath), err)
		}

		blob, err := r.Store.ReadBlob(f.BlobHash)
		if err != nil {
			return fmt.Errorf("checkout tree: read blob for %q: %w", f.Path, err)
		}
		if err := os.WriteFile(absPath, blob.Data, filePermFromMode(f.Mode)); err != nil {
			return fmt.Errorf("checkout tree: write %q: %w", f.Path, err)
		}
	}
	return nil
}

// CheckoutSnapshot resolves spec (branch, tag, hash, prefix), peels it to a
// commit or tree, and materializes that tree into dest. Commits check out
// their root tree; annotated tags are peeled to their target first.
func (r *Repo) CheckoutSnapshot(spec, dest string, clean bool) error {
	h, err := r.ResolvePeel(spec)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	treeHash, err := r.treeHashFor(h)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	return r.CheckoutTree(treeHash, dest, clean)
}

// Checkout switches the repository working tree to the state of target (a
// branch name, tag, or commit hash):
//
//  1. Refuse if the working tree has uncommitted changes.
//  2. Remove currently tracked files, write the target tree's files.
//  3. Rewrite the index to match the new tree.
//  4. Point HEAD at the branch (symbolic) or the commit (detached).
func (r *Repo) Checkout(target string) error {
	if err := r.ensureClean(); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	isBranch := false
	var targetHash object.Hash
	if branchHash, err := r.ResolveRef("refs/heads/" + target); err == nil {
		targetHash = branchHash
		isBranch = true
	} else {
		h, err := r.ResolvePeel(target)
		if err != nil {
			return fmt.Errorf("checkout: %w", err)
		}
		targetHash = h
	}

	treeHash, err := r.treeHashFor(targetHash)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	targetFiles, err := r.FlattenTree(treeHash)
	if err != nil {
		return fmt.Errorf("checkout: flatten target tree: %w", err)
	}

	// Remove all tracked files (HEAD tree plus index); target files are
	// rewritten below.
	for path := range r.trackedFiles() {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(path))
		if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("checkout: remove %q: %w", path, err)
		}
		r.removeEmptyParents(filepath.Dir(absPath))
	}

	for _, f := range targetFiles {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return fmt.Errorf("checkout: mkdir %q: %w", filepath.Dir(absPath), err)
		}
		blob, err := r.Store.ReadBlob(f.BlobHash)
		if err != nil {
			return fmt.Errorf("checkout: read blob for %q: %w", f.Path, err)
		}
		if err := os.WriteFile(absPath, blob.Data, filePermFromMode(f.Mode)); err != nil {
			return fmt.Errorf("checkout: write %q: %w", f.Path, err)
		}
	}

	ix := &Index{}
	for _, f := range targetFiles {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(f.Path))
		info, err := os.Stat(absPath)
		if err != nil {
			return fmt.Errorf("checkout: stat %q: %w", f.Path, err)
		}
		ix.Set(&IndexEntry{
			Path:     f.Path,
			Mode:     normalizeFileMode(f.Mode),
			BlobHash: f.BlobHash,
			ModTime:  info.ModTime().UnixNano(),
			Size:     info.Size(),
		})
	}
	if err := r.WriteIndex(ix); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	if isBranch {
		if err := r.SetSymbolicRef("HEAD", "refs/heads/"+target); err != nil {
			return fmt.Errorf("checkout: %w", err)
		}
	} else {
		if err := atomicWriteFile(filepath.Join(r.GritDir, "HEAD"), []byte(string(targetHash)+"\n"), 0o644); err != nil {
			return fmt.Errorf("checkout: update HEAD: %w", err)
		}
	}
	return nil
}

// treeHashFor maps a commit hash to its root tree; a tree hash passes
// through unchanged.
func (r *Repo) treeHashFor(h object.Hash) (object.Hash, error) {
	objType, data, err := r.Store.Read(h)
	if err != nil {
		return "", err
	}
	switch objType {
	case object.TypeTree:
		return h, nil
	case object.TypeCommit:
		commit, err := object.UnmarshalCommit(data)
		if err != nil {
			return "", err
		}
		return commit.TreeHash, nil
	default:
		return "", fmt.Errorf("cannot check out %s object %s", objType, h)
	}
}

// ensureClean checks that the working tree has no uncommitted changes.
func (r *Repo) ensureClean() error {
	entries, err := r.Status()
	if err != nil {
		return fmt.Errorf("check status: %w", err)
	}
	for _, e := range entries {
		if e.WorkStatus == StatusUntracked {
			continue
		}
		if e.IndexStatus != StatusClean || e.WorkStatus != StatusClean {
			return fmt.Errorf("working tree is not clean (file %q has uncommitted changes)", e.Path)
		}
	}
	return nil
}

// trackedFiles merges paths from the HEAD tree and the index.
func (r *Repo) trackedFiles() map[string]bool {
	files := make(map[string]bool)

	for path := range r.headTreeEntries() {
		files[path] = true
	}
	if ix, err := r.ReadIndex(); err == nil {
		for _, e := range ix.Entries {
			files[e.Path] = true
		}
	}
	return files
}

// removeEmptyParents removes empty directories up to (but not including)
// the repository root.
func (r *Repo) removeEmptyParents(dir string) {
	for {
		if dir == r.RootDir || !strings.HasPrefix(dir, r.RootDir) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		os.Remove(dir)
		dir = filepath.Dir(dir)
	}
}

// clearDir removes everything inside dir without removing dir itself.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
