package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gritvc/grit/pkg/object"
)

// IndexEntry records the staged state of a single working-tree path,
// together with the cached metadata used to skip rehashing unchanged files.
type IndexEntry struct {
	Path     string      `json:"path"`
	Mode     string      `json:"mode"`
	BlobHash object.Hash `json:"blob_hash"`
	ModTime  int64       `json:"mod_time"` // unix nanoseconds
	Size     int64       `json:"size"`
}

// Index is the staging area: an ordered-by-path list of entries forming the
// bridge between the working tree and the next commit. It is loaded at
// operation start, mutated in memory, and persisted atomically at operation
// end — never held mutable across unrelated calls.
type Index struct {
	Entries []*IndexEntry `json:"entries"`
}

// Lookup returns the entry for path, or nil.
func (ix *Index) Lookup(path string) *IndexEntry {
	i := sort.Search(len(ix.Entries), func(i int) bool { return ix.Entries[i].Path >= path })
	if i < len(ix.Entries) && ix.Entries[i].Path == path {
		return ix.Entries[i]
	}
	return nil
}

// Set inserts or replaces the entry for e.Path, keeping order.
func (ix *Index) Set(e *IndexEntry) {
	i := sort.Search(len(ix.Entries), func(i int) bool { return ix.Entries[i].Path >= e.Path })
	if i < len(ix.Entries) && ix.Entries[i].Path == e.Path {
		ix.Entries[i] = e
		return
	}
	ix.Entries = append(ix.Entries, nil)
	copy(ix.Entries[i+1:], ix.Entries[i:])
	ix.Entries[i] = e
}

// Remove deletes the entry for path, reporting whether it was present.
func (ix *Index) Remove(path string) bool {
	i := sort.Search(len(ix.Entries), func(i int) bool { return ix.Entries[i].Path >= path })
	if i >= len(ix.Entries) || ix.Entries[i].Path != path {
		return false
	}
	ix.Entries = append(ix.Entries[:i], ix.Entries[i+1:]...)
	return true
}

func (r *Repo) indexPath() string {
	return filepath.Join(r.GritDir, "index")
}

// ReadIndex loads the staging area from .grit/index. If the file does not
// exist, an empty Index is returned (no error). Entries are re-sorted
// defensively so a hand-edited file cannot break the ordering invariant.
func (r *Repo) ReadIndex() (*Index, error) {
	data, err := os.ReadFile(r.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Index{}, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}

	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("read index: unmarshal: %w", err)
	}
	sort.Slice(ix.Entries, func(i, j int) bool { return ix.Entries[i].Path < ix.Entries[j].Path })
	return &ix, nil
}

// WriteIndex atomically writes the staging area to .grit/index.
func (r *Repo) WriteIndex(ix *Index) error {
	sort.Slice(ix.Entries, func(i, j int) bool { return ix.Entries[i].Path < ix.Entries[j].Path })
	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return fmt.Errorf("write index: marshal: %w", err)
	}
	if err := atomicWriteFile(r.indexPath(), data, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Add stages the given file paths: each file's content is written as a blob
// and the index entry updated with the blob hash and cached stat metadata.
func (r *Repo) Add(paths []string) error {
	ix, err := r.ReadIndex()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	for _, p := range paths {
		relPath, err := r.RelPath(p)
		if err != nil {
			return fmt.Errorf("add: resolve path %q: %w", p, err)
		}

		absPath := filepath.Join(r.RootDir, filepath.FromSlash(relPath))
		content, err := os.ReadFile(absPath)
		if err != nil {
			return fmt.Errorf("add: read %q: %w", relPath, err)
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return fmt.Errorf("add: stat %q: %w", relPath, err)
		}

		blobHash, err := r.Store.WriteBlob(&object.Blob{Data: content})
		if err != nil {
			return fmt.Errorf("add: write blob %q: %w", relPath, err)
		}

		ix.Set(&IndexEntry{
			Path:     relPath,
			Mode:     modeFromFileInfo(info),
			BlobHash: blobHash,
			ModTime:  info.ModTime().UnixNano(),
			Size:     info.Size(),
		})
	}

	if err := r.WriteIndex(ix); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

// Unstage removes the given paths from the index without touching the
// working tree. Unknown paths are reported as errors.
func (r *Repo) Unstage(paths []string) error {
	ix, err := r.ReadIndex()
	if err != nil {
		return fmt.Errorf("unstage: %w", err)
	}
	for _, p := range paths {
		relPath, err := r.RelPath(p)
		if err != nil {
			return fmt.Errorf("unstage: resolve path %q: %w", p, err)
		}
		if !ix.Remove(relPath) {
			return fmt.Errorf("unstage: %q is not staged", relPath)
		}
	}
	if err := r.WriteIndex(ix); err != nil {
		return fmt.Errorf("unstage: %w", err)
	}
	return nil
}

// RelPath converts a path (absolute, or relative to CWD) into a
// slash-separated path relative to the repository root. A relative path
// outside the repo is treated as already repo-relative. Every operation
// taking path arguments normalizes them through this one function.
func (r *Repo) RelPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(r.RootDir, p)
		if err != nil {
			return "", fmt.Errorf("cannot make %q relative to %q: %w", p, r.RootDir, err)
		}
		return filepath.ToSlash(rel), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}

	abs := filepath.Join(cwd, p)
	rel, err := filepath.Rel(r.RootDir, abs)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}
	if len(rel) >= 2 && rel[:2] == ".." {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}
	return filepath.ToSlash(rel), nil
}
