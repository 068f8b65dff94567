package repo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gritvc/grit/pkg/object"
)

// FileStatus classifies one side of a path comparison.
type FileStatus int

const (
	StatusClean     FileStatus = iota // file matches between compared areas
	StatusAdded                       // in index, not in HEAD tree
	StatusModified                    // in index, different from HEAD
	StatusDeleted                     // present on one side, gone on the other
	StatusUntracked                   // on disk but not in index
	StatusDirty                       // staged but working copy differs from staged
)

func (s FileStatus) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusAdded:
		return "added"
	case StatusModified:
		return "modified"
	case StatusDeleted:
		return "deleted"
	case StatusUntracked:
		return "untracked"
	case StatusDirty:
		return "dirty"
	}
	return "unknown"
}

// StatusEntry records the status of a single file: IndexStatus compares the
// staged entry against the HEAD tree, WorkStatus compares the working copy
// against the staged entry.
type StatusEntry struct {
	Path        string
	IndexStatus FileStatus
	WorkStatus  FileStatus
}

type headTreeState struct {
	BlobHash object.Hash
	Mode     string
}

// Status computes the three-way working tree status:
//
//  1. Read the index.
//  2. Walk the working directory (skipping .grit/ and ignored paths).
//  3. Compare working tree files against index entries, rehashing only
//     when the cached size/mtime metadata no longer matches.
//  4. Compare index entries against the HEAD tree.
func (r *Repo) Status() ([]StatusEntry, error) {
	ix, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	ic, err := NewIgnoreChecker(r.RootDir)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	workFiles := make(map[string]bool)
	err = filepath.WalkDir(r.RootDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(r.RootDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if ic.IsIgnored(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			workFiles[rel] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("status: walk: %w", err)
	}

	result := make(map[string]*StatusEntry)
	refreshIndex := false

	// --- Working tree vs index ---

	for path := range workFiles {
		se := ix.Lookup(path)
		if se == nil {
			result[path] = &StatusEntry{
				Path:        path,
				IndexStatus: StatusUntracked,
				WorkStatus:  StatusUntracked,
			}
			continue
		}

		absPath := filepath.Join(r.RootDir, filepath.FromSlash(path))
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("status: stat %q: %w", path, err)
		}
		workMode := modeFromFileInfo(info)
		workStatus := StatusClean
		if !indexStatMatchesWorktree(se, info, workMode) {
			content, err := os.ReadFile(absPath)
			if err != nil {
				return nil, fmt.Errorf("status: read %q: %w", path, err)
			}
			workHash := object.HashObject(object.TypeBlob, content)
			if workHash != se.BlobHash || workMode != normalizeFileMode(se.Mode) {
				workStatus = StatusDirty
			} else if refreshIndexEntryStat(se, info, workMode) {
				refreshIndex = true
			}
		}

		result[path] = &StatusEntry{Path: path, WorkStatus: workStatus}
	}

	// Staged entries missing on disk → deleted from working tree.
	for _, se := range ix.Entries {
		if !workFiles[se.Path] {
			result[se.Path] = &StatusEntry{Path: se.Path, WorkStatus: StatusDeleted}
		}
	}

	// --- Index vs HEAD tree ---

	headEntries := r.headTreeEntries()

	for _, se := range ix.Entries {
		entry, exists := result[se.Path]
		if !exists {
			entry = &StatusEntry{Path: se.Path}
			result[se.Path] = entry
		}

		headState, inHead := headEntries[se.Path]
		switch {
		case !inHead:
			entry.IndexStatus = StatusAdded
		case se.BlobHash != headState.BlobHash || normalizeFileMode(se.Mode) != normalizeFileMode(headState.Mode):
			entry.IndexStatus = StatusModified
		default:
			entry.IndexStatus = StatusClean
		}
	}

	// HEAD entries missing from the index → deleted from index.
	for path := range headEntries {
		if ix.Lookup(path) == nil {
			entry, exists := result[path]
			if !exists {
				entry = &StatusEntry{Path: path}
				result[path] = entry
			}
			entry.IndexStatus = StatusDeleted
		}
	}

	entries := make([]StatusEntry, 0, len(result))
	for _, e := range result {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})

	if refreshIndex {
		if err := r.WriteIndex(ix); err != nil {
			return nil, fmt.Errorf("status: refresh index: %w", err)
		}
	}

	return entries, nil
}

// headTreeEntries reads the HEAD commit's tree flattened into path → state.
// A fresh repo with no commits yields an empty map.
func (r *Repo) headTreeEntries() map[string]headTreeState {
	result := make(map[string]headTreeState)

	headHash, err := r.ResolveRef("HEAD")
	if err != nil {
		return result
	}
	commit, err := r.Store.ReadCommit(headHash)
	if err != nil {
		return result
	}
	files, err := r.FlattenTree(commit.TreeHash)
	if err != nil {
		return result
	}
	for _, f := range files {
		result[f.Path] = headTreeState{
			BlobHash: f.BlobHash,
			Mode:     normalizeFileMode(f.Mode),
		}
	}
	return result
}

const statusRacyCleanWindow = 2 * time.Second

// indexStatMatchesWorktree reports whether the cached metadata proves the
// working copy unchanged, allowing the content hash to be skipped. Files
// modified within the racy window, or on filesystems with coarse mtimes,
// always fall through to hashing.
func indexStatMatchesWorktree(se *IndexEntry, info os.FileInfo, workMode string) bool {
	if se == nil {
		return false
	}
	if normalizeFileMode(se.Mode) != normalizeFileMode(workMode) {
		return false
	}
	if se.Size != info.Size() {
		return false
	}
	if isRacyCleanModTime(info.ModTime()) {
		return false
	}
	if info.ModTime().Nanosecond() == 0 {
		return false
	}
	return se.ModTime == info.ModTime().UnixNano()
}

// refreshIndexEntryStat re-caches stat metadata after a hash check proved
// the content clean, so the next status call can skip the rehash.
func refreshIndexEntryStat(se *IndexEntry, info os.FileInfo, workMode string) bool {
	nextMode := normalizeFileMode(workMode)
	nextModTime := info.ModTime().UnixNano()
	nextSize := info.Size()
	if se.ModTime == nextModTime && se.Size == nextSize && normalizeFileMode(se.Mode) == nextMode {
		return false
	}
	se.Mode = nextMode
	se.ModTime = nextModTime
	se.Size = nextSize
	return true
}

func isRacyCleanModTime(modTime time.Time) bool {
	now := time.Now()
	if modTime.After(now) {
		return true
	}
	return now.Sub(modTime) < statusRacyCleanWindow
}
