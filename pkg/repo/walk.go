package repo

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/gritvc/grit/pkg/object"
)

// WalkEntry is one commit emitted by a Walker.
type WalkEntry struct {
	Hash   object.Hash
	Commit *object.CommitObj
}

// Walker lazily traverses commit ancestry from one or more roots in
// reverse-chronological order (commit time, ties broken by hash). Every
// reachable commit is emitted exactly once, even when merge parents provide
// multiple paths to it. The visited-set and frontier live only for the
// lifetime of one Walker value; a traversal is re-created from scratch on
// each invocation, not resumed across runs.
type Walker struct {
	store    *object.Store
	frontier walkMaxHeap
	visited  map[object.Hash]struct{}
}

// NewWalker seeds a traversal with the given root commits. Duplicate roots
// are collapsed; a root that is not a commit is an error.
func (r *Repo) NewWalker(roots ...object.Hash) (*Walker, error) {
	w := &Walker{
		store:   r.Store,
		visited: make(map[object.Hash]struct{}, len(roots)),
	}
	heap.Init(&w.frontier)
	for _, root := range roots {
		if err := w.push(root); err != nil {
			return nil, fmt.Errorf("walk: root %s: %w", root, err)
		}
	}
	return w, nil
}

// Next returns the next commit in the traversal, or (nil, nil) when the
// history reachable from the roots is exhausted.
func (w *Walker) Next() (*WalkEntry, error) {
	if w.frontier.Len() == 0 {
		return nil, nil
	}
	item := heap.Pop(&w.frontier).(walkItem)
	for _, parent := range item.commit.Parents {
		if err := w.push(parent); err != nil {
			return nil, fmt.Errorf("walk: parent of %s: %w", item.hash, err)
		}
	}
	return &WalkEntry{Hash: item.hash, Commit: item.commit}, nil
}

// Collect drains the walker into a slice, stopping after limit entries when
// limit is positive.
func (w *Walker) Collect(limit int) ([]*WalkEntry, error) {
	var out []*WalkEntry
	for limit <= 0 || len(out) < limit {
		entry, err := w.Next()
		if err != nil {
			return nil, err
		}
		if entry == nil {
			break
		}
		out = append(out, entry)
	}
	return out, nil
}

// push marks h visited and adds its commit to the frontier. Visited hashes
// are skipped, which both deduplicates merge ancestry and terminates
// traversal over a corrupt graph containing cycles.
func (w *Walker) push(h object.Hash) error {
	if _, seen := w.visited[h]; seen {
		return nil
	}
	w.visited[h] = struct{}{}

	commit, err := w.store.ReadCommit(h)
	if err != nil {
		return err
	}
	heap.Push(&w.frontier, walkItem{hash: h, commit: commit})
	return nil
}

// Log walks history from start following first-parent links only, returning
// up to limit entries newest first. Lighter than a full Walker when callers
// only need the mainline.
func (r *Repo) Log(start object.Hash, limit int) ([]*WalkEntry, error) {
	var entries []*WalkEntry
	current := start

	for limit <= 0 || len(entries) < limit {
		c, err := r.Store.ReadCommit(current)
		if err != nil {
			if errors.Is(err, object.ErrNotFound) && len(entries) > 0 {
				return nil, fmt.Errorf("log: missing ancestor %s: %w", current, err)
			}
			return nil, fmt.Errorf("log: read commit %s: %w", current, err)
		}
		entries = append(entries, &WalkEntry{Hash: current, Commit: c})

		if len(c.Parents) == 0 {
			break
		}
		current = c.Parents[0]
	}

	return entries, nil
}
