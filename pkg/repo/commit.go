package repo

import (
	"fmt"
	"strings"
	"time"

	"github.com/gritvc/grit/pkg/object"
)

// CommitSigner signs canonical commit payload bytes and returns an encoded
// signature string to be persisted in CommitObj.Signature.
type CommitSigner func(payload []byte) (string, error)

// CommitTree writes a commit object pointing at treeHash with the given
// parents (order preserved), author identity and message. This is the
// plumbing layer: it does not consult HEAD or the index.
func (r *Repo) CommitTree(treeHash object.Hash, parents []object.Hash, message, author string, when time.Time) (object.Hash, error) {
	if !r.Store.Has(treeHash) {
		return "", fmt.Errorf("commit tree: tree %s: %w", treeHash, object.ErrNotFound)
	}
	for _, p := range parents {
		if !r.Store.Has(p) {
			return "", fmt.Errorf("commit tree: parent %s: %w", p, object.ErrNotFound)
		}
	}
	if strings.TrimSpace(author) == "" {
		author = "unknown"
	}

	c := &object.CommitObj{
		TreeHash:   treeHash,
		Parents:    parents,
		Author:     author,
		AuthorTime: when.Unix(),
		AuthorTZ:   formatTimezoneOffset(when),
		Committer:  author,
		CommitTime: when.Unix(),
		CommitTZ:   formatTimezoneOffset(when),
		Message:    message,
	}
	h, err := r.Store.WriteCommit(c)
	if err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}
	return h, nil
}

// Commit creates a new commit from the current staging area.
func (r *Repo) Commit(message, author string) (object.Hash, error) {
	return r.CommitWithSigner(message, author, nil)
}

// CommitWithSigner creates a new commit from the staging area and signs it
// when signer is provided:
//
//  1. Read the index and build its tree.
//  2. Resolve HEAD for the parent (absent on the first commit).
//  3. Write the commit object.
//  4. Advance the current branch ref (CAS against the old parent), or HEAD
//     itself when detached.
func (r *Repo) CommitWithSigner(message, author string, signer CommitSigner) (object.Hash, error) {
	ix, err := r.ReadIndex()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if len(ix.Entries) == 0 {
		return "", fmt.Errorf("commit: nothing staged")
	}

	treeHash, err := r.BuildTree(ix)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	var parents []object.Hash
	parentHash, err := r.ResolveRef("HEAD")
	if err == nil && parentHash != "" {
		parents = append(parents, parentHash)
	}
	// HEAD resolution failing here just means this is the first commit.

	now := time.Now()
	commitObj := &object.CommitObj{
		TreeHash:   treeHash,
		Parents:    parents,
		Author:     author,
		AuthorTime: now.Unix(),
		AuthorTZ:   formatTimezoneOffset(now),
		Committer:  author,
		CommitTime: now.Unix(),
		CommitTZ:   formatTimezoneOffset(now),
		Message:    message,
	}
	if signer != nil {
		payload, err := object.CommitSigningPayload(commitObj)
		if err != nil {
			return "", fmt.Errorf("commit: %w", err)
		}
		signature, err := signer(payload)
		if err != nil {
			return "", fmt.Errorf("commit: sign commit: %w", err)
		}
		commitObj.Signature = signature
	}

	commitHash, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return "", fmt.Errorf("commit: write commit: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("commit: read HEAD: %w", err)
	}

	if strings.HasPrefix(head, "refs/") {
		var updateErr error
		if parentHash == "" {
			updateErr = r.UpdateRefCAS(head, commitHash, "")
		} else {
			updateErr = r.UpdateRefCAS(head, commitHash, parentHash)
		}
		if updateErr != nil {
			return "", fmt.Errorf("commit: update ref %q: %w", head, updateErr)
		}
	} else {
		if err := r.UpdateRefCAS("HEAD", commitHash, object.Hash(strings.TrimSpace(head))); err != nil {
			return "", fmt.Errorf("commit: update detached HEAD: %w", err)
		}
	}

	return commitHash, nil
}

func formatTimezoneOffset(t time.Time) string {
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	hours := offset / 3600
	minutes := (offset % 3600) / 60
	return fmt.Sprintf("%s%02d%02d", sign, hours, minutes)
}
