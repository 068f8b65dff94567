package repo

import (
	"testing"

	"github.com/gritvc/grit/pkg/object"
)

func TestIndexSetLookupRemove(t *testing.T) {
	ix := &Index{}
	for _, p := range []string{"m.txt", "a.txt", "z/inner.txt"} {
		ix.Set(&IndexEntry{Path: p, Mode: object.TreeModeFile})
	}

	if got := ix.Lookup("a.txt"); got == nil {
		t.Fatal("Lookup(a.txt) = nil")
	}
	if got := ix.Lookup("missing"); got != nil {
		t.Errorf("Lookup(missing) = %v, want nil", got)
	}

	// Entries stay sorted by path regardless of insertion order.
	want := []string{"a.txt", "m.txt", "z/inner.txt"}
	for i, e := range ix.Entries {
		if e.Path != want[i] {
			t.Errorf("entry[%d] = %q, want %q", i, e.Path, want[i])
		}
	}

	// Replacing keeps a single entry.
	ix.Set(&IndexEntry{Path: "m.txt", Mode: object.TreeModeExecutable})
	if len(ix.Entries) != 3 {
		t.Fatalf("entries = %d after replace, want 3", len(ix.Entries))
	}
	if ix.Lookup("m.txt").Mode != object.TreeModeExecutable {
		t.Error("Set did not replace existing entry")
	}

	if !ix.Remove("m.txt") {
		t.Error("Remove(m.txt) = false")
	}
	if ix.Remove("m.txt") {
		t.Error("second Remove(m.txt) = true")
	}
	if len(ix.Entries) != 2 {
		t.Errorf("entries = %d after remove, want 2", len(ix.Entries))
	}
}

func TestReadIndexMissingIsEmpty(t *testing.T) {
	r := tempRepo(t)
	ix, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if len(ix.Entries) != 0 {
		t.Errorf("entries = %d, want 0", len(ix.Entries))
	}
}

func TestAddStagesBlobAndMetadata(t *testing.T) {
	r := tempRepo(t)
	abs := writeWorkFile(t, r, "dir/file.txt", "staged content\n")

	if err := r.Add([]string{abs}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ix, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	e := ix.Lookup("dir/file.txt")
	if e == nil {
		t.Fatal("file not in index")
	}
	if e.Mode != object.TreeModeFile {
		t.Errorf("mode = %q, want %q", e.Mode, object.TreeModeFile)
	}
	if e.Size != int64(len("staged content\n")) {
		t.Errorf("size = %d, want %d", e.Size, len("staged content\n"))
	}

	blob, err := r.Store.ReadBlob(e.BlobHash)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if string(blob.Data) != "staged content\n" {
		t.Errorf("blob = %q, want staged content", blob.Data)
	}
}

func TestAddIsIdempotent(t *testing.T) {
	r := tempRepo(t)
	abs := writeWorkFile(t, r, "f.txt", "same")

	if err := r.Add([]string{abs}); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if err := r.Add([]string{abs}); err != nil {
		t.Fatalf("second Add: %v", err)
	}

	ix, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if len(ix.Entries) != 1 {
		t.Errorf("entries = %d, want 1", len(ix.Entries))
	}
}

func TestUnstage(t *testing.T) {
	r := tempRepo(t)
	abs := writeWorkFile(t, r, "f.txt", "x")
	if err := r.Add([]string{abs}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := r.Unstage([]string{abs}); err != nil {
		t.Fatalf("Unstage: %v", err)
	}
	ix, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if len(ix.Entries) != 0 {
		t.Errorf("entries = %d after unstage, want 0", len(ix.Entries))
	}

	if err := r.Unstage([]string{abs}); err == nil {
		t.Error("expected error unstaging a path that is not staged")
	}
}
