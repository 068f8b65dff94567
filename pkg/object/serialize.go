package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// TreeObj
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj. Each entry is the record
//
//	mode SP name NUL <64-hex>
//
// with no separator between records (the hash is fixed width). Entries are
// sorted byte-wise by Name, so two trees holding the same entries encode to
// identical bytes regardless of insertion order. Invalid modes, empty or
// NUL-bearing names, duplicate names, and short hashes are rejected.
func MarshalTree(tr *TreeObj) ([]byte, error) {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	prev := ""
	for i, e := range sorted {
		if err := validateTreeEntry(e); err != nil {
			return nil, err
		}
		if i > 0 && e.Name == prev {
			return nil, corruptf("tree: duplicate entry name %q", e.Name)
		}
		prev = e.Name
		buf.WriteString(e.Mode)
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.WriteString(string(e.Hash))
	}
	return buf.Bytes(), nil
}

// UnmarshalTree parses a TreeObj from its serialized form. Entry order is
// accepted as-is; sorted order is an encode-side guarantee, and unsorted
// input is a store-layer validation concern, not a decode failure.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	tr := &TreeObj{}
	rest := data
	for len(rest) > 0 {
		sp := bytes.IndexByte(rest, ' ')
		if sp < 0 {
			return nil, corruptf("tree: truncated entry (no mode separator)")
		}
		mode := string(rest[:sp])
		if !validTreeMode(mode) {
			return nil, corruptf("tree: unknown mode %q", mode)
		}
		rest = rest[sp+1:]

		nul := bytes.IndexByte(rest, 0)
		if nul < 0 {
			return nil, corruptf("tree: truncated entry (no name terminator)")
		}
		name := string(rest[:nul])
		if name == "" {
			return nil, corruptf("tree: empty entry name")
		}
		rest = rest[nul+1:]

		if len(rest) < 64 {
			return nil, corruptf("tree: truncated hash for entry %q", name)
		}
		h := string(rest[:64])
		if !isHex(h) {
			return nil, corruptf("tree: invalid hash %q for entry %q", h, name)
		}
		rest = rest[64:]

		tr.Entries = append(tr.Entries, TreeEntry{Mode: mode, Name: name, Hash: Hash(h)})
	}
	return tr, nil
}

func validateTreeEntry(e TreeEntry) error {
	if !validTreeMode(e.Mode) {
		return corruptf("tree: unknown mode %q for entry %q", e.Mode, e.Name)
	}
	if e.Name == "" {
		return corruptf("tree: empty entry name")
	}
	if strings.ContainsAny(e.Name, "\x00/") {
		return corruptf("tree: invalid entry name %q", e.Name)
	}
	if !ValidHash(string(e.Hash)) {
		return corruptf("tree: invalid hash %q for entry %q", e.Hash, e.Name)
	}
	return nil
}

func validTreeMode(mode string) bool {
	switch mode {
	case TreeModeDir, TreeModeFile, TreeModeExecutable:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// CommitObj
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj:
//
//	tree H
//	parent H        (zero or more, authored order)
//	author A T TZ
//	committer C T TZ
//	gpgsig S        (optional, continuation lines begin with SP)
//
//	message
func MarshalCommit(c *CommitObj) ([]byte, error) {
	if !ValidHash(string(c.TreeHash)) {
		return nil, corruptf("commit: invalid tree hash %q", c.TreeHash)
	}
	for _, p := range c.Parents {
		if !ValidHash(string(p)) {
			return nil, corruptf("commit: invalid parent hash %q", p)
		}
	}
	if strings.TrimSpace(c.Author) == "" {
		return nil, corruptf("commit: author is required")
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", string(c.TreeHash))
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", string(p))
	}
	writeHeader(&buf, "author", personLine(c.Author, c.AuthorTime, c.AuthorTZ))
	committer := c.Committer
	commitTime, commitTZ := c.CommitTime, c.CommitTZ
	if strings.TrimSpace(committer) == "" {
		committer, commitTime, commitTZ = c.Author, c.AuthorTime, c.AuthorTZ
	}
	writeHeader(&buf, "committer", personLine(committer, commitTime, commitTZ))
	if c.Signature != "" {
		writeHeader(&buf, "gpgsig", c.Signature)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes(), nil
}

// UnmarshalCommit parses a CommitObj from its serialized form. Parent order
// is preserved exactly as encoded.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	headers, message, err := parseHeaders(data, "commit")
	if err != nil {
		return nil, err
	}

	c := &CommitObj{Message: message}
	for _, hdr := range headers {
		switch hdr.key {
		case "tree":
			if c.TreeHash != "" {
				return nil, corruptf("commit: duplicate tree header")
			}
			if !ValidHash(hdr.value) {
				return nil, corruptf("commit: invalid tree hash %q", hdr.value)
			}
			c.TreeHash = Hash(hdr.value)
		case "parent":
			if !ValidHash(hdr.value) {
				return nil, corruptf("commit: invalid parent hash %q", hdr.value)
			}
			c.Parents = append(c.Parents, Hash(hdr.value))
		case "author":
			c.Author, c.AuthorTime, c.AuthorTZ, err = parsePersonLine(hdr.value)
			if err != nil {
				return nil, corruptf("commit: bad author line %q", hdr.value)
			}
		case "committer":
			c.Committer, c.CommitTime, c.CommitTZ, err = parsePersonLine(hdr.value)
			if err != nil {
				return nil, corruptf("commit: bad committer line %q", hdr.value)
			}
		case "gpgsig":
			c.Signature = hdr.value
		default:
			return nil, corruptf("commit: unknown header key %q", hdr.key)
		}
	}
	if c.TreeHash == "" {
		return nil, corruptf("commit: missing tree header")
	}
	if c.Author == "" {
		return nil, corruptf("commit: missing author header")
	}
	return c, nil
}

// CommitSigningPayload returns the canonical commit bytes with the signature
// header omitted. Signers sign this payload; verifiers recompute it.
func CommitSigningPayload(c *CommitObj) ([]byte, error) {
	unsigned := *c
	unsigned.Signature = ""
	return MarshalCommit(&unsigned)
}

// ---------------------------------------------------------------------------
// TagObj
// ---------------------------------------------------------------------------

// MarshalTag serializes an annotated tag:
//
//	object H
//	type K
//	tag NAME
//	tagger T T TZ
//
//	message
func MarshalTag(t *TagObj) ([]byte, error) {
	if !ValidHash(string(t.TargetHash)) {
		return nil, corruptf("tag: invalid target hash %q", t.TargetHash)
	}
	switch t.TargetType {
	case TypeBlob, TypeTree, TypeCommit, TypeTag:
	default:
		return nil, corruptf("tag: unknown target type %q", t.TargetType)
	}
	if strings.TrimSpace(t.Name) == "" {
		return nil, corruptf("tag: name is required")
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "object %s\n", string(t.TargetHash))
	fmt.Fprintf(&buf, "type %s\n", string(t.TargetType))
	fmt.Fprintf(&buf, "tag %s\n", t.Name)
	if strings.TrimSpace(t.Tagger) != "" {
		writeHeader(&buf, "tagger", personLine(t.Tagger, t.TaggerTime, t.TaggerTZ))
	}
	buf.WriteByte('\n')
	buf.WriteString(t.Message)
	return buf.Bytes(), nil
}

// UnmarshalTag parses a TagObj from its serialized form.
func UnmarshalTag(data []byte) (*TagObj, error) {
	headers, message, err := parseHeaders(data, "tag")
	if err != nil {
		return nil, err
	}

	t := &TagObj{Message: message}
	for _, hdr := range headers {
		switch hdr.key {
		case "object":
			if !ValidHash(hdr.value) {
				return nil, corruptf("tag: invalid target hash %q", hdr.value)
			}
			t.TargetHash = Hash(hdr.value)
		case "type":
			t.TargetType = ObjectType(hdr.value)
		case "tag":
			t.Name = hdr.value
		case "tagger":
			t.Tagger, t.TaggerTime, t.TaggerTZ, err = parsePersonLine(hdr.value)
			if err != nil {
				return nil, corruptf("tag: bad tagger line %q", hdr.value)
			}
		default:
			return nil, corruptf("tag: unknown header key %q", hdr.key)
		}
	}
	if t.TargetHash == "" {
		return nil, corruptf("tag: missing object header")
	}
	if t.Name == "" {
		return nil, corruptf("tag: missing tag header")
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// Header grammar (shared by commit and tag)
// ---------------------------------------------------------------------------

type headerLine struct {
	key   string
	value string
}

// parseHeaders splits "key SP value NL" header lines from the free-text
// message after the first blank line. A line starting with SP continues the
// previous value (multi-line signatures rely on this).
func parseHeaders(data []byte, kind string) ([]headerLine, string, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, "", corruptf("%s: missing header/message separator", kind)
	}
	header := string(data[:idx])
	message := string(data[idx+2:])

	var headers []headerLine
	for _, line := range strings.Split(header, "\n") {
		if strings.HasPrefix(line, " ") {
			if len(headers) == 0 {
				return nil, "", corruptf("%s: continuation line before any header", kind)
			}
			headers[len(headers)-1].value += "\n" + line[1:]
			continue
		}
		key, val, ok := strings.Cut(line, " ")
		if !ok || key == "" {
			return nil, "", corruptf("%s: malformed header line %q", kind, line)
		}
		headers = append(headers, headerLine{key: key, value: val})
	}
	return headers, message, nil
}

// writeHeader emits a header value, folding embedded newlines into
// SP-prefixed continuation lines.
func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteByte(' ')
	buf.WriteString(strings.ReplaceAll(value, "\n", "\n "))
	buf.WriteByte('\n')
}

// personLine renders "who unixtime ±hhmm". The zone defaults to +0000 so the
// canonical bytes never depend on host state.
func personLine(who string, t int64, tz string) string {
	if strings.TrimSpace(tz) == "" {
		tz = "+0000"
	}
	return fmt.Sprintf("%s %d %s", who, t, tz)
}

// parsePersonLine is the inverse of personLine: the final two tokens are the
// timestamp and zone, everything before them is the identity.
func parsePersonLine(val string) (string, int64, string, error) {
	lastSp := strings.LastIndexByte(val, ' ')
	if lastSp < 0 {
		return "", 0, "", fmt.Errorf("missing timestamp")
	}
	tz := val[lastSp+1:]
	rest := val[:lastSp]

	tsSp := strings.LastIndexByte(rest, ' ')
	if tsSp < 0 {
		return "", 0, "", fmt.Errorf("missing timestamp")
	}
	ts, err := strconv.ParseInt(rest[tsSp+1:], 10, 64)
	if err != nil {
		return "", 0, "", fmt.Errorf("bad timestamp: %w", err)
	}
	if len(tz) != 5 || (tz[0] != '+' && tz[0] != '-') {
		return "", 0, "", fmt.Errorf("bad timezone %q", tz)
	}
	return rest[:tsSp], ts, tz, nil
}
