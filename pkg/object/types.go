package object

// Hash is a 64-character hex-encoded SHA-256 digest.
type Hash string

// ObjectType identifies the kind of object stored. The set is closed: the
// on-disk format defines exactly these four kinds.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
	TypeTag    ObjectType = "tag"
)

const (
	// Tree mode constants compatible with Git's canonical mode strings.
	TreeModeDir        = "40000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
)

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

// TreeEntry is one entry in a tree object. Hash points at a Blob for files
// and at a subtree for directories.
type TreeEntry struct {
	Mode string
	Name string
	Hash Hash
}

// IsDir reports whether the entry references a subtree.
func (e TreeEntry) IsDir() bool {
	return e.Mode == TreeModeDir
}

// TreeObj is a directory snapshot. Canonical encoding sorts Entries
// byte-wise by Name regardless of insertion order.
type TreeObj struct {
	Entries []TreeEntry
}

// CommitObj represents a commit pointing to a tree with metadata.
// Parent order is preserved exactly as authored; the first parent is the
// mainline ancestor, and zero parents mark a root commit.
type CommitObj struct {
	TreeHash   Hash
	Parents    []Hash
	Author     string // "Name <email>"
	AuthorTime int64
	AuthorTZ   string // "+0000" form
	Committer  string
	CommitTime int64
	CommitTZ   string
	Signature  string // optional, armored over the unsigned payload
	Message    string
}

// TagObj is an annotated pointer to any object kind.
type TagObj struct {
	TargetHash Hash
	TargetType ObjectType
	Name       string
	Tagger     string
	TaggerTime int64
	TaggerTZ   string
	Message    string
}
