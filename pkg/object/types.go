package object

// Hash is a 40-character hex-encoded SHA-1 digest, the same object naming
// Git uses, so repositories stay readable by standard tooling.
type Hash string

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
)

const (
	// Tree mode constants compatible with Git's canonical mode strings.
	TreeModeDir        = "40000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
)

// EmptyTreeHash is the hash of a tree with no entries.
const EmptyTreeHash Hash = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

// TreeEntry is one entry in a tree object.
type TreeEntry struct {
	Name string
	Mode string
	Hash Hash
}

// IsDir reports whether the entry points at a subtree.
func (e TreeEntry) IsDir() bool {
	return e.Mode == TreeModeDir
}

// Type returns the kind of object the entry points at.
func (e TreeEntry) Type() ObjectType {
	if e.IsDir() {
		return TypeTree
	}
	return TypeBlob
}

// TreeObj holds a list of tree entries kept in Git order.
type TreeObj struct {
	Entries []TreeEntry
}

// Entry returns the entry named name.
func (t *TreeObj) Entry(name string) (TreeEntry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}

// With returns a copy of t where the entry called e.Name is replaced by e
// (or added). The receiver is left untouched.
func (t *TreeObj) With(e TreeEntry) *TreeObj {
	out := &TreeObj{Entries: make([]TreeEntry, 0, len(t.Entries)+1)}
	replaced := false
	for _, cur := range t.Entries {
		if cur.Name == e.Name {
			out.Entries = append(out.Entries, e)
			replaced = true
			continue
		}
		out.Entries = append(out.Entries, cur)
	}
	if !replaced {
		out.Entries = append(out.Entries, e)
	}
	sortEntries(out.Entries)
	return out
}

// Signature identifies who made a commit and when.
type Signature struct {
	Name     string
	Email    string
	When     int64  // unix seconds
	Timezone string // "+hhmm" / "-hhmm"
}

// Identity returns "Name <email>".
func (s Signature) Identity() string {
	return s.Name + " <" + s.Email + ">"
}

// CommitObj represents a commit pointing to a tree with metadata.
type CommitObj struct {
	TreeHash  Hash
	Parents   []Hash
	Author    Signature
	Committer Signature
	Message   string
}
