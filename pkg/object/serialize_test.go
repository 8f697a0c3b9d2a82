package object

import (
	"strings"
	"testing"
)

func TestMarshalTreeMatchesGit(t *testing.T) {
	blob := HashObject(TypeBlob, []byte("hello"))
	tr := &TreeObj{Entries: []TreeEntry{{Name: "index.txt", Mode: TreeModeFile, Hash: blob}}}
	data, err := MarshalTree(tr)
	if err != nil {
		t.Fatalf("MarshalTree: %v", err)
	}
	// `printf hello > index.txt && git add index.txt && git write-tree`
	if got, want := HashObject(TypeTree, data), Hash("febe3ce2495674e70671ed76a3ab8cb948d7fdc9"); got != want {
		t.Fatalf("tree hash = %s, want %s", got, want)
	}
}

func TestMarshalTreeGitOrder(t *testing.T) {
	blob := HashObject(TypeBlob, []byte("x"))
	tr := &TreeObj{Entries: []TreeEntry{
		{Name: "a.txt", Mode: TreeModeFile, Hash: blob},
		{Name: "a", Mode: TreeModeDir, Hash: EmptyTreeHash},
		{Name: "a-b", Mode: TreeModeFile, Hash: blob},
	}}
	data, err := MarshalTree(tr)
	if err != nil {
		t.Fatalf("MarshalTree: %v", err)
	}
	got, err := UnmarshalTree(data)
	if err != nil {
		t.Fatalf("UnmarshalTree: %v", err)
	}
	// "a/" sorts after "a-b" and "a.txt" because '/' > '-' and '/' > '.'.
	want := []string{"a-b", "a.txt", "a"}
	for i, e := range got.Entries {
		if e.Name != want[i] {
			t.Fatalf("entry %d = %q, want %q (full: %+v)", i, e.Name, want[i], got.Entries)
		}
	}
	if !got.Entries[2].IsDir() {
		t.Fatalf("entry %q lost its directory mode", got.Entries[2].Name)
	}
}

func TestMarshalTreeRejectsBadEntries(t *testing.T) {
	blob := HashObject(TypeBlob, []byte("x"))
	for _, e := range []TreeEntry{
		{Name: "", Mode: TreeModeFile, Hash: blob},
		{Name: "a/b", Mode: TreeModeFile, Hash: blob},
		{Name: "ok", Mode: TreeModeFile, Hash: "short"},
	} {
		if _, err := MarshalTree(&TreeObj{Entries: []TreeEntry{e}}); err == nil {
			t.Errorf("MarshalTree(%+v): expected error", e)
		}
	}
}

func TestTreeWithIsCopyOnWrite(t *testing.T) {
	blob := HashObject(TypeBlob, []byte("x"))
	other := HashObject(TypeBlob, []byte("y"))
	orig := &TreeObj{Entries: []TreeEntry{{Name: "f", Mode: TreeModeFile, Hash: blob}}}

	next := orig.With(TreeEntry{Name: "f", Mode: TreeModeFile, Hash: other})
	if orig.Entries[0].Hash != blob {
		t.Fatalf("With mutated the receiver")
	}
	if e, ok := next.Entry("f"); !ok || e.Hash != other {
		t.Fatalf("With did not replace entry: %+v", next.Entries)
	}

	added := next.With(TreeEntry{Name: "g", Mode: TreeModeFile, Hash: blob})
	if len(added.Entries) != 2 || len(next.Entries) != 1 {
		t.Fatalf("unexpected entry counts: added=%d next=%d", len(added.Entries), len(next.Entries))
	}
}

func TestCommitFormat(t *testing.T) {
	c := &CommitObj{
		TreeHash: EmptyTreeHash,
		Parents:  []Hash{"95d09f2b10159347eece71399a7e2e907ea3df4f"},
		Author:   Signature{Name: "Alice", Email: "alice@example.org", When: 1700000000, Timezone: "+0100"},
		Committer: Signature{
			Name: "Folio", Email: "folio@folio.local", When: 1700000001,
		},
		Message: "First commit\n",
	}
	data := string(MarshalCommit(c))
	wantLines := []string{
		"tree " + string(EmptyTreeHash),
		"parent 95d09f2b10159347eece71399a7e2e907ea3df4f",
		"author Alice <alice@example.org> 1700000000 +0100",
		"committer Folio <folio@folio.local> 1700000001 +0000",
	}
	for _, l := range wantLines {
		if !strings.Contains(data, l+"\n") {
			t.Errorf("commit missing line %q:\n%s", l, data)
		}
	}

	got, err := UnmarshalCommit([]byte(data))
	if err != nil {
		t.Fatalf("UnmarshalCommit: %v", err)
	}
	if got.Author.Identity() != "Alice <alice@example.org>" || got.Author.Timezone != "+0100" {
		t.Errorf("author = %+v", got.Author)
	}
	if got.Committer.When != 1700000001 {
		t.Errorf("committer when = %d", got.Committer.When)
	}
	if got.Message != "First commit\n" {
		t.Errorf("message = %q", got.Message)
	}
}

func TestUnmarshalCommitSkipsForeignHeaders(t *testing.T) {
	raw := "tree " + string(EmptyTreeHash) + "\n" +
		"author A U Thor <a@example.org> 1 +0000\n" +
		"committer A U Thor <a@example.org> 1 +0000\n" +
		"gpgsig -----BEGIN SSH SIGNATURE-----\n" +
		" AAAA\n" +
		" -----END SSH SIGNATURE-----\n" +
		"\nsigned\n"
	c, err := UnmarshalCommit([]byte(raw))
	if err != nil {
		t.Fatalf("UnmarshalCommit: %v", err)
	}
	if c.Author.Name != "A U Thor" {
		t.Errorf("author name = %q", c.Author.Name)
	}
	if len(c.Parents) != 0 {
		t.Errorf("parents = %v", c.Parents)
	}
}
