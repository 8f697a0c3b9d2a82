package object

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestHashObjectMatchesGit(t *testing.T) {
	// Values produced by `git hash-object`.
	cases := []struct {
		objType ObjectType
		data    string
		want    Hash
	}{
		{TypeBlob, "hello world", "95d09f2b10159347eece71399a7e2e907ea3df4f"},
		{TypeBlob, "", "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391"},
		{TypeTree, "", EmptyTreeHash},
	}
	for _, tc := range cases {
		if got := HashObject(tc.objType, []byte(tc.data)); got != tc.want {
			t.Errorf("HashObject(%s, %q) = %s, want %s", tc.objType, tc.data, got, tc.want)
		}
	}
}

func TestHashObjectEnvelope(t *testing.T) {
	data := []byte("hello")
	h1 := HashObject(TypeBlob, data)
	h2 := HashObject(TypeBlob, data)
	if h1 != h2 {
		t.Error("HashObject not deterministic")
	}
	if h3 := HashObject(TypeCommit, data); h1 == h3 {
		t.Error("Different types should produce different hashes")
	}
	if len(h1) != 40 {
		t.Errorf("Hash length: got %d, want 40", len(h1))
	}
}

func TestParseHash(t *testing.T) {
	if _, err := ParseHash("95d09f2b10159347eece71399a7e2e907ea3df4f"); err != nil {
		t.Fatalf("ParseHash(valid): %v", err)
	}
	for _, bad := range []string{"", "abc", "95D09F2B10159347EECE71399A7E2E907EA3DF4F", "zz" + string(bytes.Repeat([]byte("0"), 38))} {
		if _, err := ParseHash(bad); err == nil {
			t.Errorf("ParseHash(%q): expected error", bad)
		}
	}
}

func tempStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return NewStore(NewLooseBackend(dir)), dir
}

func countObjects(t *testing.T, root string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(filepath.Join(root, "objects"), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("walk objects: %v", err)
	}
	return n
}

func TestStoreWriteRead(t *testing.T) {
	s, _ := tempStore(t)
	data := []byte("hello world")
	h, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if h != "95d09f2b10159347eece71399a7e2e907ea3df4f" {
		t.Errorf("Hash: got %s", h)
	}

	gotType, gotData, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if gotType != TypeBlob {
		t.Errorf("Type: got %q, want %q", gotType, TypeBlob)
	}
	if !bytes.Equal(gotData, data) {
		t.Errorf("Data: got %q, want %q", gotData, data)
	}
}

func TestStoreIdempotentWrite(t *testing.T) {
	s, dir := tempStore(t)
	h1, err := s.WriteBlob(&Blob{Data: []byte("same bytes")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	before := countObjects(t, dir)

	h2, err := s.WriteBlob(&Blob{Data: []byte("same bytes")})
	if err != nil {
		t.Fatalf("WriteBlob(again): %v", err)
	}
	if h1 != h2 {
		t.Fatalf("hash changed on rewrite: %s != %s", h1, h2)
	}
	if after := countObjects(t, dir); after != before {
		t.Fatalf("object count grew from %d to %d on duplicate write", before, after)
	}
}

func TestStoreConcurrentIdenticalWrites(t *testing.T) {
	s, dir := tempStore(t)
	const workers = 16
	var wg sync.WaitGroup
	hashes := make([]Hash, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hashes[i], errs[i] = s.WriteBlob(&Blob{Data: []byte("contended")})
		}(i)
	}
	wg.Wait()
	for i := range hashes {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if hashes[i] != hashes[0] {
			t.Fatalf("worker %d hash %s != %s", i, hashes[i], hashes[0])
		}
	}
	if n := countObjects(t, dir); n != 1 {
		t.Fatalf("object files = %d, want 1", n)
	}
}

func TestStoreReadMissing(t *testing.T) {
	s, _ := tempStore(t)
	_, _, err := s.Read(Hash("0123456789012345678901234567890123456789"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreTypeMismatch(t *testing.T) {
	s, _ := tempStore(t)
	h, err := s.WriteBlob(&Blob{Data: []byte("not a tree")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if _, err := s.ReadTree(h); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("ReadTree(blob): expected ErrTypeMismatch, got %v", err)
	}
}

func TestStoreCachedTreeIsNotShared(t *testing.T) {
	s, _ := tempStore(t)
	blob, _ := s.WriteBlob(&Blob{Data: []byte("x")})
	h, err := s.WriteTree(&TreeObj{Entries: []TreeEntry{{Name: "a", Mode: TreeModeFile, Hash: blob}}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	first, err := s.ReadTree(h)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	first.Entries[0].Name = "mutated"

	second, err := s.ReadTree(h)
	if err != nil {
		t.Fatalf("ReadTree(again): %v", err)
	}
	if second.Entries[0].Name != "a" {
		t.Fatalf("cached tree was mutated through a previous read: %q", second.Entries[0].Name)
	}
}

func TestReadEmptyTreeWithoutStoring(t *testing.T) {
	s, _ := tempStore(t)
	tr, err := s.ReadTree(EmptyTreeHash)
	if err != nil {
		t.Fatalf("ReadTree(empty): %v", err)
	}
	if len(tr.Entries) != 0 {
		t.Fatalf("entries = %d, want 0", len(tr.Entries))
	}
}
