package document

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/odvcencio/folio/pkg/object"
	"github.com/odvcencio/folio/pkg/repo"
)

type fixture struct {
	repo    *repo.Repository
	manager *Manager
	logs    *observer.ObservedLogs
	model   string
}

func writeModel(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func setup(t *testing.T, model map[string]string) *fixture {
	t.Helper()
	r, err := repo.Init(filepath.Join(t.TempDir(), "documents.git"))
	require.NoError(t, err)

	dir := writeModel(t, model)
	registry, err := NewRegistry(Type{Name: "Doc", ModelPath: dir, Index: "index.txt"})
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	return &fixture{
		repo:    r,
		manager: NewManager(r, registry, WithLogger(zap.New(core))),
		logs:    logs,
		model:   dir,
	}
}

func countObjects(t *testing.T, r *repo.Repository) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(filepath.Join(r.Path, "objects"), func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

func TestCreateThenRead(t *testing.T) {
	f := setup(t, map[string]string{"index.txt": "hello"})

	res, err := f.manager.Create("Doc", "42", CreateOptions{})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "documents/Doc/42", res.Branch)

	g, err := f.repo.Branch("documents/Doc/42")
	require.NoError(t, err)
	data, err := g.Read("index.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, res.Commit, g.Head())
	assert.Empty(t, g.HeadCommit().Parents)
	assert.Equal(t, DefaultAuthorName, g.HeadCommit().Author.Name)

	t.Run("AlreadyUsed", func(t *testing.T) {
		before := countObjects(t, f.repo)
		again, err := f.manager.Create("Doc", "42", CreateOptions{})
		require.NoError(t, err)
		assert.False(t, again.Created)
		assert.Equal(t, res.Commit, again.Commit)
		assert.Equal(t, before, countObjects(t, f.repo))
	})
}

func TestCreate_InvalidIdentifierWritesNothing(t *testing.T) {
	f := setup(t, map[string]string{"index.txt": "hello"})
	before := countObjects(t, f.repo)

	for _, id := range []string{"a/b", ""} {
		_, err := f.manager.Create("Doc", id, CreateOptions{})
		assert.ErrorIs(t, err, repo.ErrInvalidArgument, "id %q", id)
	}
	assert.Equal(t, before, countObjects(t, f.repo))

	branches, err := f.repo.ListBranches("")
	require.NoError(t, err)
	assert.Empty(t, branches)
}

func TestCreate_UnknownType(t *testing.T) {
	f := setup(t, map[string]string{"index.txt": "hello"})
	_, err := f.manager.Create("Nope", "1", CreateOptions{})
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestEdit(t *testing.T) {
	f := setup(t, map[string]string{"index.txt": "v1"})
	created, err := f.manager.Create("Doc", "42", CreateOptions{})
	require.NoError(t, err)

	saved, err := f.manager.Edit("Doc", "42", created.Commit, []byte("v2"), EditOptions{
		Author:  Author{Name: "Alice", Email: "alice@example.org"},
		Message: "second draft",
	})
	require.NoError(t, err)
	assert.True(t, saved.Saved)
	assert.False(t, saved.Conflict)
	assert.Equal(t, MessageSaved, saved.Message)

	// A second editor still looking at the first version loses.
	stale, err := f.manager.Edit("Doc", "42", created.Commit, []byte("v2 from Bob"), EditOptions{})
	require.NoError(t, err)
	assert.True(t, stale.Conflict)
	assert.False(t, stale.Saved)
	assert.Equal(t, MessageConflict, stale.Message)
	assert.Equal(t, 1, f.logs.FilterMessage("document edit conflict").Len())

	doc, err := f.manager.Open("Doc", "42", "")
	require.NoError(t, err)
	assert.Equal(t, saved.Commit, doc.Version())
	index, err := doc.Index()
	require.NoError(t, err)
	assert.Equal(t, "v2", string(index))

	versions, err := doc.Versions(0)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "Alice", versions[0].Commit.Author.Name)
	assert.Equal(t, created.Commit, versions[1].Hash)
}

func TestEdit_ResourcePath(t *testing.T) {
	f := setup(t, map[string]string{"index.txt": "v1"})
	_, err := f.manager.Create("Doc", "42", CreateOptions{})
	require.NoError(t, err)

	res, err := f.manager.Edit("Doc", "42", "", []byte("<svg/>"), EditOptions{Path: "images/logo.svg"})
	require.NoError(t, err)
	require.True(t, res.Saved)

	doc, err := f.manager.Open("Doc", "42", res.Commit)
	require.NoError(t, err)
	data, err := doc.Read("images/logo.svg")
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))

	_, err = f.manager.Edit("Doc", "42", "", []byte("x"), EditOptions{Path: "index.txt/child"})
	assert.ErrorIs(t, err, repo.ErrTypeMismatch)
}

func TestEdit_MissingDocument(t *testing.T) {
	f := setup(t, map[string]string{"index.txt": "v1"})
	_, err := f.manager.Edit("Doc", "missing", "", []byte("x"), EditOptions{})
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestArchiveIndependence(t *testing.T) {
	f := setup(t, map[string]string{"index.txt": "original"})
	created, err := f.manager.Create("Doc", "42", CreateOptions{})
	require.NoError(t, err)

	snap1, err := f.manager.Archive("Doc", "42", ArchiveOptions{})
	require.NoError(t, err)

	_, err = f.manager.Edit("Doc", "42", created.Commit, []byte("changed"), EditOptions{})
	require.NoError(t, err)

	old, err := f.repo.At("", snap1)
	require.NoError(t, err)
	data, err := old.Read("index.txt")
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
	assert.Empty(t, old.HeadCommit().Parents, "archive lineage must not include live commits")

	snap2, err := f.manager.Archive("Doc", "42", ArchiveOptions{Message: "second snapshot"})
	require.NoError(t, err)
	archive, err := f.manager.OpenArchive("Doc", "42", "")
	require.NoError(t, err)
	assert.Equal(t, snap2, archive.Version())
	assert.Equal(t, []object.Hash{snap1}, archive.Git().HeadCommit().Parents)
	data, err = archive.Index()
	require.NoError(t, err)
	assert.Equal(t, "changed", string(data))

	_, err = archive.WriteResource("index.txt", []byte("nope"), Author{}, "")
	assert.ErrorIs(t, err, repo.ErrInvalidArgument)

	// Archiving an older live version is allowed.
	snap3, err := f.manager.Archive("Doc", "42", ArchiveOptions{Version: created.Commit})
	require.NoError(t, err)
	third, err := f.manager.OpenArchive("Doc", "42", snap3)
	require.NoError(t, err)
	data, err = third.Index()
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestArchive_MissingDocument(t *testing.T) {
	f := setup(t, map[string]string{"index.txt": "x"})
	_, err := f.manager.Archive("Doc", "nobody", ArchiveOptions{})
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestArchive_ConcurrentArchivesDoNotFork(t *testing.T) {
	f := setup(t, map[string]string{"index.txt": "x"})
	_, err := f.manager.Create("Doc", "42", CreateOptions{})
	require.NoError(t, err)

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.manager.Archive("Doc", "42", ArchiveOptions{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
			continue
		}
		var conflict *repo.ConflictError
		assert.ErrorAs(t, err, &conflict)
		assert.ErrorIs(t, err, repo.ErrConflict)
	}
	require.GreaterOrEqual(t, successes, 1)

	archive, err := f.manager.OpenArchive("Doc", "42", "")
	require.NoError(t, err)
	versions, err := archive.Versions(0)
	require.NoError(t, err)
	assert.Len(t, versions, successes)
}

func TestCreate_ConcurrentSingleWinner(t *testing.T) {
	f := setup(t, map[string]string{"index.txt": "x", "parts/a.txt": "a"})

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan *CreateResult, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.manager.Create("Doc", "42", CreateOptions{})
			if err != nil {
				errs <- err
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Errorf("Create: %v", err)
	}
	created := 0
	var winner object.Hash
	for res := range results {
		if res.Created {
			created++
			winner = res.Commit
		}
	}
	require.Equal(t, 1, created)

	head, ok, err := f.repo.ResolveBranch("documents/Doc/42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, winner, head)
}

func TestWriteResource_ConflictLeavesDocumentUnchanged(t *testing.T) {
	f := setup(t, map[string]string{"index.txt": "v1"})
	created, err := f.manager.Create("Doc", "42", CreateOptions{})
	require.NoError(t, err)

	a, err := f.manager.Open("Doc", "42", created.Commit)
	require.NoError(t, err)
	b, err := f.manager.Open("Doc", "42", created.Commit)
	require.NoError(t, err)

	_, err = a.WriteResource("index.txt", []byte("A"), Author{}, "")
	require.NoError(t, err)

	_, err = b.WriteResource("index.txt", []byte("B"), Author{}, "")
	var conflict *repo.ConflictError
	require.ErrorAs(t, err, &conflict)

	data, err := b.Index()
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))
	assert.Equal(t, created.Commit, b.Version())
}

func TestRender(t *testing.T) {
	f := setup(t, map[string]string{
		"index.txt":      `Report for {{.Name}}{{template "parts/sign.txt" .}}`,
		"parts/sign.txt": "\n-- {{.Signer}}",
	})
	_, err := f.manager.Create("Doc", "7", CreateOptions{})
	require.NoError(t, err)

	doc, err := f.manager.Open("Doc", "7", "")
	require.NoError(t, err)
	var sb strings.Builder
	require.NoError(t, doc.Render(&sb, map[string]string{"Name": "Jo", "Signer": "HR"}))
	assert.Equal(t, "Report for Jo\n-- HR", sb.String())

	missing, err := f.manager.Open("Doc", "8", "")
	require.NoError(t, err)
	assert.False(t, missing.Exists())
	assert.ErrorIs(t, missing.Render(&sb, nil), repo.ErrNotFound)
}

func TestDiff(t *testing.T) {
	f := setup(t, map[string]string{"index.txt": "a\nb\nc\n"})
	created, err := f.manager.Create("Doc", "42", CreateOptions{})
	require.NoError(t, err)
	edited, err := f.manager.Edit("Doc", "42", created.Commit, []byte("a\nB\nc\n"), EditOptions{})
	require.NoError(t, err)

	doc, err := f.manager.Open("Doc", "42", edited.Commit)
	require.NoError(t, err)
	out, err := doc.Diff(created.Commit, "index.txt")
	require.NoError(t, err)
	assert.Equal(t, "--- a/index.txt\n+++ b/index.txt\n@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n", out)

	_, err = f.manager.Edit("Doc", "42", "", []byte("new\n"), EditOptions{Path: "notes.txt"})
	require.NoError(t, err)
	latest, err := f.manager.Open("Doc", "42", "")
	require.NoError(t, err)
	out, err = latest.Diff(created.Commit, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "--- /dev/null\n+++ b/notes.txt\n@@ -0,0 +1 @@\n+new\n", out)
}

func TestList(t *testing.T) {
	f := setup(t, map[string]string{"index.txt": "x"})
	for _, id := range []string{"b", "a b", "..x", "42"} {
		res, err := f.manager.Create("Doc", id, CreateOptions{})
		require.NoError(t, err)
		require.True(t, res.Created, id)
	}
	ids, err := f.manager.List("Doc")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "a b", "..x", "42"}, ids)
}
