package document

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"

	"github.com/odvcencio/folio/pkg/diff"
	"github.com/odvcencio/folio/pkg/loader"
	"github.com/odvcencio/folio/pkg/object"
	"github.com/odvcencio/folio/pkg/repo"
)

// Document is one document at one version. It is built per request and
// not safe for concurrent writes.
type Document struct {
	Type     Type
	ID       string
	Branch   string
	Archived bool

	git     *repo.Git
	manager *Manager

	envOnce sync.Once
	env     *loader.Environment
}

// Git returns the view the document is read through.
func (d *Document) Git() *repo.Git { return d.git }

// Version returns the commit the document is pinned at, "" when the
// document does not exist yet.
func (d *Document) Version() object.Hash { return d.git.Head() }

// Exists reports whether the document's branch has a commit.
func (d *Document) Exists() bool { return d.git.Head() != "" }

// Read returns the resource at path.
func (d *Document) Read(path string) ([]byte, error) {
	return d.git.Read(path)
}

// Index returns the main resource.
func (d *Document) Index() ([]byte, error) {
	return d.git.Read(d.Type.IndexPath())
}

// ReadDir lists the resources below path ("" for the top level).
func (d *Document) ReadDir(path string) ([]object.TreeEntry, error) {
	return d.git.ReadDir(path)
}

// WriteResource stores data at path and commits it on top of the
// document's version. A branch that moved meanwhile yields a
// *repo.ConflictError and leaves the document unchanged.
func (d *Document) WriteResource(path string, data []byte, author Author, message string) (object.Hash, error) {
	if d.Archived {
		return "", fmt.Errorf("write %s: %w: archives are append-only", d.Branch, repo.ErrInvalidArgument)
	}
	base := d.git.TreeHash()
	if err := d.git.Write(path, data); err != nil {
		return "", err
	}
	name, email := d.manager.author(author)
	h, err := d.git.Commit(name, email, messageOr(message, fmt.Sprintf("Update %s", path)))
	if err != nil {
		// Drop the staged tree so the document still shows its version.
		if serr := d.git.SetTree(base); serr != nil {
			return "", errors.Join(err, serr)
		}
		return "", err
	}
	return h, nil
}

// History yields the document's commits, newest first.
func (d *Document) History() iter.Seq2[object.Hash, error] {
	return d.git.History()
}

// Versions returns up to limit commits of the document's history.
func (d *Document) Versions(limit int) ([]repo.LogEntry, error) {
	return d.git.Log(limit)
}

// Loader returns a template loader over the document's resources.
func (d *Document) Loader() *loader.Loader {
	return loader.New(d.git, "")
}

// Environment returns the template environment used by Render.
func (d *Document) Environment() *loader.Environment {
	d.envOnce.Do(func() {
		d.env = loader.NewEnvironment(d.Loader(), nil)
	})
	return d.env
}

// Render executes the index resource as a template with data.
func (d *Document) Render(w io.Writer, data any) error {
	if !d.Exists() {
		return fmt.Errorf("render %s: %w", d.Branch, repo.ErrNotFound)
	}
	return d.Environment().Render(w, d.Type.IndexPath(), data)
}

// Diff returns a unified diff of the resource at path from fromVersion
// to the document's version. A resource absent on one side diffs against
// /dev/null.
func (d *Document) Diff(fromVersion object.Hash, path string) (string, error) {
	from, err := d.git.Repository().At("", fromVersion)
	if err != nil {
		return "", err
	}
	before, fromName, err := readForDiff(from, path, "a/")
	if err != nil {
		return "", err
	}
	after, toName, err := readForDiff(d.git, path, "b/")
	if err != nil {
		return "", err
	}
	return diff.Unified(fromName, toName, before, after, diff.DefaultContext), nil
}

func readForDiff(g *repo.Git, path, side string) ([]byte, string, error) {
	data, err := g.Read(path)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, "/dev/null", nil
	}
	if err != nil {
		return nil, "", err
	}
	return data, side + strings.TrimLeft(path, "/"), nil
}
