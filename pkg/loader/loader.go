// Package loader resolves template sources from a pinned commit instead
// of the filesystem. A Loader never sees later commits, so anything
// compiled from it stays valid for the Loader's lifetime.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/odvcencio/folio/pkg/repo"
)

// Source is a resolved template.
type Source struct {
	Text string
	// Filename names the source in error messages:
	// <repo>/<git commit H>/<path>.
	Filename string
	// UpToDate reports whether Text is still current. Commits are
	// immutable, so it always returns true.
	UpToDate func() bool
}

// TemplateNotFoundError reports a template name with no blob behind it.
// It matches fs.ErrNotExist.
type TemplateNotFoundError struct {
	Name string
	Err  error
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template not found: %s", e.Name)
}

func (e *TemplateNotFoundError) Unwrap() error { return e.Err }

func (e *TemplateNotFoundError) Is(target error) bool {
	return target == fs.ErrNotExist
}

// Loader reads templates below an optional sub-directory of a Git view.
type Loader struct {
	git    *repo.Git
	prefix string
}

// New returns a Loader over g. Names are resolved below subDirectory when
// it is not empty.
func New(g *repo.Git, subDirectory string) *Loader {
	prefix := strings.Trim(subDirectory, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Loader{git: g, prefix: prefix}
}

// Git returns the view l reads from.
func (l *Loader) Git() *repo.Git { return l.git }

func (l *Loader) fullPath(name string) string {
	return l.prefix + strings.TrimLeft(name, "/")
}

// Resolve returns the source of the template called name.
func (l *Loader) Resolve(name string) (*Source, error) {
	p := l.fullPath(name)
	data, err := l.git.Read(p)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, &TemplateNotFoundError{Name: name, Err: err}
		}
		return nil, fmt.Errorf("resolve template %q: %w", name, err)
	}
	return &Source{
		Text:     string(data),
		Filename: fmt.Sprintf("%s/%s", l.git.Describe(), p),
		UpToDate: func() bool { return true },
	}, nil
}

// Open implements fs.FS over the loader's sub-directory.
func (l *Loader) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return l.openDir(name, strings.TrimSuffix(l.prefix, "/"))
	}
	p := l.fullPath(name)
	entry, err := l.git.Stat(p)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: translate(err)}
	}
	if entry.IsDir() {
		return l.openDir(name, p)
	}
	data, err := l.git.Read(p)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: translate(err)}
	}
	return newBlobFile(fileInfo{name: path.Base(name), size: int64(len(data)), mode: modeOf(entry), modTime: l.modTime()}, data), nil
}

// ReadFile implements fs.ReadFileFS.
func (l *Loader) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) || name == "." {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	data, err := l.git.Read(l.fullPath(name))
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: translate(err)}
	}
	return data, nil
}

// ReadDir implements fs.ReadDirFS. Entries are sorted by name.
func (l *Loader) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	p := strings.TrimSuffix(l.prefix, "/")
	if name != "." {
		p = l.fullPath(name)
	}
	entries, err := l.dirEntries(p)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: translate(err)}
	}
	return entries, nil
}

func (l *Loader) openDir(name, p string) (fs.File, error) {
	entries, err := l.dirEntries(p)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: translate(err)}
	}
	info := fileInfo{name: path.Base(name), mode: fs.ModeDir | 0o555, modTime: l.modTime()}
	return &dirFile{info: info, entries: entries}, nil
}

// translate maps repository errors onto the io/fs sentinels.
func translate(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return fs.ErrNotExist
	case errors.Is(err, repo.ErrInvalidArgument), errors.Is(err, repo.ErrTypeMismatch):
		return fs.ErrInvalid
	default:
		return err
	}
}
