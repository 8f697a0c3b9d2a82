package repo

import (
	"fmt"
	"strings"

	"github.com/odvcencio/folio/pkg/object"
)

// splitPath splits p on "/" and drops empty segments, so leading,
// trailing and doubled slashes are tolerated. A path with no segments is
// a caller error.
func splitPath(p string) ([]string, error) {
	var parts []string
	for _, part := range strings.Split(p, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return nil, invalidArgf("empty path %q", p)
	}
	return parts, nil
}

func (r *Repository) readTreeOrEmpty(h object.Hash) (*object.TreeObj, error) {
	if h == "" {
		return &object.TreeObj{}, nil
	}
	return r.Objects.ReadTree(h)
}

// Lookup walks from the root tree to the entry at path. Every segment but
// the last must name a tree.
func (r *Repository) Lookup(root object.Hash, path string) (object.TreeEntry, error) {
	parts, err := splitPath(path)
	if err != nil {
		return object.TreeEntry{}, &PathError{Op: "lookup", Path: path, Err: err}
	}
	entry, err := r.lookup(root, parts)
	if err != nil {
		return object.TreeEntry{}, &PathError{Op: "lookup", Path: path, Err: err}
	}
	return entry, nil
}

func (r *Repository) lookup(root object.Hash, parts []string) (object.TreeEntry, error) {
	tree, err := r.readTreeOrEmpty(root)
	if err != nil {
		return object.TreeEntry{}, err
	}
	last := len(parts) - 1
	for i, name := range parts {
		entry, ok := tree.Entry(name)
		if !ok {
			return object.TreeEntry{}, ErrNotFound
		}
		if i == last {
			return entry, nil
		}
		if !entry.IsDir() {
			return object.TreeEntry{}, fmt.Errorf("%w: %q is a %s, expected a tree",
				ErrTypeMismatch, strings.Join(parts[:i+1], "/"), entry.Type())
		}
		tree, err = r.Objects.ReadTree(entry.Hash)
		if err != nil {
			return object.TreeEntry{}, err
		}
	}
	return object.TreeEntry{}, ErrNotFound
}

// ReadPath returns the content of the blob at path.
func (r *Repository) ReadPath(root object.Hash, path string) ([]byte, error) {
	entry, err := r.Lookup(root, path)
	if err != nil {
		return nil, err
	}
	if entry.IsDir() {
		return nil, &PathError{Op: "read", Path: path,
			Err: fmt.Errorf("%w: %q is a tree, expected a blob", ErrTypeMismatch, path)}
	}
	blob, err := r.Objects.ReadBlob(entry.Hash)
	if err != nil {
		return nil, &PathError{Op: "read", Path: path, Err: err}
	}
	return blob.Data, nil
}

// ReadDirPath lists the tree at path. An empty path (or "/") lists the
// root tree.
func (r *Repository) ReadDirPath(root object.Hash, path string) ([]object.TreeEntry, error) {
	target := root
	if strings.Trim(path, "/") != "" {
		entry, err := r.Lookup(root, path)
		if err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			return nil, &PathError{Op: "readdir", Path: path,
				Err: fmt.Errorf("%w: %q is a blob, expected a tree", ErrTypeMismatch, path)}
		}
		target = entry.Hash
	}
	tree, err := r.readTreeOrEmpty(target)
	if err != nil {
		return nil, &PathError{Op: "readdir", Path: path, Err: err}
	}
	return tree.Entries, nil
}
