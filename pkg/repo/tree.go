package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/folio/pkg/object"
)

// WritePath stores data as a blob at path below root and returns the hash
// of the new root tree. Missing intermediate trees are created; every
// tree from the leaf up to the root is rewritten with its updated child.
// Trees already in the store are never modified.
func (r *Repository) WritePath(root object.Hash, path string, data []byte) (object.Hash, error) {
	parts, err := splitPath(path)
	if err != nil {
		return "", &PathError{Op: "write", Path: path, Err: err}
	}
	for _, part := range parts {
		if part == "." || part == ".." {
			return "", &PathError{Op: "write", Path: path, Err: invalidArgf("path segment %q", part)}
		}
	}

	last := len(parts) - 1
	trees := make([]*object.TreeObj, len(parts))
	cur, err := r.readTreeOrEmpty(root)
	if err != nil {
		return "", &PathError{Op: "write", Path: path, Err: err}
	}
	for i, name := range parts {
		trees[i] = cur
		if i == last {
			break
		}
		entry, ok := cur.Entry(name)
		if !ok {
			cur = &object.TreeObj{}
			continue
		}
		if !entry.IsDir() {
			return "", &PathError{Op: "write", Path: path, Err: fmt.Errorf("%w: %q is a %s, expected a tree",
				ErrTypeMismatch, strings.Join(parts[:i+1], "/"), entry.Type())}
		}
		if cur, err = r.Objects.ReadTree(entry.Hash); err != nil {
			return "", &PathError{Op: "write", Path: path, Err: err}
		}
	}

	existing, found := trees[last].Entry(parts[last])
	if found && existing.IsDir() {
		return "", &PathError{Op: "write", Path: path,
			Err: fmt.Errorf("%w: will not overwrite a tree at %q", ErrTypeMismatch, path)}
	}

	blobHash, err := r.Objects.WriteBlob(&object.Blob{Data: data})
	if err != nil {
		return "", &PathError{Op: "write", Path: path, Err: err}
	}

	child := object.TreeEntry{Name: parts[last], Mode: blobModeFor(existing, found), Hash: blobHash}
	for i := last; i >= 0; i-- {
		h, err := r.Objects.WriteTree(trees[i].With(child))
		if err != nil {
			return "", &PathError{Op: "write", Path: path, Err: err}
		}
		if i == 0 {
			return h, nil
		}
		child = object.TreeEntry{Name: parts[i-1], Mode: object.TreeModeDir, Hash: h}
	}
	return "", nil
}

// StoreDirectory recursively stores the directory at root and returns the
// hash of its tree. Symbolic links are followed; special files (sockets,
// devices, pipes) are skipped.
func (r *Repository) StoreDirectory(root string) (object.Hash, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("store directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("store directory %q: %w: not a directory", root, ErrInvalidArgument)
	}
	return r.storeDirectory(root, []os.FileInfo{info})
}

func (r *Repository) storeDirectory(dir string, ancestors []os.FileInfo) (object.Hash, error) {
	names, err := readDirNames(dir)
	if err != nil {
		return "", fmt.Errorf("store directory: %w", err)
	}

	tree := &object.TreeObj{}
	for _, name := range names {
		full := filepath.Join(dir, name)
		info, err := os.Stat(full)
		if err != nil {
			// Dangling symlink.
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("store directory: %w", err)
		}

		switch {
		case info.IsDir():
			if isAncestor(info, ancestors) {
				// A symlink back up the tree would never terminate.
				continue
			}
			h, err := r.storeDirectory(full, append(ancestors, info))
			if err != nil {
				return "", err
			}
			tree.Entries = append(tree.Entries, object.TreeEntry{Name: name, Mode: object.TreeModeDir, Hash: h})
		case info.Mode().IsRegular():
			data, err := os.ReadFile(full)
			if err != nil {
				return "", fmt.Errorf("store directory: %w", err)
			}
			h, err := r.Objects.WriteBlob(&object.Blob{Data: data})
			if err != nil {
				return "", fmt.Errorf("store directory %q: %w", full, err)
			}
			tree.Entries = append(tree.Entries, object.TreeEntry{Name: name, Mode: modeFromFileInfo(info), Hash: h})
		}
	}

	h, err := r.Objects.WriteTree(tree)
	if err != nil {
		return "", fmt.Errorf("store directory %q: %w", dir, err)
	}
	return h, nil
}

func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func isAncestor(info os.FileInfo, ancestors []os.FileInfo) bool {
	for _, a := range ancestors {
		if os.SameFile(info, a) {
			return true
		}
	}
	return false
}
