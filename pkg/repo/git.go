package repo

import (
	"fmt"
	"iter"
	"strings"

	"github.com/odvcencio/folio/pkg/object"
)

// Git is a view of one commit of a repository, optionally attached to a
// branch, read and written without a working directory.
//
// Reads see the snapshot the Git was opened on even when other writers
// advance the branch. Write stages changes in memory (new objects are
// stored, refs are not touched); Commit attaches them to the branch with a
// compare-and-swap against the snapshot's commit.
//
// A Git value is not safe for concurrent use; open one per operation.
type Git struct {
	repo   *Repository
	ref    string
	head   object.Hash
	commit *object.CommitObj
	tree   object.Hash // "" while the tree is empty
}

// Branch opens branch at its current tip. When the branch does not exist
// yet the view is empty and Head returns "".
func (r *Repository) Branch(branch string) (*Git, error) {
	return r.At(branch, "")
}

// At opens branch pinned at commit. commit is not checked to be reachable
// from the branch. An empty commit means the branch's current tip; an
// empty branch gives a detached, read-only view of commit.
func (r *Repository) At(branch string, commit object.Hash) (*Git, error) {
	g := &Git{repo: r}
	if branch != "" {
		ref, err := BranchRef(branch)
		if err != nil {
			return nil, err
		}
		g.ref = ref
		if commit == "" {
			tip, _, err := r.Refs.ReadRef(ref)
			if err != nil {
				return nil, err
			}
			commit = tip
		}
	}
	if commit == "" {
		return g, nil
	}
	if !object.ValidHash(string(commit)) {
		return nil, invalidArgf("commit %q is not a valid hash", commit)
	}

	c, err := r.Objects.ReadCommit(commit)
	if err != nil {
		return nil, fmt.Errorf("open commit %s: %w", commit, err)
	}
	g.head = commit
	g.commit = c
	g.tree = c.TreeHash
	return g, nil
}

// Repository returns the repository g reads from.
func (g *Git) Repository() *Repository { return g.repo }

// Ref returns the full ref name, or "" for a detached view.
func (g *Git) Ref() string { return g.ref }

// BranchName returns the branch name without the refs/heads/ prefix.
func (g *Git) BranchName() string { return strings.TrimPrefix(g.ref, headsPrefix) }

// Head returns the commit the view is based on, "" when there is none.
func (g *Git) Head() object.Hash { return g.head }

// HeadCommit returns the decoded head commit, nil when there is none.
func (g *Git) HeadCommit() *object.CommitObj { return g.commit }

// TreeHash returns the hash of the (possibly modified) root tree.
func (g *Git) TreeHash() object.Hash {
	if g.tree == "" {
		return object.EmptyTreeHash
	}
	return g.tree
}

// Describe returns a human-readable origin for content read through g,
// used in template error messages.
func (g *Git) Describe() string {
	return fmt.Sprintf("%s/<git commit %s>", g.repo.Path, g.head)
}

// Read returns the content of the blob at path.
func (g *Git) Read(path string) ([]byte, error) {
	return g.repo.ReadPath(g.tree, path)
}

// Stat returns the tree entry at path.
func (g *Git) Stat(path string) (object.TreeEntry, error) {
	return g.repo.Lookup(g.tree, path)
}

// ReadDir lists the tree at path; "" lists the root.
func (g *Git) ReadDir(path string) ([]object.TreeEntry, error) {
	return g.repo.ReadDirPath(g.tree, path)
}

// Write stores data at path in g's in-memory tree. Nothing is visible to
// other readers until Commit succeeds.
func (g *Git) Write(path string, data []byte) error {
	h, err := g.repo.WritePath(g.tree, path, data)
	if err != nil {
		return err
	}
	g.tree = h
	return nil
}

// SetTree replaces g's tree wholesale with the stored tree h.
func (g *Git) SetTree(h object.Hash) error {
	if _, err := g.repo.Objects.ReadTree(h); err != nil {
		return fmt.Errorf("set tree %s: %w", h, err)
	}
	g.tree = h
	return nil
}

// StoreDirectory replaces g's tree with the content of a filesystem
// directory.
func (g *Git) StoreDirectory(dir string) error {
	h, err := g.repo.StoreDirectory(dir)
	if err != nil {
		return err
	}
	g.tree = h
	return nil
}

// Commit records g's tree as a new commit whose parent is g's head and
// moves the branch to it. The branch must still point at g's head (or not
// exist, when g has no head); otherwise Commit fails with a
// *ConflictError and the branch is left untouched. No retry is attempted.
//
// The check trusts that nothing outside a RefStore rewrites the ref
// between the read and the swap.
func (g *Git) Commit(authorName, authorEmail, message string) (object.Hash, error) {
	if g.ref == "" {
		return "", invalidArgf("commit: not on a branch")
	}

	treeHash := g.tree
	if treeHash == "" {
		h, err := g.repo.Objects.WriteTree(&object.TreeObj{})
		if err != nil {
			return "", fmt.Errorf("commit: write tree: %w", err)
		}
		treeHash = h
	}

	c := &object.CommitObj{
		TreeHash:  treeHash,
		Author:    g.repo.Signature(authorName, authorEmail),
		Committer: g.repo.Committer(),
		Message:   message,
	}
	if g.head != "" {
		c.Parents = []object.Hash{g.head}
	}
	h, err := g.repo.Objects.WriteCommit(c)
	if err != nil {
		return "", fmt.Errorf("commit: write commit: %w", err)
	}

	var swapped bool
	if g.head != "" {
		swapped, err = g.repo.Refs.CompareAndSwap(g.ref, g.head, h)
	} else {
		swapped, err = g.repo.Refs.CreateIfAbsent(g.ref, h)
	}
	if err != nil {
		return "", fmt.Errorf("commit: update ref %q: %w", g.ref, err)
	}
	if !swapped {
		return "", &ConflictError{Ref: g.ref, Expected: g.head}
	}

	g.head = h
	g.commit = c
	g.tree = treeHash
	return h, nil
}

// History yields commit hashes from g's head back to the root commit,
// following first parents. It is empty when g has no head.
func (g *Git) History() iter.Seq2[object.Hash, error] {
	return g.repo.History(g.head)
}

// Log returns up to limit commits of g's history, newest first.
func (g *Git) Log(limit int) ([]LogEntry, error) {
	return g.repo.Log(g.head, limit)
}
