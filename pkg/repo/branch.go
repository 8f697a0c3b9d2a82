package repo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/odvcencio/folio/pkg/object"
)

const headsPrefix = "refs/heads/"

// BranchRef returns the full ref name of branch.
func BranchRef(branch string) (string, error) {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return "", invalidArgf("branch name is required")
	}
	ref := headsPrefix + branch
	if err := CheckRefName(ref); err != nil {
		return "", err
	}
	return ref, nil
}

// ResolveBranch returns the commit branch points to; ok is false when the
// branch does not exist yet.
func (r *Repository) ResolveBranch(branch string) (object.Hash, bool, error) {
	ref, err := BranchRef(branch)
	if err != nil {
		return "", false, err
	}
	return r.Refs.ReadRef(ref)
}

// Branch is a branch name and the commit it points to.
type Branch struct {
	Name string
	Head object.Hash
}

// ListBranches returns branches whose name starts with prefix, sorted by
// name.
func (r *Repository) ListBranches(prefix string) ([]Branch, error) {
	refs, err := r.Refs.ListRefs(headsPrefix + prefix)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	branches := make([]Branch, 0, len(refs))
	for name, h := range refs {
		branches = append(branches, Branch{Name: strings.TrimPrefix(name, headsPrefix), Head: h})
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}
