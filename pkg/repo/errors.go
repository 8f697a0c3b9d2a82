package repo

import (
	"errors"
	"fmt"

	"github.com/odvcencio/folio/pkg/object"
)

var (
	// ErrNotFound reports a path, ref or object that is absent where
	// presence was required.
	ErrNotFound = object.ErrNotFound
	// ErrTypeMismatch reports a blob found where a tree was expected, or
	// the reverse.
	ErrTypeMismatch = object.ErrTypeMismatch
	// ErrConflict reports a branch that moved since it was loaded.
	ErrConflict = errors.New("conflict")
	// ErrInvalidArgument reports an empty path, a malformed ref name or a
	// forbidden identifier.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRepositoryUnavailable reports storage that cannot be opened or
	// initialized.
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)

// PathError records a failed tree operation and the path it was given.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConflictError indicates a commit could not be attached to its branch
// because the branch no longer points at the commit it was built on.
type ConflictError struct {
	Ref      string
	Expected object.Hash // "" when the branch was expected to be absent
}

func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Expected == "" {
		return fmt.Sprintf("%s: %s already exists", ErrConflict, e.Ref)
	}
	return fmt.Sprintf("%s: %s is not the last commit in %s", ErrConflict, e.Expected, e.Ref)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// IsConflict reports whether err is (or wraps) a commit conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
