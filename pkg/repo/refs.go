package repo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/odvcencio/folio/pkg/object"
)

// RefStore is the only mutable state of a repository: named pointers to
// commits. Implementations must give CompareAndSwap and CreateIfAbsent
// true atomicity even when several processes share the same storage.
type RefStore interface {
	// ReadRef returns the hash name points to; ok is false when the ref
	// does not exist.
	ReadRef(name string) (h object.Hash, ok bool, err error)
	// CompareAndSwap points name at newHash iff it currently points at
	// expectedOld. A mismatch is reported as false, not as an error.
	CompareAndSwap(name string, expectedOld, newHash object.Hash) (bool, error)
	// CreateIfAbsent creates name pointing at h; false when it already exists.
	CreateIfAbsent(name string, h object.Hash) (bool, error)
	// ListRefs lists refs whose full name starts with prefix.
	ListRefs(prefix string) (map[string]object.Hash, error)
}

// StaleLockAge is how old a ref lockfile must be before updates stop
// treating it as a concurrent writer and report it as an error instead.
const StaleLockAge = 10 * time.Minute

// FileRefStore keeps refs as Git does: one file per ref under the
// repository root, updated with a lockfile + rename. Refs packed by
// `git pack-refs` are honored for reads.
//
// A writer that crashes mid-update leaves <ref>.lock behind. Once that file
// is older than StaleLockAge, updates fail with an error wrapping
// os.ErrExist; removing the lockfile by hand, as with Git, recovers the ref.
type FileRefStore struct {
	root string

	mu       sync.RWMutex
	identity object.Signature
	now      func() time.Time
}

// NewFileRefStore creates a ref store rooted at the repository directory.
func NewFileRefStore(root string) *FileRefStore {
	return &FileRefStore{
		root:     root,
		identity: object.Signature{Name: DefaultCommitterName, Email: DefaultCommitterEmail},
		now:      time.Now,
	}
}

// SetIdentity sets who is recorded in reflog entries.
func (s *FileRefStore) SetIdentity(sig object.Signature, now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = sig
	if now != nil {
		s.now = now
	}
}

func (s *FileRefStore) refPath(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// ReadRef implements RefStore.
func (s *FileRefStore) ReadRef(name string) (object.Hash, bool, error) {
	if err := CheckRefName(name); err != nil {
		return "", false, err
	}
	h, err := s.readRefHash(name)
	if err != nil {
		return "", false, fmt.Errorf("read ref %q: %w", name, err)
	}
	return h, h != "", nil
}

// CompareAndSwap implements RefStore.
func (s *FileRefStore) CompareAndSwap(name string, expectedOld, newHash object.Hash) (bool, error) {
	if expectedOld == "" {
		return false, invalidArgf("compare-and-swap %q: empty expected hash", name)
	}
	return s.update(name, newHash, expectedOld, "update")
}

// CreateIfAbsent implements RefStore.
func (s *FileRefStore) CreateIfAbsent(name string, h object.Hash) (bool, error) {
	return s.update(name, h, "", "create")
}

// update writes h to the named ref using lockfile + rename atomic
// semantics. The update only succeeds when the current value equals
// expectedOld ("" meaning absent). A lock held by another writer means
// that writer is mid-update, so this update reports a mismatch at once
// instead of waiting, unless the lock is stale.
func (s *FileRefStore) update(name string, h, expectedOld object.Hash, reason string) (bool, error) {
	if err := CheckRefName(name); err != nil {
		return false, err
	}
	if !object.ValidHash(string(h)) {
		return false, invalidArgf("update ref %q: invalid hash %q", name, h)
	}

	refPath := s.refPath(name)
	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return false, fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > StaleLockAge {
				return false, fmt.Errorf("update ref %q: stale lock %s from %s: %w",
					name, lockPath, info.ModTime().UTC().Format(time.RFC3339), os.ErrExist)
			}
			return false, nil
		}
		return false, fmt.Errorf("update ref %q: lock: %w", name, err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	oldHash, err := s.readRefHash(name)
	if err != nil {
		return false, fmt.Errorf("update ref %q: read old hash: %w", name, err)
	}
	if oldHash != expectedOld {
		return false, nil
	}

	if _, err := lockFile.WriteString(string(h) + "\n"); err != nil {
		return false, fmt.Errorf("update ref %q: write: %w", name, err)
	}
	if err := lockFile.Sync(); err != nil {
		return false, fmt.Errorf("update ref %q: sync: %w", name, err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return false, fmt.Errorf("update ref %q: close: %w", name, err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return false, fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	cleanupLock = false

	// The ref moved; a reflog failure must not turn that into an error the
	// caller would read as "not updated".
	_ = s.appendReflog(name, oldHash, h, reason)
	return true, nil
}

// ListRefs implements RefStore.
func (s *FileRefStore) ListRefs(prefix string) (map[string]object.Hash, error) {
	refs, err := s.readPackedRefs()
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	for name := range refs {
		if !strings.HasPrefix(name, prefix) {
			delete(refs, name)
		}
	}

	root := filepath.Join(s.root, "refs")
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(path, ".lock") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		refs[name] = object.Hash(strings.TrimSpace(string(data)))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	return refs, nil
}

func (s *FileRefStore) readRefHash(name string) (object.Hash, error) {
	data, err := os.ReadFile(s.refPath(name))
	if err == nil {
		return object.Hash(strings.TrimSpace(string(data))), nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}
	packed, err := s.readPackedRefs()
	if err != nil {
		return "", err
	}
	return packed[name], nil
}

// readPackedRefs parses the packed-refs file written by `git pack-refs`.
func (s *FileRefStore) readPackedRefs() (map[string]object.Hash, error) {
	refs := make(map[string]object.Hash)
	f, err := os.Open(filepath.Join(s.root, "packed-refs"))
	if err != nil {
		if os.IsNotExist(err) {
			return refs, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' || line[0] == '^' {
			continue
		}
		h, name, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		refs[name] = object.Hash(h)
	}
	return refs, scanner.Err()
}

// CheckRefName validates a full ref name the way `git check-ref-format`
// would for the subset of names this package produces.
func CheckRefName(name string) error {
	if !strings.HasPrefix(name, "refs/") {
		return invalidArgf("ref %q: must start with refs/", name)
	}
	if strings.HasSuffix(name, "/") || strings.HasSuffix(name, ".") || strings.Contains(name, "..") ||
		strings.Contains(name, "//") || strings.Contains(name, "@{") {
		return invalidArgf("ref %q: malformed name", name)
	}
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".lock") {
			return invalidArgf("ref %q: malformed component %q", name, part)
		}
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(" ~^:?*[\\", r) {
			return invalidArgf("ref %q: forbidden character %q", name, r)
		}
	}
	return nil
}
