// Package badgerstore keeps a repository's objects and refs in a single
// Badger database instead of a Git directory. It trades interoperability
// with Git tooling for one-file-per-database storage and transactional ref
// updates.
package badgerstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/odvcencio/folio/pkg/object"
	"github.com/odvcencio/folio/pkg/repo"
)

const (
	objectPrefix = "obj:"
	refPrefix    = "ref:"
)

// DB is an open Badger database holding objects and refs.
type DB struct {
	db *badger.DB
}

// Open opens (creating if needed) the database in dir. An empty dir opens
// a purely in-memory database.
func Open(dir string) (*DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open %q: %w: %w", dir, repo.ErrRepositoryUnavailable, err)
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Objects returns an object.Backend over d.
func (d *DB) Objects() *Objects {
	return &Objects{db: d.db}
}

// Refs returns a repo.RefStore over d.
func (d *DB) Refs() *Refs {
	return &Refs{db: d.db}
}

// OpenRepository opens a Badger-backed repository in dir ("" for memory).
// Closing the repository closes the database.
func OpenRepository(dir string, opts ...repo.Option) (*repo.Repository, error) {
	d, err := Open(dir)
	if err != nil {
		return nil, err
	}
	opts = append([]repo.Option{repo.WithCloser(d)}, opts...)
	return repo.New("", object.NewStore(d.Objects()), d.Refs(), opts...), nil
}

// Objects stores each object's envelope under obj:<hash>.
type Objects struct {
	db *badger.DB
}

var _ object.Backend = (*Objects)(nil)

func objectKey(h object.Hash) []byte {
	return []byte(objectPrefix + string(h))
}

// Has implements object.Backend.
func (o *Objects) Has(h object.Hash) (bool, error) {
	err := o.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(objectKey(h))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("object stat %s: %w", h, err)
	}
	return true, nil
}

// Write implements object.Backend.
func (o *Objects) Write(objType object.ObjectType, data []byte) (object.Hash, error) {
	h := object.HashObject(objType, data)
	if ok, _ := o.Has(h); ok {
		return h, nil
	}
	err := o.db.Update(func(txn *badger.Txn) error {
		return txn.Set(objectKey(h), object.Envelope(objType, data))
	})
	// Two writers of the same object conflict; both wrote identical bytes.
	if errors.Is(err, badger.ErrConflict) {
		return h, nil
	}
	if err != nil {
		return "", fmt.Errorf("object write %s: %w", h, err)
	}
	return h, nil
}

// Read implements object.Backend.
func (o *Objects) Read(h object.Hash) (object.ObjectType, []byte, error) {
	var raw []byte
	err := o.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(objectKey(h))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil, fmt.Errorf("object read %s: %w", h, object.ErrNotFound)
	}
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	return object.ParseEnvelope(h, raw)
}

// Refs stores each ref's hash under ref:<name>. Updates run in Badger
// transactions; a transaction that loses a race commits nothing.
type Refs struct {
	db *badger.DB
}

var _ repo.RefStore = (*Refs)(nil)

func refKey(name string) []byte {
	return []byte(refPrefix + name)
}

// ReadRef implements repo.RefStore.
func (s *Refs) ReadRef(name string) (object.Hash, bool, error) {
	if err := repo.CheckRefName(name); err != nil {
		return "", false, err
	}
	var h object.Hash
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		h, err = getRef(txn, name)
		return err
	})
	if err != nil {
		return "", false, fmt.Errorf("read ref %q: %w", name, err)
	}
	return h, h != "", nil
}

// CompareAndSwap implements repo.RefStore.
func (s *Refs) CompareAndSwap(name string, expectedOld, newHash object.Hash) (bool, error) {
	if expectedOld == "" {
		return false, fmt.Errorf("compare-and-swap %q: %w: empty expected hash", name, repo.ErrInvalidArgument)
	}
	return s.update(name, expectedOld, newHash)
}

// CreateIfAbsent implements repo.RefStore.
func (s *Refs) CreateIfAbsent(name string, h object.Hash) (bool, error) {
	return s.update(name, "", h)
}

var errMismatch = errors.New("ref mismatch")

func (s *Refs) update(name string, expectedOld, newHash object.Hash) (bool, error) {
	if err := repo.CheckRefName(name); err != nil {
		return false, err
	}
	if !object.ValidHash(string(newHash)) {
		return false, fmt.Errorf("update ref %q: %w: invalid hash %q", name, repo.ErrInvalidArgument, newHash)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := getRef(txn, name)
		if err != nil {
			return err
		}
		if current != expectedOld {
			return errMismatch
		}
		return txn.Set(refKey(name), []byte(newHash))
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errMismatch), errors.Is(err, badger.ErrConflict):
		return false, nil
	default:
		return false, fmt.Errorf("update ref %q: %w", name, err)
	}
}

// ListRefs implements repo.RefStore.
func (s *Refs) ListRefs(prefix string) (map[string]object.Hash, error) {
	refs := make(map[string]object.Hash)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(refPrefix + prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				name := strings.TrimPrefix(string(item.Key()), refPrefix)
				refs[name] = object.Hash(val)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	return refs, nil
}

func getRef(txn *badger.Txn, name string) (object.Hash, error) {
	item, err := txn.Get(refKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return object.Hash(val), nil
}
