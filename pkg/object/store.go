package object

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrNotFound is returned when no object exists for a hash.
	ErrNotFound = errors.New("object not found")
	// ErrTypeMismatch is returned when an object exists but is of another kind.
	ErrTypeMismatch = errors.New("object type mismatch")
)

const defaultCacheSize = 4096

// Backend persists raw objects by hash. Implementations must be safe for
// concurrent use and must make Write idempotent: writing content that is
// already present is a no-op returning the same hash.
type Backend interface {
	Has(h Hash) (bool, error)
	Write(objType ObjectType, data []byte) (Hash, error)
	Read(h Hash) (ObjectType, []byte, error)
}

type rawObject struct {
	objType ObjectType
	data    []byte
}

// Store is a content-addressed object store. Trees and commits read through
// it are kept in an LRU: objects never change once written, so cached
// entries never need invalidation.
type Store struct {
	backend Backend
	cache   *lru.Cache[Hash, rawObject]
}

// NewStore creates a Store on top of backend.
func NewStore(backend Backend) *Store {
	cache, _ := lru.New[Hash, rawObject](defaultCacheSize)
	return &Store{backend: backend, cache: cache}
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) (bool, error) {
	if s.cache.Contains(h) {
		return true, nil
	}
	return s.backend.Has(h)
}

// Write stores an object and returns its content hash.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	return s.backend.Write(objType, data)
}

// Read retrieves an object by hash, returning its type and raw content.
// The returned slice is owned by the caller.
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	if obj, ok := s.cache.Get(h); ok {
		return obj.objType, bytes.Clone(obj.data), nil
	}
	objType, data, err := s.backend.Read(h)
	if err != nil {
		return "", nil, err
	}
	if objType != TypeBlob {
		s.cache.Add(h, rawObject{objType: objType, data: bytes.Clone(data)})
	}
	return objType, data, nil
}

// TypeOf returns the kind of the object named h.
func (s *Store) TypeOf(h Hash) (ObjectType, error) {
	objType, _, err := s.Read(h)
	return objType, err
}

func (s *Store) readTyped(h Hash, want ObjectType) ([]byte, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != want {
		return nil, fmt.Errorf("object %s: %w: got %q, want %q", h, ErrTypeMismatch, objType, want)
	}
	return data, nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// WriteBlob serializes and stores a Blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Write(TypeBlob, MarshalBlob(b))
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	data, err := s.readTyped(h, TypeBlob)
	if err != nil {
		return nil, err
	}
	return UnmarshalBlob(data)
}

// WriteTree serializes and stores a TreeObj.
func (s *Store) WriteTree(tr *TreeObj) (Hash, error) {
	data, err := MarshalTree(tr)
	if err != nil {
		return "", err
	}
	return s.Write(TypeTree, data)
}

// ReadTree reads and deserializes a TreeObj.
func (s *Store) ReadTree(h Hash) (*TreeObj, error) {
	if h == EmptyTreeHash {
		return &TreeObj{}, nil
	}
	data, err := s.readTyped(h, TypeTree)
	if err != nil {
		return nil, err
	}
	return UnmarshalTree(data)
}

// WriteCommit serializes and stores a CommitObj.
func (s *Store) WriteCommit(c *CommitObj) (Hash, error) {
	return s.Write(TypeCommit, MarshalCommit(c))
}

// ReadCommit reads and deserializes a CommitObj.
func (s *Store) ReadCommit(h Hash) (*CommitObj, error) {
	data, err := s.readTyped(h, TypeCommit)
	if err != nil {
		return nil, err
	}
	return UnmarshalCommit(data)
}

// ParseEnvelope splits raw "type len\0content" bytes into type and content,
// verifying the declared length.
func ParseEnvelope(h Hash, raw []byte) (ObjectType, []byte, error) {
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("object read %s: invalid format (no NUL)", h)
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("object read %s: invalid header %q", h, header)
	}
	objType := ObjectType(parts[0])
	length, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: invalid length %q: %w", h, parts[1], err)
	}
	if len(content) != length {
		return "", nil, fmt.Errorf("object read %s: length mismatch (header=%d, actual=%d)", h, length, len(content))
	}
	return objType, content, nil
}

// Envelope returns the canonical "type len\0content" encoding of an object.
func Envelope(objType ObjectType, data []byte) []byte {
	header := envelopeHeader(objType, len(data))
	out := make([]byte, 0, len(header)+len(data))
	out = append(out, header...)
	return append(out, data...)
}
