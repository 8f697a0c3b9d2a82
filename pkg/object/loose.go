package object

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zlib"
)

// LooseBackend stores zlib-compressed objects with a 2-character fan-out
// directory layout, objects/ab/cdef0123..., byte-compatible with Git's
// loose object database.
type LooseBackend struct {
	root string
}

// NewLooseBackend creates a LooseBackend rooted at the given repository
// directory. The objects/ subdirectory is created lazily on first write.
func NewLooseBackend(root string) *LooseBackend {
	return &LooseBackend{root: root}
}

// objectPath returns the filesystem path for a given hash.
func (b *LooseBackend) objectPath(h Hash) string {
	return filepath.Join(b.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the backend contains an object with the given hash.
func (b *LooseBackend) Has(h Hash) (bool, error) {
	if !ValidHash(string(h)) {
		return false, nil
	}
	_, err := os.Stat(b.objectPath(h))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("object stat %s: %w", h, err)
}

// Write stores an object and returns its content hash. Writes are atomic:
// data is written to a temp file and then renamed into place.
func (b *LooseBackend) Write(objType ObjectType, data []byte) (Hash, error) {
	h := HashObject(objType, data)

	// Fast path: already exists.
	if ok, _ := b.Has(h); ok {
		return h, nil
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(Envelope(objType, data)); err != nil {
		return "", fmt.Errorf("object write compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("object write compress: %w", err)
	}

	dir := filepath.Join(b.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	// Atomic write via temp + rename.
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w", err)
	}
	// Git keeps loose objects read-only.
	_ = os.Chmod(tmpName, 0o444)

	dest := b.objectPath(h)
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		// A concurrent writer may have won the rename; identical content.
		if ok, _ := b.Has(h); ok {
			return h, nil
		}
		return "", fmt.Errorf("object write rename: %w", err)
	}

	return h, nil
}

// Read retrieves an object by hash, returning its type and raw content.
func (b *LooseBackend) Read(h Hash) (ObjectType, []byte, error) {
	if !ValidHash(string(h)) {
		return "", nil, fmt.Errorf("object read %q: %w", h, ErrNotFound)
	}
	f, err := os.Open(b.objectPath(h))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("object read %s: %w", h, ErrNotFound)
		}
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: decompress: %w", h, err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: decompress: %w", h, err)
	}
	return ParseEnvelope(h, raw)
}
