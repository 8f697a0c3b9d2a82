package repo

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/odvcencio/folio/pkg/object"
)

const (
	DefaultCommitterName  = "Folio"
	DefaultCommitterEmail = "folio@folio.local"
)

// Repository is a handle onto an object store and a ref store. It is safe
// to share between goroutines; per-branch write coordination happens in
// the ref store.
type Repository struct {
	Path    string        // repository root, "" for non-file backends
	Objects *object.Store // content-addressed object store
	Refs    RefStore      // branch pointers

	mu        sync.RWMutex
	committer object.Signature
	now       func() time.Time
	closer    io.Closer
}

// Option configures a Repository.
type Option func(*Repository)

// WithCommitter overrides the committer identity recorded on commits.
func WithCommitter(name, email string) Option {
	return func(r *Repository) {
		r.committer = object.Signature{Name: cleanIdent(name), Email: cleanIdent(email)}
	}
}

// WithClock overrides the time source used for commit timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// WithCloser registers a resource released by Close.
func WithCloser(c io.Closer) Option {
	return func(r *Repository) {
		r.closer = c
	}
}

// New assembles a Repository from explicit stores.
func New(path string, objects *object.Store, refs RefStore, opts ...Option) *Repository {
	r := &Repository{
		Path:      path,
		Objects:   objects,
		Refs:      refs,
		committer: object.Signature{Name: DefaultCommitterName, Email: DefaultCommitterEmail},
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	r.syncRefIdentity()
	return r
}

// Close releases backend resources.
func (r *Repository) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Committer returns a signature for the current time using the committer
// identity.
func (r *Repository) Committer() object.Signature {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.signature(r.committer.Name, r.committer.Email)
}

// Signature returns a signature for name/email stamped with the current time.
func (r *Repository) Signature(name, email string) object.Signature {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.signature(name, email)
}

func (r *Repository) signature(name, email string) object.Signature {
	t := r.now()
	return object.Signature{
		Name:     cleanIdent(name),
		Email:    cleanIdent(email),
		When:     t.Unix(),
		Timezone: t.Format("-0700"),
	}
}

// cleanIdent drops the characters that delimit a signature line, as Git
// does when it formats an identity.
func cleanIdent(s string) string {
	s = strings.Map(func(c rune) rune {
		switch c {
		case '\n', '\r', 0, '<', '>':
			return -1
		}
		return c
	}, s)
	return strings.TrimSpace(s)
}

func (r *Repository) applyCommitter(name, email string) {
	r.mu.Lock()
	r.committer = object.Signature{Name: cleanIdent(name), Email: cleanIdent(email)}
	r.mu.Unlock()
	r.syncRefIdentity()
}

func (r *Repository) syncRefIdentity() {
	fs, ok := r.Refs.(*FileRefStore)
	if !ok {
		return
	}
	r.mu.RLock()
	who := r.committer
	now := r.now
	r.mu.RUnlock()
	fs.SetIdentity(who, now)
}
