package document

import (
	"fmt"
	"sync"

	"github.com/odvcencio/folio/pkg/repo"
)

// DefaultIndex is the resource edited and rendered when none is named.
const DefaultIndex = "index.rst"

// Type describes a kind of document.
type Type struct {
	// Name is the type's component in branch names.
	Name string
	// ModelPath is the directory every new document is seeded from.
	ModelPath string
	// Index is the main resource of each document.
	Index string
}

// IndexPath returns t.Index or DefaultIndex.
func (t Type) IndexPath() string {
	if t.Index == "" {
		return DefaultIndex
	}
	return t.Index
}

// Registry holds the document types known to a process.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Type
	order []string
}

// NewRegistry returns a registry holding types.
func NewRegistry(types ...Type) (*Registry, error) {
	r := &Registry{types: make(map[string]Type)}
	for _, t := range types {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds t. Names must be unique and usable in branch names.
func (r *Registry) Register(t Type) error {
	if err := validateTypeName(t.Name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[t.Name]; ok {
		return fmt.Errorf("%w: document type %q already registered", repo.ErrInvalidArgument, t.Name)
	}
	r.types[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Lookup returns the type called name.
func (r *Registry) Lookup(name string) (Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	if !ok {
		return Type{}, fmt.Errorf("document type %q: %w", name, repo.ErrNotFound)
	}
	return t, nil
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Type, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.types[name])
	}
	return out
}
