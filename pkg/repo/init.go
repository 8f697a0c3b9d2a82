package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/folio/pkg/object"
)

// Init creates a new bare repository at path: HEAD, config, objects/,
// refs/heads/ and logs/. Parent directories are created as needed. Returns
// an error if a repository already exists there.
func Init(path string, opts ...Option) (*Repository, error) {
	if _, err := os.Stat(filepath.Join(path, "HEAD")); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", path)
	}

	dirs := []string{
		filepath.Join(path, "objects", "info"),
		filepath.Join(path, "objects", "pack"),
		filepath.Join(path, "refs", "heads"),
		filepath.Join(path, "refs", "tags"),
		filepath.Join(path, "logs"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w: %w", d, ErrRepositoryUnavailable, err)
		}
	}

	headPath := filepath.Join(path, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: refs/heads/master\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w: %w", ErrRepositoryUnavailable, err)
	}
	if err := writeDefaultConfig(path); err != nil {
		return nil, fmt.Errorf("init: %w: %w", ErrRepositoryUnavailable, err)
	}

	return open(path, opts...)
}

// Open opens the bare repository at path. It fails with
// ErrRepositoryUnavailable when path does not hold a repository.
func Open(path string, opts ...Option) (*Repository, error) {
	for _, required := range []string{"HEAD", "objects", "refs"} {
		if _, err := os.Stat(filepath.Join(path, required)); err != nil {
			return nil, fmt.Errorf("open %s: %w: missing %s", path, ErrRepositoryUnavailable, required)
		}
	}
	return open(path, opts...)
}

// OpenOrInit opens the repository at path, initializing it first when
// nothing exists there yet.
func OpenOrInit(path string, opts ...Option) (*Repository, error) {
	if _, err := os.Stat(filepath.Join(path, "HEAD")); err == nil {
		return Open(path, opts...)
	}
	return Init(path, opts...)
}

func open(path string, opts ...Option) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}
	cfg, err := ReadConfig(abs)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", abs, ErrRepositoryUnavailable, err)
	}

	base := make([]Option, 0, len(opts)+1)
	if cfg.UserName != "" && cfg.UserEmail != "" {
		base = append(base, WithCommitter(cfg.UserName, cfg.UserEmail))
	}
	base = append(base, opts...)

	return New(abs,
		object.NewStore(object.NewLooseBackend(abs)),
		NewFileRefStore(abs),
		base...,
	), nil
}

// Head reads HEAD. If the content starts with "ref: ", it returns the ref
// path (e.g., "refs/heads/master"). Otherwise it returns the raw content as
// a detached hash string.
func (r *Repository) Head() (string, error) {
	if r.Path == "" {
		return "", fmt.Errorf("head: %w: repository has no HEAD file", ErrNotFound)
	}
	data, err := os.ReadFile(filepath.Join(r.Path, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")

	if strings.HasPrefix(content, "ref: ") {
		return strings.TrimPrefix(content, "ref: "), nil
	}
	return content, nil
}
