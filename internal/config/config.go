// Package config loads the folio.toml service configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/odvcencio/folio/pkg/document"
)

// FileName is the configuration file looked up when none is given.
const FileName = "folio.toml"

// Storage backends.
const (
	BackendLoose  = "loose"
	BackendBadger = "badger"
)

type Config struct {
	Repository Repository `toml:"repository"`
	Log        Log        `toml:"log"`
	Identity   Identity   `toml:"identity"`
	Server     Server     `toml:"server"`
	Documents  []Document `toml:"documents"`

	// Dir is the directory relative paths are resolved against.
	Dir string `toml:"-"`
}

type Repository struct {
	Path    string `toml:"path"`
	Backend string `toml:"backend"` // loose, badger
}

type Log struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// Identity signs commits made without an explicit author. Empty fields
// keep the repository's own identity.
type Identity struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

type Server struct {
	Addr string `toml:"addr"`
}

// Document declares one document type.
type Document struct {
	Name  string `toml:"name"`
	Model string `toml:"model"`
	Index string `toml:"index"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Repository: Repository{Path: "documents.git", Backend: BackendLoose},
		Log:        Log{Level: "info"},
		Server:     Server{Addr: "127.0.0.1:8080"},
		Dir:        ".",
	}
}

// Load reads the file at path over the defaults. An empty path reads
// FileName from the working directory if it exists and falls back to
// Default otherwise.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat(FileName); errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		path = FileName
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	cfg.Dir = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes configuration text over the defaults; relative paths
// resolve against dir.
func Parse(text, dir string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(text, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Dir = dir
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the backend and document declarations.
func (c *Config) Validate() error {
	switch c.Repository.Backend {
	case BackendLoose, BackendBadger:
	default:
		return fmt.Errorf("repository.backend %q: want %q or %q", c.Repository.Backend, BackendLoose, BackendBadger)
	}
	if c.Repository.Path == "" {
		return errors.New("repository.path is empty")
	}
	for i, d := range c.Documents {
		if d.Name == "" {
			return fmt.Errorf("documents[%d]: missing name", i)
		}
		if d.Model == "" {
			return fmt.Errorf("documents[%d] %s: missing model", i, d.Name)
		}
	}
	return nil
}

// Resolve makes p absolute relative to the configuration directory.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// RepositoryPath is the resolved repository location.
func (c *Config) RepositoryPath() string {
	return c.Resolve(c.Repository.Path)
}

// Registry builds the document type registry declared by [[documents]].
func (c *Config) Registry() (*document.Registry, error) {
	types := make([]document.Type, 0, len(c.Documents))
	for _, d := range c.Documents {
		types = append(types, document.Type{
			Name:      d.Name,
			ModelPath: c.Resolve(d.Model),
			Index:     d.Index,
		})
	}
	return document.NewRegistry(types...)
}
