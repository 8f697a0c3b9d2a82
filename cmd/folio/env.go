package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/odvcencio/folio/internal/config"
	"github.com/odvcencio/folio/internal/logging"
	"github.com/odvcencio/folio/pkg/badgerstore"
	"github.com/odvcencio/folio/pkg/document"
	"github.com/odvcencio/folio/pkg/repo"
)

// globals are the flags shared by every command.
type globals struct {
	configPath string
	repoPath   string
	backend    string
	logLevel   string
}

func (g *globals) bind(root *cobra.Command) {
	f := root.PersistentFlags()
	f.StringVarP(&g.configPath, "config", "c", "", "configuration file (default ./"+config.FileName+" if present)")
	f.StringVar(&g.repoPath, "repo", "", "repository path, overrides [repository] path")
	f.StringVar(&g.backend, "backend", "", "storage backend (loose or badger), overrides [repository] backend")
	f.StringVar(&g.logLevel, "log-level", "", "log level, overrides [log] level")
}

func (g *globals) config() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.repoPath != "" {
		// Models stay relative to the configuration file.
		for i := range cfg.Documents {
			cfg.Documents[i].Model = cfg.Resolve(cfg.Documents[i].Model)
		}
		cfg.Repository.Path = g.repoPath
		cfg.Dir = "."
	}
	if g.backend != "" {
		cfg.Repository.Backend = g.backend
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// env is what a command needs to work on documents. Close releases the
// repository.
type env struct {
	cfg     *config.Config
	logger  *logging.Logger
	repo    *repo.Repository
	manager *document.Manager
}

func (e *env) Close() error {
	_ = e.logger.Sync()
	return e.repo.Close()
}

// open loads configuration, opens (or creates) the repository and builds
// a document manager. CLI commands log at warn unless --log-level says
// otherwise; serve passes quiet=false to use the configured level.
func (g *globals) open(quiet bool) (*env, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if quiet && g.logLevel == "" {
		level = "warn"
	}
	logger, err := logging.NewLogger(level)
	if err != nil {
		return nil, err
	}

	r, err := openRepository(cfg)
	if err != nil {
		return nil, err
	}
	registry, err := cfg.Registry()
	if err != nil {
		_ = r.Close()
		return nil, err
	}

	opts := []document.Option{document.WithLogger(logger.Logger)}
	if cfg.Identity.Name != "" || cfg.Identity.Email != "" {
		name, email := cfg.Identity.Name, cfg.Identity.Email
		if name == "" {
			name = document.DefaultAuthorName
		}
		if email == "" {
			email = document.DefaultAuthorEmail
		}
		opts = append(opts, document.WithDefaultAuthor(name, email))
	}
	logger.Debug("repository opened",
		zap.String("path", cfg.RepositoryPath()), zap.String("backend", cfg.Repository.Backend))
	return &env{cfg: cfg, logger: logger, repo: r, manager: document.NewManager(r, registry, opts...)}, nil
}

func repoOptions(cfg *config.Config) []repo.Option {
	if cfg.Identity.Name == "" || cfg.Identity.Email == "" {
		return nil
	}
	return []repo.Option{repo.WithCommitter(cfg.Identity.Name, cfg.Identity.Email)}
}

func openRepository(cfg *config.Config) (*repo.Repository, error) {
	path := cfg.RepositoryPath()
	switch cfg.Repository.Backend {
	case config.BackendBadger:
		return badgerstore.OpenRepository(path, repoOptions(cfg)...)
	case config.BackendLoose:
		return repo.OpenOrInit(path, repoOptions(cfg)...)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Repository.Backend)
	}
}

// withEnv runs fn with an opened env and closes it afterwards.
func (g *globals) withEnv(fn func(*env) error) error {
	e, err := g.open(true)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(e)
}
