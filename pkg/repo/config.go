package repo

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// Config holds the parts of the repository's Git config file this package
// reads. The file itself stays a plain Git config so `git config` keeps
// working on it.
type Config struct {
	FormatVersion int
	Bare          bool
	UserName      string
	UserEmail     string
}

func configPath(root string) string {
	return filepath.Join(root, "config")
}

func writeDefaultConfig(root string) error {
	cfg := ini.Empty()
	core := cfg.Section("core")
	core.Key("repositoryformatversion").SetValue("0")
	core.Key("filemode").SetValue("true")
	core.Key("bare").SetValue("true")
	if err := cfg.SaveTo(configPath(root)); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ReadConfig reads <root>/config. A missing file yields defaults.
func ReadConfig(root string) (*Config, error) {
	cfg, err := ini.LooseLoad(configPath(root))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	core := cfg.Section("core")
	user := cfg.Section("user")
	return &Config{
		FormatVersion: core.Key("repositoryformatversion").MustInt(0),
		Bare:          core.Key("bare").MustBool(true),
		UserName:      strings.TrimSpace(user.Key("name").String()),
		UserEmail:     strings.TrimSpace(user.Key("email").String()),
	}, nil
}

// SetIdentity stores the default committer identity in the repository
// config and applies it to r.
func (r *Repository) SetIdentity(name, email string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return invalidArgf("set identity: name and email are required")
	}
	if r.Path == "" {
		r.applyCommitter(name, email)
		return nil
	}
	cfg, err := ini.LooseLoad(configPath(r.Path))
	if err != nil {
		return fmt.Errorf("set identity: %w", err)
	}
	user := cfg.Section("user")
	user.Key("name").SetValue(name)
	user.Key("email").SetValue(email)
	if err := cfg.SaveTo(configPath(r.Path)); err != nil {
		return fmt.Errorf("set identity: %w", err)
	}
	r.applyCommitter(name, email)
	return nil
}
