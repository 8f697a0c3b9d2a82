package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/folio/pkg/repo"
)

const sample = `
[repository]
path = "data/documents.git"
backend = "badger"

[log]
level = "debug"

[identity]
name = "HR Robot"
email = "hr@example.org"

[server]
addr = ":9000"

[[documents]]
name = "Employee"
model = "models/employee"

[[documents]]
name = "Report"
model = "/srv/models/report"
index = "main.rst"
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, cfg.Repository.Backend)
	assert.Equal(t, filepath.Join(dir, "data/documents.git"), cfg.RepositoryPath())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "HR Robot", cfg.Identity.Name)
	assert.Equal(t, ":9000", cfg.Server.Addr)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	emp, err := reg.Lookup("Employee")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "models/employee"), emp.ModelPath)
	assert.Equal(t, "index.rst", emp.IndexPath())
	report, err := reg.Lookup("Report")
	require.NoError(t, err)
	assert.Equal(t, "/srv/models/report", report.ModelPath)
	assert.Equal(t, "main.rst", report.IndexPath())
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, BackendLoose, cfg.Repository.Backend)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("[repository]\nbackedn = \"badger\"\n"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "repository.backedn")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bad backend", "[repository]\nbackend = \"sqlite\"", "repository.backend"},
		{"no model", "[[documents]]\nname = \"Doc\"", "missing model"},
		{"no name", "[[documents]]\nmodel = \"m\"", "missing name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text, ".")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestRegistry_DuplicateType(t *testing.T) {
	cfg, err := Parse("[[documents]]\nname = \"Doc\"\nmodel = \"a\"\n[[documents]]\nname = \"Doc\"\nmodel = \"b\"\n", ".")
	require.NoError(t, err)
	_, err = cfg.Registry()
	assert.ErrorIs(t, err, repo.ErrInvalidArgument)
}
