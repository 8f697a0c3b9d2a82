package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odvcencio/folio/pkg/repo"
)

// workspace writes a folio.toml with one "Memo" type whose model holds
// index.rst and returns the config path.
func workspace(t *testing.T, backend string) string {
	t.Helper()
	dir := t.TempDir()
	model := filepath.Join(dir, "models", "memo")
	if err := os.MkdirAll(model, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(model, "index.rst"), []byte("Memo {{.ID}} for {{.To}}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg := fmt.Sprintf(`
[repository]
path = "store"
backend = %q

[log]
level = "error"

[[documents]]
name = "Memo"
model = "models/memo"
`, backend)
	path := filepath.Join(dir, "folio.toml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func run(t *testing.T, cfg string, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, cfg string, args ...string) string {
	t.Helper()
	out, err := run(t, cfg, "", args...)
	if err != nil {
		t.Fatalf("folio %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestCLI_DocumentLifecycle(t *testing.T) {
	cfg := workspace(t, "loose")

	out := mustRun(t, cfg, "init")
	if !strings.Contains(out, "initialized") {
		t.Fatalf("init output = %q", out)
	}

	out = mustRun(t, cfg, "create", "Memo", "7")
	if !strings.Contains(out, "created Memo 7") {
		t.Fatalf("create output = %q", out)
	}
	out = mustRun(t, cfg, "create", "Memo", "7")
	if !strings.Contains(out, "already exists") {
		t.Fatalf("second create output = %q", out)
	}

	out = mustRun(t, cfg, "show", "Memo", "7")
	if out != "Memo {{.ID}} for {{.To}}\n" {
		t.Fatalf("show = %q", out)
	}

	out = mustRun(t, cfg, "render", "Memo", "7", "--set", "To=Sam")
	if out != "Memo 7 for Sam\n" {
		t.Fatalf("render = %q", out)
	}

	out = mustRun(t, cfg, "log", "Memo", "7", "--oneline")
	if len(strings.Fields(out)) != 4 {
		t.Fatalf("log --oneline = %q", out)
	}
	first := strings.Fields(mustRun(t, cfg, "log", "Memo", "7", "-n", "1"))[1]

	out, err := run(t, cfg, "Memo {{.ID}} for {{.To}}, urgent\n", "edit", "Memo", "7", "--version", first, "-m", "urgent")
	if err != nil {
		t.Fatalf("edit: %v\n%s", err, out)
	}
	if !strings.Contains(out, "The document was saved.") {
		t.Fatalf("edit output = %q", out)
	}

	_, err = run(t, cfg, "late\n", "edit", "Memo", "7", "--version", first)
	if !errors.Is(err, repo.ErrConflict) {
		t.Fatalf("stale edit err = %v, want conflict", err)
	}
	if !strings.Contains(err.Error(), "A conflict happened.") {
		t.Fatalf("stale edit err = %v", err)
	}

	out = mustRun(t, cfg, "diff", "Memo", "7", first)
	if !strings.Contains(out, "-Memo {{.ID}} for {{.To}}\n") || !strings.Contains(out, "+Memo {{.ID}} for {{.To}}, urgent\n") {
		t.Fatalf("diff = %q", out)
	}

	out = mustRun(t, cfg, "log", "Memo", "7")
	if strings.Count(out, "commit ") != 2 || !strings.Contains(out, "    urgent") {
		t.Fatalf("log = %q", out)
	}

	out = mustRun(t, cfg, "archive", "Memo", "7")
	if !strings.Contains(out, "archived Memo 7") {
		t.Fatalf("archive output = %q", out)
	}
	out = mustRun(t, cfg, "show", "--archive", "Memo", "7")
	if out != "Memo {{.ID}} for {{.To}}, urgent\n" {
		t.Fatalf("archived show = %q", out)
	}

	out = mustRun(t, cfg, "branches")
	if !strings.Contains(out, " archives/Memo/7\n") || !strings.Contains(out, " documents/Memo/7\n") {
		t.Fatalf("branches = %q", out)
	}

	out = mustRun(t, cfg, "reflog", "documents/Memo/7")
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 2 {
		t.Fatalf("reflog = %q", out)
	}
}

func TestCLI_InvalidIdentifier(t *testing.T) {
	cfg := workspace(t, "loose")
	_, err := run(t, cfg, "", "create", "Memo", "a/b")
	if !errors.Is(err, repo.ErrInvalidArgument) {
		t.Fatalf("create a/b err = %v, want invalid argument", err)
	}
	_, err = run(t, cfg, "", "show", "Memo", "missing")
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("show missing err = %v, want not found", err)
	}
}

func TestCLI_BadgerBackend(t *testing.T) {
	cfg := workspace(t, "badger")

	mustRun(t, cfg, "create", "Memo", "1")
	out := mustRun(t, cfg, "render", "Memo", "1", "--set", "To=Kim")
	if out != "Memo 1 for Kim\n" {
		t.Fatalf("render = %q", out)
	}
	if _, err := run(t, cfg, "", "reflog", "documents/Memo/1"); err == nil {
		t.Fatal("expected reflog to fail on the badger backend")
	}
}

func TestVersionCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out.String()) != version {
		t.Fatalf("version = %q", out.String())
	}
}
