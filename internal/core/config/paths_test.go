package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePaths_DefaultLayout(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "Cargo.toml"), []byte("[package]\nname = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "src")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)

	got, err := ResolvePaths(Default(), sub)
	if err != nil {
		t.Fatal(err)
	}
	if got.ProjectDir != filepath.Clean(root) {
		t.Fatalf("expected project dir %q, got %q", root, got.ProjectDir)
	}
	if got.StateDir != filepath.Join(state, "orbit") {
		t.Fatalf("unexpected state dir: %q", got.StateDir)
	}
	if got.HistoryDB != filepath.Join(state, "orbit", "history.db") {
		t.Fatalf("unexpected history db: %q", got.HistoryDB)
	}
	if got.LogFile != filepath.Join(state, "orbit", "orbit.log") {
		t.Fatalf("unexpected log file: %q", got.LogFile)
	}
	if got.ConfigFile != filepath.Join(root, DefaultFile) {
		t.Fatalf("unexpected config file: %q", got.ConfigFile)
	}
	if got.TreeInput != "" {
		t.Fatalf("expected no tree input, got %q", got.TreeInput)
	}
}

func TestResolvePaths_AbsoluteOverrides(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, "custom", "history.db")

	cfg := Default()
	cfg.ProjectDir = root
	cfg.Paths.StateDir = "state"
	cfg.History.Path = dbPath
	cfg.Output.Dir = "out"
	cfg.Tree.Input = "tree.txt"

	got, err := ResolvePaths(cfg, "/somewhere")
	if err != nil {
		t.Fatal(err)
	}
	if got.StateDir != filepath.Join(root, "state") {
		t.Fatalf("unexpected state dir: %q", got.StateDir)
	}
	if got.HistoryDB != dbPath {
		t.Fatalf("expected absolute db path preserved, got %q", got.HistoryDB)
	}
	if got.OutputDir != filepath.Join(root, "out") {
		t.Fatalf("unexpected output dir: %q", got.OutputDir)
	}
	if got.TreeInput != "/somewhere/tree.txt" {
		t.Fatalf("unexpected tree input: %q", got.TreeInput)
	}
}

func TestResolvePaths_EmptyCwd(t *testing.T) {
	if _, err := ResolvePaths(Default(), " "); err == nil {
		t.Fatal("expected error for empty cwd")
	}
}
