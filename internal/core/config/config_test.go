// # internal/core/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	domainerrors "orbit/internal/core/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orbit.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
project_dir = "./crates/app"

[tree]
input = "tree.txt"

[build]
args = ["--release"]
prefix = "Checking"
events_per_frame = 16

[layout]
radius = 200.0
phase_amplitude = 0.2

[ui]
fps = 60

[watch]
debounce = "1s"
files = ["Cargo.toml"]

[history]
enabled = false

[output]
svg = "deps.svg"
dot = "deps.dot"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ProjectDir != "./crates/app" {
		t.Errorf("Expected project_dir ./crates/app, got %s", cfg.ProjectDir)
	}
	if cfg.Tree.Input != "tree.txt" {
		t.Errorf("Expected tree input tree.txt, got %s", cfg.Tree.Input)
	}
	if len(cfg.Build.Args) != 1 || cfg.Build.Args[0] != "--release" {
		t.Errorf("Unexpected build args: %v", cfg.Build.Args)
	}
	if cfg.Build.Prefix != "Checking" || cfg.Build.EventsPerFrame != 16 {
		t.Errorf("Unexpected build section: %+v", cfg.Build)
	}
	if cfg.Layout.Radius != 200 || cfg.Layout.PhaseAmplitude != 0.2 {
		t.Errorf("Unexpected layout section: %+v", cfg.Layout)
	}
	if cfg.Layout.IncomingAngle != 1.0 {
		t.Errorf("Expected default incoming angle 1.0, got %v", cfg.Layout.IncomingAngle)
	}
	if cfg.UI.FPS != 60 {
		t.Errorf("Expected fps 60, got %d", cfg.UI.FPS)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
	if !cfg.Watch.Enabled {
		t.Errorf("Expected watch to stay enabled by default")
	}
	if cfg.History.Enabled {
		t.Errorf("Expected history disabled")
	}
	if cfg.Output.SVG != "deps.svg" || cfg.Output.DOT != "deps.dot" {
		t.Errorf("Unexpected output section: %+v", cfg.Output)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `version = 1`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := strings.Join(cfg.Tree.Command, " "); got != "cargo tree -e=no-dev --prefix depth --no-dedupe" {
		t.Errorf("Unexpected default tree command %q", got)
	}
	if got := strings.Join(cfg.Build.Command, " "); got != "cargo build --message-format=json" {
		t.Errorf("Unexpected default build command %q", got)
	}
	if cfg.Build.Prefix != "Compiling" || cfg.Build.Buffer != 1024 {
		t.Errorf("Unexpected build defaults: %+v", cfg.Build)
	}
	if cfg.Layout.Radius != 150 || cfg.Layout.LabelMinRadius != 5 {
		t.Errorf("Unexpected layout defaults: %+v", cfg.Layout)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Expected default debounce 500ms, got %v", cfg.Watch.Debounce)
	}
}

func TestLoadError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.toml"))
	if !domainerrors.IsCode(err, domainerrors.CodeNotFound) {
		t.Errorf("Expected NOT_FOUND for missing file, got %v", err)
	}

	_, err = Load(writeConfig(t, `[layout`))
	if !domainerrors.IsCode(err, domainerrors.CodeValidationError) {
		t.Errorf("Expected VALIDATION_ERROR for broken toml, got %v", err)
	}
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(writeConfig(t, `
[ui]
fps = 500

[layout]
radius = -1.0
`))
	if !domainerrors.IsCode(err, domainerrors.CodeValidationError) {
		t.Fatalf("Expected VALIDATION_ERROR, got %v", err)
	}
	for _, want := range []string{"ui.fps", "layout.radius"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %s, got %v", want, err)
		}
	}
}

func TestLoadOrDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), DefaultFile)

	cfg, err := LoadOrDefault(missing, false)
	if err != nil {
		t.Fatalf("Expected default config, got %v", err)
	}
	if cfg.Layout.Radius != 150 {
		t.Errorf("Expected default radius, got %v", cfg.Layout.Radius)
	}

	if _, err := LoadOrDefault(missing, true); err == nil {
		t.Errorf("Expected an error for an explicit missing config")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ORBIT_BUILD_PREFIX", "Checking")
	t.Setenv("ORBIT_TREE_COMMAND", "cargo tree --prefix depth")
	t.Setenv("ORBIT_UI_FPS", "12")
	t.Setenv("ORBIT_WATCH_ENABLED", "FALSE")
	t.Setenv("ORBIT_LAYOUT_RADIUS", "not-a-number")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.Build.Prefix != "Checking" {
		t.Errorf("Expected prefix override, got %s", cfg.Build.Prefix)
	}
	if len(cfg.Tree.Command) != 4 || cfg.Tree.Command[3] != "depth" {
		t.Errorf("Unexpected tree command override: %v", cfg.Tree.Command)
	}
	if cfg.UI.FPS != 12 {
		t.Errorf("Expected fps 12, got %d", cfg.UI.FPS)
	}
	if cfg.Watch.Enabled {
		t.Errorf("Expected watch disabled by env")
	}
	if cfg.Layout.Radius != 150 {
		t.Errorf("Invalid float override should be ignored, got %v", cfg.Layout.Radius)
	}
}
