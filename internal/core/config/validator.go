package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Validate reports every problem in cfg. An empty result means cfg is usable.
func Validate(cfg *Config) []error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if cfg.Version != 1 {
		add("unsupported config version %d; supported version is 1", cfg.Version)
	}

	if len(cfg.Tree.Command) == 0 && strings.TrimSpace(cfg.Tree.Input) == "" {
		add("tree.command must not be empty when tree.input is unset")
	}
	if cfg.Tree.MaxDepth < 1 {
		add("tree.max_depth must be >= 1, got %d", cfg.Tree.MaxDepth)
	}

	if len(cfg.Build.Command) == 0 {
		add("build.command must not be empty")
	}
	if strings.TrimSpace(cfg.Build.Prefix) == "" {
		add("build.prefix must not be empty")
	}
	if cfg.Build.Buffer < 1 {
		add("build.buffer must be >= 1, got %d", cfg.Build.Buffer)
	}
	if cfg.Build.EventsPerFrame < 1 {
		add("build.events_per_frame must be >= 1, got %d", cfg.Build.EventsPerFrame)
	}

	if cfg.Layout.Radius <= 0 {
		add("layout.radius must be > 0, got %v", cfg.Layout.Radius)
	}
	if cfg.Layout.PhaseAmplitude < 0 {
		add("layout.phase_amplitude must be >= 0, got %v", cfg.Layout.PhaseAmplitude)
	}
	if cfg.Layout.MaxDepth < 1 {
		add("layout.max_depth must be >= 1, got %d", cfg.Layout.MaxDepth)
	}

	if cfg.UI.FPS < 1 || cfg.UI.FPS > 120 {
		add("ui.fps must be between 1 and 120, got %d", cfg.UI.FPS)
	}
	if cfg.UI.CellAspect <= 0 {
		add("ui.cell_aspect must be > 0, got %v", cfg.UI.CellAspect)
	}
	if cfg.UI.Zoom <= 0 {
		add("ui.zoom must be > 0, got %v", cfg.UI.Zoom)
	}

	if cfg.Watch.Debounce < 0 {
		add("watch.debounce must not be negative")
	}
	for _, pattern := range append(append([]string(nil), cfg.Watch.Files...), cfg.Watch.Exclude...) {
		if _, err := glob.Compile(pattern); err != nil {
			add("watch pattern %q is invalid: %v", pattern, err)
		}
	}

	if cfg.History.Enabled {
		if strings.TrimSpace(cfg.History.Path) == "" {
			add("history.path must not be empty")
		}
		if cfg.History.QueueSize < 1 {
			add("history.queue_size must be >= 1, got %d", cfg.History.QueueSize)
		}
		if cfg.History.BatchSize < 1 {
			add("history.batch_size must be >= 1, got %d", cfg.History.BatchSize)
		}
	}

	errs = append(errs, validateOutput(cfg)...)

	if cfg.Observability.Enabled && (cfg.Observability.Port < 1 || cfg.Observability.Port > 65535) {
		add("observability.port must be between 1 and 65535, got %d", cfg.Observability.Port)
	}
	if cfg.Observability.EnableTracing && strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
		add("observability.otlp_endpoint is required when tracing is enabled")
	}

	return errs
}

func validateOutput(cfg *Config) []error {
	var errs []error
	if cfg.Output.Width < 1 || cfg.Output.Height < 1 {
		errs = append(errs, fmt.Errorf("output.width and output.height must be >= 1"))
	}

	targets := []struct {
		key  string
		path string
	}{
		{"output.svg", cfg.Output.SVG},
		{"output.dot", cfg.Output.DOT},
		{"output.tsv", cfg.Output.TSV},
	}
	seen := make(map[string]string)
	for _, t := range targets {
		p := strings.TrimSpace(t.path)
		if p == "" {
			continue
		}
		clean := filepath.Clean(p)
		if prev, ok := seen[clean]; ok {
			errs = append(errs, fmt.Errorf("output conflict: %s and %s share the same path %q", prev, t.key, p))
			continue
		}
		seen[clean] = t.key
	}
	return errs
}
