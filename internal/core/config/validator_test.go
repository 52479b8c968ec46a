package config

import (
	"strings"
	"testing"
)

func TestValidateDefault(t *testing.T) {
	if errs := Validate(Default()); len(errs) != 0 {
		t.Fatalf("Expected default config to validate, got %v", errs)
	}
}

func TestValidateOutputConflicts(t *testing.T) {
	cfg := Default()
	cfg.Output.SVG = "graph.out"
	cfg.Output.DOT = "./graph.out"

	errs := Validate(cfg)
	found := false
	for _, err := range errs {
		if err.Error() == `output conflict: output.svg and output.dot share the same path "./graph.out"` {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Expected output conflict error, got %v", errs)
	}
}

func TestValidateWatchPatterns(t *testing.T) {
	cfg := Default()
	cfg.Watch.Files = []string{"Cargo.[toml"}

	errs := Validate(cfg)
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "Cargo.[toml") {
		t.Errorf("Expected one invalid pattern error, got %v", errs)
	}
}

func TestValidateTracingNeedsEndpoint(t *testing.T) {
	cfg := Default()
	cfg.Observability.EnableTracing = true

	errs := Validate(cfg)
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "otlp_endpoint") {
		t.Errorf("Expected missing endpoint error, got %v", errs)
	}

	cfg.Observability.OTLPEndpoint = "localhost:4317"
	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("Expected valid tracing config, got %v", errs)
	}
}

func TestValidateHistoryOnlyWhenEnabled(t *testing.T) {
	cfg := Default()
	cfg.History.QueueSize = -1
	if errs := Validate(cfg); len(errs) != 1 {
		t.Errorf("Expected queue size error, got %v", errs)
	}
	cfg.History.Enabled = false
	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("Expected disabled history to skip checks, got %v", errs)
	}
}
