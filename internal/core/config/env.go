package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: ORBIT_[SECTION]_[KEY] (e.g., ORBIT_OBSERVABILITY_PORT).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.ProjectDir, "ORBIT_PROJECT_DIR")

	// Paths
	setEnvString(&cfg.Paths.StateDir, "ORBIT_PATHS_STATE_DIR")
	setEnvString(&cfg.Paths.LogFile, "ORBIT_PATHS_LOG_FILE")

	// Tree
	setEnvFields(&cfg.Tree.Command, "ORBIT_TREE_COMMAND")
	setEnvString(&cfg.Tree.Input, "ORBIT_TREE_INPUT")
	setEnvInt(&cfg.Tree.MaxDepth, "ORBIT_TREE_MAX_DEPTH")

	// Build
	setEnvFields(&cfg.Build.Command, "ORBIT_BUILD_COMMAND")
	setEnvString(&cfg.Build.Prefix, "ORBIT_BUILD_PREFIX")
	setEnvInt(&cfg.Build.Buffer, "ORBIT_BUILD_BUFFER")
	setEnvInt(&cfg.Build.EventsPerFrame, "ORBIT_BUILD_EVENTS_PER_FRAME")
	setEnvBool(&cfg.Build.Echo, "ORBIT_BUILD_ECHO")

	// Layout
	setEnvFloat64(&cfg.Layout.Radius, "ORBIT_LAYOUT_RADIUS")
	setEnvFloat64(&cfg.Layout.IncomingAngle, "ORBIT_LAYOUT_INCOMING_ANGLE")
	setEnvFloat64(&cfg.Layout.PhaseAmplitude, "ORBIT_LAYOUT_PHASE_AMPLITUDE")
	setEnvInt(&cfg.Layout.MaxDepth, "ORBIT_LAYOUT_MAX_DEPTH")

	// UI
	setEnvInt(&cfg.UI.FPS, "ORBIT_UI_FPS")
	setEnvFloat64(&cfg.UI.Zoom, "ORBIT_UI_ZOOM")

	// Watch
	setEnvBool(&cfg.Watch.Enabled, "ORBIT_WATCH_ENABLED")
	setEnvDuration(&cfg.Watch.Debounce, "ORBIT_WATCH_DEBOUNCE")

	// History
	setEnvBool(&cfg.History.Enabled, "ORBIT_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "ORBIT_HISTORY_PATH")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "ORBIT_OBSERVABILITY_ENABLED")
	setEnvInt(&cfg.Observability.Port, "ORBIT_OBSERVABILITY_PORT")
	setEnvString(&cfg.Observability.OTLPEndpoint, "ORBIT_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "ORBIT_OBSERVABILITY_ENABLE_TRACING")
	setEnvBool(&cfg.Observability.EnableMetrics, "ORBIT_OBSERVABILITY_ENABLE_METRICS")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvFields splits a command line on whitespace.
func setEnvFields(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if fields := strings.Fields(val); len(fields) > 0 {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = fields
		}
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
