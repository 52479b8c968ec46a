package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	domainerrors "orbit/internal/core/errors"
)

const DefaultFile = "orbit.toml"

type Config struct {
	Version       int           `toml:"version"`
	ProjectDir    string        `toml:"project_dir"`
	Paths         Paths         `toml:"paths"`
	Tree          Tree          `toml:"tree"`
	Build         Build         `toml:"build"`
	Layout        Layout        `toml:"layout"`
	UI            UI            `toml:"ui"`
	Watch         Watch         `toml:"watch"`
	History       History       `toml:"history"`
	Output        Output        `toml:"output"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	StateDir string `toml:"state_dir"`
	LogFile  string `toml:"log_file"`
}

type Tree struct {
	Command  []string `toml:"command"`
	Input    string   `toml:"input"`
	MaxDepth int      `toml:"max_depth"`
}

type Build struct {
	Command        []string `toml:"command"`
	Args           []string `toml:"args"`
	Prefix         string   `toml:"prefix"`
	Buffer         int      `toml:"buffer"`
	EventsPerFrame int      `toml:"events_per_frame"`
	Echo           bool     `toml:"echo"`
}

type Layout struct {
	Radius         float64 `toml:"radius"`
	IncomingAngle  float64 `toml:"incoming_angle"`
	PhaseAmplitude float64 `toml:"phase_amplitude"`
	MaxDepth       int     `toml:"max_depth"`
	LabelMinRadius float64 `toml:"label_min_radius"`
}

type UI struct {
	FPS int `toml:"fps"`
	// CellAspect is the width/height ratio of a terminal cell.
	CellAspect float64 `toml:"cell_aspect"`
	Zoom       float64 `toml:"zoom"`
	ShowHelp   bool    `toml:"show_help"`
}

type Watch struct {
	Enabled        bool          `toml:"enabled"`
	Debounce       time.Duration `toml:"debounce"`
	Files          []string      `toml:"files"`
	Exclude        []string      `toml:"exclude"`
	ReloadInterval time.Duration `toml:"reload_interval"`
}

type History struct {
	Enabled       bool          `toml:"enabled"`
	Path          string        `toml:"path"`
	BusyTimeout   time.Duration `toml:"busy_timeout"`
	QueueSize     int           `toml:"queue_size"`
	BatchSize     int           `toml:"batch_size"`
	FlushInterval time.Duration `toml:"flush_interval"`
}

type Output struct {
	Dir    string `toml:"dir"`
	SVG    string `toml:"svg"`
	DOT    string `toml:"dot"`
	TSV    string `toml:"tsv"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Port          int    `toml:"port"`
	EnableMetrics bool   `toml:"enable_metrics"`
	EnableTracing bool   `toml:"enable_tracing"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	ServiceName   string `toml:"service_name"`
}

// Default is the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		Watch:   Watch{Enabled: true},
		History: History{Enabled: true},
		Build:   Build{Echo: true},
		UI:      UI{ShowHelp: true},
		Observability: Observability{
			EnableMetrics: true,
		},
	}
	applyDefaults(cfg)
	return cfg
}

// Load decodes path over Default, applies env overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domainerrors.AddContext(
				domainerrors.Wrap(err, domainerrors.CodeNotFound, "config file not found"),
				domainerrors.CtxPath, path,
			)
		}
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeValidationError, "failed to decode config"),
			domainerrors.CtxPath, path,
		)
	}

	applyDefaults(cfg)
	ApplyEnvOverrides(cfg)

	if errs := Validate(cfg); len(errs) > 0 {
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(errors.Join(errs...), domainerrors.CodeValidationError, "invalid config"),
			domainerrors.CtxPath, path,
		)
	}
	return cfg, nil
}

// LoadOrDefault falls back to Default when path is the implicit default file
// and does not exist.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			ApplyEnvOverrides(cfg)
			if errs := Validate(cfg); len(errs) > 0 {
				return nil, domainerrors.Wrap(errors.Join(errs...), domainerrors.CodeValidationError, "invalid config")
			}
			return cfg, nil
		}
	}
	return Load(path)
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.ProjectDir) == "" {
		cfg.ProjectDir = "."
	}

	if len(cfg.Tree.Command) == 0 {
		cfg.Tree.Command = []string{"cargo", "tree", "-e=no-dev", "--prefix", "depth", "--no-dedupe"}
	}
	if cfg.Tree.MaxDepth == 0 {
		cfg.Tree.MaxDepth = 256
	}

	if len(cfg.Build.Command) == 0 {
		cfg.Build.Command = []string{"cargo", "build", "--message-format=json"}
	}
	if strings.TrimSpace(cfg.Build.Prefix) == "" {
		cfg.Build.Prefix = "Compiling"
	}
	if cfg.Build.Buffer == 0 {
		cfg.Build.Buffer = 1024
	}
	if cfg.Build.EventsPerFrame == 0 {
		cfg.Build.EventsPerFrame = 64
	}

	if cfg.Layout.Radius == 0 {
		cfg.Layout.Radius = 150
	}
	if cfg.Layout.IncomingAngle == 0 {
		cfg.Layout.IncomingAngle = 1.0
	}
	if cfg.Layout.PhaseAmplitude == 0 {
		cfg.Layout.PhaseAmplitude = 0.1
	}
	if cfg.Layout.MaxDepth == 0 {
		cfg.Layout.MaxDepth = 64
	}
	if cfg.Layout.LabelMinRadius == 0 {
		cfg.Layout.LabelMinRadius = 5
	}

	if cfg.UI.FPS == 0 {
		cfg.UI.FPS = 30
	}
	if cfg.UI.CellAspect == 0 {
		cfg.UI.CellAspect = 0.5
	}
	if cfg.UI.Zoom == 0 {
		cfg.UI.Zoom = 1
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if len(cfg.Watch.Files) == 0 {
		cfg.Watch.Files = []string{"Cargo.toml", "Cargo.lock"}
	}
	if len(cfg.Watch.Exclude) == 0 {
		cfg.Watch.Exclude = []string{"target", ".git"}
	}
	if cfg.Watch.ReloadInterval == 0 {
		cfg.Watch.ReloadInterval = 2 * time.Second
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "history.db"
	}
	if cfg.History.BusyTimeout == 0 {
		cfg.History.BusyTimeout = 5 * time.Second
	}
	if cfg.History.QueueSize == 0 {
		cfg.History.QueueSize = 4096
	}
	if cfg.History.BatchSize == 0 {
		cfg.History.BatchSize = 128
	}
	if cfg.History.FlushInterval == 0 {
		cfg.History.FlushInterval = 500 * time.Millisecond
	}

	if strings.TrimSpace(cfg.Output.Dir) == "" {
		cfg.Output.Dir = "."
	}
	if cfg.Output.Width == 0 {
		cfg.Output.Width = 1200
	}
	if cfg.Output.Height == 0 {
		cfg.Output.Height = 1200
	}

	if cfg.Observability.Port == 0 {
		cfg.Observability.Port = 9464
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "orbit"
	}
}
