package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	ProjectDir string
	ConfigFile string
	StateDir   string
	LogFile    string
	HistoryDB  string
	OutputDir  string
	TreeInput  string
}

// ResolvePaths anchors every relative path in cfg. Project-local paths are
// relative to the project dir, state paths to the state dir.
func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	projectDir := strings.TrimSpace(cfg.ProjectDir)
	if projectDir == "" || projectDir == "." {
		root, err := DetectProjectRoot([]string{cwd})
		if err != nil {
			return ResolvedPaths{}, err
		}
		projectDir = root
	} else {
		projectDir = ResolveRelative(cwd, projectDir)
	}

	stateDir := strings.TrimSpace(cfg.Paths.StateDir)
	if stateDir == "" {
		stateDir = DefaultStateDir()
	} else {
		stateDir = ResolveRelative(projectDir, stateDir)
	}

	logFile := strings.TrimSpace(cfg.Paths.LogFile)
	if logFile == "" {
		logFile = filepath.Join(stateDir, "orbit.log")
	} else {
		logFile = ResolveRelative(stateDir, logFile)
	}

	resolved := ResolvedPaths{
		ProjectDir: filepath.Clean(projectDir),
		ConfigFile: filepath.Join(projectDir, DefaultFile),
		StateDir:   filepath.Clean(stateDir),
		LogFile:    filepath.Clean(logFile),
		HistoryDB:  ResolveRelative(stateDir, cfg.History.Path),
		OutputDir:  ResolveRelative(projectDir, cfg.Output.Dir),
	}
	if input := strings.TrimSpace(cfg.Tree.Input); input != "" {
		resolved.TreeInput = ResolveRelative(cwd, input)
	}
	return resolved, nil
}

// DefaultStateDir follows XDG_STATE_HOME, falling back to ~/.local/state.
func DefaultStateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "orbit")
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "orbit")
	}
	return ".orbit"
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot walks up from each candidate looking for a workspace
// marker and falls back to the working directory.
func DetectProjectRoot(candidates []string) (string, error) {
	markers := []string{
		DefaultFile,
		"Cargo.lock",
		"Cargo.toml",
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
