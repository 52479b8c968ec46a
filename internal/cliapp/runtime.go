package cliapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	coreapp "orbit/internal/core/app"
	"orbit/internal/core/config"
	"orbit/internal/shared/observability"
)

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(os.Stdout)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintln(os.Stderr, "orbit:", err)
		return 1
	}
	return 0
}

// exitCodeError carries a non-zero exit status that was already reported.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

type runtime struct {
	cfg        *config.Config
	paths      config.ResolvedPaths
	configPath string
	closeLogs  func()
}

func (r *runtime) Close() {
	if r.closeLogs != nil {
		r.closeLogs()
	}
}

// loadRuntime resolves the config and paths for opts and installs logging.
// uiMode sends logs to the log file instead of stdout.
func loadRuntime(cmd *cobra.Command, opts globalOptions, uiMode bool) (*runtime, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	projectHint := cwd
	if strings.TrimSpace(opts.dir) != "" {
		projectHint = config.ResolveRelative(cwd, opts.dir)
	}

	configPath := strings.TrimSpace(opts.configPath)
	explicit := configPath != ""
	if !explicit {
		root, err := config.DetectProjectRoot([]string{projectHint})
		if err != nil {
			return nil, err
		}
		configPath = filepath.Join(root, config.DefaultFile)
	} else {
		configPath = config.ResolveRelative(cwd, configPath)
	}

	cfg, err := config.LoadOrDefault(configPath, explicit)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.dir) != "" {
		cfg.ProjectDir = projectHint
	} else if !filepath.IsAbs(cfg.ProjectDir) {
		cfg.ProjectDir = config.ResolveRelative(filepath.Dir(configPath), cfg.ProjectDir)
	}
	if strings.TrimSpace(opts.input) != "" {
		cfg.Tree.Input = opts.input
	}

	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return nil, err
	}

	closeLogs := configureLogging(uiMode, opts.verbose, paths.LogFile)
	slog.Debug("configuration loaded",
		"config", configPath,
		"project", paths.ProjectDir,
		"state", paths.StateDir,
		"command", cmd.Name(),
	)
	return &runtime{cfg: cfg, paths: paths, configPath: configPath, closeLogs: closeLogs}, nil
}

func configureLogging(uiMode, verbose bool, logPath string) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stderr
	var closeFn func() = func() {}
	if uiMode {
		if logPath == "" {
			logPath = resolveLogPath()
		}
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
				if err == nil {
					output = f
					closeFn = func() { _ = f.Close() }
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	return filepath.Join(config.DefaultStateDir(), "orbit.log")
}

// newApp builds the App for rt and starts the metrics server and tracing
// when configured. The returned cleanup closes everything in reverse order.
func newApp(ctx context.Context, rt *runtime) (*coreapp.App, func(), error) {
	a, err := coreapp.New(rt.cfg, rt.paths)
	if err != nil {
		return nil, nil, err
	}
	stopObservability := startObservability(ctx, rt.cfg, coreapp.NewHealthService(a))

	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			slog.Warn("shutdown incomplete", "error", err)
		}
		stopObservability(closeCtx)
	}
	return a, cleanup, nil
}

func startObservability(ctx context.Context, cfg *config.Config, health *coreapp.HealthService) func(context.Context) {
	var stops []func(context.Context) error

	if cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
			ServiceName:    cfg.Observability.ServiceName,
			ServiceVersion: versionString,
			Endpoint:       cfg.Observability.OTLPEndpoint,
			Insecure:       true,
		})
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			stops = append(stops, shutdown)
		}
	}

	if cfg.Observability.Enabled && cfg.Observability.EnableMetrics {
		srv := observability.NewServer(fmt.Sprintf(":%d", cfg.Observability.Port), health.Check)
		if err := srv.Start(ctx); err != nil {
			slog.Warn("observability server disabled", "error", err)
		} else {
			stops = append(stops, srv.Stop)
		}
	}

	return func(ctx context.Context) {
		for i := len(stops) - 1; i >= 0; i-- {
			if err := stops[i](ctx); err != nil {
				slog.Debug("observability shutdown", "error", err)
			}
		}
	}
}
