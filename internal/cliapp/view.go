package cliapp

import (
	"context"
	"errors"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"orbit/internal/core/config"
	"orbit/internal/engine/deptree"
)

// runView opens the interactive view. Logs go to the log file so they do
// not tear the alt screen.
func runView(ctx context.Context, cmd *cobra.Command, global globalOptions, opts viewOptions, args []string) error {
	rt, err := loadRuntime(cmd, global, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	a, cleanup, err := newApp(ctx, rt)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := a.LoadTree(ctx); err != nil {
		return err
	}

	echo := newLogWriter(slog.Default(), "cargo")
	defer echo.Flush()
	if !opts.noBuild {
		if err := a.StartBuild(ctx, echo, buildArgs(cmd, args)...); err != nil {
			slog.Warn("continuing without build overlay", "error", err)
		}
	}

	p := tea.NewProgram(newModel(a),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	if err := a.WatchManifests(ctx, func(t *deptree.Tree, err error) {
		p.Send(treeMsg{tree: t, err: err})
	}); err != nil {
		slog.Warn("manifest watching disabled", "error", err)
	}

	if _, statErr := os.Stat(rt.configPath); statErr == nil {
		cw := config.NewWatcher(rt.configPath, func(cfg *config.Config) {
			p.Send(configMsg{cfg: cfg})
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config watching disabled", "path", rt.configPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
