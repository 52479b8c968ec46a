package cliapp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/spf13/cobra"

	coreapp "orbit/internal/core/app"
	"orbit/internal/engine/build"
)

const headlessPollInterval = 50 * time.Millisecond

var (
	colorGreen = color.New(color.FgGreen).SprintfFunc()
	colorRed   = color.New(color.FgRed, color.Bold).SprintfFunc()
	colorCyan  = color.New(color.FgCyan).SprintfFunc()
	colorDim   = color.New(color.Faint).SprintfFunc()
)

func newProgressWriter(out io.Writer) progress.Writer {
	pw := progress.NewWriter()
	pw.SetAutoStop(false)
	pw.SetTrackerLength(25)
	pw.SetMessageLength(20)
	pw.SetStyle(progress.StyleDefault)
	pw.SetOutputWriter(out)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.Style().Colors = progress.StyleColorsExample
	pw.Style().Visibility.ETA = false
	pw.Style().Visibility.Value = true
	pw.Style().Visibility.Time = true
	return pw
}

// runHeadlessBuild runs the build without the view, with a progress bar on
// stderr and a summary on stdout. A failed build exits non-zero.
func runHeadlessBuild(ctx context.Context, cmd *cobra.Command, global globalOptions, args []string) error {
	rt, err := loadRuntime(cmd, global, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	a, cleanup, err := newApp(ctx, rt)
	if err != nil {
		return err
	}
	defer cleanup()

	total := 0
	if err := a.LoadTree(ctx); err != nil {
		slog.Warn("dependency tree unavailable, progress has no total", "error", err)
	} else {
		// The root crate is compiled too, so it counts.
		total = len(a.Tree().Names())
	}

	pw := newProgressWriter(os.Stderr)
	tracker := &progress.Tracker{
		Message: "compiling",
		Total:   int64(total),
		Units:   progress.UnitsDefault,
	}
	pw.AppendTracker(tracker)
	go pw.Render()

	a.SetEventHandler(func(ev build.Event) {
		switch ev.Kind {
		case build.Started:
			if global.verbose {
				pw.Log(colorDim("  started %s", ev.Name))
			}
		case build.Finished:
			tracker.Increment(1)
			pw.Log(colorCyan("  compiled %s", ev.Name))
		}
	})

	echo := newLineWriter(func(line string) { pw.Log(line) })
	startErr := a.StartBuild(ctx, echo, buildArgs(cmd, args)...)
	if startErr == nil {
		ticker := time.NewTicker(headlessPollInterval)
	loop:
		for a.BuildStatus().State == coreapp.BuildRunning {
			a.DrainEvents(0)
			select {
			case <-ctx.Done():
				a.StopBuild()
				break loop
			case <-a.BuildDone():
			case <-ticker.C:
			}
		}
		ticker.Stop()
	}
	echo.Flush()

	st := a.BuildStatus()
	if st.State == coreapp.BuildSucceeded {
		tracker.MarkAsDone()
	} else {
		tracker.MarkAsErrored()
	}
	pw.Stop()
	for pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}

	if startErr != nil {
		return startErr
	}
	printBuildSummary(cmd.OutOrStdout(), st, a.Sets().Active())
	if st.State != coreapp.BuildSucceeded {
		return &exitCodeError{code: 1}
	}
	return nil
}

func printBuildSummary(w io.Writer, st coreapp.BuildStatus, active []string) {
	elapsed := st.Elapsed.Round(time.Millisecond)
	switch st.State {
	case coreapp.BuildSucceeded:
		fmt.Fprintln(w, colorGreen("Build finished in %s, %d crates compiled", elapsed, st.Completed))
	default:
		fmt.Fprintln(w, colorRed("Build %s after %s: %v", st.State, elapsed, st.Err))
		fmt.Fprintf(w, "%d crates compiled\n", st.Completed)
		if len(active) > 0 {
			fmt.Fprintf(w, "still compiling: %s\n", strings.Join(active, ", "))
		}
	}
	if st.Dropped > 0 {
		fmt.Fprintln(w, colorDim("%d build events dropped", st.Dropped))
	}
	if st.SessionID != "" {
		fmt.Fprintln(w, colorDim("session %s", st.SessionID))
	}
}
