package app

import (
	"fmt"
	"strings"

	"orbit/internal/core/config"
	"orbit/internal/engine/layout"
	"orbit/internal/output"
	"orbit/internal/shared/util"
)

type outputTargets struct {
	SVG string
	DOT string
	TSV string
}

func (t outputTargets) empty() bool {
	return t.SVG == "" && t.DOT == "" && t.TSV == ""
}

func (a *App) resolveOutputTargets() outputTargets {
	resolve := func(p string) string {
		if strings.TrimSpace(p) == "" {
			return ""
		}
		return config.ResolveRelative(a.Paths.OutputDir, p)
	}
	return outputTargets{
		SVG: resolve(a.Config.Output.SVG),
		DOT: resolve(a.Config.Output.DOT),
		TSV: resolve(a.Config.Output.TSV),
	}
}

// Style is the draw style with the configured label threshold.
func (a *App) Style() layout.Style {
	style := layout.DefaultStyle()
	style.LabelMinRadius = a.Config.Layout.LabelMinRadius
	return style
}

// GenerateOutputs writes the configured snapshot files for the current focus
// at animation time t and returns the paths written.
func (a *App) GenerateOutputs(t float64) ([]string, error) {
	if a.tree == nil {
		return nil, fmt.Errorf("no dependency tree loaded")
	}
	targets := a.resolveOutputTargets()
	if targets.empty() {
		return nil, fmt.Errorf("no output targets configured")
	}

	var written []string
	if targets.SVG != "" {
		svg := output.RenderSVG(a.Frame(t), a.Style(), a.Config.Output.Width, a.Config.Output.Height)
		if err := util.WriteFileWithDirs(targets.SVG, svg, 0o644); err != nil {
			return written, fmt.Errorf("write SVG output %q: %w", targets.SVG, err)
		}
		written = append(written, targets.SVG)
	}

	if targets.DOT != "" {
		dot, err := output.NewDOTGenerator(a.tree, a.sets).Generate()
		if err != nil {
			return written, fmt.Errorf("generate DOT output: %w", err)
		}
		if err := util.WriteFileWithDirs(targets.DOT, []byte(dot), 0o644); err != nil {
			return written, fmt.Errorf("write DOT output %q: %w", targets.DOT, err)
		}
		written = append(written, targets.DOT)
	}

	if targets.TSV != "" {
		tsv, err := output.NewTSVGenerator(a.tree).Generate()
		if err != nil {
			return written, fmt.Errorf("generate TSV output: %w", err)
		}
		if err := util.WriteFileWithDirs(targets.TSV, []byte(tsv), 0o644); err != nil {
			return written, fmt.Errorf("write TSV output %q: %w", targets.TSV, err)
		}
		written = append(written, targets.TSV)
	}
	return written, nil
}
