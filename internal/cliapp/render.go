package cliapp

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"orbit/internal/core/config"
)

const defaultSVGOutput = "orbit.svg"

// runRender writes snapshot files without opening the view. Flags replace the
// configured targets; with neither, an SVG is written.
func runRender(ctx context.Context, cmd *cobra.Command, global globalOptions, opts renderOptions) error {
	rt, err := loadRuntime(cmd, global, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	applyRenderOptions(&rt.cfg.Output, opts)

	a, cleanup, err := newApp(ctx, rt)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := a.LoadTree(ctx); err != nil {
		return err
	}
	if focus := strings.TrimSpace(opts.focus); focus != "" {
		if !a.FocusOn(focus) {
			return fmt.Errorf("crate %q is not in the dependency tree", focus)
		}
	}

	written, err := a.GenerateOutputs(opts.at)
	for _, path := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	}
	return err
}

func applyRenderOptions(out *config.Output, opts renderOptions) {
	if opts.svg != "" || opts.dot != "" || opts.tsv != "" {
		out.SVG, out.DOT, out.TSV = opts.svg, opts.dot, opts.tsv
	}
	if out.SVG == "" && out.DOT == "" && out.TSV == "" {
		out.SVG = defaultSVGOutput
	}
}
