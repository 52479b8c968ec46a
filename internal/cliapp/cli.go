package cliapp

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const versionString = "0.3.0"

type globalOptions struct {
	configPath string
	verbose    bool
	dir        string
	input      string
}

type viewOptions struct {
	noBuild bool
}

type renderOptions struct {
	svg, dot, tsv string
	at            float64
	focus         string
}

type historyOptions struct {
	limit int
	tsv   bool
}

// newRootCommand wires every subcommand. Running the root command alone opens
// the view.
func newRootCommand(stdout io.Writer) *cobra.Command {
	var (
		global globalOptions
		view   viewOptions
	)

	root := &cobra.Command{
		Use:   "orbit [-- cargo build args]",
		Short: "Radial dependency graph with a live cargo build overlay",
		Long: "orbit draws the dependency tree of a cargo project as nested circles " +
			"and colors crates while cargo builds them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd.Context(), cmd, global, view, args)
		},
	}
	root.SetOut(stdout)
	bindGlobalFlags(root.PersistentFlags(), &global)
	bindViewFlags(root.Flags(), &view)

	viewCmd := &cobra.Command{
		Use:   "view [-- cargo build args]",
		Short: "Open the interactive view and start a build",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd.Context(), cmd, global, view, args)
		},
	}
	bindViewFlags(viewCmd.Flags(), &view)

	buildCmd := &cobra.Command{
		Use:   "build [-- cargo build args]",
		Short: "Run a build without the view and report progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeadlessBuild(cmd.Context(), cmd, global, args)
		},
	}

	var render renderOptions
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Write SVG, DOT or TSV snapshots of the dependency tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), cmd, global, render)
		},
	}
	renderCmd.Flags().StringVar(&render.svg, "svg", "", "SVG output path (relative to output.dir)")
	renderCmd.Flags().StringVar(&render.dot, "dot", "", "DOT output path (relative to output.dir)")
	renderCmd.Flags().StringVar(&render.tsv, "tsv", "", "TSV edge list path (relative to output.dir)")
	renderCmd.Flags().Float64Var(&render.at, "at", 0, "Animation time in seconds for the SVG frame")
	renderCmd.Flags().StringVar(&render.focus, "focus", "", "Render the subtree of this crate, e.g. \"serde 1.0.130\"")

	var hist historyOptions
	historyCmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "List recorded builds, or per-crate timings of one build",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, global, hist, args)
		},
	}
	historyCmd.Flags().IntVar(&hist.limit, "limit", 20, "Number of sessions to list (0 lists all)")
	historyCmd.Flags().BoolVar(&hist.tsv, "tsv", false, "Print tab separated values instead of a table")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "orbit v%s\n", versionString)
		},
	}

	root.AddCommand(viewCmd, buildCmd, renderCmd, historyCmd, versionCmd)
	return root
}

func bindGlobalFlags(fs *pflag.FlagSet, opts *globalOptions) {
	fs.StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default <project>/orbit.toml)")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	fs.StringVarP(&opts.dir, "dir", "C", "", "Project directory (default: nearest Cargo workspace)")
	fs.StringVarP(&opts.input, "input", "i", "", "Read the dependency listing from a file instead of running cargo tree")
}

func bindViewFlags(fs *pflag.FlagSet, opts *viewOptions) {
	fs.BoolVar(&opts.noBuild, "no-build", false, "Only show the tree, do not start a build")
}

// buildArgs returns the arguments after "--", which are passed to cargo.
func buildArgs(cmd *cobra.Command, args []string) []string {
	if i := cmd.ArgsLenAtDash(); i >= 0 && i <= len(args) {
		return args[i:]
	}
	return args
}
