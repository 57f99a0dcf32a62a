// Command svgtopng converts SVG files to PNG images, following
// the profiles of a JSON config file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/benoitkugler/svgtopng/convert"
	"github.com/benoitkugler/svgtopng/svgraster"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/srwiley/oksvg"
)

// errReported signals a failure already printed by the reporter.
var errReported = errors.New("conversion failed")

type options struct {
	config    string
	input     string
	outputDir string
	jobs      int
	verbose   bool
	strictSVG bool
}

func newRootCommand(fsys afero.Fs, stdout io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "svgtopng",
		Short: "Converts svg files to png images.",
		Long: "svgtopng renders every input of every profile of the config file,\n" +
			"once per profile output, with optional size overrides and fill color conversions.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, fsys, stdout, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.config, "config", "c", "", "path to the profile config file")
	flags.StringVarP(&opts.input, "input-file", "f", "", "input file or directory, added to the inputs of every profile")
	flags.StringVarP(&opts.outputDir, "output-dir", "o", "", "output directory for the profiles without OutputDirectory")
	flags.IntVarP(&opts.jobs, "jobs", "j", 0, "number of files rendered concurrently (default: number of CPUs)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "print every written file")
	flags.BoolVar(&opts.strictSVG, "strict-svg", false, "fail on svg elements the renderer does not support")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func run(cmd *cobra.Command, fsys afero.Fs, stdout io.Writer, opts options) error {
	renderer := svgraster.Renderer{}
	if opts.strictSVG {
		renderer.ErrorMode = oksvg.StrictErrorMode
	}
	reporter := convert.NewReporter(stdout, opts.verbose)
	conv := &convert.Converter{Fs: fsys, Renderer: renderer, Log: reporter, Jobs: opts.jobs}

	summary, err := conv.Convert(cmd.Context(), convert.Invocation{
		ConfigPath: opts.config,
		Input:      opts.input,
		OutputDir:  opts.outputDir,
	})
	reporter.Infof("Done: %s", reporter.Summary())
	if err != nil || !summary.OK() {
		return errReported
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCommand(afero.NewOsFs(), os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
