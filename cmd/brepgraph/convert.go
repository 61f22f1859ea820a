package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/brepgraph/pkg/dataset"
	"github.com/chazu/brepgraph/pkg/manifest"
	"github.com/chazu/brepgraph/pkg/pipeline"
)

// cadExtensions are the input formats the converter accepts.
var cadExtensions = []string{".step", ".stp"}

func newConvertCmd(a *app) *cobra.Command {
	var outDir string
	var noManifest bool

	cmd := &cobra.Command{
		Use:   "convert <file-or-directory>",
		Short: "Convert CAD files into graph files",
		Long: "Converts a single STEP file, or every STEP file under a " +
			"directory, into serialized face-adjacency graphs. Directory " +
			"conversions run in parallel and record a run manifest.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if outDir == "" {
				outDir = a.cfg.OutputDir
			}

			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}

			opts := []pipeline.Option{}
			if info.IsDir() && !noManifest {
				store, err := manifest.Open(a.cfg.ManifestPath)
				if err != nil {
					return err
				}
				defer store.Close()
				opts = append(opts, pipeline.WithManifest(store))
			}
			p := pipeline.New(a.cfg, a.log, opts...)

			if !info.IsDir() {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return err
				}
				in := pipeline.Input{Path: args[0]}
				report, err := p.Batch(ctx, []pipeline.Input{in}, outDir)
				if err != nil {
					return err
				}
				if r := report.Results[0]; r.Err != nil {
					return r.Err
				}
				fmt.Fprintln(cmd.OutOrStdout(), report.Results[0].Output)
				return nil
			}

			entries, err := dataset.Scan(args[0], cadExtensions)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				a.log.Warn("no CAD files found", zap.String("dir", args[0]))
				return nil
			}
			inputs := make([]pipeline.Input, len(entries))
			for i, e := range entries {
				inputs[i] = pipeline.Input{Path: e.Path, Category: e.Category}
			}

			report, err := p.Batch(ctx, inputs, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "converted %d/%d files into %s\n",
				report.Succeeded, len(inputs), outDir)
			if report.Failed > 0 {
				for _, r := range report.Results {
					if r.Err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s: %v\n", r.Input.Path, r.Err)
					}
				}
				return fmt.Errorf("%d of %d conversions failed", report.Failed, len(inputs))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default from config, ./graphs)")
	cmd.Flags().BoolVar(&noManifest, "no-manifest", false, "skip recording the run manifest")
	return cmd
}
