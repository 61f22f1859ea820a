package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazu/brepgraph/pkg/manifest"
	"github.com/chazu/brepgraph/pkg/stats"
)

func newStatsCmd(a *app) *cobra.Command {
	var csvPath string
	var showRuns bool

	cmd := &cobra.Command{
		Use:   "stats <graph-directory>",
		Short: "Aggregate statistics over a corpus of graph files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showRuns {
				return printRuns(cmd, a)
			}
			if len(args) != 1 {
				return fmt.Errorf("stats needs a graph directory (or --runs)")
			}
			report, err := stats.Analyze(args[0], a.log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "graphs: %d (excluded %d)\n", len(report.Summaries), report.Excluded)
			fmt.Fprintf(out, "total faces: %d  total edges: %d\n", report.TotalFaces, report.TotalEdges)
			if report.MaxFaceFile != "" {
				fmt.Fprintf(out, "max faces: %d (%s)\n", report.MaxFaceCount, report.MaxFaceFile)
				fmt.Fprintf(out, "max edges: %d (%s)\n", report.MaxEdgeCount, report.MaxEdgeFile)
			}

			if len(report.Categories) > 0 {
				tw := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "category\tcount\tmean faces\tmin\tmax\tmean edges")
				for _, c := range report.Categories {
					fmt.Fprintf(tw, "%s\t%d\t%.1f\t%d\t%d\t%.1f\n",
						c.Category, c.Count, c.MeanFaces, c.MinFaces, c.MaxFaces, c.MeanEdges)
				}
				tw.Flush()
			}

			if csvPath != "" {
				if err := report.WriteCSVFile(csvPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %s\n", csvPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write the per-category table as CSV")
	cmd.Flags().BoolVar(&showRuns, "runs", false, "list recorded conversion runs instead")
	return cmd
}

func printRuns(cmd *cobra.Command, a *app) error {
	store, err := manifest.Open(a.cfg.ManifestPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no recorded runs")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "run\tstarted\tgrid\tedge samples\tok\tfailed")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID, r.StartedAt.Format(time.RFC3339),
			r.GridResolution, r.EdgeSamples, r.Succeeded, r.Failed)
	}
	return tw.Flush()
}
