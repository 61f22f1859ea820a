package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/brepgraph/pkg/dataset"
)

func newDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage a training corpus on disk",
	}
	cmd.AddCommand(
		newDatasetSplitCmd(),
		newDatasetClassifyCmd(),
		newDatasetCountCmd(),
		newDatasetBalanceCmd(),
		newDatasetPruneCmd(),
	)
	return cmd
}

func newDatasetSplitCmd() *cobra.Command {
	var trainFrac, valFrac float64
	var seed int64
	var outDir string

	cmd := &cobra.Command{
		Use:   "split <graph-directory>",
		Short: "Write deterministic train/val/test file lists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := dataset.Scan(args[0], []string{".bgrf"})
			if err != nil {
				return err
			}
			files := make([]string, len(entries))
			for i, e := range entries {
				files[i] = e.Path
			}
			split, err := dataset.Split(files, trainFrac, valFrac, seed)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			for name, part := range map[string][]string{
				"train.txt": split.Train,
				"val.txt":   split.Val,
				"test.txt":  split.Test,
			} {
				list := append([]string{}, part...)
				sort.Strings(list)
				body := strings.Join(list, "\n")
				if body != "" {
					body += "\n"
				}
				if err := os.WriteFile(filepath.Join(outDir, name), []byte(body), 0o644); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "split %d files: %d train, %d val, %d test\n",
				len(files), len(split.Train), len(split.Val), len(split.Test))
			return nil
		},
	}
	cmd.Flags().Float64Var(&trainFrac, "train", 0.7, "training fraction")
	cmd.Flags().Float64Var(&valFrac, "val", 0.15, "validation fraction")
	cmd.Flags().Int64Var(&seed, "seed", 42, "shuffle seed")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory for the list files")
	return cmd
}

func newDatasetClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <directory>",
		Short: "Move files into subdirectories by name-prefix category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := dataset.ClassifyByName(args[0])
			if err != nil {
				return err
			}
			printCounts(cmd, counts)
			return nil
		},
	}
}

func newDatasetCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <directory>",
		Short: "Count files per category subdirectory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := dataset.CountBySubfolder(args[0])
			if err != nil {
				return err
			}
			printCounts(cmd, counts)
			return nil
		},
	}
}

func newDatasetBalanceCmd() *cobra.Command {
	var max int
	var seed int64

	cmd := &cobra.Command{
		Use:   "balance <directory>",
		Short: "Randomly trim categories down to a maximum size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := dataset.Balance(args[0], max, seed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d files\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&max, "max", 1000, "maximum files per category")
	cmd.Flags().Int64Var(&seed, "seed", 42, "selection seed")
	return cmd
}

func newDatasetPruneCmd() *cobra.Command {
	var suffix string
	var maxBytes int64
	var minFiles int

	cmd := &cobra.Command{
		Use:   "prune <directory>",
		Short: "Delete files by suffix or size, and underpopulated categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if suffix != "" {
				n, err := dataset.DeleteBySuffix(args[0], suffix)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "removed %d %q files\n", n, suffix)
			}
			if maxBytes > 0 {
				n, err := dataset.DeleteLargeFiles(args[0], maxBytes)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "removed %d files over %d bytes\n", n, maxBytes)
			}
			if minFiles > 0 {
				n, err := dataset.DeleteSparseFolders(args[0], minFiles)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "removed %d categories under %d files\n", n, minFiles)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&suffix, "suffix", "", "delete files ending in this suffix")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", 0, "delete files larger than this")
	cmd.Flags().IntVar(&minFiles, "min-files", 0, "delete category folders with fewer files")
	return cmd
}

func printCounts(cmd *cobra.Command, counts map[string]int) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", name, counts[name])
	}
}
