package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/brepgraph/pkg/facegraph"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <graph.bgrf>",
		Short: "Print a graph file's structure as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := facegraph.ReadFile(args[0])
			if err != nil {
				return err
			}
			data, err := g.Overview().JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
