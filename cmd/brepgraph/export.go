package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/brepgraph/pkg/export"
	"github.com/chazu/brepgraph/pkg/kernel/step"
)

func newExportCmd() *cobra.Command {
	var quality int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export CAD geometry to exchange formats",
	}

	stl := &cobra.Command{
		Use:   "stl <input.step> <output.stl>",
		Short: "Tessellate a STEP file into binary STL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := step.Load(args[0])
			if err != nil {
				return err
			}
			if err := export.WriteSTLFile(args[1], m, quality); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), args[1])
			return nil
		},
	}

	cloud := &cobra.Command{
		Use:   "cloud <input.step> <output.txt>",
		Short: "Sample a STEP file into a point cloud with normals",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := step.Load(args[0])
			if err != nil {
				return err
			}
			if err := export.WritePointCloudFile(args[1], m, quality); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), args[1])
			return nil
		},
	}

	cmd.PersistentFlags().IntVarP(&quality, "quality", "q", 5, "sampling quality (1-10)")
	cmd.AddCommand(stl, cloud)
	return cmd
}
