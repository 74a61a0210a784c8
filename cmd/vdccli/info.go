package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd(c *cfg) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <metadata-file>",
		Short: "Print a VDC collection's grid, kernel, and variable list.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadVDFMeta(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Grid:          %d x %d x %d\n", m.N[0], m.N[1], m.N[2])
			fmt.Printf("Block:         %d x %d x %d\n", m.Block[0], m.Block[1], m.Block[2])
			fmt.Printf("RefLevels:     0..%d\n", m.LMax)
			fmt.Printf("Kernel:        %s (%s)\n", m.Kernel, m.BoundaryMode)
			fmt.Printf("Variables:     %v\n", m.Variables)
			return nil
		},
	}
	return cmd
}
