package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaporvdc/vdc/amr"
)

func newAMRCmd(c *cfg) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "amr",
		Short: "Inspect AMR octree archives.",
	}
	cmd.AddCommand(newAMRInfoCmd())
	return cmd
}

func newAMRInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <archive-file>",
		Short: "Print an AMR archive's leaf count, block dimension, and value range.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, blockDim, min, max, refLevel, dataRange, err := amr.ReadArchive(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Leaves:        %d\n", len(blocks))
			fmt.Printf("BlockDim:      %v\n", blockDim)
			fmt.Printf("Bounds:        %v .. %v\n", min, max)
			fmt.Printf("RefLevel:      %d\n", refLevel)
			fmt.Printf("DataRange:     [%g, %g]\n", dataRange[0], dataRange[1])
			return nil
		},
	}
}
