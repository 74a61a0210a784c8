package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vaporvdc/vdc"
	"github.com/vaporvdc/vdc/region"
	"github.com/vaporvdc/vdc/wavelet"
)

func newWriteCmd(c *cfg) *cobra.Command {
	var varname, in string
	var ts, codecThreads int
	var minX, minY, minZ, maxX, maxY, maxZ int

	cmd := &cobra.Command{
		Use:   "write <metadata-file>",
		Short: "Write a dense voxel buffer into a variable's native refinement level.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadVDFMeta(args[0])
			if err != nil {
				return err
			}
			kind, err := wavelet.Parse(m.Kernel, m.BoundaryMode)
			if err != nil {
				return err
			}
			w, err := region.NewWriter(region.WriterConfig{
				Dir:      filepath.Dir(args[0]),
				Varname:  varname,
				TimeStep: ts,
				Grid:     m.gridDims(),
				Kind:     kind,
			}, codecThreads)
			if err != nil {
				return err
			}

			var r io.Reader = os.Stdin
			if in != "" {
				f, err := os.Open(in)
				if err != nil {
					return fmt.Errorf("vdccli: opening input file: %v", err)
				}
				defer f.Close()
				r = f
			}
			min := vdc.Dim{minX, minY, minZ}
			max := vdc.Dim{maxX, maxY, maxZ}
			box := vdc.Box{Min: min, Max: max}
			if !box.Valid() {
				return fmt.Errorf("vdccli: invalid region %v..%v", min, max)
			}
			data := make([]float32, box.Dims().Mul())
			raw := make([]byte, len(data)*4)
			if _, err := io.ReadFull(r, raw); err != nil {
				return fmt.Errorf("vdccli: reading input: %v", err)
			}
			for i := range data {
				data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
			}

			if err := w.WriteRegion(min, max, data); err != nil {
				return err
			}
			if err := w.CloseVariable(); err != nil {
				return err
			}
			dmin, dmax, err := w.DataRange()
			if err != nil {
				return err
			}
			fmt.Printf("wrote %s ts%d: range [%g, %g]\n", varname, ts, dmin, dmax)
			return nil
		},
	}
	cmd.Flags().StringVar(&varname, "varname", "", "variable name to write")
	cmd.Flags().IntVar(&ts, "ts", 0, "time step")
	cmd.Flags().IntVar(&codecThreads, "parallel", 0, "number of parallel codec threads (0: serial)")
	cmd.Flags().IntVar(&minX, "minx", 0, "region minimum x voxel")
	cmd.Flags().IntVar(&minY, "miny", 0, "region minimum y voxel")
	cmd.Flags().IntVar(&minZ, "minz", 0, "region minimum z voxel")
	cmd.Flags().IntVar(&maxX, "maxx", 0, "region maximum x voxel")
	cmd.Flags().IntVar(&maxY, "maxy", 0, "region maximum y voxel")
	cmd.Flags().IntVar(&maxZ, "maxz", 0, "region maximum z voxel")
	cmd.Flags().StringVar(&in, "in", "", "input file (default: stdin)")
	cmd.MarkFlagRequired("varname")
	c.BindPFlag("varname", cmd.Flags().Lookup("varname"))
	return cmd
}
