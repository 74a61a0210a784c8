package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vaporvdc/vdc"
	"github.com/vaporvdc/vdc/region"
	"github.com/vaporvdc/vdc/wavelet"
)

func newReadCmd(c *cfg) *cobra.Command {
	var varname, out string
	var ts, level int
	var minX, minY, minZ, maxX, maxY, maxZ int

	cmd := &cobra.Command{
		Use:   "read <metadata-file>",
		Short: "Read a voxel sub-region of one variable at a refinement level.",
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
			r, err := region.NewReader(region.ReaderConfig{
				Dir:      filepath.Dir(args[0]),
				Varname:  varname,
				TimeStep: ts,
				Grid:     m.gridDims(),
				Kind:     kind,
			})
			if err != nil {
				return err
			}
			defer r.Close()

			data, err := r.ReadRegion(vdc.Dim{minX, minY, minZ}, vdc.Dim{maxX, maxY, maxZ}, level)
			if err != nil {
				return err
			}

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("vdccli: creating output file: %v", err)
				}
				defer f.Close()
				w = f
			}
			buf := make([]byte, 4)
			for _, v := range data {
				binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
				if _, err := w.Write(buf); err != nil {
					return fmt.Errorf("vdccli: writing output: %v", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&varname, "varname", "", "variable name to read")
	cmd.Flags().IntVar(&ts, "ts", 0, "time step")
	cmd.Flags().IntVar(&level, "level", 0, "refinement level")
	cmd.Flags().IntVar(&minX, "minx", 0, "region minimum x voxel")
	cmd.Flags().IntVar(&minY, "miny", 0, "region minimum y voxel")
	cmd.Flags().IntVar(&minZ, "minz", 0, "region minimum z voxel")
	cmd.Flags().IntVar(&maxX, "maxx", 0, "region maximum x voxel")
	cmd.Flags().IntVar(&maxY, "maxy", 0, "region maximum y voxel")
	cmd.Flags().IntVar(&maxZ, "maxz", 0, "region maximum z voxel")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: stdout)")
	cmd.MarkFlagRequired("varname")
	c.BindPFlag("varname", cmd.Flags().Lookup("varname"))
	return cmd
}
