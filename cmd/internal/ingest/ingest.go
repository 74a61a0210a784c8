// Package ingest implements the common source-to-VDC conversion loop
// shared by the single-purpose converters (cmd/wrf2vdc, cmd/flash2vdc,
// cmd/grib2vdc), grounded on the teacher's cmd/inmap/main.go thin-main
// pattern: each converter's main.go only parses flags and wires up a
// reader; the slice-by-slice-to-region-writer pump lives here once.
package ingest

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/vaporvdc/vdc"
	"github.com/vaporvdc/vdc/internal/vdcerr"
	"github.com/vaporvdc/vdc/readers"
	"github.com/vaporvdc/vdc/region"
	"github.com/vaporvdc/vdc/wavelet"
)

// Options configures one variable/time-step conversion.
type Options struct {
	OutDir  string
	Varname string
	TS      int
	Level   int
	Quiet   bool
	Debug   bool
}

// Run reads every XY slice of varname at time step ts from r and
// writes it into a single-resolution (LMax 0) VDC collection rooted at
// opts.OutDir, logging progress through logger the way the teacher's
// preproc.go narrates each processing stage.
func Run(r readers.Reader, opts Options, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if opts.TS < 0 || opts.TS >= r.GetNumTimeSteps() {
		return vdcerr.New("ingest.Run", vdcerr.InvalidVariable, fmt.Errorf("time step %d out of range [0,%d)", opts.TS, r.GetNumTimeSteps()))
	}
	dim := r.GetGridDim()
	if opts.Debug {
		logger.Printf("grid dimensions: %v", dim)
	}

	h, err := r.OpenVariableRead(opts.TS, opts.Varname, opts.Level)
	if err != nil {
		return err
	}
	defer r.CloseVariable(h)

	sliceLen := dim[0] * dim[1]
	data := make([]float32, 0, dim.Mul())
	buf := make([]float32, sliceLen)
	for {
		status, err := r.ReadSlice(h, buf)
		if err != nil {
			return err
		}
		if status == readers.EOF {
			break
		}
		data = append(data, buf...)
		if !opts.Quiet && opts.Debug {
			logger.Printf("read slice %d", len(data)/sliceLen)
		}
	}
	nz := 1
	if sliceLen > 0 {
		nz = len(data) / sliceLen
	}
	if nz == 0 {
		nz = 1
	}
	dim[2] = nz

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return vdcerr.New("ingest.Run", vdcerr.IOError, err)
	}

	grid := vdc.GridDims{N: dim, Block: vdc.Dim{vdc.Type2.BlockDim(), vdc.Type2.BlockDim(), vdc.Type2.BlockDim()}, LMax: 0}
	w, err := region.NewWriter(region.WriterConfig{
		Dir:      opts.OutDir,
		Varname:  opts.Varname,
		TimeStep: opts.TS,
		Grid:     grid,
		Kind:     wavelet.Bior53,
	}, 0)
	if err != nil {
		return err
	}
	min := vdc.Dim{0, 0, 0}
	max := vdc.Dim{dim[0] - 1, dim[1] - 1, dim[2] - 1}
	if err := w.WriteRegion(min, max, data); err != nil {
		return err
	}
	if err := w.CloseVariable(); err != nil {
		return err
	}
	if !opts.Quiet {
		logger.Printf("wrote %s ts%d into %s", opts.Varname, opts.TS, filepath.Join(opts.OutDir))
	}
	return nil
}
