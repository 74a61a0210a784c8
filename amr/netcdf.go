package amr

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/ctessum/cdf"

	"github.com/vaporvdc/vdc"
	"github.com/vaporvdc/vdc/internal/vdcerr"
)

// Archive dimension and attribute names, per spec.md §4.5/§6.
const (
	dimNumBlocks = "NumBlocks"
	dimNx        = "BlocksSizeNx"
	dimNy        = "BlocksSizeNy"
	dimNz        = "BlocksSizeNz"
	varField     = "FieldVariable"

	attrMinCorner  = "MinCorner"
	attrMaxCorner  = "MaxCorner"
	attrRefLevel   = "RefinementLevel"
	attrDataRange  = "ScalarDataRange"
)

// openRetry opens an *os.File the way the archive's NC_NOWRITE reads
// and writes historically have: up to 10 attempts, backing off a
// short interval when the underlying open call reports the file is
// transiently unavailable (EAGAIN), matching the retry loop the
// original NetCDF reader used around a concurrently written archive.
func openRetry(open func() (*os.File, error)) (*os.File, error) {
	var f *os.File
	var err error
	for attempt := 0; attempt < 10; attempt++ {
		f, err = open()
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, syscall.EAGAIN) {
			return nil, err
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil, err
}

// WriteArchive writes an AMRData's leaf cells to a NetCDF archive at
// path. min/max are the spatial corners the block field spans and
// dataRange the variable-wide scalar extrema; both are caller-supplied
// since they come from domain geometry and accumulated statistics the
// tree itself doesn't track.
func WriteArchive(path string, data *AMRData, blockDim vdc.Dim, min, max vdc.Dim, dataRange [2]float32) error {
	blocks := data.LeafBlocks()
	if len(blocks) == 0 {
		return vdcerr.New("amr.WriteArchive", vdcerr.InvalidVariable, fmt.Errorf("tree has no leaf cells"))
	}
	h := cdf.NewHeader(
		[]string{dimNumBlocks, dimNz, dimNy, dimNx},
		[]int{len(blocks), blockDim[2], blockDim[1], blockDim[0]},
	)
	h.AddAttribute("", attrMinCorner, []int32{int32(min[0]), int32(min[1]), int32(min[2])})
	h.AddAttribute("", attrMaxCorner, []int32{int32(max[0]), int32(max[1]), int32(max[2])})
	h.AddAttribute("", attrRefLevel, []int32{int32(data.tree.RefinementLevel())})
	h.AddAttribute("", attrDataRange, []float32{dataRange[0], dataRange[1]})
	h.AddVariable(varField, []string{dimNumBlocks, dimNz, dimNy, dimNx}, []float32{0})
	if err := h.Define(); err != nil {
		return vdcerr.New("amr.WriteArchive", vdcerr.FormatError, err)
	}

	w, err := openRetry(func() (*os.File, error) {
		return os.Create(path)
	})
	if err != nil {
		return vdcerr.New("amr.WriteArchive", vdcerr.IOError, err)
	}
	defer w.Close()

	f, err := cdf.Create(w, h)
	if err != nil {
		return vdcerr.New("amr.WriteArchive", vdcerr.IOError, err)
	}
	cellVoxels := blockDim.Mul()
	for i, blk := range blocks {
		if len(blk) != cellVoxels {
			return vdcerr.New("amr.WriteArchive", vdcerr.FormatError, fmt.Errorf("block %d has %d values, want %d", i, len(blk), cellVoxels))
		}
		start := []int{i, 0, 0, 0}
		end := []int{i + 1, blockDim[2], blockDim[1], blockDim[0]}
		if _, err := f.Writer(varField, start, end).Write(blk); err != nil {
			return vdcerr.New("amr.WriteArchive", vdcerr.IOError, err)
		}
	}
	if err := cdf.UpdateNumRecs(w); err != nil {
		return vdcerr.New("amr.WriteArchive", vdcerr.IOError, err)
	}
	return nil
}

// ReadArchive reads back a NetCDF archive written by WriteArchive,
// returning the per-block field data in file order plus its recorded
// corners, refinement level, and data range. The caller is expected
// to already know (or separately reconstruct) the tree topology; the
// archive format itself stores only the flat block payload and its
// bounding metadata, per spec.md §6.
func ReadArchive(path string) (blocks [][]float32, blockDim vdc.Dim, min, max vdc.Dim, refLevel int, dataRange [2]float32, err error) {
	r, oerr := openRetry(func() (*os.File, error) {
		return os.Open(path)
	})
	if oerr != nil {
		err = vdcerr.New("amr.ReadArchive", vdcerr.IOError, oerr)
		return
	}
	defer r.Close()

	f, oerr := cdf.Open(r)
	if oerr != nil {
		err = vdcerr.New("amr.ReadArchive", vdcerr.FormatError, oerr)
		return
	}

	lens := f.Header.Lengths(varField)
	if len(lens) != 4 {
		err = vdcerr.New("amr.ReadArchive", vdcerr.FormatError, fmt.Errorf("variable %q has %d dimensions, want 4", varField, len(lens)))
		return
	}
	numBlocks, nz, ny, nx := lens[0], lens[1], lens[2], lens[3]
	blockDim = vdc.Dim{nx, ny, nz}

	if v, ok := f.Header.GetAttribute("", attrMinCorner).([]int32); ok && len(v) == 3 {
		min = vdc.Dim{int(v[0]), int(v[1]), int(v[2])}
	}
	if v, ok := f.Header.GetAttribute("", attrMaxCorner).([]int32); ok && len(v) == 3 {
		max = vdc.Dim{int(v[0]), int(v[1]), int(v[2])}
	}
	if v, ok := f.Header.GetAttribute("", attrRefLevel).([]int32); ok && len(v) == 1 {
		refLevel = int(v[0])
	}
	if v, ok := f.Header.GetAttribute("", attrDataRange).([]float32); ok && len(v) == 2 {
		dataRange = [2]float32{v[0], v[1]}
	}

	cellVoxels := nx * ny * nz
	blocks = make([][]float32, numBlocks)
	for i := 0; i < numBlocks; i++ {
		start := []int{i, 0, 0, 0}
		end := []int{i + 1, nz, ny, nx}
		buf := make([]float32, cellVoxels)
		if _, rerr := f.Reader(varField, start, end).Read(buf); rerr != nil {
			err = vdcerr.New("amr.ReadArchive", vdcerr.IOError, rerr)
			return
		}
		blocks[i] = buf
	}
	return blocks, blockDim, min, max, refLevel, dataRange, nil
}
