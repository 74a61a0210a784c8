// Package blockio implements the VDC's block-addressed stream
// format: one file per (timestep, variable, reflevel, lambda-or-gamma),
// holding a contiguous run of equal-sized blocks at a byte offset
// computed from the block's row-major coordinate, per the archive's
// on-disk layout. It also holds the per-block min/max sidecar table
// used to propagate data ranges from the finest to coarsest level.
package blockio

import (
	"fmt"
	"os"

	"github.com/vaporvdc/vdc/internal/vdcerr"
)

// Mode selects how a variable's block stream is opened.
type Mode int

const (
	ReadMode Mode = iota
	WriteMode
)

// Kind distinguishes the lambda stream (factor 1) from a reflevel's
// gamma stream (factor 7 in 3D, 3 in 2D).
type Kind int

const (
	Lambda Kind = iota
	Gamma
)

// GammaFactor returns the sub-block multiplier for a gamma stream.
func GammaFactor(is3D bool) int {
	if is3D {
		return 7
	}
	return 3
}

// File is one open block stream: a fixed per-block byte size and a
// row-major block-coordinate addressing scheme within one refinement
// level, per spec.md §6.
type File struct {
	f             *os.File
	mode          Mode
	blockVoxels   int // Bx*By*Bz for a cubic/rectangular block
	levelBlockDim [3]int // number of blocks at this level, (nx,ny,nz)
	factor        int    // 1 for lambda, 7 or 3 for gamma
	dead          error  // set on the first short read/write; sticky
}

func perBlockFloats(blockVoxels, factor int) int { return blockVoxels * factor }

// Open opens the block stream for one (timestep, varname, reflevel,
// lambda-or-gamma) at path. blockVoxels is the flattened voxel count
// of one cubic block (Bx*By*Bz); levelBlockDim is the number of
// blocks spanning this refinement level in each axis, used to compute
// the row-major byte offset of any block coordinate.
func Open(path string, mode Mode, blockVoxels int, levelBlockDim [3]int, factor int) (*File, error) {
	var f *os.File
	var err error
	switch mode {
	case ReadMode:
		f, err = os.Open(path)
		if err != nil {
			return nil, vdcerr.New("blockio.Open", vdcerr.InvalidVariable, err)
		}
	case WriteMode:
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return nil, vdcerr.New("blockio.Open", vdcerr.IOError, err)
		}
	default:
		return nil, vdcerr.New("blockio.Open", vdcerr.FormatError, fmt.Errorf("invalid mode %d", mode))
	}
	return &File{
		f:             f,
		mode:          mode,
		blockVoxels:   blockVoxels,
		levelBlockDim: levelBlockDim,
		factor:        factor,
	}, nil
}

// Close closes the underlying file. Once closed, the File must not be
// reused; reopen the variable to recover from any prior fatal error.
func (bf *File) Close() error {
	return bf.f.Close()
}

func (bf *File) offset(bx, by, bz int) int64 {
	nx, ny := bf.levelBlockDim[0], bf.levelBlockDim[1]
	blockIndex := int64(bz)*int64(ny)*int64(nx) + int64(by)*int64(nx) + int64(bx)
	return blockIndex * int64(perBlockFloats(bf.blockVoxels, bf.factor)) * 4
}

// WriteBlock writes one block's worth of floats (length
// blockVoxels*factor, sub-blocks concatenated in canonical octant
// order for a gamma stream) at the given row-major block coordinate.
func (bf *File) WriteBlock(bx, by, bz int, data []float32) error {
	if bf.dead != nil {
		return bf.dead
	}
	want := perBlockFloats(bf.blockVoxels, bf.factor)
	if len(data) != want {
		bf.dead = vdcerr.New("blockio.WriteBlock", vdcerr.FormatError,
			fmt.Errorf("block (%d,%d,%d): got %d floats, want %d", bx, by, bz, len(data), want))
		return bf.dead
	}
	buf := encodeFloats(data)
	n, err := bf.f.WriteAt(buf, bf.offset(bx, by, bz))
	if err != nil || n != len(buf) {
		bf.dead = vdcerr.New("blockio.WriteBlock", vdcerr.IOError,
			fmt.Errorf("block (%d,%d,%d): short write (%d/%d bytes): %v", bx, by, bz, n, len(buf), err))
		return bf.dead
	}
	return nil
}

// ReadBlock reads one block's worth of floats at the given row-major
// block coordinate.
func (bf *File) ReadBlock(bx, by, bz int) ([]float32, error) {
	vals, err := bf.ReadRun(bx, by, bz, 1)
	if err != nil {
		return nil, err
	}
	return vals, nil
}

// ReadRun reads `count` consecutive blocks starting at (bx,by,bz)
// along the x axis (the fastest-varying axis in the row-major
// addressing), returning their floats concatenated in block order.
func (bf *File) ReadRun(bx, by, bz, count int) ([]float32, error) {
	if bf.dead != nil {
		return nil, bf.dead
	}
	perBlock := perBlockFloats(bf.blockVoxels, bf.factor)
	want := perBlock * count
	buf := make([]byte, want*4)
	n, err := bf.f.ReadAt(buf, bf.offset(bx, by, bz))
	if err != nil || n != len(buf) {
		bf.dead = vdcerr.New("blockio.ReadRun", vdcerr.IOError,
			fmt.Errorf("block (%d,%d,%d) x%d: short read (%d/%d bytes): %v", bx, by, bz, count, n, len(buf), err))
		return nil, bf.dead
	}
	return decodeFloats(buf), nil
}
