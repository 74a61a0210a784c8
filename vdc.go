/*
Copyright © 2013 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package vdc is the multi-resolution, block-structured scientific
// data collection described in spec.md: a wavelet-transformed, blocked,
// progressively refinable archive for large 3D (and 2D horizontal
// slice) floating-point fields from geoscience simulations.
//
// The package holds the types shared across the storage engine
// (voxel/block geometry, refinement levels, orientation tags, and the
// metadata tree) plus re-exports of the error taxonomy in
// internal/vdcerr. The wavelet kernels, block I/O, region reader/writer,
// AMR container, curvilinear regridder, and source-format readers each
// live in their own subpackage.
package vdc

import (
	"fmt"

	"github.com/vaporvdc/vdc/internal/vdcerr"
)

// Re-exported error kinds (spec.md §7).
const (
	IOError         = vdcerr.IOError
	FormatError     = vdcerr.FormatError
	ProjectionError = vdcerr.ProjectionError
	InvalidVariable = vdcerr.InvalidVariable
	InvalidRegion   = vdcerr.InvalidRegion
	ResourceError   = vdcerr.ResourceError
	Unsupported     = vdcerr.Unsupported
)

// Error is the error type every public operation returns on failure.
type Error = vdcerr.Error

// NewError builds a *vdc.Error for op, recording it for LastError.
func NewError(op string, kind vdcerr.Kind, cause error) *Error {
	return vdcerr.New(op, kind, cause)
}

// LastError returns the most recently recorded error across all VDC
// components in this process, for CLI tools and legacy call sites.
func LastError() error { return vdcerr.Last() }

// Type distinguishes the two historical VDC block sizes.
type Type int

const (
	// Type1 uses 32^3 blocks.
	Type1 Type = 1
	// Type2 uses 64^3 blocks.
	Type2 Type = 2
)

// BlockDim returns the canonical cubic block dimension for t.
func (t Type) BlockDim() int {
	switch t {
	case Type1:
		return 32
	case Type2:
		return 64
	default:
		return 0
	}
}

// Orientation identifies the two dimensions a 2D variable carries.
type Orientation int

const (
	XY Orientation = iota
	XZ
	YZ
)

func (o Orientation) String() string {
	switch o {
	case XY:
		return "XY"
	case XZ:
		return "XZ"
	case YZ:
		return "YZ"
	default:
		return "unknown"
	}
}

// Dim is a 3-element integer extent or coordinate, (x, y, z).
type Dim [3]int

// Mul returns the product of the three components.
func (d Dim) Mul() int { return d[0] * d[1] * d[2] }

// Box is an axis-aligned inclusive voxel or block range.
type Box struct {
	Min, Max Dim
}

// Valid reports whether the box is non-inverted and non-negative,
// the condition spec.md §7's InvalidRegion checks for.
func (b Box) Valid() bool {
	for i := 0; i < 3; i++ {
		if b.Min[i] < 0 || b.Max[i] < b.Min[i] {
			return false
		}
	}
	return true
}

// Dims returns the number of voxels/blocks spanned by b in each
// dimension.
func (b Box) Dims() Dim {
	return Dim{
		b.Max[0] - b.Min[0] + 1,
		b.Max[1] - b.Min[1] + 1,
		b.Max[2] - b.Min[2] + 1,
	}
}

// RefLevelBlockDim returns ceil(n / (block * 2^(lmax-level))), the
// number of blocks spanning dimension n at the given refinement level,
// per spec.md §3.
func RefLevelBlockDim(n, block, level, lmax int) int {
	factor := block << uint(lmax-level)
	return (n + factor - 1) / factor
}

// GridDims holds the finest-level voxel dimensions, the cubic block
// size, and the number of refinement levels (L+1 levels, 0..L) for one
// variable.
type GridDims struct {
	N     Dim // finest-level voxel dimensions
	Block Dim // block dimensions
	LMax  int // finest refinement level index
}

// BlockDims returns the block-count dimensions at the given
// refinement level.
func (g GridDims) BlockDims(level int) Dim {
	return Dim{
		RefLevelBlockDim(g.N[0], g.Block[0], level, g.LMax),
		RefLevelBlockDim(g.N[1], g.Block[1], level, g.LMax),
		RefLevelBlockDim(g.N[2], g.Block[2], level, g.LMax),
	}
}

// GammaBlocksPerLambda is the number of detail sub-blocks a single
// coarser lambda block expands into: 7 in 3D, 3 in 2D (spec.md §3).
func GammaBlocksPerLambda(is3D bool) int {
	if is3D {
		return 7
	}
	return 3
}

// VarKey identifies one coefficient stream: a variable at a time step
// and refinement level.
type VarKey struct {
	Name     string
	TimeStep int
	RefLevel int
}

func (k VarKey) String() string {
	return fmt.Sprintf("%s/ts%d/rl%d", k.Name, k.TimeStep, k.RefLevel)
}
