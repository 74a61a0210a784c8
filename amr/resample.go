package amr

import "github.com/vaporvdc/vdc"

// ResampleUniform resamples an AMRData to a dense voxel grid at the
// given refinement level, per spec.md §4.5: each branch is descended
// recursively octant by octant, stopping at whichever comes first —
// a leaf cell, or the requested level — and the stopped-at cell's
// payload is trilinearly interpolated across the (possibly larger)
// voxel footprint that level's resolution assigns it. cellVoxels is
// the (Cx,Cy,Cz) shape of one cell's payload (cellDim ==
// cellVoxels.Mul()).
//
// The returned slice is row-major over the full uniform grid, sized
// baseDim*cellVoxels*2^level per axis.
func (d *AMRData) ResampleUniform(level int, cellVoxels vdc.Dim) ([]float32, vdc.Dim) {
	scale := 1 << uint(level)
	outDim := vdc.Dim{
		d.tree.BaseDim[0] * cellVoxels[0] * scale,
		d.tree.BaseDim[1] * cellVoxels[1] * scale,
		d.tree.BaseDim[2] * cellVoxels[2] * scale,
	}
	out := make([]float32, outDim.Mul())

	cellFootprint := func(cellLevel int) vdc.Dim {
		f := scale >> uint(minInt(cellLevel, level))
		return vdc.Dim{cellVoxels[0] * f, cellVoxels[1] * f, cellVoxels[2] * f}
	}

	for baseIdx, b := range d.tree.Branches {
		bx, by, bz := baseCoord(baseIdx, d.tree.BaseDim)
		baseOrigin := vdc.Dim{bx * cellVoxels[0] * scale, by * cellVoxels[1] * scale, bz * cellVoxels[2] * scale}
		d.resampleCell(b, 0, baseIdx, baseOrigin, 0, level, cellVoxels, cellFootprint, out, outDim)
	}
	return out, outDim
}

func baseCoord(idx int, baseDim vdc.Dim) (x, y, z int) {
	x = idx % baseDim[0]
	y = (idx / baseDim[0]) % baseDim[1]
	z = idx / (baseDim[0] * baseDim[1])
	return
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// resampleCell handles one cell of branch b: if it's a leaf, or
// cellLevel has reached the requested level, its payload is
// interpolated across origin's footprint; otherwise recursion
// descends into its eight children, each covering one octant of
// origin's footprint.
func (d *AMRData) resampleCell(b *AMRTreeBranch, localIdx, baseIdx int, origin vdc.Dim, cellLevel, level int, cellVoxels vdc.Dim, footprintOf func(int) vdc.Dim, out []float32, outDim vdc.Dim) {
	first := b.GetCellChildren(localIdx)
	if first == -1 || cellLevel >= level {
		footprint := footprintOf(cellLevel)
		cid := NewCellID(uint16(baseIdx), uint32(localIdx))
		payload := d.GetCell(cid)
		trilinearFill(payload, cellVoxels, origin, footprint, out, outDim)
		return
	}
	half := vdc.Dim{footprintOf(cellLevel + 1)[0], footprintOf(cellLevel + 1)[1], footprintOf(cellLevel + 1)[2]}
	for oct := 0; oct < 8; oct++ {
		dx, dy, dz := oct&1, (oct>>1)&1, (oct>>2)&1
		childOrigin := vdc.Dim{origin[0] + dx*half[0], origin[1] + dy*half[1], origin[2] + dz*half[2]}
		d.resampleCell(b, first+oct, baseIdx, childOrigin, cellLevel+1, level, cellVoxels, footprintOf, out, outDim)
	}
}

// trilinearFill stretches src (row-major over srcDim) to fill a
// dstDim-sized box of out at origin. When srcDim is 1x1x1 (the common
// scalar-per-cell case), this degenerates to constant replication;
// otherwise each output voxel is trilinearly interpolated from src's
// eight nearest samples.
func trilinearFill(src []float32, srcDim, origin, dstDim vdc.Dim, out []float32, outDim vdc.Dim) {
	if srcDim.Mul() == 1 {
		v := src[0]
		for z := 0; z < dstDim[2]; z++ {
			for y := 0; y < dstDim[1]; y++ {
				base := (origin[2]+z)*outDim[1]*outDim[0] + (origin[1]+y)*outDim[0] + origin[0]
				for x := 0; x < dstDim[0]; x++ {
					out[base+x] = v
				}
			}
		}
		return
	}
	at := func(x, y, z int) float32 {
		if x < 0 {
			x = 0
		}
		if y < 0 {
			y = 0
		}
		if z < 0 {
			z = 0
		}
		if x >= srcDim[0] {
			x = srcDim[0] - 1
		}
		if y >= srcDim[1] {
			y = srcDim[1] - 1
		}
		if z >= srcDim[2] {
			z = srcDim[2] - 1
		}
		return src[z*srcDim[1]*srcDim[0]+y*srcDim[0]+x]
	}
	sx := float64(srcDim[0]) / float64(dstDim[0])
	sy := float64(srcDim[1]) / float64(dstDim[1])
	sz := float64(srcDim[2]) / float64(dstDim[2])
	for z := 0; z < dstDim[2]; z++ {
		fz := (float64(z)+0.5)*sz - 0.5
		z0 := int(fz)
		tz := fz - float64(z0)
		for y := 0; y < dstDim[1]; y++ {
			fy := (float64(y)+0.5)*sy - 0.5
			y0 := int(fy)
			ty := fy - float64(y0)
			base := (origin[2]+z)*outDim[1]*outDim[0] + (origin[1]+y)*outDim[0] + origin[0]
			for x := 0; x < dstDim[0]; x++ {
				fx := (float64(x)+0.5)*sx - 0.5
				x0 := int(fx)
				tx := fx - float64(x0)

				c00 := at(x0, y0, z0)*float32(1-tx) + at(x0+1, y0, z0)*float32(tx)
				c10 := at(x0, y0+1, z0)*float32(1-tx) + at(x0+1, y0+1, z0)*float32(tx)
				c01 := at(x0, y0, z0+1)*float32(1-tx) + at(x0+1, y0, z0+1)*float32(tx)
				c11 := at(x0, y0+1, z0+1)*float32(1-tx) + at(x0+1, y0+1, z0+1)*float32(tx)
				c0 := c00*float32(1-ty) + c10*float32(ty)
				c1 := c01*float32(1-ty) + c11*float32(ty)
				out[base+x] = c0*float32(1-tz) + c1*float32(tz)
			}
		}
	}
}
