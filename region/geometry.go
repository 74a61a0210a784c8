package region

import "github.com/vaporvdc/vdc/internal/vdcerr"

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// alignToSuperblock expands [min,max] outward to the enclosing
// superblock-aligned voxel box (superblock = 2 blocks per axis),
// clipped to the domain [0, n-1], per spec.md §4.3 step 1.
func alignToSuperblock(min, max [3]int, block [3]int, n [3]int) (amin, amax [3]int) {
	for i := 0; i < 3; i++ {
		super := 2 * block[i]
		amin[i] = floorDiv(min[i], super) * super
		amax[i] = (floorDiv(max[i], super)+1)*super - 1
		amin[i] = clampInt(amin[i], 0, n[i]-1)
		amax[i] = clampInt(amax[i], 0, n[i]-1)
	}
	return amin, amax
}

// edgeExtend builds a dense row-major voxel buffer over [amin,amax]
// from src (row-major over [min,max]), replicating the nearest
// supplied voxel into any padding introduced by alignToSuperblock —
// spec.md §4.3 step 2's "edge extension, not zero, not mirror".
func edgeExtend(min, max, amin, amax [3]int, src []float32) []float32 {
	dims := [3]int{max[0] - min[0] + 1, max[1] - min[1] + 1, max[2] - min[2] + 1}
	adims := [3]int{amax[0] - amin[0] + 1, amax[1] - amin[1] + 1, amax[2] - amin[2] + 1}
	out := make([]float32, adims[0]*adims[1]*adims[2])
	for z := 0; z < adims[2]; z++ {
		vz := clampInt(amin[2]+z-min[2], 0, dims[2]-1)
		for y := 0; y < adims[1]; y++ {
			vy := clampInt(amin[1]+y-min[1], 0, dims[1]-1)
			for x := 0; x < adims[0]; x++ {
				vx := clampInt(amin[0]+x-min[0], 0, dims[0]-1)
				out[x+adims[0]*(y+adims[1]*z)] = src[vx+dims[0]*(vy+dims[1]*vz)]
			}
		}
	}
	return out
}

// scaleDown maps a block-coordinate box at a finer level down to the
// coarser level `levels` steps up (each step halves block coordinates).
func scaleDown(bmin, bmax [3]int, levels int) (o, p [3]int) {
	for i := 0; i < 3; i++ {
		o[i] = bmin[i] >> uint(levels)
		p[i] = bmax[i] >> uint(levels)
	}
	return o, p
}

func validBox(min, max [3]int) error {
	for i := 0; i < 3; i++ {
		if min[i] < 0 || max[i] < min[i] {
			return vdcerr.New("region", vdcerr.InvalidRegion, nil)
		}
	}
	return nil
}
