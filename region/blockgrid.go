package region

import "github.com/vaporvdc/vdc/wavelet"

// blockGrid is a dense 3D grid of equally sized cubic blocks, used as
// the writer's and reader's working representation of one refinement
// level while it is reduced to (or reconstructed from) the next.
type blockGrid struct {
	dim  [3]int // block counts (nx,ny,nz)
	base [3]int // absolute block coordinate of blocks[0]
	blk  [][]float32
}

func newBlockGrid(dim, base [3]int) *blockGrid {
	return &blockGrid{dim: dim, base: base, blk: make([][]float32, dim[0]*dim[1]*dim[2])}
}

func (g *blockGrid) idx(x, y, z int) int { return x + g.dim[0]*(y+g.dim[1]*z) }

func (g *blockGrid) get(x, y, z int) []float32 { return g.blk[g.idx(x, y, z)] }

func (g *blockGrid) set(x, y, z int, v []float32) { g.blk[g.idx(x, y, z)] = v }

// gammaWrite is one coarse-block-addressed group of seven (or three)
// detail sub-blocks destined for a level's gamma stream.
type gammaWrite struct {
	coord [3]int
	subs  [][]float32
}

// reduceLevel3D groups fine into 2x2x2 superblocks (fine.dim must be
// even in every axis) and runs the forward wavelet transform on each,
// returning the next-coarser lambda grid and the gamma groups to
// write at this level's gamma stream.
func reduceLevel3D(k wavelet.Kind, fine *blockGrid) (*blockGrid, []gammaWrite, error) {
	cdim := [3]int{fine.dim[0] / 2, fine.dim[1] / 2, fine.dim[2] / 2}
	cbase := [3]int{fine.base[0] / 2, fine.base[1] / 2, fine.base[2] / 2}
	coarse := newBlockGrid(cdim, cbase)
	var writes []gammaWrite
	for cz := 0; cz < cdim[2]; cz++ {
		for cy := 0; cy < cdim[1]; cy++ {
			for cx := 0; cx < cdim[0]; cx++ {
				var src [8][]float32
				for oct := 0; oct < 8; oct++ {
					ox, oy, oz := oct&1, (oct>>1)&1, (oct>>2)&1
					src[oct] = fine.get(2*cx+ox, 2*cy+oy, 2*cz+oz)
				}
				blockDim := cubeRoot(len(src[0]))
				out, err := wavelet.Forward3D(k, blockDim, src)
				if err != nil {
					return nil, nil, err
				}
				coarse.set(cx, cy, cz, out[0])
				writes = append(writes, gammaWrite{
					coord: [3]int{cbase[0] + cx, cbase[1] + cy, cbase[2] + cz},
					subs:  [][]float32{out[1], out[2], out[3], out[4], out[5], out[6], out[7]},
				})
			}
		}
	}
	return coarse, writes, nil
}

// expandLevel3D is the inverse of reduceLevel3D: given a coarse
// lambda grid and, for each coarse coordinate, its seven gamma
// sub-blocks, reconstructs the next-finer lambda grid.
func expandLevel3D(k wavelet.Kind, coarse *blockGrid, gamma map[[3]int][7][]float32) (*blockGrid, error) {
	fdim := [3]int{coarse.dim[0] * 2, coarse.dim[1] * 2, coarse.dim[2] * 2}
	fbase := [3]int{coarse.base[0] * 2, coarse.base[1] * 2, coarse.base[2] * 2}
	fine := newBlockGrid(fdim, fbase)
	for cz := 0; cz < coarse.dim[2]; cz++ {
		for cy := 0; cy < coarse.dim[1]; cy++ {
			for cx := 0; cx < coarse.dim[0]; cx++ {
				abs := [3]int{coarse.base[0] + cx, coarse.base[1] + cy, coarse.base[2] + cz}
				g, ok := gamma[abs]
				if !ok {
					continue
				}
				lambda := coarse.get(cx, cy, cz)
				var src [8][]float32
				src[0] = lambda
				for i := 0; i < 7; i++ {
					src[i+1] = g[i]
				}
				blockDim := cubeRoot(len(lambda))
				out, err := wavelet.Inverse3D(k, blockDim, src)
				if err != nil {
					return nil, err
				}
				for oct := 0; oct < 8; oct++ {
					ox, oy, oz := oct&1, (oct>>1)&1, (oct>>2)&1
					fine.set(2*cx+ox, 2*cy+oy, 2*cz+oz, out[oct])
				}
			}
		}
	}
	return fine, nil
}

// slice extracts the sub-grid covering absolute block coordinates
// [lo,hi] (inclusive) from g.
func (g *blockGrid) slice(lo, hi [3]int) *blockGrid {
	dim := [3]int{hi[0] - lo[0] + 1, hi[1] - lo[1] + 1, hi[2] - lo[2] + 1}
	out := newBlockGrid(dim, lo)
	for z := 0; z < dim[2]; z++ {
		for y := 0; y < dim[1]; y++ {
			for x := 0; x < dim[0]; x++ {
				out.set(x, y, z, g.get(lo[0]-g.base[0]+x, lo[1]-g.base[1]+y, lo[2]-g.base[2]+z))
			}
		}
	}
	return out
}

func cubeRoot(n int) int {
	for d := 1; d*d*d <= n; d++ {
		if d*d*d == n {
			return d
		}
	}
	return 0
}
