package region

import (
	"fmt"

	"github.com/vaporvdc/vdc"
	"github.com/vaporvdc/vdc/blockio"
	"github.com/vaporvdc/vdc/internal/vdcerr"
	"github.com/vaporvdc/vdc/wavelet"
)

// ReaderConfig describes the variable a Reader will read from.
type ReaderConfig struct {
	Dir      string
	Varname  string
	TimeStep int
	Grid     vdc.GridDims
	Kind     wavelet.Kind
}

// Reader reads voxel sub-regions of one variable at a chosen
// refinement level, per spec.md §4.4.
type Reader struct {
	cfg   ReaderConfig
	lf    *blockio.File
	gamma map[int]*blockio.File
}

// NewReader opens the lambda stream and every gamma stream up to
// cfg.Grid.LMax for read access.
func NewReader(cfg ReaderConfig) (*Reader, error) {
	blockVoxels := cfg.Grid.Block.Mul()
	dim0 := cfg.Grid.BlockDims(0)
	lf, err := blockio.Open(LambdaPath(cfg.Dir, cfg.Varname, cfg.TimeStep), blockio.ReadMode,
		blockVoxels, [3]int{dim0[0], dim0[1], dim0[2]}, 1)
	if err != nil {
		return nil, err
	}
	r := &Reader{cfg: cfg, lf: lf, gamma: map[int]*blockio.File{}}
	factor := blockio.GammaFactor(true)
	for level := 1; level <= cfg.Grid.LMax; level++ {
		parentDim := cfg.Grid.BlockDims(level - 1)
		f, err := blockio.Open(GammaPath(cfg.Dir, cfg.Varname, cfg.TimeStep, level), blockio.ReadMode,
			blockVoxels, [3]int{parentDim[0], parentDim[1], parentDim[2]}, factor)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.gamma[level] = f
	}
	return r, nil
}

// Close closes every open stream.
func (r *Reader) Close() error {
	var err error
	if r.lf != nil {
		err = r.lf.Close()
	}
	for _, f := range r.gamma {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// BlockReadRegion reads the block-coordinate range [bmin,bmax] at the
// given refinement level, per spec.md §4.4. When unblock is true the
// result is scattered into a dense, row-major voxel buffer; otherwise
// it is the blocks concatenated in row-major block order.
func (r *Reader) BlockReadRegion(level int, bmin, bmax vdc.Dim, unblock bool) ([]float32, error) {
	if level < 0 || level > r.cfg.Grid.LMax {
		return nil, vdcerr.New("region.Reader.BlockReadRegion", vdcerr.InvalidRegion, fmt.Errorf("level %d out of range [0,%d]", level, r.cfg.Grid.LMax))
	}
	bminA, bmaxA := [3]int(bmin), [3]int(bmax)
	if err := validBox(bminA, bmaxA); err != nil {
		return nil, err
	}

	bmin0, bmax0 := scaleDown(bminA, bmaxA, level)
	dim0 := [3]int{bmax0[0] - bmin0[0] + 1, bmax0[1] - bmin0[1] + 1, bmax0[2] - bmin0[2] + 1}
	current := newBlockGrid(dim0, bmin0)
	for z := 0; z < dim0[2]; z++ {
		for y := 0; y < dim0[1]; y++ {
			for x := 0; x < dim0[0]; x++ {
				blk, err := r.lf.ReadBlock(bmin0[0]+x, bmin0[1]+y, bmin0[2]+z)
				if err != nil {
					return nil, err
				}
				current.set(x, y, z, blk)
			}
		}
	}

	for l := 1; l <= level; l++ {
		next, err := r.expandOneLevel(l, current)
		if err != nil {
			return nil, err
		}
		lo, hi := scaleDown(bminA, bmaxA, level-l)
		current = next.slice(lo, hi)
	}

	if !unblock {
		out := make([]float32, 0, len(current.blk)*r.cfg.Grid.Block.Mul())
		for _, b := range current.blk {
			out = append(out, b...)
		}
		return out, nil
	}
	return r.unblockGrid(current), nil
}

// expandOneLevel reads the gamma group for every coarse coordinate in
// coarse and runs Inverse3D to produce the next-finer lambda grid.
func (r *Reader) expandOneLevel(level int, coarse *blockGrid) (*blockGrid, error) {
	gf, ok := r.gamma[level]
	if !ok {
		return nil, vdcerr.New("region.Reader.expandOneLevel", vdcerr.InvalidVariable, fmt.Errorf("no gamma stream for level %d", level))
	}
	fdim := [3]int{coarse.dim[0] * 2, coarse.dim[1] * 2, coarse.dim[2] * 2}
	fbase := [3]int{coarse.base[0] * 2, coarse.base[1] * 2, coarse.base[2] * 2}
	fine := newBlockGrid(fdim, fbase)
	for cz := 0; cz < coarse.dim[2]; cz++ {
		for cy := 0; cy < coarse.dim[1]; cy++ {
			for cx := 0; cx < coarse.dim[0]; cx++ {
				abs := [3]int{coarse.base[0] + cx, coarse.base[1] + cy, coarse.base[2] + cz}
				lambda := coarse.get(cx, cy, cz)
				flat, err := gf.ReadBlock(abs[0], abs[1], abs[2])
				if err != nil {
					return nil, err
				}
				blockVoxels := len(lambda)
				var src [8][]float32
				src[0] = lambda
				for i := 0; i < 7; i++ {
					src[i+1] = flat[i*blockVoxels : (i+1)*blockVoxels]
				}
				blockDim := cubeRoot(blockVoxels)
				out, err := wavelet.Inverse3D(r.cfg.Kind, blockDim, src)
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

// unblockGrid scatters a blockGrid's contents into a dense, row-major
// voxel buffer.
func (r *Reader) unblockGrid(g *blockGrid) []float32 {
	block := [3]int(r.cfg.Grid.Block)
	dims := [3]int{g.dim[0] * block[0], g.dim[1] * block[1], g.dim[2] * block[2]}
	out := make([]float32, dims[0]*dims[1]*dims[2])
	for bz := 0; bz < g.dim[2]; bz++ {
		for by := 0; by < g.dim[1]; by++ {
			for bx := 0; bx < g.dim[0]; bx++ {
				blk := g.get(bx, by, bz)
				for lz := 0; lz < block[2]; lz++ {
					z := bz*block[2] + lz
					for ly := 0; ly < block[1]; ly++ {
						y := by*block[1] + ly
						for lx := 0; lx < block[0]; lx++ {
							x := bx*block[0] + lx
							out[x+dims[0]*(y+dims[1]*z)] = blk[lx+block[0]*(ly+block[1]*lz)]
						}
					}
				}
			}
		}
	}
	return out
}

// ReadRegion reads the voxel sub-region [min,max] at the given
// refinement level, rounding out to block alignment internally and
// cropping the unblocked result back down to the caller's exact
// bounds.
func (r *Reader) ReadRegion(min, max vdc.Dim, level int) ([]float32, error) {
	minA, maxA := [3]int(min), [3]int(max)
	if err := validBox(minA, maxA); err != nil {
		return nil, err
	}
	block := [3]int(r.cfg.Grid.Block)
	var bmin, bmax [3]int
	for i := 0; i < 3; i++ {
		bmin[i] = floorDiv(minA[i], block[i])
		bmax[i] = floorDiv(maxA[i], block[i])
	}
	blocked, err := r.BlockReadRegion(level, vdc.Dim(bmin), vdc.Dim(bmax), true)
	if err != nil {
		return nil, err
	}
	blockedDims := [3]int{(bmax[0] - bmin[0] + 1) * block[0], (bmax[1] - bmin[1] + 1) * block[1], (bmax[2] - bmin[2] + 1) * block[2]}
	origin := [3]int{bmin[0] * block[0], bmin[1] * block[1], bmin[2] * block[2]}
	dims := [3]int{maxA[0] - minA[0] + 1, maxA[1] - minA[1] + 1, maxA[2] - minA[2] + 1}
	out := make([]float32, dims[0]*dims[1]*dims[2])
	for z := 0; z < dims[2]; z++ {
		bz := minA[2] + z - origin[2]
		for y := 0; y < dims[1]; y++ {
			by := minA[1] + y - origin[1]
			for x := 0; x < dims[0]; x++ {
				bx := minA[0] + x - origin[0]
				out[x+dims[0]*(y+dims[1]*z)] = blocked[bx+blockedDims[0]*(by+blockedDims[1]*bz)]
			}
		}
	}
	return out, nil
}
