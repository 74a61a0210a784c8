// Package region implements the sub-region reader and writer that
// drive the wavelet kernels over axis-aligned voxel ranges: the
// writer pads a caller's region out to superblock alignment and
// recursively reduces it level by level into a lambda block plus the
// gamma streams for every intervening refinement level; the reader
// undoes the same recursion down to whichever level the caller asked
// for, optionally unblocking the result into a dense voxel buffer.
package region

import (
	"fmt"
	"sync"

	"github.com/alitto/pond"

	"github.com/vaporvdc/vdc"
	"github.com/vaporvdc/vdc/blockio"
	"github.com/vaporvdc/vdc/internal/vdcerr"
	"github.com/vaporvdc/vdc/wavelet"
)

// WriterConfig describes the variable a Writer will populate.
type WriterConfig struct {
	Dir      string
	Varname  string
	TimeStep int
	Grid     vdc.GridDims
	Kind     wavelet.Kind
}

// Writer writes voxel sub-regions of one variable at its native
// refinement level, per spec.md §4.3.
type Writer struct {
	cfg    WriterConfig
	gamma  map[int]*blockio.File // level -> gamma stream (levels 1..LMax)
	ranges *blockio.RangeTable
	pool   *pond.WorkerPool
}

// NewWriter opens (creating if necessary) the gamma stream for every
// refinement level of cfg.Grid. The level-0 lambda stream is opened
// by each WriteRegion call, once its level-by-level reduction has run.
// codecThreads, when > 0, parallelizes the per-superblock forward
// transform with a worker pool (spec.md §5's "optional data-parallel
// codec threads internal to the wavelet-block writer").
func NewWriter(cfg WriterConfig, codecThreads int) (*Writer, error) {
	w := &Writer{cfg: cfg, gamma: map[int]*blockio.File{}, ranges: blockio.NewRangeTable()}
	blockVoxels := cfg.Grid.Block.Mul()
	factor := blockio.GammaFactor(true)
	for level := 1; level <= cfg.Grid.LMax; level++ {
		parentDim := cfg.Grid.BlockDims(level - 1)
		f, err := blockio.Open(GammaPath(cfg.Dir, cfg.Varname, cfg.TimeStep, level), blockio.WriteMode,
			blockVoxels, [3]int{parentDim[0], parentDim[1], parentDim[2]}, factor)
		if err != nil {
			return nil, err
		}
		w.gamma[level] = f
	}
	if codecThreads > 0 {
		w.pool = pond.New(codecThreads, 0, pond.MinWorkers(codecThreads))
	}
	return w, nil
}

// WriteRegion writes data (row-major over [min,max], x fastest) into
// the variable's finest refinement level.
func (w *Writer) WriteRegion(min, max vdc.Dim, data []float32) error {
	minA, maxA := [3]int(min), [3]int(max)
	if err := validBox(minA, maxA); err != nil {
		return err
	}
	n := w.cfg.Grid.N
	block := w.cfg.Grid.Block
	amin, amax := alignToSuperblock(minA, maxA, [3]int(block), [3]int(n))
	padded := edgeExtend(minA, maxA, amin, amax, data)

	fineDim := [3]int{
		(amax[0] - amin[0] + 1) / block[0],
		(amax[1] - amin[1] + 1) / block[1],
		(amax[2] - amin[2] + 1) / block[2],
	}
	fineBase := [3]int{amin[0] / block[0], amin[1] / block[1], amin[2] / block[2]}
	fine := newBlockGrid(fineDim, fineBase)
	adims := [3]int{amax[0] - amin[0] + 1, amax[1] - amin[1] + 1, amax[2] - amin[2] + 1}
	brick(fine, padded, adims, [3]int(block))

	level := w.cfg.Grid.LMax
	w.recordFinestRanges(level, fine, minA, maxA, data)

	for level > 0 {
		coarse, writes, err := w.reduceLevel(fine)
		if err != nil {
			return err
		}
		gf := w.gamma[level]
		for _, gw := range writes {
			flat := make([]float32, 0, len(gw.subs)*len(gw.subs[0]))
			for _, s := range gw.subs {
				flat = append(flat, s...)
			}
			if err := gf.WriteBlock(gw.coord[0], gw.coord[1], gw.coord[2], flat); err != nil {
				return err
			}
		}
		fine = coarse
		level--
	}

	lambdaPath := LambdaPath(w.cfg.Dir, w.cfg.Varname, w.cfg.TimeStep)
	dim0 := w.cfg.Grid.BlockDims(0)
	lf, err := blockio.Open(lambdaPath, blockio.WriteMode, block.Mul(), [3]int{dim0[0], dim0[1], dim0[2]}, 1)
	if err != nil {
		return err
	}
	defer lf.Close()
	for z := 0; z < fine.dim[2]; z++ {
		for y := 0; y < fine.dim[1]; y++ {
			for x := 0; x < fine.dim[0]; x++ {
				if err := lf.WriteBlock(fine.base[0]+x, fine.base[1]+y, fine.base[2]+z, fine.get(x, y, z)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// brick copies a padded dense voxel array into a blockGrid of
// equally sized cubic blocks.
func brick(g *blockGrid, padded []float32, adims, block [3]int) {
	for bz := 0; bz < g.dim[2]; bz++ {
		for by := 0; by < g.dim[1]; by++ {
			for bx := 0; bx < g.dim[0]; bx++ {
				blk := make([]float32, block[0]*block[1]*block[2])
				for lz := 0; lz < block[2]; lz++ {
					z := bz*block[2] + lz
					for ly := 0; ly < block[1]; ly++ {
						y := by*block[1] + ly
						for lx := 0; lx < block[0]; lx++ {
							x := bx*block[0] + lx
							blk[lx+block[0]*(ly+block[1]*lz)] = padded[x+adims[0]*(y+adims[1]*z)]
						}
					}
				}
				g.set(bx, by, bz, blk)
			}
		}
	}
}

// recordFinestRanges updates the min/max sidecar for finest-level
// blocks using only the voxels the caller actually supplied (not the
// edge-extension padding), per spec.md §4.3 step 5.
func (w *Writer) recordFinestRanges(level int, fine *blockGrid, min, max [3]int, data []float32) {
	block := [3]int(w.cfg.Grid.Block)
	dims := [3]int{max[0] - min[0] + 1, max[1] - min[1] + 1, max[2] - min[2] + 1}
	for z := 0; z < fine.dim[2]; z++ {
		for y := 0; y < fine.dim[1]; y++ {
			for x := 0; x < fine.dim[0]; x++ {
				bx, by, bz := fine.base[0]+x, fine.base[1]+y, fine.base[2]+z
				var supplied []float32
				for lz := 0; lz < block[2]; lz++ {
					vz := bz*block[2] + lz
					if vz < min[2] || vz > max[2] {
						continue
					}
					for ly := 0; ly < block[1]; ly++ {
						vy := by*block[1] + ly
						if vy < min[1] || vy > max[1] {
							continue
						}
						for lx := 0; lx < block[0]; lx++ {
							vx := bx*block[0] + lx
							if vx < min[0] || vx > max[0] {
								continue
							}
							supplied = append(supplied, data[(vx-min[0])+dims[0]*((vy-min[1])+dims[1]*(vz-min[2]))])
						}
					}
				}
				if len(supplied) > 0 {
					w.ranges.UpdateFromVoxels(level, bx, by, bz, supplied)
				}
			}
		}
	}
}

// reduceLevel runs reduceLevel3D, optionally fanning the per-superblock
// transforms out across the writer's codec worker pool.
func (w *Writer) reduceLevel(fine *blockGrid) (*blockGrid, []gammaWrite, error) {
	if w.pool == nil {
		return reduceLevel3D(w.cfg.Kind, fine)
	}
	cdim := [3]int{fine.dim[0] / 2, fine.dim[1] / 2, fine.dim[2] / 2}
	cbase := [3]int{fine.base[0] / 2, fine.base[1] / 2, fine.base[2] / 2}
	coarse := newBlockGrid(cdim, cbase)
	n := cdim[0] * cdim[1] * cdim[2]
	writes := make([]gammaWrite, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		cx, cy, cz := i%cdim[0], (i/cdim[0])%cdim[1], i/(cdim[0]*cdim[1])
		wg.Add(1)
		w.pool.Submit(func() {
			defer wg.Done()
			var src [8][]float32
			for oct := 0; oct < 8; oct++ {
				ox, oy, oz := oct&1, (oct>>1)&1, (oct>>2)&1
				src[oct] = fine.get(2*cx+ox, 2*cy+oy, 2*cz+oz)
			}
			blockDim := cubeRoot(len(src[0]))
			out, err := wavelet.Forward3D(w.cfg.Kind, blockDim, src)
			if err != nil {
				errs[i] = err
				return
			}
			coarse.set(cx, cy, cz, out[0])
			writes[i] = gammaWrite{
				coord: [3]int{cbase[0] + cx, cbase[1] + cy, cbase[2] + cz},
				subs:  [][]float32{out[1], out[2], out[3], out[4], out[5], out[6], out[7]},
			}
		})
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, nil, err
		}
	}
	return coarse, writes, nil
}

// CloseVariable propagates min/max from finest to coarsest level,
// persists the sidecar table, and closes every open gamma stream.
func (w *Writer) CloseVariable() error {
	w.ranges.PropagateUp(w.cfg.Grid.LMax, 8)
	if err := w.ranges.Save(SidecarPath(w.cfg.Dir, w.cfg.Varname, w.cfg.TimeStep)); err != nil {
		return err
	}
	for _, f := range w.gamma {
		if err := f.Close(); err != nil {
			return err
		}
	}
	if w.pool != nil {
		w.pool.StopAndWait()
	}
	return nil
}

// DataRange returns the variable-wide (min,max) across every
// finest-level block, valid only after CloseVariable.
func (w *Writer) DataRange() (min, max float32, err error) {
	mn, mx, ok := w.ranges.DataRange(w.cfg.Grid.LMax)
	if !ok {
		return 0, 0, vdcerr.New("region.Writer.DataRange", vdcerr.InvalidVariable, fmt.Errorf("no blocks written"))
	}
	return mn, mx, nil
}
