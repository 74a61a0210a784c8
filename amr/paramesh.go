package amr

import (
	"fmt"

	"github.com/vaporvdc/vdc"
	"github.com/vaporvdc/vdc/internal/vdcerr"
)

// Paramesh neighbor-table column indices. A Paramesh "gid" record for
// block i is a 15-element row: the six face neighbors (boundary faces
// carry an id <= -20), this block's parent (-1 if the block is a base
// block), and the ids of its eight children (-1 if the block is a
// leaf).
const (
	gidXMinus = 0
	gidXPlus  = 1
	gidYMinus = 2
	gidYPlus  = 3
	gidZMinus = 4
	gidZPlus  = 5
	gidParent = 6
	gidChild0 = 7
)

const boundaryThreshold = -20

// ImportParamesh builds an AMRTree from a Paramesh-style neighbor
// table: gids is one 15-element row per block (see the gid* column
// constants); a parent or child id of -1 means "absent", and face
// neighbors <= -20 mark a domain boundary.
func ImportParamesh(gids [][15]int) (*AMRTree, error) {
	baseBlocks, baseDim, err := parameshBaseBlocks(gids)
	if err != nil {
		return nil, err
	}
	tree := NewAMRTree(baseDim)
	for idx, pid := range baseBlocks {
		if err := parameshRefineBranch(tree.Branches[idx], pid, gids); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// parameshBaseBlocks finds the blocks with no parent (the base grid),
// locates the corner block with the smallest coordinates by walking
// its boundary neighbor faces, then orders the remaining base blocks
// in XYZ row-major order by following the X/Y/Z neighbor links from
// that corner, per the Paramesh import algorithm.
func parameshBaseBlocks(gids [][15]int) ([]int, vdc.Dim, error) {
	var candidates []int
	for i, g := range gids {
		if g[gidParent] == -1 {
			candidates = append(candidates, i)
		}
	}
	isBase := make(map[int]bool, len(candidates))
	for _, c := range candidates {
		isBase[c] = true
	}

	first := -1
	for _, c := range candidates {
		g := gids[c]
		if g[gidXMinus] <= boundaryThreshold && g[gidYMinus] <= boundaryThreshold && g[gidZMinus] <= boundaryThreshold {
			first = c
			break
		}
	}
	if first == -1 {
		return nil, vdc.Dim{}, vdcerr.New("amr.ImportParamesh", vdcerr.FormatError, fmt.Errorf("no corner base block found"))
	}

	dim := vdc.Dim{}
	dim[0] = countAlongAxis(gids, first, gidXPlus)
	dim[1] = countAlongAxis(gids, first, gidYPlus)
	dim[2] = countAlongAxis(gids, first, gidZPlus)
	if dim.Mul() != len(candidates) {
		return nil, vdc.Dim{}, vdcerr.New("amr.ImportParamesh", vdcerr.FormatError, fmt.Errorf("base grid %v holds %d cells, want %d", dim, dim.Mul(), len(candidates)))
	}

	ordered := make([]int, 0, dim.Mul())
	ordered = append(ordered, first)
	idx := 0
	for z := 0; z < dim[2]; z++ {
		for y := 0; y < dim[1]; y++ {
			for x := 0; x < dim[0]; x++ {
				nbr := gids[ordered[idx]][gidXPlus]
				if x < dim[0]-1 {
					if nbr-1 < 0 || !isBase[nbr-1] {
						return nil, vdc.Dim{}, vdcerr.New("amr.ImportParamesh", vdcerr.FormatError, fmt.Errorf("invalid Paramesh neighbor record at (%d,%d,%d)", x, y, z))
					}
					ordered = append(ordered, nbr-1)
				} else if nbr > boundaryThreshold {
					return nil, vdc.Dim{}, vdcerr.New("amr.ImportParamesh", vdcerr.FormatError, fmt.Errorf("expected X boundary at x=%d", x))
				}
				idx++
			}
			if y < dim[1]-1 {
				nbr := gids[ordered[idx-dim[0]]][gidYPlus]
				if nbr-1 < 0 || !isBase[nbr-1] {
					return nil, vdc.Dim{}, vdcerr.New("amr.ImportParamesh", vdcerr.FormatError, fmt.Errorf("invalid Paramesh neighbor record at row y=%d", y))
				}
				ordered = append(ordered, nbr-1)
			}
		}
		if z < dim[2]-1 {
			nbr := gids[ordered[idx-dim[0]*dim[1]]][gidZPlus]
			if nbr-1 < 0 || !isBase[nbr-1] {
				return nil, vdc.Dim{}, vdcerr.New("amr.ImportParamesh", vdcerr.FormatError, fmt.Errorf("invalid Paramesh neighbor record at plane z=%d", z))
			}
			ordered = append(ordered, nbr-1)
		}
	}
	return ordered, dim, nil
}

func countAlongAxis(gids [][15]int, start, nbrCol int) int {
	count := 1
	idx := start
	for {
		nbr := gids[idx][nbrCol]
		if nbr <= boundaryThreshold {
			break
		}
		idx = nbr - 1
		count++
	}
	return count
}

// parameshRefineBranch walks the Paramesh tree rooted at gid pid
// breadth-first, issuing RefineCell calls on branch to reproduce the
// same topology: children are refined in the order Paramesh lists
// them, one tree level at a time, so the resulting arena order matches
// Paramesh's own breadth-first block order.
func parameshRefineBranch(branch *AMRTreeBranch, pid int, gids [][15]int) error {
	if gids[pid][gidChild0] < 0 {
		return nil
	}
	frontierGID := []int{pid}
	frontierLocal := []int{0}
	for len(frontierGID) > 0 {
		var nextGID, nextLocal []int
		for i, gid := range frontierGID {
			if gids[gid][gidChild0] < 0 {
				continue
			}
			firstChild, err := branch.RefineCell(frontierLocal[i])
			if err != nil {
				return vdcerr.New("amr.ImportParamesh", vdcerr.FormatError, err)
			}
			for j := 0; j < 8; j++ {
				nextGID = append(nextGID, gids[gid][gidChild0+j]-1)
				nextLocal = append(nextLocal, firstChild+j)
			}
		}
		frontierGID, frontierLocal = nextGID, nextLocal
	}
	return nil
}
