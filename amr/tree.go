// Package amr implements the adaptive octree data container: a base
// grid of root cells, each the root of an AMRTreeBranch octree grown
// only by RefineCell, plus the AMRData payload and NetCDF archive
// format that persists it. Per the repository's cyclic-graph design
// note, a branch is a single arena of cells addressed by integer
// index — parent links are explicit, children are implicit (the
// first child's index plus seven consecutive slots) — rather than a
// pointer-linked tree.
package amr

import (
	"fmt"

	"github.com/vaporvdc/vdc"
	"github.com/vaporvdc/vdc/internal/vdcerr"
)

// CellID identifies one cell in an AMRTree: bits 32-47 name the root
// cell's index in the base grid, the low 32 bits name the cell's
// breadth-first arena index within that branch; the top 16 bits are
// zero.
type CellID uint64

// NewCellID packs a base-grid index and branch-local node index into
// one CellID.
func NewCellID(baseIdx uint16, nodeIdx uint32) CellID {
	return CellID(uint64(baseIdx)<<32 | uint64(nodeIdx))
}

// Decode unpacks a CellID into its base-grid index and node index.
func (c CellID) Decode() (baseIdx uint16, nodeIdx uint32) {
	return uint16(c >> 32), uint32(c)
}

// AMRTreeBranch is one octree rooted at a base-grid cell. Node 0 is
// always the root.
type AMRTreeBranch struct {
	parent     []int32 // parent[i]: local index of i's parent, -1 for the root
	octant     []int8  // octant[i]: which of the 8 children of its parent i is
	firstChild []int32 // firstChild[i]: local index of i's first child, -1 if a leaf
}

// NewAMRTreeBranch returns a branch containing only its unrefined root.
func NewAMRTreeBranch() *AMRTreeBranch {
	return &AMRTreeBranch{
		parent:     []int32{-1},
		octant:     []int8{0},
		firstChild: []int32{-1},
	}
}

// NumCells returns the number of arena slots (leaf and internal) in
// the branch.
func (b *AMRTreeBranch) NumCells() int { return len(b.parent) }

// RefineCell allocates eight children for localIdx, appended in
// breadth-first order, and returns the first child's local index.
func (b *AMRTreeBranch) RefineCell(localIdx int) (int, error) {
	if localIdx < 0 || localIdx >= len(b.parent) {
		return -1, vdcerr.New("amr.AMRTreeBranch.RefineCell", vdcerr.InvalidRegion, fmt.Errorf("cell %d out of range", localIdx))
	}
	if b.firstChild[localIdx] != -1 {
		return -1, vdcerr.New("amr.AMRTreeBranch.RefineCell", vdcerr.FormatError, fmt.Errorf("cell %d is already refined", localIdx))
	}
	first := len(b.parent)
	for oct := 0; oct < 8; oct++ {
		b.parent = append(b.parent, int32(localIdx))
		b.octant = append(b.octant, int8(oct))
		b.firstChild = append(b.firstChild, -1)
	}
	b.firstChild[localIdx] = int32(first)
	return first, nil
}

// GetCellChildren returns the local index of localIdx's first child,
// or -1 if localIdx is a leaf.
func (b *AMRTreeBranch) GetCellChildren(localIdx int) int { return int(b.firstChild[localIdx]) }

// GetCellParent returns the local index of localIdx's parent, or -1
// for the root.
func (b *AMRTreeBranch) GetCellParent(localIdx int) int { return int(b.parent[localIdx]) }

// GetCellLevel returns localIdx's depth from the branch root.
func (b *AMRTreeBranch) GetCellLevel(localIdx int) int {
	level := 0
	for b.parent[localIdx] != -1 {
		localIdx = int(b.parent[localIdx])
		level++
	}
	return level
}

// GetCellLocation returns localIdx's coordinate, in blocks at its own
// level, within the branch.
func (b *AMRTreeBranch) GetCellLocation(localIdx int) (x, y, z int) {
	var octants []int8
	for localIdx != 0 {
		octants = append(octants, b.octant[localIdx])
		localIdx = int(b.parent[localIdx])
	}
	for i := len(octants) - 1; i >= 0; i-- {
		oct := octants[i]
		x = x*2 + int(oct&1)
		y = y*2 + int((oct>>1)&1)
		z = z*2 + int((oct>>2)&1)
	}
	return x, y, z
}

// IsLeaf reports whether localIdx has no children.
func (b *AMRTreeBranch) IsLeaf(localIdx int) bool { return b.firstChild[localIdx] == -1 }

// ParentTable returns the packed parent-index array used to
// serialize the branch (spec.md §4.5).
func (b *AMRTreeBranch) ParentTable() []int32 { return append([]int32(nil), b.parent...) }

// BranchFromParentTable reconstructs a branch's full topology
// (octant and first-child indices) from a serialized parent table.
func BranchFromParentTable(parents []int32) (*AMRTreeBranch, error) {
	if len(parents) == 0 || parents[0] != -1 {
		return nil, vdcerr.New("amr.BranchFromParentTable", vdcerr.FormatError, fmt.Errorf("parent table must start with a root (-1)"))
	}
	firstChild := make([]int32, len(parents))
	octant := make([]int8, len(parents))
	for i := range firstChild {
		firstChild[i] = -1
	}
	childrenOf := map[int32][]int32{}
	for i := 1; i < len(parents); i++ {
		p := parents[i]
		if p < 0 || int(p) >= len(parents) {
			return nil, vdcerr.New("amr.BranchFromParentTable", vdcerr.FormatError, fmt.Errorf("cell %d: parent index %d out of range", i, p))
		}
		childrenOf[p] = append(childrenOf[p], int32(i))
	}
	for p, kids := range childrenOf {
		if len(kids) != 8 {
			return nil, vdcerr.New("amr.BranchFromParentTable", vdcerr.FormatError, fmt.Errorf("cell %d has %d children, want 0 or 8", p, len(kids)))
		}
		firstChild[p] = kids[0]
		for j, k := range kids {
			octant[k] = int8(j)
		}
	}
	return &AMRTreeBranch{parent: append([]int32(nil), parents...), octant: octant, firstChild: firstChild}, nil
}

// AMRTree is a base grid of AMRTreeBranch roots, row-major over
// (Kx,Ky,Kz).
type AMRTree struct {
	BaseDim  vdc.Dim
	Branches []*AMRTreeBranch
}

// NewAMRTree allocates an unrefined tree over a base grid of
// dimensions baseDim.
func NewAMRTree(baseDim vdc.Dim) *AMRTree {
	t := &AMRTree{BaseDim: baseDim, Branches: make([]*AMRTreeBranch, baseDim.Mul())}
	for i := range t.Branches {
		t.Branches[i] = NewAMRTreeBranch()
	}
	return t
}

// BaseIndex returns the row-major base-grid index of (x,y,z).
func (t *AMRTree) BaseIndex(x, y, z int) int {
	return x + t.BaseDim[0]*(y+t.BaseDim[1]*z)
}

func (t *AMRTree) branch(cid CellID) (*AMRTreeBranch, uint32, error) {
	baseIdx, nodeIdx := cid.Decode()
	if int(baseIdx) >= len(t.Branches) {
		return nil, 0, vdcerr.New("amr.AMRTree", vdcerr.InvalidRegion, fmt.Errorf("cell %v: base index %d out of range", cid, baseIdx))
	}
	return t.Branches[baseIdx], nodeIdx, nil
}

// RefineCell refines the cell named by cid and returns the CellID of
// its first child.
func (t *AMRTree) RefineCell(cid CellID) (CellID, error) {
	b, nodeIdx, err := t.branch(cid)
	if err != nil {
		return 0, err
	}
	first, err := b.RefineCell(int(nodeIdx))
	if err != nil {
		return 0, err
	}
	baseIdx, _ := cid.Decode()
	return NewCellID(baseIdx, uint32(first)), nil
}

// GetCellChildren returns the CellID of cid's first child and true,
// or false if cid is a leaf.
func (t *AMRTree) GetCellChildren(cid CellID) (CellID, bool) {
	b, nodeIdx, err := t.branch(cid)
	if err != nil {
		return 0, false
	}
	first := b.GetCellChildren(int(nodeIdx))
	if first == -1 {
		return 0, false
	}
	baseIdx, _ := cid.Decode()
	return NewCellID(baseIdx, uint32(first)), true
}

// GetCellParent returns the CellID of cid's parent and true, or
// false if cid is a branch root.
func (t *AMRTree) GetCellParent(cid CellID) (CellID, bool) {
	b, nodeIdx, err := t.branch(cid)
	if err != nil {
		return 0, false
	}
	p := b.GetCellParent(int(nodeIdx))
	if p == -1 {
		return 0, false
	}
	baseIdx, _ := cid.Decode()
	return NewCellID(baseIdx, uint32(p)), true
}

// GetCellLevel returns cid's depth from its branch root.
func (t *AMRTree) GetCellLevel(cid CellID) int {
	b, nodeIdx, err := t.branch(cid)
	if err != nil {
		return -1
	}
	return b.GetCellLevel(int(nodeIdx))
}

// GetCellLocation returns cid's coordinate in blocks at its own
// level, within its branch.
func (t *AMRTree) GetCellLocation(cid CellID) vdc.Dim {
	b, nodeIdx, err := t.branch(cid)
	if err != nil {
		return vdc.Dim{}
	}
	x, y, z := b.GetCellLocation(int(nodeIdx))
	return vdc.Dim{x, y, z}
}

// RefinementLevel returns the deepest level reached by any cell in
// the tree.
func (t *AMRTree) RefinementLevel() int {
	max := 0
	for _, b := range t.Branches {
		for i := range b.parent {
			if l := b.GetCellLevel(i); l > max {
				max = l
			}
		}
	}
	return max
}

// leaves returns the local indices of b's leaf cells in breadth-first
// order (the order they were appended in, filtered to leaves).
func leaves(b *AMRTreeBranch) []int {
	var out []int
	for i := range b.parent {
		if b.firstChild[i] == -1 {
			out = append(out, i)
		}
	}
	return out
}
