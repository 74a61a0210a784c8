package amr

// AMRData is the floating-point payload attached to one AMRTree: one
// contiguous arena per branch, cellDim values per cell, addressed by
// the same local index the tree uses. Storing a branch's cells in one
// slice (rather than one allocation per leaf) keeps sibling cells
// adjacent in memory and lets the archive writer stream a branch with
// a single read per cell instead of a pointer chase.
type AMRData struct {
	tree    *AMRTree
	cellDim int
	arena   [][]float32 // arena[baseIdx][localIdx*cellDim : localIdx*cellDim+cellDim]
}

// NewAMRData allocates a payload for tree with cellDim scalar values
// per cell.
func NewAMRData(tree *AMRTree, cellDim int) *AMRData {
	d := &AMRData{tree: tree, cellDim: cellDim, arena: make([][]float32, len(tree.Branches))}
	for i, b := range tree.Branches {
		d.arena[i] = make([]float32, b.NumCells()*cellDim)
	}
	return d
}

// Sync grows every branch's arena to match the tree's current cell
// count, after RefineCell calls the AMRData predates. New cells start
// zeroed.
func (d *AMRData) Sync() {
	for i, b := range d.tree.Branches {
		want := b.NumCells() * d.cellDim
		if len(d.arena[i]) < want {
			grown := make([]float32, want)
			copy(grown, d.arena[i])
			d.arena[i] = grown
		}
	}
}

// SetCell stores vals (length cellDim) at cid.
func (d *AMRData) SetCell(cid CellID, vals []float32) {
	baseIdx, nodeIdx := cid.Decode()
	off := int(nodeIdx) * d.cellDim
	copy(d.arena[baseIdx][off:off+d.cellDim], vals)
}

// GetCell returns the cellDim values stored at cid.
func (d *AMRData) GetCell(cid CellID) []float32 {
	baseIdx, nodeIdx := cid.Decode()
	off := int(nodeIdx) * d.cellDim
	return d.arena[baseIdx][off : off+d.cellDim]
}

// LeafBlocks returns every leaf cell's payload across the whole tree,
// in per-branch breadth-first order, branches visited in base-grid
// row-major order — the enumeration the NetCDF archive writes.
func (d *AMRData) LeafBlocks() [][]float32 {
	var out [][]float32
	for baseIdx, b := range d.tree.Branches {
		for _, local := range leaves(b) {
			off := local * d.cellDim
			out = append(out, d.arena[baseIdx][off:off+d.cellDim])
		}
	}
	return out
}

// LeafCellIDs returns the CellID of every leaf cell across the whole
// tree, in the same order as LeafBlocks.
func (d *AMRData) LeafCellIDs() []CellID {
	var out []CellID
	for baseIdx, b := range d.tree.Branches {
		for _, local := range leaves(b) {
			out = append(out, NewCellID(uint16(baseIdx), uint32(local)))
		}
	}
	return out
}
