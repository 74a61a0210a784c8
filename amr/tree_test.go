package amr

import (
	"path/filepath"
	"testing"

	"github.com/vaporvdc/vdc"
)

func TestRefineCellProducesEightBFSChildren(t *testing.T) {
	b := NewAMRTreeBranch()
	first, err := b.RefineCell(0)
	if err != nil {
		t.Fatal(err)
	}
	if first != 1 {
		t.Fatalf("first child local index = %d, want 1", first)
	}
	if b.NumCells() != 9 {
		t.Fatalf("NumCells = %d, want 9", b.NumCells())
	}
	for i := 1; i <= 8; i++ {
		if b.GetCellParent(i) != 0 {
			t.Errorf("cell %d parent = %d, want 0", i, b.GetCellParent(i))
		}
		if b.GetCellLevel(i) != 1 {
			t.Errorf("cell %d level = %d, want 1", i, b.GetCellLevel(i))
		}
	}
	if _, err := b.RefineCell(0); err == nil {
		t.Error("refining an already-refined cell should error")
	}
}

func TestParentTableRoundTrip(t *testing.T) {
	b := NewAMRTreeBranch()
	first, err := b.RefineCell(0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.RefineCell(first); err != nil {
		t.Fatal(err)
	}
	table := b.ParentTable()
	rebuilt, err := BranchFromParentTable(table)
	if err != nil {
		t.Fatal(err)
	}
	if rebuilt.NumCells() != b.NumCells() {
		t.Fatalf("rebuilt NumCells = %d, want %d", rebuilt.NumCells(), b.NumCells())
	}
	for i := 0; i < b.NumCells(); i++ {
		if rebuilt.GetCellParent(i) != b.GetCellParent(i) {
			t.Errorf("cell %d: rebuilt parent %d, want %d", i, rebuilt.GetCellParent(i), b.GetCellParent(i))
		}
		if rebuilt.GetCellChildren(i) != b.GetCellChildren(i) {
			t.Errorf("cell %d: rebuilt first child %d, want %d", i, rebuilt.GetCellChildren(i), b.GetCellChildren(i))
		}
	}
}

func TestScenarioBAMRRoundTrip(t *testing.T) {
	tree := NewAMRTree(vdc.Dim{2, 1, 1})
	root := NewCellID(0, 0)
	firstChild, err := tree.RefineCell(root)
	if err != nil {
		t.Fatalf("RefineCell: %v", err)
	}
	baseIdx, firstLocal := firstChild.Decode()
	if baseIdx != 0 {
		t.Fatalf("first child base index = %d, want 0", baseIdx)
	}

	data := NewAMRData(tree, 1)
	for i := 0; i < 8; i++ {
		cid := NewCellID(baseIdx, firstLocal+uint32(i))
		data.SetCell(cid, []float32{float32(i)})
	}

	leaves := data.LeafBlocks()
	// Branch 0 contributes 8 leaves (its refined root's children),
	// branch 1 contributes 1 (its unrefined root).
	if len(leaves) != 9 {
		t.Fatalf("LeafBlocks returned %d blocks, want 9", len(leaves))
	}
	for i := 0; i < 8; i++ {
		if leaves[i][0] != float32(i) {
			t.Errorf("leaf %d = %v, want %v", i, leaves[i][0], float32(i))
		}
	}

	if tree.RefinementLevel() != 1 {
		t.Fatalf("RefinementLevel() = %d, want 1", tree.RefinementLevel())
	}
	if _, ok := tree.GetCellChildren(NewCellID(1, 0)); ok {
		t.Fatalf("branch 1 should remain unrefined")
	}

	path := filepath.Join(t.TempDir(), "scenario_b.nc")
	blockDim := vdc.Dim{1, 1, 1}
	if err := WriteArchive(path, data, blockDim, vdc.Dim{0, 0, 0}, vdc.Dim{1, 0, 0}, [2]float32{0, 7}); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	blocks, gotBlockDim, min, max, refLevel, dataRange, err := ReadArchive(path)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if gotBlockDim != blockDim {
		t.Errorf("block dim = %v, want %v", gotBlockDim, blockDim)
	}
	if min != (vdc.Dim{0, 0, 0}) || max != (vdc.Dim{1, 0, 0}) {
		t.Errorf("corners = %v,%v, want {0,0,0},{1,0,0}", min, max)
	}
	if refLevel != 1 {
		t.Errorf("RefinementLevel = %d, want 1", refLevel)
	}
	if dataRange != ([2]float32{0, 7}) {
		t.Errorf("data range = %v, want {0,7}", dataRange)
	}
	if len(blocks) != 9 {
		t.Fatalf("archive holds %d blocks, want 9", len(blocks))
	}
	for i := 0; i < 8; i++ {
		if blocks[i][0] != float32(i) {
			t.Errorf("archive block %d = %v, want %v", i, blocks[i][0], float32(i))
		}
	}
}
