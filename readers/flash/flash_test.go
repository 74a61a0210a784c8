package flash

import (
	"testing"

	"github.com/vaporvdc/vdc"
	"github.com/vaporvdc/vdc/readers"
)

// singleBlockGID is one Paramesh base block with no parent, no
// children, and every face a domain boundary (<=-20), per
// amr.ImportParamesh's gid-column convention.
func singleBlockGID() [15]int {
	var g [15]int
	for i := 0; i < 6; i++ {
		g[i] = -20
	}
	g[6] = -1 // parent
	for i := 7; i < 15; i++ {
		g[i] = -1 // children
	}
	return g
}

func TestOpenSingleBlockSnapshot(t *testing.T) {
	cellDim := vdc.Dim{2, 2, 1}
	snap := Snapshot{
		VarName:  "dens",
		UserTime: 0,
		CellDim:  cellDim,
		Blocks: []Block{
			{GID: singleBlockGID(), Data: []float32{1, 2, 3, 4}},
		},
	}
	r, err := Open([]Snapshot{snap})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := r.GetVariables3D(); len(got) != 1 || got[0] != "dens" {
		t.Fatalf("GetVariables3D = %v", got)
	}
	if dim := r.GetGridDim(); dim != cellDim {
		t.Fatalf("GetGridDim = %v, want %v", dim, cellDim)
	}
}

func TestReadSliceReproducesBlockPayload(t *testing.T) {
	cellDim := vdc.Dim{2, 2, 1}
	snap := Snapshot{
		VarName: "dens",
		CellDim: cellDim,
		Blocks: []Block{
			{GID: singleBlockGID(), Data: []float32{1, 2, 3, 4}},
		},
	}
	r, err := Open([]Snapshot{snap})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	h, err := r.OpenVariableRead(0, "dens", 0)
	if err != nil {
		t.Fatalf("OpenVariableRead: %v", err)
	}
	buf := make([]float32, cellDim[0]*cellDim[1])
	status, err := r.ReadSlice(h, buf)
	if err != nil {
		t.Fatalf("ReadSlice: %v", err)
	}
	if status != readers.OK {
		t.Fatalf("status = %v, want OK", status)
	}
	want := []float32{1, 2, 3, 4}
	for i, w := range want {
		if buf[i] != w {
			t.Errorf("index %d: got %v, want %v", i, buf[i], w)
		}
	}
	status, err = r.ReadSlice(h, buf)
	if err != nil {
		t.Fatalf("trailing ReadSlice: %v", err)
	}
	if status != readers.EOF {
		t.Fatalf("trailing ReadSlice status = %v, want EOF", status)
	}
}

func TestOpenRejectsUnknownVariable(t *testing.T) {
	cellDim := vdc.Dim{1, 1, 1}
	snap := Snapshot{
		VarName: "dens",
		CellDim: cellDim,
		Blocks:  []Block{{GID: singleBlockGID(), Data: []float32{1}}},
	}
	r, err := Open([]Snapshot{snap})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := r.OpenVariableRead(0, "temp", -1); err == nil {
		t.Fatal("expected error for unknown variable")
	}
}

func TestOpenRejectsEmptySnapshotList(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Fatal("expected error for empty snapshot list")
	}
}
