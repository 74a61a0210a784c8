package vdc

import "testing"

func TestTypeBlockDim(t *testing.T) {
	if got := Type1.BlockDim(); got != 32 {
		t.Errorf("Type1.BlockDim() = %d, want 32", got)
	}
	if got := Type2.BlockDim(); got != 64 {
		t.Errorf("Type2.BlockDim() = %d, want 64", got)
	}
	if got := Type(0).BlockDim(); got != 0 {
		t.Errorf("Type(0).BlockDim() = %d, want 0", got)
	}
}

func TestOrientationString(t *testing.T) {
	cases := map[Orientation]string{XY: "XY", XZ: "XZ", YZ: "YZ", Orientation(99): "unknown"}
	for o, want := range cases {
		if got := o.String(); got != want {
			t.Errorf("Orientation(%d).String() = %q, want %q", o, got, want)
		}
	}
}

func TestBoxValid(t *testing.T) {
	if !(Box{Min: Dim{0, 0, 0}, Max: Dim{1, 1, 1}}).Valid() {
		t.Error("expected box with Max >= Min and non-negative Min to be valid")
	}
	if (Box{Min: Dim{0, 0, 0}, Max: Dim{-1, 0, 0}}).Valid() {
		t.Error("expected inverted box to be invalid")
	}
	if (Box{Min: Dim{-1, 0, 0}, Max: Dim{1, 1, 1}}).Valid() {
		t.Error("expected negative Min to be invalid")
	}
}

func TestBoxDims(t *testing.T) {
	b := Box{Min: Dim{2, 3, 4}, Max: Dim{5, 3, 9}}
	want := Dim{4, 1, 6}
	if got := b.Dims(); got != want {
		t.Errorf("Dims() = %v, want %v", got, want)
	}
}

func TestRefLevelBlockDim(t *testing.T) {
	// At the finest level (level == lmax), the factor is just the
	// block size itself.
	if got := RefLevelBlockDim(100, 32, 2, 2); got != 4 {
		t.Errorf("RefLevelBlockDim(100,32,2,2) = %d, want 4", got)
	}
	// One level coarser doubles the block's effective footprint.
	if got := RefLevelBlockDim(100, 32, 1, 2); got != 2 {
		t.Errorf("RefLevelBlockDim(100,32,1,2) = %d, want 2", got)
	}
	// The base level (0) covers the whole grid with one block when
	// N fits within block*2^lmax.
	if got := RefLevelBlockDim(100, 32, 0, 2); got != 1 {
		t.Errorf("RefLevelBlockDim(100,32,0,2) = %d, want 1", got)
	}
}

func TestGridDimsBlockDims(t *testing.T) {
	g := GridDims{N: Dim{100, 100, 100}, Block: Dim{32, 32, 32}, LMax: 2}
	want := Dim{4, 4, 4}
	if got := g.BlockDims(2); got != want {
		t.Errorf("BlockDims(2) = %v, want %v", got, want)
	}
	want0 := Dim{1, 1, 1}
	if got := g.BlockDims(0); got != want0 {
		t.Errorf("BlockDims(0) = %v, want %v", got, want0)
	}
}

func TestGammaBlocksPerLambda(t *testing.T) {
	if got := GammaBlocksPerLambda(true); got != 7 {
		t.Errorf("GammaBlocksPerLambda(true) = %d, want 7", got)
	}
	if got := GammaBlocksPerLambda(false); got != 3 {
		t.Errorf("GammaBlocksPerLambda(false) = %d, want 3", got)
	}
}

func TestVarKeyString(t *testing.T) {
	k := VarKey{Name: "density", TimeStep: 3, RefLevel: 1}
	if got, want := k.String(), "density/ts3/rl1"; got != want {
		t.Errorf("VarKey.String() = %q, want %q", got, want)
	}
}
