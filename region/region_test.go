package region

import (
	"testing"

	"github.com/vaporvdc/vdc"
	"github.com/vaporvdc/vdc/wavelet"
)

func affineField(n vdc.Dim) []float32 {
	out := make([]float32, n.Mul())
	for z := 0; z < n[2]; z++ {
		for y := 0; y < n[1]; y++ {
			for x := 0; x < n[0]; x++ {
				out[x+n[0]*(y+n[1]*z)] = float32(x) + 64*float32(y) + 4096*float32(z)
			}
		}
	}
	return out
}

func TestScenarioARegionWriteRead(t *testing.T) {
	dir := t.TempDir()
	grid := vdc.GridDims{N: vdc.Dim{64, 64, 64}, Block: vdc.Dim{32, 32, 32}, LMax: 1}
	for _, k := range []wavelet.Kind{wavelet.Bior53, wavelet.Bior97} {
		wcfg := WriterConfig{Dir: dir, Varname: "rho", TimeStep: 0, Grid: grid, Kind: k}
		w, err := NewWriter(wcfg, 0)
		if err != nil {
			t.Fatalf("%v: NewWriter: %v", k, err)
		}
		data := affineField(grid.N)
		if err := w.WriteRegion(vdc.Dim{0, 0, 0}, vdc.Dim{63, 63, 63}, data); err != nil {
			t.Fatalf("%v: WriteRegion: %v", k, err)
		}
		if err := w.CloseVariable(); err != nil {
			t.Fatalf("%v: CloseVariable: %v", k, err)
		}

		rcfg := ReaderConfig{Dir: dir, Varname: "rho", TimeStep: 0, Grid: grid, Kind: k}
		r, err := NewReader(rcfg)
		if err != nil {
			t.Fatalf("%v: NewReader: %v", k, err)
		}
		got, err := r.BlockReadRegion(1, vdc.Dim{0, 0, 0}, vdc.Dim{1, 1, 1}, true)
		if err != nil {
			t.Fatalf("%v: BlockReadRegion: %v", k, err)
		}
		r.Close()
		if len(got) != len(data) {
			t.Fatalf("%v: got %d voxels, want %d", k, len(got), len(data))
		}
		for i := range data {
			if diff := got[i] - data[i]; diff > 1e-2 || diff < -1e-2 {
				t.Fatalf("%v: voxel %d = %v, want %v", k, i, got[i], data[i])
			}
		}
	}
}

func TestRegionBoundsEqualDomainNeedNoPadding(t *testing.T) {
	dir := t.TempDir()
	grid := vdc.GridDims{N: vdc.Dim{64, 64, 64}, Block: vdc.Dim{32, 32, 32}, LMax: 1}
	w, err := NewWriter(WriterConfig{Dir: dir, Varname: "v", Grid: grid, Kind: wavelet.Bior97}, 0)
	if err != nil {
		t.Fatal(err)
	}
	data := affineField(grid.N)
	if err := w.WriteRegion(vdc.Dim{0, 0, 0}, vdc.Dim{63, 63, 63}, data); err != nil {
		t.Fatalf("WriteRegion with domain-equal bounds: %v", err)
	}
	if err := w.CloseVariable(); err != nil {
		t.Fatal(err)
	}
	mn, mx, err := w.DataRange()
	if err != nil {
		t.Fatal(err)
	}
	if mn != 0 {
		t.Errorf("DataRange min = %v, want 0", mn)
	}
	want := float32(63 + 64*63 + 4096*63)
	if mx != want {
		t.Errorf("DataRange max = %v, want %v", mx, want)
	}
}

func TestReadRegionCropsToExactVoxelBounds(t *testing.T) {
	dir := t.TempDir()
	grid := vdc.GridDims{N: vdc.Dim{64, 64, 64}, Block: vdc.Dim{32, 32, 32}, LMax: 1}
	w, err := NewWriter(WriterConfig{Dir: dir, Varname: "v", Grid: grid, Kind: wavelet.Bior53}, 0)
	if err != nil {
		t.Fatal(err)
	}
	data := affineField(grid.N)
	if err := w.WriteRegion(vdc.Dim{0, 0, 0}, vdc.Dim{63, 63, 63}, data); err != nil {
		t.Fatal(err)
	}
	if err := w.CloseVariable(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(ReaderConfig{Dir: dir, Varname: "v", Grid: grid, Kind: wavelet.Bior53})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	// Non-block-aligned sub-region entirely within one octant.
	got, err := r.ReadRegion(vdc.Dim{5, 5, 5}, vdc.Dim{10, 10, 10}, 1)
	if err != nil {
		t.Fatalf("ReadRegion: %v", err)
	}
	want := make([]float32, 6*6*6)
	for z := 0; z < 6; z++ {
		for y := 0; y < 6; y++ {
			for x := 0; x < 6; x++ {
				want[x+6*(y+6*z)] = float32(5+x) + 64*float32(5+y) + 4096*float32(5+z)
			}
		}
	}
	for i := range want {
		if diff := got[i] - want[i]; diff > 1e-2 || diff < -1e-2 {
			t.Fatalf("voxel %d = %v, want %v", i, got[i], want[i])
		}
	}
}
