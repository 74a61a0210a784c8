package netcdfcol

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
)

// writeTimeFile creates a minimal NetCDF file with a "time" dimension
// and coordinate variable holding the given stamps, per spec.md §4.7
// case 3.
func writeTimeFile(t *testing.T, path string, stamps []float32) {
	t.Helper()
	h := cdf.NewHeader([]string{"time"}, []int{len(stamps)})
	h.AddVariable("time", []string{"time"}, []float32{0})
	if err := h.Define(); err != nil {
		t.Fatalf("Define: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	nc, err := cdf.Create(f, h)
	if err != nil {
		t.Fatalf("cdf.Create: %v", err)
	}
	if _, err := nc.Writer("time", nil, nil).Write(stamps); err != nil {
		t.Fatalf("write time: %v", err)
	}
	if err := cdf.UpdateNumRecs(f); err != nil {
		t.Fatalf("UpdateNumRecs: %v", err)
	}
}

// TestTimeOrderingScenarioF exercises spec.md §8 Scenario F: three
// files supplied out of order, each declaring an explicit time
// coordinate, are merged into one globally-time-sorted collection.
func TestTimeOrderingScenarioF(t *testing.T) {
	dir := t.TempDir()
	fileA := filepath.Join(dir, "a.nc") // {10,20}
	fileB := filepath.Join(dir, "b.nc") // {0}
	fileC := filepath.Join(dir, "c.nc") // {30,40}
	writeTimeFile(t, fileA, []float32{10, 20})
	writeTimeFile(t, fileB, []float32{0})
	writeTimeFile(t, fileC, []float32{30, 40})

	col, err := New([]string{fileA, fileB, fileC}, "time", "time", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if col.NumTimeSteps() != 5 {
		t.Fatalf("NumTimeSteps = %d, want 5", col.NumTimeSteps())
	}
	want := []float64{0, 10, 20, 30, 40}
	wantFile := []string{fileB, fileA, fileA, fileC, fileC}
	for ts, w := range want {
		got, err := col.UserTime(ts)
		if err != nil {
			t.Fatalf("UserTime(%d): %v", ts, err)
		}
		if got != w {
			t.Errorf("UserTime(%d) = %v, want %v", ts, got, w)
		}
		file, _, err := col.Locate(ts)
		if err != nil {
			t.Fatalf("Locate(%d): %v", ts, err)
		}
		if file != wantFile[ts] {
			t.Errorf("Locate(%d) file = %s, want %s", ts, file, wantFile[ts])
		}
	}
}

// TestUnstaggerConstant exercises spec.md §8's staggered-dim
// round-trip law: averaging a constant-valued staggered variable
// yields the same constant everywhere that isn't missing.
func TestUnstaggerConstant(t *testing.T) {
	// 2x3 grid staggered on the second (fastest) axis: dims (2,4).
	dims := []int{2, 4}
	data := make([]float32, 2*4)
	for i := range data {
		data[i] = 7
	}
	out, outDims := Unstagger(data, dims, []bool{false, true}, -999)
	if outDims[0] != 2 || outDims[1] != 3 {
		t.Fatalf("outDims = %v, want [2 3]", outDims)
	}
	for i, v := range out {
		if v != 7 {
			t.Errorf("out[%d] = %v, want 7", i, v)
		}
	}
}

// TestUnstaggerScenarioE exercises spec.md §8 Scenario E: a variable
// v[x] = x staggered along x becomes (x)+0.5 after unstaggering.
func TestUnstaggerScenarioE(t *testing.T) {
	nx := 5 // staggered: nx+1 samples along x
	dims := []int{1, 1, nx + 1}
	data := make([]float32, nx+1)
	for x := 0; x <= nx; x++ {
		data[x] = float32(x)
	}
	out, outDims := Unstagger(data, dims, []bool{false, false, true}, -999)
	if outDims[2] != nx {
		t.Fatalf("outDims[2] = %d, want %d", outDims[2], nx)
	}
	for x := 0; x < nx; x++ {
		want := float32(x) + 0.5
		if out[x] != want {
			t.Errorf("out[%d] = %v, want %v", x, out[x], want)
		}
	}
}

// TestUnstaggerMissingPropagates checks that a missing sample makes
// the corresponding unstaggered output missing too.
func TestUnstaggerMissingPropagates(t *testing.T) {
	mv := float32(-999)
	dims := []int{3}
	data := []float32{1, mv, 3}
	out, _ := Unstagger(data, dims, []bool{true}, mv)
	if out[0] != mv {
		t.Errorf("out[0] = %v, want mv (one neighbor missing)", out[0])
	}
	if out[1] != mv {
		t.Errorf("out[1] = %v, want mv (one neighbor missing)", out[1])
	}
}
