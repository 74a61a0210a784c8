package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vaporvdc/vdc"
	"github.com/vaporvdc/vdc/readers"
)

// fakeReader is a minimal in-memory readers.Reader, one variable, one
// time step, returning the xy slices of a dense dim-sized volume.
type fakeReader struct {
	dim  vdc.Dim
	data []float32
}

func newFakeReader(dim vdc.Dim) *fakeReader {
	data := make([]float32, dim.Mul())
	for i := range data {
		data[i] = float32(i)
	}
	return &fakeReader{dim: dim, data: data}
}

func (r *fakeReader) GetVariables3D() []string   { return []string{"temp"} }
func (r *fakeReader) GetVariables2DXY() []string { return nil }
func (r *fakeReader) GetNumTimeSteps() int       { return 1 }
func (r *fakeReader) GetTSUserTime(ts int) (float64, error) { return 0, nil }
func (r *fakeReader) GetGridDim() vdc.Dim        { return r.dim }
func (r *fakeReader) GetExtents() [6]float64     { return [6]float64{} }
func (r *fakeReader) GetMapProjection() string   { return "" }

type fakeHandle struct{ z int }

func (r *fakeReader) OpenVariableRead(ts int, varname string, level int) (readers.VarHandle, error) {
	return &fakeHandle{}, nil
}

func (r *fakeReader) ReadSlice(h readers.VarHandle, buf []float32) (readers.SliceStatus, error) {
	hd := h.(*fakeHandle)
	if hd.z >= r.dim[2] {
		return readers.EOF, nil
	}
	sliceLen := r.dim[0] * r.dim[1]
	copy(buf, r.data[hd.z*sliceLen:(hd.z+1)*sliceLen])
	hd.z++
	return readers.OK, nil
}

func (r *fakeReader) CloseVariable(h readers.VarHandle) error { return nil }

func TestRunWritesVariableIntoOutDir(t *testing.T) {
	dim := vdc.Dim{4, 4, 4}
	r := newFakeReader(dim)
	outDir := t.TempDir()

	err := Run(r, Options{OutDir: outDir, Varname: "temp", TS: 0, Level: -1, Quiet: true}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("Run wrote no files into OutDir")
	}
}

func TestRunRejectsOutOfRangeTimeStep(t *testing.T) {
	r := newFakeReader(vdc.Dim{2, 2, 2})
	if err := Run(r, Options{OutDir: t.TempDir(), Varname: "temp", TS: 5}, nil); err == nil {
		t.Fatal("expected error for out-of-range time step")
	}
}

func TestRunCreatesOutDir(t *testing.T) {
	dim := vdc.Dim{2, 2, 2}
	r := newFakeReader(dim)
	outDir := filepath.Join(t.TempDir(), "nested", "out")
	if err := Run(r, Options{OutDir: outDir, Varname: "temp", TS: 0, Level: -1, Quiet: true}, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(outDir); err != nil {
		t.Fatalf("OutDir not created: %v", err)
	}
}
