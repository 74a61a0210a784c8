package roms

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"

	"github.com/vaporvdc/vdc/readers"
)

// writeROMSFile builds a minimal ROMS-style output file on the rho
// grid: a 2D lat_rho/lon_rho coordinate grid plus one 3D
// (ocean_time,eta_rho,xi_rho) data variable.
func writeROMSFile(t *testing.T, path string, nlon, nlat int, geoLat, geoLon, temp []float32) {
	t.Helper()
	h := cdf.NewHeader(
		[]string{"ocean_time", "eta_rho", "xi_rho"},
		[]int{0, nlat, nlon},
	)
	h.AddVariable("lat_rho", []string{"eta_rho", "xi_rho"}, []float32{0})
	h.AddVariable("lon_rho", []string{"eta_rho", "xi_rho"}, []float32{0})
	h.AddVariable("temp", []string{"ocean_time", "eta_rho", "xi_rho"}, []float32{0})
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
	if _, err := nc.Writer("lat_rho", nil, nil).Write(geoLat); err != nil {
		t.Fatalf("write lat_rho: %v", err)
	}
	if _, err := nc.Writer("lon_rho", nil, nil).Write(geoLon); err != nil {
		t.Fatalf("write lon_rho: %v", err)
	}
	if _, err := nc.Writer("temp", []int{0, 0, 0}, []int{1, nlat, nlon}).Write(temp); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	if err := cdf.UpdateNumRecs(f); err != nil {
		t.Fatalf("UpdateNumRecs: %v", err)
	}
}

func TestOpenDerivesExtentsAndVariables(t *testing.T) {
	const nlon, nlat = 3, 2
	geoLat := []float32{0, 0, 0, 10, 10, 10}
	geoLon := []float32{-10, 0, 10, -10, 0, 10}
	temp := []float32{1, 2, 3, 4, 5, 6}

	path := filepath.Join(t.TempDir(), "roms.nc")
	writeROMSFile(t, path, nlon, nlat, geoLat, geoLon, temp)

	r, err := Open([]string{path}, "lat_rho", "lon_rho")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if dim := r.GetGridDim(); dim[0] != nlon || dim[1] != nlat || dim[2] != 1 {
		t.Fatalf("GetGridDim = %v, want (%d,%d,1)", dim, nlon, nlat)
	}
	ext := r.GetExtents()
	if ext[0] != -10 || ext[3] != 10 || ext[1] != 0 || ext[4] != 10 {
		t.Fatalf("GetExtents = %v", ext)
	}
	vars3d := r.GetVariables3D()
	foundAngle, foundLat := false, false
	for _, v := range vars3d {
		if v == angleVar {
			foundAngle = true
		}
		if v == latVar {
			foundLat = true
		}
	}
	if !foundAngle || !foundLat {
		t.Fatalf("GetVariables3D = %v, want %q and %q present", vars3d, angleVar, latVar)
	}
}

func TestReadSliceDerivedLatDEGMatchesRhoGrid(t *testing.T) {
	const nlon, nlat = 2, 2
	geoLat := []float32{0, 0, 5, 5}
	geoLon := []float32{0, 10, 0, 10}
	temp := []float32{1, 2, 3, 4}

	path := filepath.Join(t.TempDir(), "roms.nc")
	writeROMSFile(t, path, nlon, nlat, geoLat, geoLon, temp)

	r, err := Open([]string{path}, "lat_rho", "lon_rho")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	h, err := r.OpenVariableRead(0, latVar, -1)
	if err != nil {
		t.Fatalf("OpenVariableRead: %v", err)
	}
	buf := make([]float32, nlon*nlat)
	status, err := r.ReadSlice(h, buf)
	if err != nil {
		t.Fatalf("ReadSlice: %v", err)
	}
	if status != readers.OK {
		t.Fatalf("status = %v, want OK", status)
	}
	for i, want := range geoLat {
		if buf[i] != want {
			t.Errorf("index %d: got %v, want %v", i, buf[i], want)
		}
	}
}

func TestReadSliceRawVariable(t *testing.T) {
	const nlon, nlat = 2, 2
	geoLat := []float32{0, 0, 5, 5}
	geoLon := []float32{0, 10, 0, 10}
	temp := []float32{1, 2, 3, 4}

	path := filepath.Join(t.TempDir(), "roms.nc")
	writeROMSFile(t, path, nlon, nlat, geoLat, geoLon, temp)

	r, err := Open([]string{path}, "lat_rho", "lon_rho")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	h, err := r.OpenVariableRead(0, "temp", -1)
	if err != nil {
		t.Fatalf("OpenVariableRead: %v", err)
	}
	defer r.CloseVariable(h)
	buf := make([]float32, nlon*nlat)
	if _, err := r.ReadSlice(h, buf); err != nil {
		t.Fatalf("ReadSlice: %v", err)
	}
	for i, want := range temp {
		if buf[i] != want {
			t.Errorf("index %d: got %v, want %v", i, buf[i], want)
		}
	}
}

func TestOpenUnknownCoordinateVariableErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roms.nc")
	writeROMSFile(t, path, 2, 2, make([]float32, 4), make([]float32, 4), make([]float32, 4))
	if _, err := Open([]string{path}, "nonexistent", "lon_rho"); err == nil {
		t.Fatal("expected error for unknown coordinate variable")
	}
}
