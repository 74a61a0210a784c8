package main

import (
	"path/filepath"
	"testing"

	"github.com/vaporvdc/vdc"
)

func TestSaveLoadVDFMetaRoundTrip(t *testing.T) {
	want := &vdfMeta{
		N:            vdc.Dim{256, 256, 128},
		Block:        vdc.Dim{64, 64, 64},
		LMax:         2,
		Kernel:       "bior5.3",
		BoundaryMode: "sp0",
		Variables:    []string{"temp", "pressure"},
	}
	path := filepath.Join(t.TempDir(), "meta.vdf")
	if err := saveVDFMeta(path, want); err != nil {
		t.Fatalf("saveVDFMeta: %v", err)
	}
	got, err := loadVDFMeta(path)
	if err != nil {
		t.Fatalf("loadVDFMeta: %v", err)
	}
	if got.N != want.N || got.Block != want.Block || got.LMax != want.LMax {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if got.Kernel != want.Kernel || got.BoundaryMode != want.BoundaryMode {
		t.Fatalf("got kernel/boundary %q/%q, want %q/%q", got.Kernel, got.BoundaryMode, want.Kernel, want.BoundaryMode)
	}
	if len(got.Variables) != len(want.Variables) {
		t.Fatalf("got Variables %v, want %v", got.Variables, want.Variables)
	}
	for i, v := range want.Variables {
		if got.Variables[i] != v {
			t.Errorf("variable %d: got %q, want %q", i, got.Variables[i], v)
		}
	}
}

func TestVDFMetaGridDims(t *testing.T) {
	m := &vdfMeta{N: vdc.Dim{64, 64, 64}, Block: vdc.Dim{32, 32, 32}, LMax: 1}
	gd := m.gridDims()
	if gd.N != m.N || gd.Block != m.Block || gd.LMax != m.LMax {
		t.Fatalf("gridDims() = %+v, want N=%v Block=%v LMax=%d", gd, m.N, m.Block, m.LMax)
	}
}

func TestLoadVDFMetaRejectsMissingFile(t *testing.T) {
	if _, err := loadVDFMeta(filepath.Join(t.TempDir(), "nonexistent.vdf")); err == nil {
		t.Fatal("expected error for missing metadata file")
	}
}
