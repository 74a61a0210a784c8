package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vaporvdc/vdc"
)

// vdfMeta is the on-disk description of one VDC collection: the
// finest-level grid dimensions, block size, refinement depth, wavelet
// kernel, and the variable names it carries. It is stored as a
// vdc.Element tree (spec.md §6's metadata XML), the same format the
// root package's Registry/Element machinery already serializes.
type vdfMeta struct {
	N, Block     vdc.Dim
	LMax         int
	Kernel       string
	BoundaryMode string
	Variables    []string
}

func loadVDFMeta(path string) (*vdfMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vdccli: opening metadata file: %v", err)
	}
	defer f.Close()
	el, err := vdc.ReadXML(f)
	if err != nil {
		return nil, err
	}
	n, err := el.AttrInts("N")
	if err != nil || len(n) != 3 {
		return nil, fmt.Errorf("vdccli: metadata file %s: bad N attribute", path)
	}
	b, err := el.AttrInts("Block")
	if err != nil || len(b) != 3 {
		return nil, fmt.Errorf("vdccli: metadata file %s: bad Block attribute", path)
	}
	lmax, err := strconv.Atoi(el.Attr("LMax"))
	if err != nil {
		return nil, fmt.Errorf("vdccli: metadata file %s: bad LMax attribute", path)
	}
	return &vdfMeta{
		N:            vdc.Dim{n[0], n[1], n[2]},
		Block:        vdc.Dim{b[0], b[1], b[2]},
		LMax:         lmax,
		Kernel:       el.Attr("Kernel"),
		BoundaryMode: el.Attr("BoundaryMode"),
		Variables:    el.Strings["Variable"],
	}, nil
}

func saveVDFMeta(path string, m *vdfMeta) error {
	el := vdc.NewElement("VDC")
	el.SetAttr("N", fmt.Sprintf("%d %d %d", m.N[0], m.N[1], m.N[2]))
	el.SetAttr("Block", fmt.Sprintf("%d %d %d", m.Block[0], m.Block[1], m.Block[2]))
	el.SetAttr("LMax", strconv.Itoa(m.LMax))
	el.SetAttr("Kernel", m.Kernel)
	el.SetAttr("BoundaryMode", m.BoundaryMode)
	el.Strings["Variable"] = m.Variables
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("vdccli: creating metadata file: %v", err)
	}
	defer f.Close()
	return el.WriteXML(f)
}

func (m *vdfMeta) gridDims() vdc.GridDims {
	return vdc.GridDims{N: m.N, Block: m.Block, LMax: m.LMax}
}
