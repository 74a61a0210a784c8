package vdc

import (
	"bytes"
	"testing"
)

func TestElementXMLRoundTrip(t *testing.T) {
	e := NewElement("AMRTree")
	e.SetAttr("dimensions", "2 1 1")
	e.SetAttr("extents", "0 0 0 1 1 1")
	e.Longs["ParentTable"] = []int64{-1, 0, 0, 0, 0, 0, 0, 0, 0}
	e.Doubles["MinCorner"] = []float64{0, 0, 0}
	e.Strings["Name"] = []string{"density"}

	var buf bytes.Buffer
	if err := e.WriteXML(&buf); err != nil {
		t.Fatalf("WriteXML: %v", err)
	}

	got, err := ReadXML(&buf)
	if err != nil {
		t.Fatalf("ReadXML: %v", err)
	}
	if got.Tag != "AMRTree" {
		t.Errorf("Tag = %q, want AMRTree", got.Tag)
	}
	if got.Attr("dimensions") != "2 1 1" {
		t.Errorf("dimensions attr = %q", got.Attr("dimensions"))
	}
	dims, err := got.AttrInts("dimensions")
	if err != nil || len(dims) != 3 || dims[0] != 2 {
		t.Errorf("AttrInts(dimensions) = %v, %v", dims, err)
	}
	if len(got.Longs["ParentTable"]) != 9 || got.Longs["ParentTable"][0] != -1 {
		t.Errorf("ParentTable = %v", got.Longs["ParentTable"])
	}
	if len(got.Doubles["MinCorner"]) != 3 {
		t.Errorf("MinCorner = %v", got.Doubles["MinCorner"])
	}
	if len(got.Strings["Name"]) != 1 || got.Strings["Name"][0] != "density" {
		t.Errorf("Name = %v", got.Strings["Name"])
	}
}

type taggedSample struct {
	IDs    []int64   `vdc:"kind=long,name=IDs"`
	Coords []float64 `vdc:"kind=double,name=Coords"`
	Label  string    `vdc:"kind=string,name=Label"`
}

func TestTypedChildrenFromStruct(t *testing.T) {
	s := &taggedSample{
		IDs:    []int64{1, 2, 3},
		Coords: []float64{0.5, 1.5},
		Label:  "grid-0",
	}
	e := NewElement("Sample")
	if err := TypedChildrenFromStruct(e, s); err != nil {
		t.Fatalf("TypedChildrenFromStruct: %v", err)
	}
	if len(e.Longs["IDs"]) != 3 {
		t.Errorf("IDs = %v", e.Longs["IDs"])
	}
	if len(e.Doubles["Coords"]) != 2 {
		t.Errorf("Coords = %v", e.Doubles["Coords"])
	}
	if e.Strings["Label"][0] != "grid-0" {
		t.Errorf("Label = %v", e.Strings["Label"])
	}
}

func TestRegistryAddGet(t *testing.T) {
	var r Registry
	i := r.Add("branch-0")
	if r.Get(i) != "branch-0" {
		t.Errorf("Get(%d) = %v", i, r.Get(i))
	}
	if r.Get(99) != nil {
		t.Errorf("Get(99) should be nil for out-of-range index")
	}
}
