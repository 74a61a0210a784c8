package blockio

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/vaporvdc/vdc/internal/vdcerr"
)

// BlockRange is the stored min/max for one block, per spec.md §3.
type BlockRange struct {
	Min, Max float32
}

func (r BlockRange) union(o BlockRange) BlockRange {
	out := r
	if o.Min < out.Min {
		out.Min = o.Min
	}
	if o.Max > out.Max {
		out.Max = o.Max
	}
	return out
}

// blockKey addresses one block by refinement level and coordinate;
// exported fields so it round-trips through encoding/gob.
type blockKey struct {
	Level      int
	Bx, By, Bz int
}

// RangeTable holds the per-level, per-block min/max sidecar for a
// variable, persisted alongside its block streams via encoding/gob —
// the same approach the collection's legacy POP-grid code used for
// its own cached derived arrays.
type RangeTable struct {
	Entries map[blockKey]BlockRange
}

// NewRangeTable returns an empty table.
func NewRangeTable() *RangeTable {
	return &RangeTable{Entries: map[blockKey]BlockRange{}}
}

// Set records (or overwrites) the min/max for one block.
func (rt *RangeTable) Set(level, bx, by, bz int, mn, mx float32) {
	rt.Entries[blockKey{level, bx, by, bz}] = BlockRange{mn, mx}
}

// UpdateFromVoxels computes and records the min/max of data for one
// block, per spec.md §4.3 step 5 (finest-level min/max comes only
// from voxels the caller actually supplied).
func (rt *RangeTable) UpdateFromVoxels(level, bx, by, bz int, data []float32) {
	if len(data) == 0 {
		return
	}
	mn, mx := data[0], data[0]
	for _, v := range data[1:] {
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
	}
	rt.Set(level, bx, by, bz, mn, mx)
}

// Get returns the stored range for one block.
func (rt *RangeTable) Get(level, bx, by, bz int) (BlockRange, bool) {
	r, ok := rt.Entries[blockKey{level, bx, by, bz}]
	return r, ok
}

// PropagateUp fills in every coarser level's block min/max as the
// eightfold (fourfold in 2D) reduction of its children at level+1,
// working from finestLevel down to 0, per spec.md §4.3/§8 invariant 2.
// childrenPerBlock is 8 for 3D, 4 for 2D.
func (rt *RangeTable) PropagateUp(finestLevel, childrenPerBlock int) {
	_ = childrenPerBlock // the child coordinate halving below is exact for both 8- and 4-way splits
	for level := finestLevel; level > 0; level-- {
		for key, r := range rt.Entries {
			if key.Level != level {
				continue
			}
			parentKey := blockKey{level - 1, key.Bx / 2, key.By / 2, key.Bz / 2}
			if existing, ok := rt.Entries[parentKey]; ok {
				rt.Entries[parentKey] = existing.union(r)
			} else {
				rt.Entries[parentKey] = r
			}
		}
	}
}

// DataRange returns the min/max across every block at level, the
// variable-wide DataRange when level is the finest level.
func (rt *RangeTable) DataRange(level int) (min, max float32, ok bool) {
	first := true
	for key, r := range rt.Entries {
		if key.Level != level {
			continue
		}
		if first {
			min, max = r.Min, r.Max
			first = false
			continue
		}
		if r.Min < min {
			min = r.Min
		}
		if r.Max > max {
			max = r.Max
		}
	}
	return min, max, !first
}

// Save persists the table to path via encoding/gob.
func (rt *RangeTable) Save(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return vdcerr.New("blockio.RangeTable.Save", vdcerr.IOError, err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(rt.Entries); err != nil {
		return vdcerr.New("blockio.RangeTable.Save", vdcerr.IOError, fmt.Errorf("encoding min/max sidecar: %v", err))
	}
	return nil
}

// LoadRangeTable reads a sidecar previously written by Save.
func LoadRangeTable(path string) (*RangeTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, vdcerr.New("blockio.LoadRangeTable", vdcerr.InvalidVariable, err)
	}
	defer f.Close()
	rt := NewRangeTable()
	if err := gob.NewDecoder(f).Decode(&rt.Entries); err != nil {
		return nil, vdcerr.New("blockio.LoadRangeTable", vdcerr.FormatError, fmt.Errorf("decoding min/max sidecar: %v", err))
	}
	return rt, nil
}
