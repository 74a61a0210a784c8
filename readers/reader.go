// Package readers defines the common contract every heterogeneous
// source-format reader (WRF, MOM, ROMS, GRIB, FLASH, raw) implements,
// per spec.md §4.8: list variables, open/read/close a variable slice
// at a time, and report extents, times, and map projection. The
// storage engine (region writer, netcdfcol, regrid) consumes only
// this interface, never a format-specific type.
package readers

import "github.com/vaporvdc/vdc"

// SliceStatus is ReadSlice's return convention: 1 means a slice was
// read, 0 means end of variable, a negative value is an error.
type SliceStatus int

const (
	EOF   SliceStatus = 0
	OK    SliceStatus = 1
	Error SliceStatus = -1
)

// VarHandle is an opaque handle returned by OpenVariableRead,
// threaded back through ReadSlice/CloseVariable.
type VarHandle interface{}

// Reader is the DCReader-style contract spec.md §4.8 requires of
// every source format. A single Reader instance may be read from
// multiple independent handles concurrently (spec.md §5), but a
// given handle's ReadSlice calls must not overlap.
type Reader interface {
	// GetVariables3D/GetVariables2DXY list the 3D and horizontal-slice
	// variable names this reader exposes (including derived variables
	// such as WRF's ELEVATION or MOM/ROMS's angleRAD/latDEG).
	GetVariables3D() []string
	GetVariables2DXY() []string

	// GetNumTimeSteps returns the number of time steps this reader
	// enumerates.
	GetNumTimeSteps() int

	// GetTSUserTime returns the user-facing timestamp (seconds, or a
	// format-defined unit) of time step ts.
	GetTSUserTime(ts int) (float64, error)

	// GetGridDim returns the finest-level voxel dimensions of the
	// reader's native grid.
	GetGridDim() vdc.Dim

	// GetExtents returns the raw (lon,lat) or Cartesian extents this
	// reader's grid spans: [minX,minY,minZ,maxX,maxY,maxZ].
	GetExtents() [6]float64

	// GetMapProjection returns a PROJ.4-style projection string, or
	// the empty string if the reader has no real projection (the
	// idealized lon*111177/lat*111177 fallback then applies).
	GetMapProjection() string

	// OpenVariableRead opens varname at time step ts for slice-at-a-
	// time reading. level is the requested refinement level, -1 for
	// native resolution (spec.md §6's CLI `-level` convention).
	OpenVariableRead(ts int, varname string, level int) (VarHandle, error)

	// ReadSlice reads one 2D slice into buf (sized to the variable's
	// horizontal extent) and returns OK, EOF, or Error.
	ReadSlice(h VarHandle, buf []float32) (SliceStatus, error)

	// CloseVariable releases a handle opened by OpenVariableRead.
	CloseVariable(h VarHandle) error
}

// CartographicExtents converts raw (lon,lat) extents to meters using
// projStr via a PROJ.4-style forward transform when non-empty,
// falling back to the idealized lon*111177, lat*111177 scaling spec.md
// §4.8 describes for projection-less/idealized grids.
func CartographicExtents(projStr string, lonMin, lonMax, latMin, latMax float64, forward func(lon, lat float64) (x, y float64, err error)) (minX, minY, maxX, maxY float64, err error) {
	if projStr == "" || forward == nil {
		return lonMin * 111177, latMin * 111177, lonMax * 111177, latMax * 111177, nil
	}
	x0, y0, err := forward(lonMin, latMin)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	x1, y1, err := forward(lonMax, latMax)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return x0, y0, x1, y1, nil
}
