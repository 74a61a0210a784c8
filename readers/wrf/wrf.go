// Package wrf implements readers.Reader over WRF/WRF-Chem NetCDF
// output: one file per time step, each holding every variable at that
// step. Grounded on the teacher's wrfchem.go (WRFChem/NewWRFChem),
// whose Height() computes the same hydrostatic ELEVATION this reader
// derives as ELEVATION=(PH+PHB)/g.
package wrf

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom/proj"

	"github.com/vaporvdc/vdc"
	"github.com/vaporvdc/vdc/internal/vdcerr"
	"github.com/vaporvdc/vdc/readers"
)

// gravity is the standard gravitational acceleration WRF's
// geopotential-to-height conversion uses, m/s^2.
const gravity = 9.81

// elevationVar is the derived variable this reader synthesizes from
// WRF's perturbation (PH) and base-state (PHB) geopotential.
const elevationVar = "ELEVATION"

// Reader exposes one WRF-Chem simulation as a time series of NetCDF
// files, one file per time step.
type Reader struct {
	files []string // one path per time step, in time order
	opens []*os.File
	ncs   []*cdf.File

	vars3d, vars2d []string
	gridDim        vdc.Dim
	mapProj        string
	extents        [6]float64
}

// Open builds a Reader over files, each one WRF-Chem output time
// step in order. The variable list and grid dimensions are taken
// from the first file.
func Open(files []string) (*Reader, error) {
	if len(files) == 0 {
		return nil, vdcerr.New("wrf.Open", vdcerr.InvalidVariable, fmt.Errorf("no files given"))
	}
	r := &Reader{files: files}
	f0, err := os.Open(files[0])
	if err != nil {
		return nil, vdcerr.New("wrf.Open", vdcerr.IOError, err)
	}
	defer f0.Close()
	nc0, err := cdf.Open(f0)
	if err != nil {
		return nil, vdcerr.New("wrf.Open", vdcerr.FormatError, err)
	}

	hasPH, hasPHB := false, false
	for _, name := range nc0.Header.Variables() {
		dims := nc0.Header.Lengths(name)
		switch len(dims) {
		case 4: // (Time, bottom_top[_stag], south_north, west_east)
			r.vars3d = append(r.vars3d, name)
		case 3: // (Time, south_north, west_east)
			r.vars2d = append(r.vars2d, name)
		}
		if name == "PH" {
			hasPH = true
		}
		if name == "PHB" {
			hasPHB = true
		}
	}
	if hasPH && hasPHB {
		r.vars3d = append(r.vars3d, elevationVar)
	}

	if dims := nc0.Header.Lengths("T"); len(dims) == 4 {
		r.gridDim = vdc.Dim{dims[3], dims[2], dims[1]}
	}
	r.mapProj = lambertConformalProjString(nc0)
	var latMin, latMax, lonMin, lonMax float64 = 90, -90, 180, -180
	if v, ok := nc0.Header.GetAttribute("", "corner_lats").([]float32); ok {
		for _, lat := range v {
			if float64(lat) < latMin {
				latMin = float64(lat)
			}
			if float64(lat) > latMax {
				latMax = float64(lat)
			}
		}
	}
	if v, ok := nc0.Header.GetAttribute("", "corner_lons").([]float32); ok {
		for _, lon := range v {
			if float64(lon) < lonMin {
				lonMin = float64(lon)
			}
			if float64(lon) > lonMax {
				lonMax = float64(lon)
			}
		}
	}
	var forward func(lon, lat float64) (float64, float64, error)
	if r.mapProj != "" {
		if gridSR, perr := proj.Parse(r.mapProj); perr == nil {
			if lonlatSR, perr := proj.Parse("+proj=longlat +ellps=WGS84"); perr == nil {
				if t, perr := lonlatSR.NewTransform(gridSR); perr == nil {
					forward = func(lon, lat float64) (float64, float64, error) { return t(lon, lat) }
				}
			}
		}
	}
	minX, minY, maxX, maxY, err := readers.CartographicExtents(r.mapProj, lonMin, lonMax, latMin, latMax, forward)
	if err != nil {
		return nil, err
	}
	r.extents = [6]float64{minX, minY, 0, maxX, maxY, float64(r.gridDim[2] - 1)}
	return r, nil
}

// lambertConformalProjString builds a PROJ.4 string for WRF's
// MAP_PROJ=1 (Lambert conformal conic) case, grounded directly on
// original_source/lib/vdf/DCReaderWRF.cpp's projString construction
// (STAND_LON -> +lon_0, TRUELAT1/2 -> +lat_1/+lat_2). Any other
// MAP_PROJ value returns "" (the idealized lon/lat fallback
// CartographicExtents applies).
func lambertConformalProjString(nc *cdf.File) string {
	mapProj, ok := nc.Header.GetAttribute("", "MAP_PROJ").([]int32)
	if !ok || len(mapProj) != 1 || mapProj[0] != 1 {
		return ""
	}
	lon0, ok := attrFloat(nc, "STAND_LON")
	if !ok {
		return ""
	}
	lat1, ok := attrFloat(nc, "TRUELAT1")
	if !ok {
		return ""
	}
	lat2, ok := attrFloat(nc, "TRUELAT2")
	if !ok {
		return ""
	}
	return "+proj=lcc +lon_0=" + strconv.FormatFloat(lon0, 'g', -1, 64) +
		" +lat_1=" + strconv.FormatFloat(lat1, 'g', -1, 64) +
		" +lat_2=" + strconv.FormatFloat(lat2, 'g', -1, 64) +
		" +ellps=WGS84"
}

func attrFloat(nc *cdf.File, name string) (float64, bool) {
	switch v := nc.Header.GetAttribute("", name).(type) {
	case []float32:
		if len(v) == 1 {
			return float64(v[0]), true
		}
	case []float64:
		if len(v) == 1 {
			return v[0], true
		}
	}
	return 0, false
}

func (r *Reader) GetVariables3D() []string   { return append([]string(nil), r.vars3d...) }
func (r *Reader) GetVariables2DXY() []string { return append([]string(nil), r.vars2d...) }
func (r *Reader) GetNumTimeSteps() int       { return len(r.files) }

func (r *Reader) GetTSUserTime(ts int) (float64, error) {
	if ts < 0 || ts >= len(r.files) {
		return 0, vdcerr.New("wrf.Reader.GetTSUserTime", vdcerr.InvalidVariable, fmt.Errorf("time step %d out of range", ts))
	}
	return float64(ts), nil
}

func (r *Reader) GetGridDim() vdc.Dim      { return r.gridDim }
func (r *Reader) GetExtents() [6]float64   { return r.extents }
func (r *Reader) GetMapProjection() string { return r.mapProj }

type handle struct {
	f         *os.File
	nc        *cdf.File
	varname   string
	derived   bool
	ph, phb   []float32
	nz, ny, nx int
	z         int
}

// OpenVariableRead opens varname at time step ts. level is accepted
// for interface conformance and is not checked: WRF output carries
// only native resolution, and every level reads that native data.
func (r *Reader) OpenVariableRead(ts int, varname string, level int) (readers.VarHandle, error) {
	if ts < 0 || ts >= len(r.files) {
		return nil, vdcerr.New("wrf.Reader.OpenVariableRead", vdcerr.InvalidVariable, fmt.Errorf("time step %d out of range", ts))
	}
	f, err := os.Open(r.files[ts])
	if err != nil {
		return nil, vdcerr.New("wrf.Reader.OpenVariableRead", vdcerr.IOError, err)
	}
	nc, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, vdcerr.New("wrf.Reader.OpenVariableRead", vdcerr.FormatError, err)
	}

	if varname == elevationVar {
		phDims := nc.Header.Lengths("PH")
		if len(phDims) != 4 {
			f.Close()
			return nil, vdcerr.New("wrf.Reader.OpenVariableRead", vdcerr.InvalidVariable, fmt.Errorf("PH not present or wrong rank"))
		}
		nz, ny, nx := phDims[1], phDims[2], phDims[3]
		ph := make([]float32, nz*ny*nx)
		phb := make([]float32, nz*ny*nx)
		if _, err := nc.Reader("PH", []int{0, 0, 0, 0}, []int{1, nz, ny, nx}).Read(ph); err != nil {
			f.Close()
			return nil, vdcerr.New("wrf.Reader.OpenVariableRead", vdcerr.IOError, err)
		}
		if _, err := nc.Reader("PHB", []int{0, 0, 0, 0}, []int{1, nz, ny, nx}).Read(phb); err != nil {
			f.Close()
			return nil, vdcerr.New("wrf.Reader.OpenVariableRead", vdcerr.IOError, err)
		}
		return &handle{f: f, nc: nc, varname: varname, derived: true, ph: ph, phb: phb, nz: nz, ny: ny, nx: nx}, nil
	}

	dims := nc.Header.Lengths(varname)
	if len(dims) < 3 {
		f.Close()
		return nil, vdcerr.New("wrf.Reader.OpenVariableRead", vdcerr.InvalidVariable, fmt.Errorf("variable %q not present or wrong rank", varname))
	}
	nz := 1
	ny, nx := dims[len(dims)-2], dims[len(dims)-1]
	if len(dims) == 4 {
		nz = dims[1]
	}
	return &handle{f: f, nc: nc, varname: varname, nz: nz, ny: ny, nx: nx}, nil
}

// ReadSlice reads the next z-level XY slice into buf (sized ny*nx).
// ELEVATION is computed on the fly as (PH+PHB)/gravity.
func (r *Reader) ReadSlice(h readers.VarHandle, buf []float32) (readers.SliceStatus, error) {
	hd := h.(*handle)
	if hd.z >= hd.nz {
		return readers.EOF, nil
	}
	want := hd.ny * hd.nx
	if len(buf) != want {
		return readers.Error, vdcerr.New("wrf.Reader.ReadSlice", vdcerr.InvalidRegion, fmt.Errorf("buffer has %d voxels, want %d", len(buf), want))
	}
	if hd.derived {
		off := hd.z * want
		for i := 0; i < want; i++ {
			buf[i] = (hd.ph[off+i] + hd.phb[off+i]) / gravity
		}
		hd.z++
		return readers.OK, nil
	}
	start := []int{0, hd.z, 0, 0}
	end := []int{1, hd.z + 1, hd.ny, hd.nx}
	if hd.nz == 1 {
		start = []int{0, 0, 0}
		end = []int{1, hd.ny, hd.nx}
	}
	if _, err := hd.nc.Reader(hd.varname, start, end).Read(buf); err != nil {
		return readers.Error, vdcerr.New("wrf.Reader.ReadSlice", vdcerr.IOError, err)
	}
	hd.z++
	return readers.OK, nil
}

func (r *Reader) CloseVariable(h readers.VarHandle) error {
	hd := h.(*handle)
	return hd.f.Close()
}
