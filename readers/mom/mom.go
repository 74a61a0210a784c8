// Package mom implements readers.Reader over MOM ocean-model NetCDF
// output on a curvilinear (geolat/geolon) tripolar grid, deriving the
// angleRAD and latDEG auxiliary variables spec.md §4.8 requires.
// Grounded on original_source/lib/vdf/MOM.cpp's geolat/geolon
// discovery and grid-angle computation, using ctessum/cdf the way the
// teacher's geoschem.go/wrfchem.go read NetCDF attributes and
// coordinate variables.
package mom

import (
	"fmt"
	"math"
	"os"

	"github.com/ctessum/cdf"

	"github.com/vaporvdc/vdc"
	"github.com/vaporvdc/vdc/internal/vdcerr"
	"github.com/vaporvdc/vdc/readers"
)

const (
	angleVar = "angleRAD"
	latVar   = "latDEG"
)

// Reader exposes a MOM simulation's output files (one per time step)
// plus the curvilinear geolat/geolon coordinate grid used to derive
// angleRAD and latDEG.
type Reader struct {
	files          []string
	geoLatVar      string
	geoLonVar      string
	nlon, nlat     int
	geoLat, geoLon []float32

	vars3d, vars2d []string
	extents        [6]float64
}

// Open builds a Reader over files (one per time step), with geoLatVar/
// geoLonVar naming the curvilinear coordinate variables (e.g.
// "geolat_t"/"geolon_t").
func Open(files []string, geoLatVar, geoLonVar string) (*Reader, error) {
	if len(files) == 0 {
		return nil, vdcerr.New("mom.Open", vdcerr.InvalidVariable, fmt.Errorf("no files given"))
	}
	f0, err := os.Open(files[0])
	if err != nil {
		return nil, vdcerr.New("mom.Open", vdcerr.IOError, err)
	}
	defer f0.Close()
	nc0, err := cdf.Open(f0)
	if err != nil {
		return nil, vdcerr.New("mom.Open", vdcerr.FormatError, err)
	}
	dims := nc0.Header.Lengths(geoLatVar)
	if len(dims) != 2 {
		return nil, vdcerr.New("mom.Open", vdcerr.InvalidVariable, fmt.Errorf("coordinate variable %q missing or not 2D", geoLatVar))
	}
	nlat, nlon := dims[0], dims[1]
	geoLat := make([]float32, nlat*nlon)
	geoLon := make([]float32, nlat*nlon)
	if _, err := nc0.Reader(geoLatVar, nil, nil).Read(geoLat); err != nil {
		return nil, vdcerr.New("mom.Open", vdcerr.IOError, err)
	}
	if _, err := nc0.Reader(geoLonVar, nil, nil).Read(geoLon); err != nil {
		return nil, vdcerr.New("mom.Open", vdcerr.IOError, err)
	}

	r := &Reader{
		files: files, geoLatVar: geoLatVar, geoLonVar: geoLonVar,
		nlon: nlon, nlat: nlat, geoLat: geoLat, geoLon: geoLon,
		vars3d: []string{angleVar, latVar},
	}
	for _, name := range nc0.Header.Variables() {
		vd := nc0.Header.Lengths(name)
		if len(vd) == 3 {
			r.vars2d = append(r.vars2d, name)
		} else if len(vd) == 4 {
			r.vars3d = append(r.vars3d, name)
		}
	}

	latMin, latMax := float64(geoLat[0]), float64(geoLat[0])
	lonMin, lonMax := float64(geoLon[0]), float64(geoLon[0])
	for i := range geoLat {
		if v := float64(geoLat[i]); v < latMin {
			latMin = v
		} else if v > latMax {
			latMax = v
		}
		if v := float64(geoLon[i]); v < lonMin {
			lonMin = v
		} else if v > lonMax {
			lonMax = v
		}
	}
	r.extents = [6]float64{lonMin, latMin, 0, lonMax, latMax, 0}
	return r, nil
}

// angleAt returns the angle (radians) the grid's x-axis makes with
// true east at vertex (i,j), per original_source/lib/vdf/MOM.cpp's
// getAngle: the bearing of the vector to the next vertex in the
// x-direction, falling back to the previous vertex at the grid's
// last column.
func (r *Reader) angleAt(i, j int) float32 {
	i0, i1 := i, i+1
	if i1 >= r.nlon {
		i0, i1 = i-1, i
		if i0 < 0 {
			return 0
		}
	}
	lat0, lon0 := r.geoLat[j*r.nlon+i0], r.geoLon[j*r.nlon+i0]
	lat1, lon1 := r.geoLat[j*r.nlon+i1], r.geoLon[j*r.nlon+i1]
	dlon := float64(lon1-lon0) * math.Pi / 180
	lat0r, lat1r := float64(lat0)*math.Pi/180, float64(lat1)*math.Pi/180
	y := math.Sin(dlon) * math.Cos(lat1r)
	x := math.Cos(lat0r)*math.Sin(lat1r) - math.Sin(lat0r)*math.Cos(lat1r)*math.Cos(dlon)
	return float32(math.Atan2(y, x))
}

func (r *Reader) GetVariables3D() []string   { return append([]string(nil), r.vars3d...) }
func (r *Reader) GetVariables2DXY() []string { return append([]string(nil), r.vars2d...) }
func (r *Reader) GetNumTimeSteps() int       { return len(r.files) }

func (r *Reader) GetTSUserTime(ts int) (float64, error) {
	if ts < 0 || ts >= len(r.files) {
		return 0, vdcerr.New("mom.Reader.GetTSUserTime", vdcerr.InvalidVariable, fmt.Errorf("time step %d out of range", ts))
	}
	return float64(ts), nil
}

func (r *Reader) GetGridDim() vdc.Dim      { return vdc.Dim{r.nlon, r.nlat, 1} }
func (r *Reader) GetExtents() [6]float64   { return r.extents }
func (r *Reader) GetMapProjection() string { return "" }

type handle struct {
	f       *os.File
	nc      *cdf.File
	varname string
	derived bool
	done    bool
}

func (r *Reader) OpenVariableRead(ts int, varname string, level int) (readers.VarHandle, error) {
	if ts < 0 || ts >= len(r.files) {
		return nil, vdcerr.New("mom.Reader.OpenVariableRead", vdcerr.InvalidVariable, fmt.Errorf("time step %d out of range", ts))
	}
	if varname == angleVar || varname == latVar {
		return &handle{varname: varname, derived: true}, nil
	}
	f, err := os.Open(r.files[ts])
	if err != nil {
		return nil, vdcerr.New("mom.Reader.OpenVariableRead", vdcerr.IOError, err)
	}
	nc, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, vdcerr.New("mom.Reader.OpenVariableRead", vdcerr.FormatError, err)
	}
	if len(nc.Header.Lengths(varname)) == 0 {
		f.Close()
		return nil, vdcerr.New("mom.Reader.OpenVariableRead", vdcerr.InvalidVariable, fmt.Errorf("unknown variable %q", varname))
	}
	return &handle{f: f, nc: nc, varname: varname}, nil
}

func (r *Reader) ReadSlice(h readers.VarHandle, buf []float32) (readers.SliceStatus, error) {
	hd := h.(*handle)
	if hd.done {
		return readers.EOF, nil
	}
	want := r.nlon * r.nlat
	if len(buf) != want {
		return readers.Error, vdcerr.New("mom.Reader.ReadSlice", vdcerr.InvalidRegion, fmt.Errorf("buffer has %d voxels, want %d", len(buf), want))
	}
	if hd.derived {
		for j := 0; j < r.nlat; j++ {
			for i := 0; i < r.nlon; i++ {
				idx := j*r.nlon + i
				if hd.varname == latVar {
					buf[idx] = r.geoLat[idx]
				} else {
					buf[idx] = r.angleAt(i, j)
				}
			}
		}
		hd.done = true
		return readers.OK, nil
	}
	dims := hd.nc.Header.Lengths(hd.varname)
	start := make([]int, len(dims))
	end := append([]int(nil), dims...)
	if len(dims) == 3 {
		start[0], end[0] = 0, 1
	} else if len(dims) == 4 {
		start[0], end[0] = 0, 1
		start[1], end[1] = 0, 1
	}
	if _, err := hd.nc.Reader(hd.varname, start, end).Read(buf); err != nil {
		return readers.Error, vdcerr.New("mom.Reader.ReadSlice", vdcerr.IOError, err)
	}
	hd.done = true
	return readers.OK, nil
}

func (r *Reader) CloseVariable(h readers.VarHandle) error {
	hd := h.(*handle)
	if hd.f != nil {
		return hd.f.Close()
	}
	return nil
}
