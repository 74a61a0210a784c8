// Package raw implements readers.Reader over a single dense raw
// binary file: one variable, one time step, row-major float32 voxels
// at a caller-supplied grid dimension. Grounded on blockio's own
// io.ReaderAt idiom for positioned, unbuffered access.
package raw

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/vaporvdc/vdc"
	"github.com/vaporvdc/vdc/internal/vdcerr"
	"github.com/vaporvdc/vdc/readers"
)

// Reader reads one dense raw binary file as a single 3D variable at a
// single time step, per spec.md §4.8's "raw" format and the sample
// raw2vdf converter.
type Reader struct {
	path    string
	varname string
	dim     vdc.Dim
	f       *os.File
}

// New opens path as a dense row-major float32 volume of the given
// dimensions, exposed under varname.
func New(path, varname string, dim vdc.Dim) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, vdcerr.New("raw.New", vdcerr.IOError, err)
	}
	want := int64(dim.Mul()) * 4
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, vdcerr.New("raw.New", vdcerr.IOError, err)
	}
	if info.Size() < want {
		f.Close()
		return nil, vdcerr.New("raw.New", vdcerr.FormatError, fmt.Errorf("%s: %d bytes, want at least %d for dims %v", path, info.Size(), want, dim))
	}
	return &Reader{path: path, varname: varname, dim: dim, f: f}, nil
}

func (r *Reader) Close() error { return r.f.Close() }

func (r *Reader) GetVariables3D() []string   { return []string{r.varname} }
func (r *Reader) GetVariables2DXY() []string { return nil }
func (r *Reader) GetNumTimeSteps() int       { return 1 }

func (r *Reader) GetTSUserTime(ts int) (float64, error) {
	if ts != 0 {
		return 0, vdcerr.New("raw.Reader.GetTSUserTime", vdcerr.InvalidVariable, fmt.Errorf("time step %d out of range", ts))
	}
	return 0, nil
}

func (r *Reader) GetGridDim() vdc.Dim          { return r.dim }
func (r *Reader) GetExtents() [6]float64       { return [6]float64{0, 0, 0, float64(r.dim[0] - 1), float64(r.dim[1] - 1), float64(r.dim[2] - 1)} }
func (r *Reader) GetMapProjection() string     { return "" }

type handle struct {
	z int
}

// OpenVariableRead opens varname for slice-at-a-time XY reads. level
// is ignored (raw files carry only the native resolution; the caller
// is responsible for requesting level==-1 or the native level).
func (r *Reader) OpenVariableRead(ts int, varname string, level int) (readers.VarHandle, error) {
	if ts != 0 || varname != r.varname {
		return nil, vdcerr.New("raw.Reader.OpenVariableRead", vdcerr.InvalidVariable, fmt.Errorf("unknown variable %q at ts %d", varname, ts))
	}
	return &handle{z: 0}, nil
}

// ReadSlice reads the next XY plane (z increasing) into buf, sized
// dim[0]*dim[1].
func (r *Reader) ReadSlice(h readers.VarHandle, buf []float32) (readers.SliceStatus, error) {
	hd := h.(*handle)
	if hd.z >= r.dim[2] {
		return readers.EOF, nil
	}
	want := r.dim[0] * r.dim[1]
	if len(buf) != want {
		return readers.Error, vdcerr.New("raw.Reader.ReadSlice", vdcerr.InvalidRegion, fmt.Errorf("buffer has %d voxels, want %d", len(buf), want))
	}
	off := int64(hd.z) * int64(want) * 4
	raw := make([]byte, want*4)
	if _, err := r.f.ReadAt(raw, off); err != nil {
		if err == io.EOF {
			return readers.Error, vdcerr.New("raw.Reader.ReadSlice", vdcerr.IOError, fmt.Errorf("short read at z=%d: %v", hd.z, err))
		}
		return readers.Error, vdcerr.New("raw.Reader.ReadSlice", vdcerr.IOError, err)
	}
	for i := range buf {
		buf[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	hd.z++
	return readers.OK, nil
}

func (r *Reader) CloseVariable(h readers.VarHandle) error { return nil }
