package regrid

import (
	"testing"

	"github.com/sirupsen/logrus"
)

// regularGrid builds an n x n curvilinear source grid that is in fact
// rectilinear (lon/lat both integer-spaced 0..n-1), so Build's target
// raster over the same extents should land exactly on source cell
// corners with alpha=beta=0.
func regularGrid(n int) (lon, lat []float64) {
	lon = make([]float64, n*n)
	lat = make([]float64, n*n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			lon[j*n+i] = float64(i)
			lat[j*n+i] = float64(j)
		}
	}
	return lon, lat
}

func TestBuildIdentityGridLandsOnCorners(t *testing.T) {
	const n = 4
	srcLon, srcLat := regularGrid(n)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel) // silence the "no covering source cell" warning noise

	wt, err := Build(srcLon, srcLat, n, n, n, n, [2]float64{0, 3}, [2]float64{0, 3}, log)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			out := j*n + i
			if wt.CornerLon[out] == -1 {
				t.Fatalf("vertex (%d,%d) uncovered", i, j)
			}
		}
	}
	// The bottom-left vertex (0,0) must land on source cell (0,0) at
	// its own lower-left corner.
	if wt.CornerLon[0] != 0 || wt.CornerLat[0] != 0 {
		t.Fatalf("vertex (0,0): corner = (%d,%d), want (0,0)", wt.CornerLon[0], wt.CornerLat[0])
	}
	if wt.Alpha[0] > 0.01 || wt.Beta[0] > 0.01 {
		t.Fatalf("vertex (0,0): alpha=%v beta=%v, want ~0", wt.Alpha[0], wt.Beta[0])
	}
}

func TestInterp2DReproducesSourceAtVertices(t *testing.T) {
	const n = 4
	srcLon, srcLat := regularGrid(n)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	wt, err := Build(srcLon, srcLat, n, n, n, n, [2]float64{0, 3}, [2]float64{0, 3}, log)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	src := make([]float32, n*n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			src[j*n+i] = float32(i) + float32(j)*10
		}
	}

	dst, err := wt.Interp2D(src, -999, -999)
	if err != nil {
		t.Fatalf("Interp2D: %v", err)
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			out := j*n + i
			want := src[out]
			got := dst[out]
			if d := got - want; d > 0.05 || d < -0.05 {
				t.Errorf("vertex (%d,%d): got %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestInterp2DWrongLengthErrors(t *testing.T) {
	wt := &WeightTable{NLon: 2, NLat: 2, srcNLon: 3, srcNLat: 3,
		CornerLon: []int32{0, 0, 0, 0}, CornerLat: []int32{0, 0, 0, 0},
		Alpha: []float32{0, 0, 0, 0}, Beta: []float32{0, 0, 0, 0}}
	if _, err := wt.Interp2D([]float32{1, 2, 3}, -999, -999); err == nil {
		t.Fatal("expected error for mismatched source length")
	}
}

func TestInterp2DMissingValuePropagates(t *testing.T) {
	const n = 2
	srcLon, srcLat := regularGrid(n)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	wt, err := Build(srcLon, srcLat, n, n, n, n, [2]float64{0, 1}, [2]float64{0, 1}, log)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	src := []float32{-999, -999, -999, -999}
	dst, err := wt.Interp2D(src, -999, -12345)
	if err != nil {
		t.Fatalf("Interp2D: %v", err)
	}
	for i, v := range dst {
		if v != -12345 {
			t.Errorf("vertex %d: got %v, want missing-value sentinel -12345", i, v)
		}
	}
}
