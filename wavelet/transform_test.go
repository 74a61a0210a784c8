package wavelet

import (
	"testing"

	"gonum.org/v1/gonum/floats"
)

// maxAbsResidual returns the largest absolute component-wise
// difference between a and b, using gonum/floats for the reduction
// (float64 domain, matching floats' own API) rather than a hand-rolled
// max loop.
func maxAbsResidual(a, b []float32) float64 {
	da := make([]float64, len(a))
	db := make([]float64, len(b))
	for i := range a {
		da[i] = float64(a[i])
		db[i] = float64(b[i])
	}
	floats.Sub(da, db)
	for i := range da {
		if da[i] < 0 {
			da[i] = -da[i]
		}
	}
	return floats.Max(da)
}

func makeOctants3D(dim int, f func(x, y, z int) float32) [8][]float32 {
	var out [8][]float32
	for oct := 0; oct < 8; oct++ {
		ox, oy, oz := oct&1, (oct>>1)&1, (oct>>2)&1
		blk := make([]float32, dim*dim*dim)
		for z := 0; z < dim; z++ {
			for y := 0; y < dim; y++ {
				for x := 0; x < dim; x++ {
					blk[x+dim*(y+dim*z)] = f(ox*dim+x, oy*dim+y, oz*dim+z)
				}
			}
		}
		out[oct] = blk
	}
	return out
}

func approxEqual(a, b float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-3
}

func TestForwardInverse3DIdentity(t *testing.T) {
	const dim = 4
	for _, k := range []Kind{Bior53, Bior97} {
		src := makeOctants3D(dim, func(x, y, z int) float32 {
			return float32(x) + float32(y)*10 + float32(z)*100
		})
		lambda, err := Forward3D(k, dim, src)
		if err != nil {
			t.Fatalf("%v: Forward3D: %v", k, err)
		}
		got, err := Inverse3D(k, dim, lambda)
		if err != nil {
			t.Fatalf("%v: Inverse3D: %v", k, err)
		}
		for oct := 0; oct < 8; oct++ {
			for i := range src[oct] {
				if !approxEqual(src[oct][i], got[oct][i]) {
					t.Fatalf("%v: octant %d sample %d: got %v, want %v", k, oct, i, got[oct][i], src[oct][i])
				}
			}
		}
	}
}

func TestScenarioALinearComponentSurvives(t *testing.T) {
	// Domain (64,64,64), block (32,32,32): a single superblock made of
	// eight 32^3 octants spanning the whole domain. Voxel value =
	// x + 64*y + 4096*z, the affine field from spec.md's Scenario A.
	const dim = 32
	src := makeOctants3D(dim, func(x, y, z int) float32 {
		return float32(x) + 64*float32(y) + 4096*float32(z)
	})
	for _, k := range []Kind{Bior53, Bior97} {
		coeffs, err := Forward3D(k, dim, src)
		if err != nil {
			t.Fatalf("%v: Forward3D: %v", k, err)
		}
		got, err := Inverse3D(k, dim, coeffs)
		if err != nil {
			t.Fatalf("%v: Inverse3D: %v", k, err)
		}
		for oct := 0; oct < 8; oct++ {
			for i := range src[oct] {
				if !approxEqual(src[oct][i], got[oct][i]) {
					t.Fatalf("%v: octant %d sample %d: got %v, want %v", k, oct, i, got[oct][i], src[oct][i])
				}
			}
		}
	}
}

func TestForwardInverse2DIdentity(t *testing.T) {
	const dim = 8
	for _, k := range []Kind{Bior53, Bior97} {
		var src [4][]float32
		for oct := 0; oct < 4; oct++ {
			ox, oy := oct&1, (oct>>1)&1
			blk := make([]float32, dim*dim)
			for y := 0; y < dim; y++ {
				for x := 0; x < dim; x++ {
					blk[x+dim*y] = float32(ox*dim+x) + float32(oy*dim+y)*100
				}
			}
			src[oct] = blk
		}
		lambda, err := Forward2D(k, dim, src)
		if err != nil {
			t.Fatalf("%v: Forward2D: %v", k, err)
		}
		got, err := Inverse2D(k, dim, lambda)
		if err != nil {
			t.Fatalf("%v: Inverse2D: %v", k, err)
		}
		for oct := 0; oct < 4; oct++ {
			for i := range src[oct] {
				if !approxEqual(src[oct][i], got[oct][i]) {
					t.Fatalf("%v: octant %d sample %d: got %v, want %v", k, oct, i, got[oct][i], src[oct][i])
				}
			}
		}
	}
}

func TestForwardInverse3DMaxResidual(t *testing.T) {
	const dim = 4
	for _, k := range []Kind{Bior53, Bior97} {
		src := makeOctants3D(dim, func(x, y, z int) float32 {
			return float32(x) + float32(y)*10 + float32(z)*100
		})
		lambda, err := Forward3D(k, dim, src)
		if err != nil {
			t.Fatalf("%v: Forward3D: %v", k, err)
		}
		got, err := Inverse3D(k, dim, lambda)
		if err != nil {
			t.Fatalf("%v: Inverse3D: %v", k, err)
		}
		for oct := 0; oct < 8; oct++ {
			if r := maxAbsResidual(src[oct], got[oct]); r >= 1e-3 {
				t.Fatalf("%v: octant %d max residual %v, want < 1e-3", k, oct, r)
			}
		}
	}
}

func TestForward3DRejectsWrongBlockSize(t *testing.T) {
	var src [8][]float32
	for i := range src {
		src[i] = make([]float32, 10)
	}
	if _, err := Forward3D(Bior97, 4, src); err == nil {
		t.Fatal("expected error for mismatched block size")
	}
}

func TestParsePinsBoundaryMode(t *testing.T) {
	if _, err := Parse("bior4.4", "sp0"); err == nil {
		t.Fatal("expected Unsupported for bior4.4 with sp0")
	}
	k, err := Parse("bior4.4", "symh")
	if err != nil || k != Bior97 {
		t.Fatalf("Parse(bior4.4, symh) = %v, %v", k, err)
	}
	k, err = Parse("bior5.3", "sp0")
	if err != nil || k != Bior53 {
		t.Fatalf("Parse(bior5.3, sp0) = %v, %v", k, err)
	}
	if _, err := Parse("daubechies6", "symh"); err == nil {
		t.Fatal("expected Unsupported for unknown kernel")
	}
}
