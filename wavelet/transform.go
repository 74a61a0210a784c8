package wavelet

import (
	"fmt"

	"github.com/vaporvdc/vdc/internal/vdcerr"
)

// cubeIndex maps (x,y,z) into a flat, x-fastest array of an n^3 cube.
func cubeIndex(n, x, y, z int) int { return x + n*(y+n*z) }

// assembleCube3D lays the eight dim^3 octant blocks of a superblock
// into one flat (2*dim)^3 array, x-fastest within each block too.
func assembleCube3D(dim int, blocks [8][]float32) []float32 {
	n := 2 * dim
	full := make([]float32, n*n*n)
	for oct := 0; oct < 8; oct++ {
		ox, oy, oz := oct&1, (oct>>1)&1, (oct>>2)&1
		blk := blocks[oct]
		for z := 0; z < dim; z++ {
			for y := 0; y < dim; y++ {
				for x := 0; x < dim; x++ {
					full[cubeIndex(n, ox*dim+x, oy*dim+y, oz*dim+z)] = blk[x+dim*(y+dim*z)]
				}
			}
		}
	}
	return full
}

// splitCube3D is the inverse of assembleCube3D: it slices a flat
// (2*dim)^3 array back into eight dim^3 octant blocks.
func splitCube3D(dim int, full []float32) [8][]float32 {
	n := 2 * dim
	var out [8][]float32
	for oct := 0; oct < 8; oct++ {
		ox, oy, oz := oct&1, (oct>>1)&1, (oct>>2)&1
		blk := make([]float32, dim*dim*dim)
		for z := 0; z < dim; z++ {
			for y := 0; y < dim; y++ {
				for x := 0; x < dim; x++ {
					blk[x+dim*(y+dim*z)] = full[cubeIndex(n, ox*dim+x, oy*dim+y, oz*dim+z)]
				}
			}
		}
		out[oct] = blk
	}
	return out
}

// forwardAxis3D applies the forward 1D lifting transform to every
// line of full (an n^3 cube, n=2*dim) along the given axis (0=x,
// 1=y, 2=z), halving that axis into a low (lambda) half followed by a
// high (gamma) half.
func forwardAxis3D(k Kind, n int, full []float32, axis int) {
	dim := n / 2
	line := make([]float32, n)
	switch axis {
	case 0:
		for z := 0; z < n; z++ {
			for y := 0; y < n; y++ {
				base := n * (y + n*z)
				copy(line, full[base:base+n])
				lambda, gamma := forward1D(k, line)
				copy(full[base:base+dim], lambda)
				copy(full[base+dim:base+n], gamma)
			}
		}
	case 1:
		for z := 0; z < n; z++ {
			for x := 0; x < n; x++ {
				for y := 0; y < n; y++ {
					line[y] = full[cubeIndex(n, x, y, z)]
				}
				lambda, gamma := forward1D(k, line)
				for y := 0; y < dim; y++ {
					full[cubeIndex(n, x, y, z)] = lambda[y]
					full[cubeIndex(n, x, dim+y, z)] = gamma[y]
				}
			}
		}
	case 2:
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				for z := 0; z < n; z++ {
					line[z] = full[cubeIndex(n, x, y, z)]
				}
				lambda, gamma := forward1D(k, line)
				for z := 0; z < dim; z++ {
					full[cubeIndex(n, x, y, z)] = lambda[z]
					full[cubeIndex(n, x, y, dim+z)] = gamma[z]
				}
			}
		}
	}
}

// inverseAxis3D undoes forwardAxis3D along the given axis.
func inverseAxis3D(k Kind, n int, full []float32, axis int) {
	dim := n / 2
	lambda := make([]float32, dim)
	gamma := make([]float32, dim)
	switch axis {
	case 0:
		for z := 0; z < n; z++ {
			for y := 0; y < n; y++ {
				base := n * (y + n*z)
				copy(lambda, full[base:base+dim])
				copy(gamma, full[base+dim:base+n])
				line := inverse1D(k, lambda, gamma)
				copy(full[base:base+n], line)
			}
		}
	case 1:
		for z := 0; z < n; z++ {
			for x := 0; x < n; x++ {
				for y := 0; y < dim; y++ {
					lambda[y] = full[cubeIndex(n, x, y, z)]
					gamma[y] = full[cubeIndex(n, x, dim+y, z)]
				}
				line := inverse1D(k, lambda, gamma)
				for y := 0; y < n; y++ {
					full[cubeIndex(n, x, y, z)] = line[y]
				}
			}
		}
	case 2:
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				for z := 0; z < dim; z++ {
					lambda[z] = full[cubeIndex(n, x, y, z)]
					gamma[z] = full[cubeIndex(n, x, y, dim+z)]
				}
				line := inverse1D(k, lambda, gamma)
				for z := 0; z < n; z++ {
					full[cubeIndex(n, x, y, z)] = line[z]
				}
			}
		}
	}
}

func checkDim(op string, dim int) error {
	if dim <= 0 {
		return vdcerr.New(op, vdcerr.FormatError, fmt.Errorf("block dimension %d must be positive", dim))
	}
	return nil
}

// Forward3D transforms the eight equally sized cubic blocks of a
// superblock (spatial octant order: index = ix + 2*iy + 4*iz) into
// one lambda block (index 0) and seven gamma blocks (indices 1-7, in
// the matching frequency-subband order).
func Forward3D(k Kind, dim int, src [8][]float32) ([8][]float32, error) {
	if _, ok := pinnedMode(k); !ok {
		return [8][]float32{}, vdcerr.New("wavelet.Forward3D", vdcerr.Unsupported, fmt.Errorf("unknown kernel %v", k))
	}
	if err := checkDim("wavelet.Forward3D", dim); err != nil {
		return [8][]float32{}, err
	}
	for i, b := range src {
		if len(b) != dim*dim*dim {
			return [8][]float32{}, vdcerr.New("wavelet.Forward3D", vdcerr.FormatError,
				fmt.Errorf("block %d has %d samples, want %d", i, len(b), dim*dim*dim))
		}
	}
	n := 2 * dim
	full := assembleCube3D(dim, src)
	forwardAxis3D(k, n, full, 0)
	forwardAxis3D(k, n, full, 1)
	forwardAxis3D(k, n, full, 2)
	return splitCube3D(dim, full), nil
}

// Inverse3D is the exact inverse of Forward3D.
func Inverse3D(k Kind, dim int, src [8][]float32) ([8][]float32, error) {
	if _, ok := pinnedMode(k); !ok {
		return [8][]float32{}, vdcerr.New("wavelet.Inverse3D", vdcerr.Unsupported, fmt.Errorf("unknown kernel %v", k))
	}
	if err := checkDim("wavelet.Inverse3D", dim); err != nil {
		return [8][]float32{}, err
	}
	for i, b := range src {
		if len(b) != dim*dim*dim {
			return [8][]float32{}, vdcerr.New("wavelet.Inverse3D", vdcerr.FormatError,
				fmt.Errorf("block %d has %d samples, want %d", i, len(b), dim*dim*dim))
		}
	}
	n := 2 * dim
	full := assembleCube3D(dim, src)
	inverseAxis3D(k, n, full, 2)
	inverseAxis3D(k, n, full, 1)
	inverseAxis3D(k, n, full, 0)
	return splitCube3D(dim, full), nil
}

// squareIndex maps (x,y) into a flat, x-fastest array of an n^2 square.
func squareIndex(n, x, y int) int { return x + n*y }

func assembleSquare2D(dim int, blocks [4][]float32) []float32 {
	n := 2 * dim
	full := make([]float32, n*n)
	for oct := 0; oct < 4; oct++ {
		ox, oy := oct&1, (oct>>1)&1
		blk := blocks[oct]
		for y := 0; y < dim; y++ {
			for x := 0; x < dim; x++ {
				full[squareIndex(n, ox*dim+x, oy*dim+y)] = blk[x+dim*y]
			}
		}
	}
	return full
}

func splitSquare2D(dim int, full []float32) [4][]float32 {
	n := 2 * dim
	var out [4][]float32
	for oct := 0; oct < 4; oct++ {
		ox, oy := oct&1, (oct>>1)&1
		blk := make([]float32, dim*dim)
		for y := 0; y < dim; y++ {
			for x := 0; x < dim; x++ {
				blk[x+dim*y] = full[squareIndex(n, ox*dim+x, oy*dim+y)]
			}
		}
		out[oct] = blk
	}
	return out
}

func forwardAxis2D(k Kind, n int, full []float32, axis int) {
	dim := n / 2
	line := make([]float32, n)
	if axis == 0 {
		for y := 0; y < n; y++ {
			base := n * y
			copy(line, full[base:base+n])
			lambda, gamma := forward1D(k, line)
			copy(full[base:base+dim], lambda)
			copy(full[base+dim:base+n], gamma)
		}
		return
	}
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			line[y] = full[squareIndex(n, x, y)]
		}
		lambda, gamma := forward1D(k, line)
		for y := 0; y < dim; y++ {
			full[squareIndex(n, x, y)] = lambda[y]
			full[squareIndex(n, x, dim+y)] = gamma[y]
		}
	}
}

func inverseAxis2D(k Kind, n int, full []float32, axis int) {
	dim := n / 2
	lambda := make([]float32, dim)
	gamma := make([]float32, dim)
	if axis == 0 {
		for y := 0; y < n; y++ {
			base := n * y
			copy(lambda, full[base:base+dim])
			copy(gamma, full[base+dim:base+n])
			line := inverse1D(k, lambda, gamma)
			copy(full[base:base+n], line)
		}
		return
	}
	for x := 0; x < n; x++ {
		for y := 0; y < dim; y++ {
			lambda[y] = full[squareIndex(n, x, y)]
			gamma[y] = full[squareIndex(n, x, dim+y)]
		}
		line := inverse1D(k, lambda, gamma)
		for y := 0; y < n; y++ {
			full[squareIndex(n, x, y)] = line[y]
		}
	}
}

// Forward2D is the 2D analogue of Forward3D: a 2x2 superblock of
// square blocks (octant order ix + 2*iy) transforms into one lambda
// and three gamma blocks.
func Forward2D(k Kind, dim int, src [4][]float32) ([4][]float32, error) {
	if _, ok := pinnedMode(k); !ok {
		return [4][]float32{}, vdcerr.New("wavelet.Forward2D", vdcerr.Unsupported, fmt.Errorf("unknown kernel %v", k))
	}
	if err := checkDim("wavelet.Forward2D", dim); err != nil {
		return [4][]float32{}, err
	}
	for i, b := range src {
		if len(b) != dim*dim {
			return [4][]float32{}, vdcerr.New("wavelet.Forward2D", vdcerr.FormatError,
				fmt.Errorf("block %d has %d samples, want %d", i, len(b), dim*dim))
		}
	}
	n := 2 * dim
	full := assembleSquare2D(dim, src)
	forwardAxis2D(k, n, full, 0)
	forwardAxis2D(k, n, full, 1)
	return splitSquare2D(dim, full), nil
}

// Inverse2D is the exact inverse of Forward2D.
func Inverse2D(k Kind, dim int, src [4][]float32) ([4][]float32, error) {
	if _, ok := pinnedMode(k); !ok {
		return [4][]float32{}, vdcerr.New("wavelet.Inverse2D", vdcerr.Unsupported, fmt.Errorf("unknown kernel %v", k))
	}
	if err := checkDim("wavelet.Inverse2D", dim); err != nil {
		return [4][]float32{}, err
	}
	for i, b := range src {
		if len(b) != dim*dim {
			return [4][]float32{}, vdcerr.New("wavelet.Inverse2D", vdcerr.FormatError,
				fmt.Errorf("block %d has %d samples, want %d", i, len(b), dim*dim))
		}
	}
	n := 2 * dim
	full := assembleSquare2D(dim, src)
	inverseAxis2D(k, n, full, 1)
	inverseAxis2D(k, n, full, 0)
	return splitSquare2D(dim, full), nil
}
