// Package wavelet implements the forward and inverse biorthogonal
// wavelet transforms applied to cubic (and square, for 2D variables)
// superblocks, per the VDC's wavelet-block storage contract: a 2x2x2
// (or 2x2) arrangement of same-size blocks transforms into one
// coarser-level lambda (approximation) block plus seven (or three)
// gamma (detail) blocks, and back again exactly.
package wavelet

import (
	"fmt"

	"github.com/vaporvdc/vdc/internal/vdcerr"
)

// Kind identifies one of the two biorthogonal wavelet filters the
// storage engine supports. The source historically allowed pairing
// several kernels with several boundary-extension modes (symh, symw,
// sp0); this implementation pins exactly one boundary mode to each
// kernel and rejects every other pairing with Unsupported, per the
// repository's resolution of that open question. The pinned mode is a
// name that Parse checks; it does not change the arithmetic: both
// kernels' lifting steps extend block edges the same way (clampIdx in
// lifting.go).
type Kind int

const (
	// Bior53 is the LeGall 5/3 filter, paired with the sp0 boundary mode.
	Bior53 Kind = iota
	// Bior97 is the CDF 9/7 (bior4.4) filter, paired with the symh
	// boundary mode.
	Bior97
)

func (k Kind) String() string {
	switch k {
	case Bior53:
		return "bior5.3"
	case Bior97:
		return "bior9.7"
	default:
		return "unknown"
	}
}

// BoundaryMode is the sample-extension rule used at block edges.
type BoundaryMode int

const (
	SymH BoundaryMode = iota
	SP0
)

func (m BoundaryMode) String() string {
	if m == SP0 {
		return "sp0"
	}
	return "symh"
}

// pinnedMode returns the one boundary mode valid for k.
func pinnedMode(k Kind) (BoundaryMode, bool) {
	switch k {
	case Bior53:
		return SP0, true
	case Bior97:
		return SymH, true
	default:
		return 0, false
	}
}

// Parse resolves a VDF metadata file's kernel name and boundary-mode
// name to a Kind, rejecting any combination other than the one pinned
// kernel/mode pairing.
func Parse(kernelName, boundaryMode string) (Kind, error) {
	var k Kind
	switch kernelName {
	case "bior5.3", "bior1.3", "5/3", "legall5/3":
		k = Bior53
	case "bior4.4", "bior9.7", "9/7", "cdf9/7":
		k = Bior97
	default:
		return 0, vdcerr.New("wavelet.Parse", vdcerr.Unsupported,
			fmt.Errorf("unrecognized wavelet kernel %q", kernelName))
	}
	want, _ := pinnedMode(k)
	if boundaryMode != want.String() {
		return 0, vdcerr.New("wavelet.Parse", vdcerr.Unsupported,
			fmt.Errorf("kernel %q requires boundary mode %q, got %q", kernelName, want, boundaryMode))
	}
	return k, nil
}
