package regrid

import (
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/sirupsen/logrus"

	"github.com/vaporvdc/vdc/internal/vdcerr"
)

// WeightTable is the bilinear-weight lookup spec.md §4.6 describes:
// for every target lon/lat raster vertex, the enclosing source-grid
// cell (named by its lower-left corner indices) and the two bilinear
// parameters that reconstruct the target vertex from that cell's four
// corners.
type WeightTable struct {
	NLon, NLat int // target raster dimensions

	// CornerLon/CornerLat[j*NLon+i] name the source cell (ulon,ulat)
	// enclosing target vertex (i,j). -1 means uncovered.
	CornerLon []int32
	CornerLat []int32
	Alpha     []float32
	Beta      []float32

	srcNLon, srcNLat int
	log              logrus.FieldLogger
}

// logger returns the logger used for non-fatal warnings (unmapped
// target vertices): the one passed to Build, or
// logrus.StandardLogger() when that was nil.
func (wt *WeightTable) logger() logrus.FieldLogger {
	if wt.log != nil {
		return wt.log
	}
	return logrus.StandardLogger()
}

// srcCell is one source-grid cell indexed into the R-tree: its
// (ulon,ulat) lower-left index and its quad in target lon/lat space.
type srcCell struct {
	ulon, ulat int
	q          quad
}

func (c *srcCell) Bounds() rtreego.Rect {
	minLon, maxLon, minLat, maxLat := c.q.bounds()
	eps := 1e-6
	p := rtreego.Point{minLon - eps, minLat - eps}
	lengths := []float64{maxLon - minLon + 2*eps, maxLat - minLat + 2*eps}
	if lengths[0] <= 0 {
		lengths[0] = eps
	}
	if lengths[1] <= 0 {
		lengths[1] = eps
	}
	rect, _ := rtreego.NewRect(p, lengths)
	return rect
}

// Build computes a WeightTable mapping a curvilinear source grid
// (srcLon, srcLat, row-major over srcNLon x srcNLat) onto a target
// regular raster of nlon x nlat vertices discretized over
// [lonMin,lonMax] x [latMin,latMax], per spec.md §4.6's algorithm:
// bounding-box candidate search (accelerated here with an R-tree over
// each source cell's target-space footprint), oriented-line inclusion,
// fixed-point bilinear inversion, and a polar remap near the pole.
func Build(srcLon, srcLat []float64, srcNLon, srcNLat int, nlon, nlat int, lonExts, latExts [2]float64, log logrus.FieldLogger) (*WeightTable, error) {
	if len(srcLon) != srcNLon*srcNLat || len(srcLat) != srcNLon*srcNLat {
		return nil, vdcerr.New("regrid.Build", vdcerr.InvalidRegion, fmt.Errorf("source lon/lat arrays must have length %d", srcNLon*srcNLat))
	}
	deltaLon := (lonExts[1] - lonExts[0]) / float64(maxInt(nlon-1, 1))
	deltaLat := (latExts[1] - latExts[0]) / float64(maxInt(nlat-1, 1))
	epsRect := math.Max(deltaLon, deltaLat) * 0.1

	wt := &WeightTable{
		NLon: nlon, NLat: nlat,
		CornerLon: make([]int32, nlon*nlat),
		CornerLat: make([]int32, nlon*nlat),
		Alpha:     make([]float32, nlon*nlat),
		Beta:      make([]float32, nlon*nlat),
		srcNLon:   srcNLon, srcNLat: srcNLat,
		log: log,
	}
	for i := range wt.CornerLon {
		wt.CornerLon[i] = -1
		wt.CornerLat[i] = -1
	}
	// residual[i] tracks the winning candidate's inclusion residual so
	// a later, worse-fitting cell never overwrites a better one
	// (spec.md §4.6 point 5: "keep the one with the smallest oriented-
	// line residual").
	residual := make([]float64, nlon*nlat)
	for i := range residual {
		residual[i] = math.Inf(1)
	}

	rt := rtreego.NewTree(2, 25, 50)
	var allCells []*srcCell
	cellOf := func(ulon, ulat int) quad {
		var q quad
		corners := [4][2]int{{ulon, ulat}, {ulon + 1, ulat}, {ulon + 1, ulat + 1}, {ulon, ulat + 1}}
		for k, c := range corners {
			cu, cv := wrapSrc(c[0], srcNLon), c[1]
			if cv >= srcNLat {
				cu, cv = zipperNeighbor(cu, srcNLon, srcNLat)
			}
			idx := cv*srcNLon + cu
			q.lon[k] = srcLon[idx]
			q.lat[k] = srcLat[idx]
		}
		return q
	}
	for ulat := 0; ulat < srcNLat-1; ulat++ {
		for ulon := 0; ulon < srcNLon-1; ulon++ {
			q := cellOf(ulon, ulat)
			sc := &srcCell{ulon: ulon, ulat: ulat, q: q}
			rt.Insert(sc)
			allCells = append(allCells, sc)
		}
	}

	polar := func(lat float64) bool { return lat >= polarThreshold }

	for j := 0; j < nlat; j++ {
		lat := latExts[0] + float64(j)*deltaLat
		for i := 0; i < nlon; i++ {
			lon := lonExts[0] + float64(i)*deltaLon
			out := j*nlon + i

			testLon, testLat := lon, lat
			usePolar := polar(lat)

			searchPt := rtreego.Point{lon, lat}
			searchRect, _ := rtreego.NewRect(searchPt, []float64{1e-9, 1e-9})
			candidates := rt.SearchIntersect(searchRect)
			if len(candidates) == 0 {
				// Fall back to a full scan: a single-point R-tree query
				// can miss a cell whose bbox was expanded by epsilon
				// only, not a full target-resolution margin.
				candidates = make([]rtreego.Spatial, len(allCells))
				for i, sc := range allCells {
					candidates[i] = sc
				}
			}

			for _, obj := range candidates {
				sc := obj.(*srcCell)
				q := sc.q
				if usePolar {
					q = polarQuad(q)
					testLon, testLat = toPolar(lon, lat)
				} else {
					testLon, testLat = lon, lat
				}
				if !orientedInclude(q, testLon, testLat, epsRect) {
					continue
				}
				alpha, beta, res := invertBilinear(q, testLon, testLat)
				if res > residual[out] {
					continue
				}
				if alpha < -epsRect || alpha > 1+epsRect || beta < -epsRect || beta > 1+epsRect {
					continue
				}
				residual[out] = res
				wt.CornerLon[out] = int32(sc.ulon)
				wt.CornerLat[out] = int32(sc.ulat)
				wt.Alpha[out] = float32(clamp01(alpha))
				wt.Beta[out] = float32(clamp01(beta))
			}
			if wt.CornerLon[out] == -1 {
				wt.logger().WithFields(logrus.Fields{"lon": lon, "lat": lat}).
					Warn("regrid: target vertex has no covering source cell")
			}
		}
	}
	return wt, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func wrapSrc(u, nlon int) int {
	if u >= nlon {
		return u - nlon
	}
	if u < 0 {
		return u + nlon
	}
	return u
}

// Interp2D resamples src (row-major over the source grid dims wt was
// built from) onto a dst slice sized NLon*NLat, per spec.md §4.6's
// missing-value-aware bilinear weighting: a target vertex whose
// covering corners are combined-weight >= 0.5 missing receives dstMV;
// otherwise the non-missing corners are weighted and renormalized.
// An uncovered target vertex (no corner cell found during Build)
// always receives dstMV.
func (wt *WeightTable) Interp2D(src []float32, srcMV, dstMV float32) ([]float32, error) {
	if len(src) != wt.srcNLon*wt.srcNLat {
		return nil, vdcerr.New("regrid.WeightTable.Interp2D", vdcerr.InvalidRegion, fmt.Errorf("source data has %d values, want %d", len(src), wt.srcNLon*wt.srcNLat))
	}
	dst := make([]float32, wt.NLon*wt.NLat)
	for out := range dst {
		corLon := int(wt.CornerLon[out])
		if corLon < 0 {
			dst[out] = dstMV
			continue
		}
		corLat := int(wt.CornerLat[out])
		corLonP, corLonB, corLatP, corLonA := corLon+1, corLon+1, corLat+1, corLon
		if corLon == wt.srcNLon-1 {
			corLonP, corLonB = 0, 0
		} else if corLat == wt.srcNLat-1 {
			corLatP = corLat
			corLonA = wt.srcNLon - corLon - 1
			corLonB = wt.srcNLon - corLon - 2
		}
		alpha, beta := float64(wt.Alpha[out]), float64(wt.Beta[out])
		d0 := src[corLat*wt.srcNLon+corLon]
		d1 := src[corLat*wt.srcNLon+corLonP]
		d2 := src[corLatP*wt.srcNLon+corLonB]
		d3 := src[corLatP*wt.srcNLon+corLonA]

		cf0 := (1 - alpha) * (1 - beta)
		cf1 := alpha * (1 - beta)
		cf2 := alpha * beta
		cf3 := (1 - alpha) * beta

		var goodSum, mvCoef float64
		for _, pair := range [][2]float64{{float64(d0), cf0}, {float64(d1), cf1}, {float64(d2), cf2}, {float64(d3), cf3}} {
			v, cf := pair[0], pair[1]
			if float32(v) == srcMV {
				mvCoef += cf
			} else {
				goodSum += cf * v
			}
		}
		if mvCoef >= 0.5 {
			dst[out] = dstMV
		} else {
			dst[out] = float32(goodSum / (1 - mvCoef))
		}
	}
	return dst, nil
}
