package regrid

import "math"

// polarThreshold is the latitude above which candidate search and
// inclusion testing switch to the polar (r,theta) plane, where cells
// spanning the 180-degree seam or wrapping the pole stay convex.
// Tripolar ocean grids only fold near their northern boundary, so a
// high threshold well clear of the equator is the conservative choice.
const polarThreshold = 60.0

// toPolar maps (lon,lat) to the (r,theta) plane spec.md §4.6 specifies:
// r = (90-lat)*2/pi, theta = lon in radians.
func toPolar(lon, lat float64) (r, theta float64) {
	return (90 - lat) * 2 / math.Pi, lon * math.Pi / 180
}

func polarQuad(q quad) quad {
	var p quad
	for i := 0; i < 4; i++ {
		p.lon[i], p.lat[i] = toPolar(q.lon[i], q.lat[i])
	}
	return p
}

// zipperNeighbor returns the "up" neighbor cell coordinate of
// (ulon, nlat-1) across a tripolar grid's folded top row: instead of
// wrapping to a nonexistent row nlat, the fold reflects across the
// grid's own top row (spec.md §4.6 point 4).
func zipperNeighbor(ulon, nlon, nlat int) (int, int) {
	return nlon - 1 - ulon, nlat - 1
}
