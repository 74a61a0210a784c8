// Package regrid computes bilinear interpolation weights between a
// curvilinear (or polar/tripolar) source lon/lat grid and a regular
// target raster, and applies them with missing-value-aware averaging.
package regrid

import "math"

// quad is one source cell's four corners, ordered
// (ulon,ulat), (ulon+1,ulat), (ulon+1,ulat+1), (ulon,ulat+1).
type quad struct {
	lon, lat [4]float64
}

// orientedInclude reports whether (x,y) lies inside q (or within eps
// of its boundary) using the four-sided oriented-line test: (x,y)
// must fall on the same side of every edge, walked in corner order.
func orientedInclude(q quad, x, y, eps float64) bool {
	sign := 0.0
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		ex, ey := q.lon[j]-q.lon[i], q.lat[j]-q.lat[i]
		cross := ex*(y-q.lat[i]) - ey*(x-q.lon[i])
		if math.Abs(cross) < eps {
			continue
		}
		if sign == 0 {
			sign = math.Copysign(1, cross)
		} else if math.Copysign(1, cross) != sign {
			return false
		}
	}
	return true
}

// bounds returns q's axis-aligned bounding box.
func (q quad) bounds() (minLon, maxLon, minLat, maxLat float64) {
	minLon, maxLon = q.lon[0], q.lon[0]
	minLat, maxLat = q.lat[0], q.lat[0]
	for i := 1; i < 4; i++ {
		minLon, maxLon = math.Min(minLon, q.lon[i]), math.Max(maxLon, q.lon[i])
		minLat, maxLat = math.Min(minLat, q.lat[i]), math.Max(maxLat, q.lat[i])
	}
	return
}

// bilinearAt evaluates the forward bilinear map at (alpha,beta).
func bilinearAt(q quad, alpha, beta float64) (x, y float64) {
	w00 := (1 - alpha) * (1 - beta)
	w10 := alpha * (1 - beta)
	w11 := alpha * beta
	w01 := (1 - alpha) * beta
	x = w00*q.lon[0] + w10*q.lon[1] + w11*q.lon[2] + w01*q.lon[3]
	y = w00*q.lat[0] + w10*q.lat[1] + w11*q.lat[2] + w01*q.lat[3]
	return
}

// invertBilinear solves for (alpha,beta) such that bilinearAt(q,alpha,beta)
// equals (x,y), by Newton iteration on the forward map's residual — the
// same fixed-point relationship spec.md §4.6 describes as
// alpha_{n+1}=A(alpha_n,beta_n,lon,lat), beta_{n+1}=B(...). Returns the
// converged (alpha,beta) and the final residual magnitude.
func invertBilinear(q quad, x, y float64) (alpha, beta, residual float64) {
	alpha, beta = 0.5, 0.5
	for iter := 0; iter < 10; iter++ {
		fx, fy := bilinearAt(q, alpha, beta)
		rx, ry := fx-x, fy-y
		residual = math.Hypot(rx, ry)
		if residual < 1e-9 {
			break
		}
		// Jacobian of the forward map w.r.t. (alpha,beta).
		dxda := (1-beta)*(q.lon[1]-q.lon[0]) + beta*(q.lon[2]-q.lon[3])
		dxdb := (1-alpha)*(q.lon[3]-q.lon[0]) + alpha*(q.lon[2]-q.lon[1])
		dyda := (1-beta)*(q.lat[1]-q.lat[0]) + beta*(q.lat[2]-q.lat[3])
		dydb := (1-alpha)*(q.lat[3]-q.lat[0]) + alpha*(q.lat[2]-q.lat[1])
		det := dxda*dydb - dxdb*dyda
		if math.Abs(det) < 1e-15 {
			break
		}
		dAlpha := (dydb*rx - dxdb*ry) / det
		dBeta := (dxda*ry - dyda*rx) / det
		alpha -= dAlpha
		beta -= dBeta
	}
	fx, fy := bilinearAt(q, alpha, beta)
	residual = math.Hypot(fx-x, fy-y)
	return
}
