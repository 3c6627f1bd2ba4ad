// Package astrom provides the small astronomy collaborators the engine
// needs: geodetic coordinate conversion and local sidereal time.
package astrom

import "math"

// WGS84 ellipsoid constants.
const (
	gpsA  = 6378137.0
	gpsB  = 6356752.31424518
	eSq   = 6.69437999014e-3
	ePSq  = 6.73949674228e-3
	twoPi = 2 * math.Pi
)

// WGS84 converts between geocentric XYZ (meters) and geodetic
// latitude/longitude (radians) with altitude above the ellipsoid
// (meters). It satisfies param.Geodesy.
type WGS84 struct{}

// ToLatLonAlt converts geocentric coordinates to geodetic ones.
func (WGS84) ToLatLonAlt(x, y, z float64) (lat, lon, alt float64) {
	p := math.Sqrt(x*x + y*y)
	theta := math.Atan2(z*gpsA, p*gpsB)
	sinT, cosT := math.Sincos(theta)
	lat = math.Atan2(z+ePSq*gpsB*sinT*sinT*sinT, p-eSq*gpsA*cosT*cosT*cosT)
	lon = math.Atan2(y, x)
	n := gpsA / math.Sqrt(1-eSq*math.Sin(lat)*math.Sin(lat))
	alt = p/math.Cos(lat) - n
	return lat, lon, alt
}

// FromLatLonAlt converts geodetic coordinates to geocentric ones.
func (WGS84) FromLatLonAlt(lat, lon, alt float64) (x, y, z float64) {
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)
	n := gpsA / math.Sqrt(1-eSq*sinLat*sinLat)
	x = (n + alt) * cosLat * cosLon
	y = (n + alt) * cosLat * sinLon
	z = (gpsB*gpsB/(gpsA*gpsA)*n + alt) * sinLat
	return x, y, z
}

// SiderealTimer computes apparent local sidereal time in radians from a
// Julian date and an east longitude in radians.
type SiderealTimer interface {
	LST(jd, lon float64) float64
}

// ERA is an earth-rotation-angle based sidereal timer, accurate to well
// under a second of time for contemporary epochs.
type ERA struct{}

// LST returns the local sidereal time in [0, 2pi).
func (ERA) LST(jd, lon float64) float64 {
	du := jd - 2451545.0
	era := twoPi * (0.7790572732640 + 1.00273781191135448*du)
	lst := math.Mod(era+lon, twoPi)
	if lst < 0 {
		lst += twoPi
	}
	return lst
}
