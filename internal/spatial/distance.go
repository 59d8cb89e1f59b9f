// Package spatial computes great-circle distances between GPS fixes.
// It trusts its inputs: range and freshness validation happen in the capture
// layer before a fix ever reaches this package.
package spatial

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/fleetops/km-tracker/internal/domain"
)

// EarthRadiusKm is the Earth's mean radius used for the spherical
// approximation.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle (haversine) distance in kilometers
// between two fixes, rounded to 2 decimal places. The result is symmetric in
// its arguments and zero for identical coordinates.
func DistanceKm(a, b domain.GeoFix) float64 {
	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	km := p1.Distance(p2).Radians() * EarthRadiusKm
	return round2(km)
}

// round2 rounds to 2 decimal places, the precision stored for total_km.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
