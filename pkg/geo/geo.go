// Package geo holds WGS 84 point primitives shared by the geofence and alert
// modules.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusMeters is the equatorial radius used for haversine distances.
const EarthRadiusMeters = 6378137.0

var (
	ErrNotFinite    = errors.New("coordinates must be finite numbers")
	ErrOutOfRange   = errors.New("coordinates out of range")
	ErrMissingCoord = errors.New("latitude and longitude are required")
)

// Point is a WGS 84 coordinate in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Finite reports whether both components are real numbers.
func (p Point) Finite() bool {
	return isFinite(p.Latitude) && isFinite(p.Longitude)
}

// Validate checks finiteness and the latitude/longitude ranges.
func (p Point) Validate() error {
	if !p.Finite() {
		return ErrNotFinite
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v not in [-90, 90]", ErrOutOfRange, p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v not in [-180, 180]", ErrOutOfRange, p.Longitude)
	}
	return nil
}

// Distance returns the great-circle distance in meters between a and b.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := lat2 - lat1
	dLon := radians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
