// Package model defines the normalized records shared by the geocoder, the
// provider orchestrators, the enrichment stage and the HTTP layer.
package model

import "math"

// MetersPerMile is the conversion factor applied to caller-supplied radii.
const MetersPerMile = 1609

// Coordinate is a WGS84 point produced once per request by the geocoder.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate lies inside the WGS84 bounds.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// MilesToMeters converts a radius in miles to whole meters (10 -> 16090).
func MilesToMeters(miles float64) int {
	return int(math.Round(miles * MetersPerMile))
}
