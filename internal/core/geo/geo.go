// Package geo holds the small amount of spherical geometry the pipeline needs
package geo

import (
	"math"
	"strconv"
)

// EarthRadiusMeters is the mean radius used by DistanceMeters
const EarthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate in decimal degrees
type Point struct {
	Lat float64 `json:"lat" toml:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" toml:"lng" validate:"gte=-180,lte=180"`
}

// Valid reports whether p is a finite coordinate inside the lat/lng ranges
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }

// DistanceMeters returns the great circle distance between a and b (haversine)
func DistanceMeters(a, b Point) float64 {
	dLat := rad(b.Lat - a.Lat)
	dLng := rad(b.Lng - a.Lng)
	sLat := math.Sin(dLat / 2)
	sLng := math.Sin(dLng / 2)
	h := sLat*sLat + math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*sLng*sLng
	// float noise can push h a hair past 1 for antipodal points
	h = math.Min(1, math.Max(0, h))
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Rect is a lat/lng box with exclusive bounds
type Rect struct {
	MinLat float64 `toml:"min_lat"`
	MaxLat float64 `toml:"max_lat"`
	MinLng float64 `toml:"min_lng"`
	MaxLng float64 `toml:"max_lng"`
}

// Contains reports whether p lies strictly inside r
func (r Rect) Contains(p Point) bool {
	return p.Lat > r.MinLat && p.Lat < r.MaxLat && p.Lng > r.MinLng && p.Lng < r.MaxLng
}

// FormatDistance renders meters for humans: "420 m" under a kilometer, "1.3 km" above
func FormatDistance(m float64) string {
	if m < 0 || math.IsNaN(m) {
		m = 0
	}
	if m < 1000 {
		return strconv.Itoa(int(math.Round(m))) + " m"
	}
	return strconv.FormatFloat(m/1000, 'f', 1, 64) + " km"
}
