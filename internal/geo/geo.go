// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package geo canonicalizes drawn map rectangles into geographic bounding
// boxes usable as geospatial search filters.
package geo

import "math"

// Point is a geographic coordinate in degrees. Longitude may be outside
// [-180, 180] when it comes from a map that scrolls across the antimeridian.
type Point struct {
	Longitude float64
	Latitude  float64
}

// Rect is a rectangle drawn on a map, given by two opposite corners in any
// order.
type Rect struct {
	A Point
	B Point
}

// BoundingBox is a top-left / bottom-right pair of corners. Latitude1 is
// always >= Latitude2. Longitude1 may be greater than Longitude2 when the
// box crosses the antimeridian.
type BoundingBox struct {
	Latitude1  float64 `json:"latitude1" yaml:"latitude1"`
	Longitude1 float64 `json:"longitude1" yaml:"longitude1"`
	Latitude2  float64 `json:"latitude2" yaml:"latitude2"`
	Longitude2 float64 `json:"longitude2" yaml:"longitude2"`
}

// WrapLongitude brings lon into [-180, 180]. Values already inside the
// range are returned unchanged, so both 180 and -180 are preserved.
func WrapLongitude(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	w := math.Mod(lon+180, 360)
	if w < 0 {
		w += 360
	}
	return w - 180
}

func clampLatitude(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

// Normalize converts a drawn rectangle into a canonical bounding box.
func Normalize(r Rect) BoundingBox {
	west := math.Min(r.A.Longitude, r.B.Longitude)
	east := math.Max(r.A.Longitude, r.B.Longitude)
	box := BoundingBox{
		Latitude1: clampLatitude(math.Max(r.A.Latitude, r.B.Latitude)),
		Latitude2: clampLatitude(math.Min(r.A.Latitude, r.B.Latitude)),
	}
	if east-west >= 360 {
		box.Longitude1, box.Longitude2 = -180, 180
		return box
	}
	box.Longitude1 = WrapLongitude(west)
	box.Longitude2 = WrapLongitude(east)
	return box
}

// FromNominatim builds a bounding box from a [south, north, west, east]
// tuple as returned by the location search endpoint.
func FromNominatim(south, north, west, east float64) BoundingBox {
	return Normalize(Rect{
		A: Point{Longitude: west, Latitude: north},
		B: Point{Longitude: east, Latitude: south},
	})
}

// CrossesAntimeridian reports whether the box wraps past longitude 180.
func (b BoundingBox) CrossesAntimeridian() bool {
	return b.Longitude1 > b.Longitude2
}

// Valid reports whether the box is well formed.
func (b BoundingBox) Valid() bool {
	inRange := func(v, lim float64) bool { return v >= -lim && v <= lim }
	return b.Latitude1 >= b.Latitude2 &&
		inRange(b.Latitude1, 90) && inRange(b.Latitude2, 90) &&
		inRange(b.Longitude1, 180) && inRange(b.Longitude2, 180)
}
