package geo

import (
	"fmt"
	"math"
	"strings"
)

// CRS tags the coordinate reference system of a point set.
type CRS string

const (
	// WGS84 is geographic latitude/longitude in degrees, the only system the
	// index accepts.
	WGS84 CRS = "EPSG:4326"
	// Radians marks coordinates already converted to radians. It exists so
	// callers can label such data; the index rejects it.
	Radians CRS = "radians"
	// WebMercator is a common projected system, rejected by the index.
	WebMercator CRS = "EPSG:3857"
)

// ParseCRS normalizes common spellings of a CRS name.
func ParseCRS(name string) CRS {
	if code, ok := strings.CutPrefix(name, "urn:ogc:def:crs:EPSG::"); ok {
		name = "EPSG:" + code
	}
	switch name {
	case "EPSG:4326", "epsg:4326", "4326", "WGS84", "wgs84",
		"urn:ogc:def:crs:OGC:1.3:CRS84", "CRS84":
		return WGS84
	case "EPSG:3857", "epsg:3857", "3857", "EPSG:900913":
		return WebMercator
	}
	return CRS(name)
}

// Check returns ErrCoordinateSystemMismatch unless c is geographic degrees.
func (c CRS) Check() error {
	if c != WGS84 {
		if c == "" {
			return fmt.Errorf("%w: missing CRS tag", ErrCoordinateSystemMismatch)
		}
		return fmt.Errorf("%w: got %q, want %q", ErrCoordinateSystemMismatch, c, WGS84)
	}
	return nil
}

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Radian is a latitude/longitude pair in radians.
type Radian struct {
	Lat float64
	Lon float64
}

// PointFromPair builds a Point from a [lat, lon] slice.
func PointFromPair(pair []float64) (Point, error) {
	if len(pair) != 2 {
		return Point{}, fmt.Errorf("%w: %d components", ErrDimensionMismatch, len(pair))
	}
	p := Point{Lat: pair[0], Lon: pair[1]}
	return p, p.Validate()
}

// Validate checks the coordinate is finite and within degree ranges.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return fmt.Errorf("%w: (%v, %v)", ErrDimensionMismatch, p.Lat, p.Lon)
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: (%v, %v)", ErrCoordinateOutOfRange, p.Lat, p.Lon)
	}
	return nil
}

// Radians converts p to radians. It is the only degree to radian conversion
// in this module; every distance is computed on its result.
func (p Point) Radians() Radian {
	return Radian{Lat: p.Lat * math.Pi / 180, Lon: p.Lon * math.Pi / 180}
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.Lat, p.Lon)
}
