package geo

import "math"

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371000.0

// CentralAngle returns the great-circle angle in radians between a and b
// using the haversine formula. It is a metric on the sphere, so tree
// strategies may prune with the triangle inequality.
func CentralAngle(a, b Radian) float64 {
	sinLat := math.Sin((b.Lat - a.Lat) / 2)
	sinLon := math.Sin((b.Lon - a.Lon) / 2)
	h := sinLat*sinLat + math.Cos(a.Lat)*math.Cos(b.Lat)*sinLon*sinLon
	if h > 1 {
		h = 1
	} else if h < 0 {
		h = 0
	}
	return 2 * math.Asin(math.Sqrt(h))
}

// AngleToMeters scales a central angle to meters on the mean Earth sphere.
func AngleToMeters(angle float64) float64 { return angle * EarthRadius }

// MetersToAngle converts a surface distance in meters to a central angle.
func MetersToAngle(meters float64) float64 { return meters / EarthRadius }

// Haversine returns the great-circle distance in meters between two degree points.
func Haversine(a, b Point) float64 {
	return AngleToMeters(CentralAngle(a.Radians(), b.Radians()))
}
