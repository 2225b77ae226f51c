package tree

import "github.com/viant/nearstop/geo"

// DistanceFunc computes the distance between two points.
type DistanceFunc func(p1, p2 *Point) float64

// HaversineDistance returns the central angle between two points.
func HaversineDistance(p1, p2 *Point) float64 {
	return geo.CentralAngle(p1.Coord, p2.Coord)
}
