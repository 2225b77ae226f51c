package tree

import "github.com/viant/nearstop/geo"

// Point is a candidate stored in the tree.
type Point struct {
	Position int32
	Coord    geo.Radian
}

// NewPoint constructs a point for a candidate position.
func NewPoint(position int, coord geo.Radian) *Point {
	return &Point{Position: int32(position), Coord: coord}
}
