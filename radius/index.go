package radius

import (
	"fmt"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/viant/nearstop/geo"
	"github.com/viant/nearstop/internal/knn"
)

const (
	minChildren = 25
	maxChildren = 50
	// pointTolerance is the half side of the degenerate box stored per point.
	pointTolerance = 1e-9
	// boxMargin widens search boxes to absorb rounding in the degree bounds.
	boxMargin = 1e-7
)

type entry struct {
	position int
	coord    geo.Radian
	bounds   rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect { return e.bounds }

// Index is an R-tree over candidate points.
type Index struct {
	set  *geo.PointSet
	tree *rtreego.Rtree
}

// New builds a radius index over candidates.
func New(candidates *geo.PointSet) (*Index, error) {
	pts, err := knn.Candidates(candidates)
	if err != nil {
		return nil, err
	}
	objs := make([]rtreego.Spatial, len(pts))
	for i, p := range pts {
		point := candidates.Records[i].Point
		objs[i] = &entry{
			position: i,
			coord:    p,
			bounds:   rtreego.Point{point.Lon, point.Lat}.ToRect(pointTolerance),
		}
	}
	return &Index{
		set:  candidates,
		tree: rtreego.NewTree(2, minChildren, maxChildren, objs...),
	}, nil
}

// Len returns the number of candidates.
func (i *Index) Len() int { return i.tree.Size() }

// Within returns all candidates whose haversine distance to p is at most
// meters, ordered by distance then position. Rank counts from 0.
func (i *Index) Within(p geo.Point, meters float64) ([]geo.Match, error) {
	if math.IsNaN(meters) || math.IsInf(meters, 0) || meters < 0 {
		return nil, fmt.Errorf("%w: %v", geo.ErrInvalidRadius, meters)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	q := p.Radians()
	angle := geo.MetersToAngle(meters)
	var found []knn.Neighbor
	seen := map[int]bool{}
	for _, box := range searchBoxes(p, angle) {
		for _, obj := range i.tree.SearchIntersect(box) {
			e := obj.(*entry)
			if seen[e.position] {
				continue
			}
			seen[e.position] = true
			if d := geo.CentralAngle(q, e.coord); d <= angle {
				found = append(found, knn.Neighbor{Position: e.position, Angle: d})
			}
		}
	}
	sort.Slice(found, func(a, b int) bool { return knn.Less(found[a], found[b]) })
	out := make([]geo.Match, len(found))
	for rank, n := range found {
		out[rank] = geo.Match{Candidate: n.Position, Rank: rank, Distance: geo.AngleToMeters(n.Angle)}
	}
	return out, nil
}

// searchBoxes returns (lon, lat) rectangles covering every point within
// angle radians of p, split at the antimeridian.
func searchBoxes(p geo.Point, angle float64) []rtreego.Rect {
	deg := angle*180/math.Pi + boxMargin
	latMin, latMax := p.Lat-deg, p.Lat+deg
	full := func(latMin, latMax float64) []rtreego.Rect {
		return []rtreego.Rect{rect(-180-boxMargin, math.Max(latMin, -90-boxMargin), 180+boxMargin, math.Min(latMax, 90+boxMargin))}
	}
	if angle >= math.Pi/2 || latMin <= -90 || latMax >= 90 {
		return full(latMin, latMax)
	}
	// the widest longitude offset of the circle, reached off the query latitude
	s := math.Sin(angle) / math.Cos(p.Radians().Lat)
	if s >= 1 {
		return full(latMin, latMax)
	}
	dLon := math.Asin(s)*180/math.Pi + boxMargin
	lonMin, lonMax := p.Lon-dLon, p.Lon+dLon
	switch {
	case lonMin < -180:
		return []rtreego.Rect{
			rect(-180-boxMargin, latMin, lonMax, latMax),
			rect(lonMin+360, latMin, 180+boxMargin, latMax),
		}
	case lonMax > 180:
		return []rtreego.Rect{
			rect(lonMin, latMin, 180+boxMargin, latMax),
			rect(-180-boxMargin, latMin, lonMax-360, latMax),
		}
	}
	return []rtreego.Rect{rect(lonMin, latMin, lonMax, latMax)}
}

func rect(lonMin, latMin, lonMax, latMax float64) rtreego.Rect {
	r, _ := rtreego.NewRectFromPoints(rtreego.Point{lonMin, latMin}, rtreego.Point{lonMax, latMax})
	return r
}
