package balltree

import (
	"math"
	"sort"

	"github.com/viant/nearstop/geo"
	"github.com/viant/nearstop/internal/knn"
)

// Index is a haversine ball tree. The zero value uses DefaultLeafSize.
type Index struct {
	leafSize int
	set      *geo.PointSet
	pts      []geo.Radian
	perm     []int
	nodes    []ball
}

type ball struct {
	lo, hi      int // members are perm[lo:hi]
	center      int
	radius      float64
	left, right int // child node indexes, -1 for leaves
}

type vec3 [3]float64

func unit(r geo.Radian) vec3 {
	cosLat := math.Cos(r.Lat)
	return vec3{cosLat * math.Cos(r.Lon), cosLat * math.Sin(r.Lon), math.Sin(r.Lat)}
}

// Build constructs the tree over candidates.
func (i *Index) Build(candidates *geo.PointSet) error {
	pts, err := knn.Candidates(candidates)
	if err != nil {
		return err
	}
	if i.leafSize <= 0 {
		i.leafSize = DefaultLeafSize
	}
	i.set = &geo.PointSet{CRS: candidates.CRS, Records: append([]geo.Record(nil), candidates.Records...)}
	i.pts = pts
	i.perm = make([]int, len(pts))
	for k := range i.perm {
		i.perm[k] = k
	}
	units := make([]vec3, len(pts))
	for k, p := range pts {
		units[k] = unit(p)
	}
	i.nodes = i.nodes[:0]
	i.build(units, 0, len(pts))
	return nil
}

func (i *Index) build(units []vec3, lo, hi int) int {
	members := i.perm[lo:hi]
	var mean vec3
	for _, m := range members {
		for d := 0; d < 3; d++ {
			mean[d] += units[m][d]
		}
	}
	center, bestDot := members[0], math.Inf(-1)
	for _, m := range members {
		dot := mean[0]*units[m][0] + mean[1]*units[m][1] + mean[2]*units[m][2]
		if dot > bestDot {
			center, bestDot = m, dot
		}
	}
	radius := 0.0
	for _, m := range members {
		if d := geo.CentralAngle(i.pts[center], i.pts[m]); d > radius {
			radius = d
		}
	}
	id := len(i.nodes)
	i.nodes = append(i.nodes, ball{lo: lo, hi: hi, center: center, radius: radius, left: -1, right: -1})
	if hi-lo <= i.leafSize {
		return id
	}
	axis := widestAxis(units, members)
	sort.Slice(members, func(a, b int) bool {
		ua, ub := units[members[a]][axis], units[members[b]][axis]
		if ua != ub {
			return ua < ub
		}
		return members[a] < members[b]
	})
	mid := lo + (hi-lo)/2
	left := i.build(units, lo, mid)
	right := i.build(units, mid, hi)
	i.nodes[id].left, i.nodes[id].right = left, right
	return id
}

func widestAxis(units []vec3, members []int) int {
	var lo, hi vec3
	for d := 0; d < 3; d++ {
		lo[d], hi[d] = math.Inf(1), math.Inf(-1)
	}
	for _, m := range members {
		for d := 0; d < 3; d++ {
			lo[d] = math.Min(lo[d], units[m][d])
			hi[d] = math.Max(hi[d], units[m][d])
		}
	}
	axis := 0
	for d := 1; d < 3; d++ {
		if hi[d]-lo[d] > hi[axis]-lo[axis] {
			axis = d
		}
	}
	return axis
}

// Query returns the k nearest candidates of every source point.
func (i *Index) Query(sources *geo.PointSet, k int) ([]geo.Match, error) {
	var crs geo.CRS
	if i.set != nil {
		crs = i.set.CRS
	}
	qs, err := knn.Sources(sources, crs, k, len(i.pts))
	if err != nil {
		return nil, err
	}
	out := make([]geo.Match, 0, len(qs)*k)
	best := knn.NewBest(k)
	for s, q := range qs {
		best.Reset()
		root := &i.nodes[0]
		i.search(0, q, geo.CentralAngle(q, i.pts[root.center]), best)
		out = best.AppendMatches(out, sources.Position(s))
	}
	return out, nil
}

func (i *Index) search(id int, q geo.Radian, centerDist float64, best *knn.Best) {
	n := &i.nodes[id]
	if best.Prune(centerDist - n.radius) {
		return
	}
	if n.left < 0 {
		for _, m := range i.perm[n.lo:n.hi] {
			if m == n.center {
				best.Offer(m, centerDist)
				continue
			}
			best.Offer(m, geo.CentralAngle(q, i.pts[m]))
		}
		return
	}
	l, r := &i.nodes[n.left], &i.nodes[n.right]
	dl := geo.CentralAngle(q, i.pts[l.center])
	dr := geo.CentralAngle(q, i.pts[r.center])
	if dl-l.radius <= dr-r.radius {
		i.search(n.left, q, dl, best)
		i.search(n.right, q, dr, best)
		return
	}
	i.search(n.right, q, dr, best)
	i.search(n.left, q, dl, best)
}

// Len returns the number of candidates.
func (i *Index) Len() int { return len(i.pts) }

// Candidates returns the indexed candidate set.
func (i *Index) Candidates() *geo.PointSet { return i.set }

// MarshalBinary encodes the candidate set; the tree is rebuilt on load.
func (i *Index) MarshalBinary() ([]byte, error) {
	if i.set == nil {
		return nil, geo.ErrEmptyCandidateSet
	}
	return i.set.MarshalBinary()
}

// UnmarshalBinary loads a candidate set and rebuilds the tree.
func (i *Index) UnmarshalBinary(data []byte) error {
	set := &geo.PointSet{}
	if err := set.UnmarshalBinary(data); err != nil {
		return err
	}
	return i.Build(set)
}
