package vptree

import (
	"sort"

	"github.com/viant/nearstop/geo"
	"github.com/viant/nearstop/internal/knn"
)

// Index implements a haversine kNN index using a VP-tree to prune search.
// It serializes using the shared point set encoding.
type Index struct {
	set  *geo.PointSet
	pts  []geo.Radian
	root *node
}

type node struct {
	idx   int // index into pts
	thr   float64
	left  *node // angle to vantage point <= thr
	right *node // angle to vantage point >= thr
}

// Build constructs the VP-tree.
func (i *Index) Build(candidates *geo.PointSet) error {
	pts, err := knn.Candidates(candidates)
	if err != nil {
		return err
	}
	i.set = &geo.PointSet{CRS: candidates.CRS, Records: append([]geo.Record(nil), candidates.Records...)}
	i.pts = pts
	idxs := make([]int, len(pts))
	for k := range idxs {
		idxs[k] = k
	}
	i.root = i.buildVP(idxs)
	return nil
}

func (i *Index) buildVP(idxs []int) *node {
	if len(idxs) == 0 {
		return nil
	}
	// pick last as vantage point to avoid extra randomness
	vp := idxs[len(idxs)-1]
	idxs = idxs[:len(idxs)-1]
	if len(idxs) == 0 {
		return &node{idx: vp}
	}
	dists := make([]float64, len(idxs))
	for k, j := range idxs {
		dists[k] = geo.CentralAngle(i.pts[vp], i.pts[j])
	}
	mid := len(dists) / 2
	order := make([]int, len(idxs))
	for k := range order {
		order[k] = k
	}
	sort.Slice(order, func(a, b int) bool { return dists[order[a]] < dists[order[b]] })
	thr := dists[order[mid]]
	leftIdxs := make([]int, 0, mid+1)
	rightIdxs := make([]int, 0, len(idxs)-(mid+1))
	for rank, k := range order {
		if rank <= mid {
			leftIdxs = append(leftIdxs, idxs[k])
		} else {
			rightIdxs = append(rightIdxs, idxs[k])
		}
	}
	return &node{
		idx:   vp,
		thr:   thr,
		left:  i.buildVP(leftIdxs),
		right: i.buildVP(rightIdxs),
	}
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
		i.search(i.root, q, best)
		out = best.AppendMatches(out, sources.Position(s))
	}
	return out, nil
}

func (i *Index) search(n *node, q geo.Radian, best *knn.Best) {
	if n == nil {
		return
	}
	d := geo.CentralAngle(q, i.pts[n.idx])
	best.Offer(n.idx, d)
	// left members lie within thr of the vantage point, right members beyond it
	if d < n.thr {
		if !best.Prune(d - n.thr) {
			i.search(n.left, q, best)
		}
		if !best.Prune(n.thr - d) {
			i.search(n.right, q, best)
		}
		return
	}
	if !best.Prune(n.thr - d) {
		i.search(n.right, q, best)
	}
	if !best.Prune(d - n.thr) {
		i.search(n.left, q, best)
	}
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

// UnmarshalBinary loads a candidate set and rebuilds the VP-tree.
func (i *Index) UnmarshalBinary(data []byte) error {
	set := &geo.PointSet{}
	if err := set.UnmarshalBinary(data); err != nil {
		return err
	}
	return i.Build(set)
}
