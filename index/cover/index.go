package cover

import (
	"github.com/viant/nearstop/geo"
	"github.com/viant/nearstop/internal/cover/tree"
	"github.com/viant/nearstop/internal/knn"
)

// Index implements a haversine kNN index over a cover tree. The zero value
// uses DefaultBase, per-node bounds and depth-first search.
type Index struct {
	base   float64
	bound  BoundStrategy
	search Search
	set    *geo.PointSet
	tree   *tree.Tree
}

// Build inserts every candidate and seals the tree.
func (i *Index) Build(candidates *geo.PointSet) error {
	pts, err := knn.Candidates(candidates)
	if err != nil {
		return err
	}
	t := tree.NewTree(i.base)
	t.SetBoundStrategy(i.bound)
	for pos, p := range pts {
		t.Insert(tree.NewPoint(pos, p))
	}
	t.Seal()
	i.set = &geo.PointSet{CRS: candidates.CRS, Records: append([]geo.Record(nil), candidates.Records...)}
	i.tree = t
	return nil
}

// Query returns the k nearest candidates of every source point.
func (i *Index) Query(sources *geo.PointSet, k int) ([]geo.Match, error) {
	var crs geo.CRS
	if i.set != nil {
		crs = i.set.CRS
	}
	qs, err := knn.Sources(sources, crs, k, i.Len())
	if err != nil {
		return nil, err
	}
	out := make([]geo.Match, 0, len(qs)*k)
	best := knn.NewBest(k)
	for s, q := range qs {
		best.Reset()
		point := tree.NewPoint(-1, q)
		if i.search == BestFirst {
			i.tree.KNearestNeighborsBestFirst(point, best)
		} else {
			i.tree.KNearestNeighbors(point, best)
		}
		out = best.AppendMatches(out, sources.Position(s))
	}
	return out, nil
}

// Len returns the number of candidates.
func (i *Index) Len() int {
	if i.tree == nil {
		return 0
	}
	return i.tree.Size()
}

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
