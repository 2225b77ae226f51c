package bruteforce

import (
	"github.com/viant/nearstop/geo"
	"github.com/viant/nearstop/internal/knn"
)

// Index is a brute-force haversine index.
type Index struct {
	set *geo.PointSet
	pts []geo.Radian
}

// Build validates candidates and converts them to radians.
func (i *Index) Build(candidates *geo.PointSet) error {
	pts, err := knn.Candidates(candidates)
	if err != nil {
		return err
	}
	i.set = &geo.PointSet{CRS: candidates.CRS, Records: append([]geo.Record(nil), candidates.Records...)}
	i.pts = pts
	return nil
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
		for j, p := range i.pts {
			best.Offer(j, geo.CentralAngle(q, p))
		}
		out = best.AppendMatches(out, sources.Position(s))
	}
	return out, nil
}

// Len returns the number of candidates.
func (i *Index) Len() int { return len(i.pts) }

// Candidates returns the indexed candidate set.
func (i *Index) Candidates() *geo.PointSet { return i.set }

// MarshalBinary encodes the candidate set.
func (i *Index) MarshalBinary() ([]byte, error) {
	if i.set == nil {
		return nil, geo.ErrEmptyCandidateSet
	}
	return i.set.MarshalBinary()
}

// UnmarshalBinary decodes a candidate set and rebuilds the index.
func (i *Index) UnmarshalBinary(data []byte) error {
	set := &geo.PointSet{}
	if err := set.UnmarshalBinary(data); err != nil {
		return err
	}
	return i.Build(set)
}
