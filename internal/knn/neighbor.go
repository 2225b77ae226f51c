// Package knn holds the k-best bookkeeping shared by every index strategy:
// a bounded max-heap ordered by (distance, position), query validation and
// the pruning slack used by tree searches.
package knn

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/viant/nearstop/geo"
)

// Slack is added to the current k-th distance before a subtree is pruned.
// Triangle-inequality bounds computed in floating point can be off by a few
// ulps; without slack an exact tie could be pruned.
const Slack = 1e-12

// Neighbor is a candidate position with its central angle to the query.
type Neighbor struct {
	Position int
	Angle    float64
}

// Less orders neighbors by angle, ties broken by lower position.
func Less(a, b Neighbor) bool {
	if a.Angle != b.Angle {
		return a.Angle < b.Angle
	}
	return a.Position < b.Position
}

// Neighbors implements heap.Interface with the worst neighbor on top.
type Neighbors []Neighbor

func (h Neighbors) Len() int           { return len(h) }
func (h Neighbors) Less(i, j int) bool { return Less(h[j], h[i]) }
func (h Neighbors) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *Neighbors) Push(x interface{}) {
	*h = append(*h, x.(Neighbor))
}

func (h *Neighbors) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Best keeps the k best neighbors seen so far.
type Best struct {
	k int
	h Neighbors
}

// NewBest returns an empty collector for k neighbors.
func NewBest(k int) *Best {
	return &Best{k: k, h: make(Neighbors, 0, k)}
}

// Reset empties the collector so it can be reused for another query.
func (b *Best) Reset() { b.h = b.h[:0] }

// Offer considers a candidate and reports whether it was kept.
func (b *Best) Offer(position int, angle float64) bool {
	n := Neighbor{Position: position, Angle: angle}
	if len(b.h) < b.k {
		heap.Push(&b.h, n)
		return true
	}
	if !Less(n, b.h[0]) {
		return false
	}
	b.h[0] = n
	heap.Fix(&b.h, 0)
	return true
}

// Worst returns the k-th best angle, or +Inf while fewer than k are held.
func (b *Best) Worst() float64 {
	if len(b.h) < b.k {
		return math.Inf(1)
	}
	return b.h[0].Angle
}

// Prune reports whether a subtree whose members are at least lowerBound away
// can be skipped.
func (b *Best) Prune(lowerBound float64) bool {
	return lowerBound > b.Worst()+Slack
}

// Sorted returns the held neighbors in ascending (angle, position) order.
func (b *Best) Sorted() []Neighbor {
	ret := make([]Neighbor, len(b.h))
	tmp := append(Neighbors(nil), b.h...)
	for i := len(ret) - 1; i >= 0; i-- {
		ret[i] = heap.Pop(&tmp).(Neighbor)
	}
	return ret
}

// AppendMatches converts the held neighbors into matches for source and
// appends them to dst. Angles are scaled to meters here, once.
func (b *Best) AppendMatches(dst []geo.Match, source int) []geo.Match {
	for rank, n := range b.Sorted() {
		dst = append(dst, geo.Match{
			Source:    source,
			Candidate: n.Position,
			Rank:      rank,
			Distance:  geo.AngleToMeters(n.Angle),
		})
	}
	return dst
}

// CheckK validates k against the candidate count.
func CheckK(k, candidates int) error {
	if candidates == 0 {
		return geo.ErrEmptyCandidateSet
	}
	if k < 1 || k > candidates {
		return fmt.Errorf("%w: k=%d, candidates=%d", geo.ErrInvalidK, k, candidates)
	}
	return nil
}

// Sources validates a query against an index built for crs with the given
// number of candidates and returns the source coordinates in radians.
func Sources(sources *geo.PointSet, crs geo.CRS, k, candidates int) ([]geo.Radian, error) {
	if err := CheckK(k, candidates); err != nil {
		return nil, err
	}
	if sources == nil {
		return nil, nil
	}
	if sources.CRS != crs {
		return nil, fmt.Errorf("%w: sources %q, candidates %q", geo.ErrCoordinateSystemMismatch, sources.CRS, crs)
	}
	return sources.Radians()
}

// Candidates validates a candidate set and returns its radian coordinates.
func Candidates(candidates *geo.PointSet) ([]geo.Radian, error) {
	if candidates.Len() == 0 {
		return nil, geo.ErrEmptyCandidateSet
	}
	return candidates.Radians()
}
