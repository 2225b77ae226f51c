package index

import "github.com/viant/nearstop/geo"

// Index defines a haversine nearest-neighbor index with basic lifecycle
// methods. It is built once from a candidate point set, queried any number
// of times (concurrently if needed) and can be serialized for persistence.
type Index interface {
	// Build constructs the index from the candidate set. Candidates must be
	// non-empty, tagged geo.WGS84 and hold finite in-range coordinates.
	Build(candidates *geo.PointSet) error

	// Query returns the k nearest candidates of every source point: len(sources)*k
	// matches grouped by source in source order, each group ordered by
	// ascending distance with ties broken by lower candidate position.
	// Candidate positions index candidates.Records.
	Query(sources *geo.PointSet, k int) ([]geo.Match, error)

	// Len returns the number of indexed candidates.
	Len() int

	// Candidates returns the indexed candidate set.
	Candidates() *geo.PointSet

	// MarshalBinary serializes the index into a byte slice.
	MarshalBinary() ([]byte, error)

	// UnmarshalBinary reconstructs the index from a serialized byte slice.
	UnmarshalBinary(data []byte) error
}
