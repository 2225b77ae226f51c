package geo

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCandidateSet indicates an index was built (or queried) without candidates.
	ErrEmptyCandidateSet = errors.New("geo: empty candidate set")
	// ErrInvalidK indicates k is outside [1, number of candidates].
	ErrInvalidK = errors.New("geo: invalid k")
	// ErrDimensionMismatch indicates a coordinate is not exactly two finite numbers.
	ErrDimensionMismatch = errors.New("geo: malformed coordinate")
	// ErrCoordinateOutOfRange indicates latitude or longitude outside its degree range.
	ErrCoordinateOutOfRange = errors.New("geo: coordinate out of range")
	// ErrCoordinateSystemMismatch indicates a point set is not tagged as geographic degrees,
	// or that sources and candidates carry different tags.
	ErrCoordinateSystemMismatch = errors.New("geo: coordinate system mismatch")
	// ErrInvalidRadius indicates a negative or non-finite search radius.
	ErrInvalidRadius = errors.New("geo: invalid radius")
)

// PointError reports a malformed record together with its position in the
// original point set.
type PointError struct {
	Position int
	Err      error
}

func (e *PointError) Error() string {
	return fmt.Sprintf("point %d: %v", e.Position, e.Err)
}

func (e *PointError) Unwrap() error { return e.Err }
