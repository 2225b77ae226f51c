package store

import (
	"context"
	"errors"

	"github.com/viant/nearstop/geo"
	"github.com/viant/nearstop/index"
)

// ErrNotFound is returned when a dataset, index or run does not exist.
var ErrNotFound = errors.New("store: not found")

// Store defines the persistence API used by the CLI and the server.
type Store interface {
	// SavePointSet replaces the dataset with the records of set.
	SavePointSet(ctx context.Context, dataset string, set *geo.PointSet) error

	// LoadPointSet returns the dataset records in position order.
	LoadPointSet(ctx context.Context, dataset string) (*geo.PointSet, error)

	// SaveIndex stores the serialized index under name.
	SaveIndex(ctx context.Context, name string, kind index.Kind, idx index.Index) error

	// LoadIndex restores and rebuilds the index stored under name.
	LoadIndex(ctx context.Context, name string, opts index.Options) (index.Index, error)

	// SaveMatches replaces the matches recorded for run.
	SaveMatches(ctx context.Context, run string, matches []geo.Match) error

	// Matches returns the matches of run ordered by source and rank.
	Matches(ctx context.Context, run string) ([]geo.Match, error)

	// NearestSQL returns the k nearest dataset records to p computed in SQL.
	NearestSQL(ctx context.Context, dataset string, p geo.Point, k int) ([]geo.Match, error)
}
