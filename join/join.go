package join

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/viant/nearstop/geo"
	"github.com/viant/nearstop/index"
)

// Row links a building to its nearest stop.
type Row struct {
	Building       int        `json:"building"`
	BuildingRecord geo.Record `json:"-"`
	Stop           int        `json:"stop"`
	StopRecord     geo.Record `json:"-"`
	Distance       float64    `json:"distance"`
}

// Result holds the joined rows in building order, the positions of
// buildings left out because of malformed coordinates and distance
// statistics.
type Result struct {
	Rows    []Row
	Skipped []int
	Stats   Stats
	Index   index.Index
}

// Distances returns the row distances in row order.
func (r *Result) Distances() []float64 {
	ret := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		ret[i] = row.Distance
	}
	return ret
}

// Matches returns the rows as k=1 matches keyed by building position.
func (r *Result) Matches() []geo.Match {
	ret := make([]geo.Match, len(r.Rows))
	for i, row := range r.Rows {
		ret[i] = geo.Match{Source: row.Building, Candidate: row.Stop, Distance: row.Distance}
	}
	return ret
}

// Joiner runs nearest stop joins.
type Joiner struct {
	Kind    index.Kind
	Options index.Options
	// Workers bounds query parallelism; 0 uses GOMAXPROCS.
	Workers int
	// SkipInvalid drops buildings with malformed coordinates instead of
	// failing the join.
	SkipInvalid bool
	Logger      zerolog.Logger
}

// Join finds the nearest stop of every building.
func (j *Joiner) Join(buildings, stops *geo.PointSet) (*Result, error) {
	started := time.Now()
	idx, err := index.Build(j.Kind, stops, j.Options)
	if err != nil {
		return nil, fmt.Errorf("join: build index over stops: %w", err)
	}
	j.Logger.Debug().
		Str("kind", string(j.Kind.Resolve(stops.Len()))).
		Int("stops", stops.Len()).
		Dur("took", time.Since(started)).
		Msg("index built")
	return j.JoinIndex(buildings, idx)
}

// JoinIndex joins buildings against an already built stop index.
func (j *Joiner) JoinIndex(buildings *geo.PointSet, idx index.Index) (*Result, error) {
	started := time.Now()
	stops := idx.Candidates()
	if buildings != nil && buildings.CRS != stops.CRS {
		return nil, fmt.Errorf("join: %w: buildings %q, stops %q", geo.ErrCoordinateSystemMismatch, buildings.CRS, stops.CRS)
	}
	sources, kept, skipped := buildings, []int(nil), []int(nil)
	if j.SkipInvalid {
		if skipped = buildings.Invalid(); len(skipped) > 0 {
			sources, kept = valid(buildings, skipped)
			for _, position := range skipped {
				j.Logger.Warn().
					Int("building", position).
					Str("point", buildings.Records[position-buildings.Offset()].Point.String()).
					Msg("skipping building with malformed coordinates")
			}
		}
	}
	result := &Result{Skipped: skipped, Index: idx}
	if sources.Len() == 0 {
		if err := stops.CRS.Check(); err != nil {
			return nil, fmt.Errorf("join: %w", err)
		}
		result.Stats = Describe(nil)
		return result, nil
	}

	matches, err := index.Query(idx, sources, 1, j.Workers)
	if err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}
	result.Rows = make([]Row, len(matches))
	for i, m := range matches {
		building := m.Source
		if kept != nil {
			building = kept[m.Source]
		}
		result.Rows[i] = Row{
			Building:       building,
			BuildingRecord: buildings.Records[building-buildings.Offset()],
			Stop:           m.Candidate,
			StopRecord:     stops.Records[m.Candidate],
			Distance:       m.Distance,
		}
	}
	result.Stats = Describe(result.Distances())
	j.Logger.Info().
		Int("buildings", buildings.Len()).
		Int("joined", len(result.Rows)).
		Int("skipped", len(skipped)).
		Float64("mean_m", result.Stats.Mean).
		Float64("max_m", result.Stats.Max).
		Dur("took", time.Since(started)).
		Msg("join completed")
	return result, nil
}

// valid returns the records of set not listed in skipped, together with the
// original position of each kept record.
func valid(set *geo.PointSet, skipped []int) (*geo.PointSet, []int) {
	out := &geo.PointSet{CRS: set.CRS, Records: make([]geo.Record, 0, set.Len()-len(skipped))}
	kept := make([]int, 0, cap(out.Records))
	next := 0
	for i := range set.Records {
		position := set.Position(i)
		if next < len(skipped) && skipped[next] == position {
			next++
			continue
		}
		out.Records = append(out.Records, set.Records[i])
		kept = append(kept, position)
	}
	return out, kept
}
