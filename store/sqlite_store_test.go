package store

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/viant/nearstop/geo"
	"github.com/viant/nearstop/index"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenFile(context.Background(), filepath.Join(t.TempDir(), "nearstop.sqlite"))
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func stops() *geo.PointSet {
	set := geo.NewPointSet(geo.WGS84,
		geo.Point{Lat: 59.9139, Lon: 10.7522},
		geo.Point{Lat: 60.3913, Lon: 5.3221},
		geo.Point{Lat: 63.4305, Lon: 10.3951},
		geo.Point{Lat: 58.9700, Lon: 5.7331},
	)
	for i, id := range []string{"oslo", "bergen", "trondheim", "stavanger"} {
		set.Records[i].ID = id
	}
	set.Records[1].Attributes = map[string]interface{}{"zone": "west", "platforms": float64(4)}
	return set
}

func TestSQLiteStore_PointSetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	if err := s.SavePointSet(ctx, "stops", stops()); err != nil {
		t.Fatalf("SavePointSet failed: %v", err)
	}
	// saving twice replaces the dataset
	if err := s.SavePointSet(ctx, "stops", stops()); err != nil {
		t.Fatalf("second SavePointSet failed: %v", err)
	}
	got, err := s.LoadPointSet(ctx, "stops")
	if err != nil {
		t.Fatalf("LoadPointSet failed: %v", err)
	}
	want := stops()
	if got.CRS != want.CRS || got.Len() != want.Len() {
		t.Fatalf("LoadPointSet = %s/%d, want %s/%d", got.CRS, got.Len(), want.CRS, want.Len())
	}
	for i := range want.Records {
		if got.Records[i].ID != want.Records[i].ID || got.Records[i].Point != want.Records[i].Point {
			t.Errorf("record %d = %+v, want %+v", i, got.Records[i], want.Records[i])
		}
	}
	if got.Records[1].Attributes["zone"] != "west" || got.Records[1].Attributes["platforms"] != float64(4) {
		t.Errorf("attributes = %v", got.Records[1].Attributes)
	}
	if got.Records[0].Attributes != nil {
		t.Errorf("attributes of 0 = %v, want nil", got.Records[0].Attributes)
	}

	if _, err := s.LoadPointSet(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadPointSet(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_IndexRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	idx, err := index.Build(index.Cover, stops(), index.Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := s.SaveIndex(ctx, "norway", index.Cover, idx); err != nil {
		t.Fatalf("SaveIndex failed: %v", err)
	}
	loaded, err := s.LoadIndex(ctx, "norway", index.Options{})
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if loaded.Len() != idx.Len() {
		t.Fatalf("loaded Len = %d, want %d", loaded.Len(), idx.Len())
	}
	sources := geo.NewPointSet(geo.WGS84, geo.Point{Lat: 60, Lon: 10}, geo.Point{Lat: 59, Lon: 6})
	want, err := idx.Query(sources, 2)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	got, err := loaded.Query(sources, 2)
	if err != nil {
		t.Fatalf("loaded Query failed: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("match %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if loaded.Candidates().Records[2].ID != "trondheim" {
		t.Errorf("loaded candidate id = %q, want trondheim", loaded.Candidates().Records[2].ID)
	}

	if _, err := s.LoadIndex(ctx, "missing", index.Options{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadIndex(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_Matches(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	matches := []geo.Match{
		{Source: 1, Candidate: 3, Rank: 0, Distance: 12.5},
		{Source: 0, Candidate: 2, Rank: 1, Distance: 40},
		{Source: 0, Candidate: 1, Rank: 0, Distance: 7},
	}
	if err := s.SaveMatches(ctx, "run-1", matches); err != nil {
		t.Fatalf("SaveMatches failed: %v", err)
	}
	got, err := s.Matches(ctx, "run-1")
	if err != nil {
		t.Fatalf("Matches failed: %v", err)
	}
	want := []geo.Match{matches[2], matches[1], matches[0]}
	if len(got) != len(want) {
		t.Fatalf("Matches returned %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("match %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if _, err := s.Matches(ctx, "run-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Matches(run-2) error = %v, want ErrNotFound", err)
	}
}

// TestSQLiteStore_NearestSQL checks the SQL nearest query against the
// in-memory brute force index, ties included.
func TestSQLiteStore_NearestSQL(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	rng := rand.New(rand.NewSource(3))
	points := make([]geo.Point, 300)
	for i := range points {
		points[i] = geo.Point{Lat: rng.Float64()*20 + 40, Lon: rng.Float64()*20 - 5}
	}
	points[10] = points[200]
	set := geo.NewPointSet(geo.WGS84, points...)
	if err := s.SavePointSet(ctx, "random", set); err != nil {
		t.Fatalf("SavePointSet failed: %v", err)
	}
	idx, err := index.Build(index.Brute, set, index.Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	queries := []geo.Point{{Lat: 50, Lon: 5}, points[200], {Lat: 41.5, Lon: -4}}
	for _, q := range queries {
		want, err := idx.Query(geo.NewPointSet(geo.WGS84, q), 5)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		got, err := s.NearestSQL(ctx, "random", q, 5)
		if err != nil {
			t.Fatalf("NearestSQL failed: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("NearestSQL returned %d rows, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i].Candidate != want[i].Candidate || got[i].Rank != want[i].Rank || math.Abs(got[i].Distance-want[i].Distance) > 1e-6 {
				t.Errorf("query %v match %d = %+v, want %+v", q, i, got[i], want[i])
			}
		}
	}
}

func TestSQLiteStore_NearestSQLErrors(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	if err := s.SavePointSet(ctx, "stops", stops()); err != nil {
		t.Fatalf("SavePointSet failed: %v", err)
	}
	if err := s.SavePointSet(ctx, "empty", geo.NewPointSet(geo.WGS84)); err != nil {
		t.Fatalf("SavePointSet(empty) failed: %v", err)
	}
	if err := s.SavePointSet(ctx, "mercator", geo.NewPointSet(geo.WebMercator, geo.Point{})); err != nil {
		t.Fatalf("SavePointSet(mercator) failed: %v", err)
	}
	var testCases = []struct {
		description string
		dataset     string
		point       geo.Point
		k           int
		want        error
	}{
		{description: "k zero", dataset: "stops", k: 0, want: geo.ErrInvalidK},
		{description: "k too large", dataset: "stops", k: 5, want: geo.ErrInvalidK},
		{description: "empty dataset", dataset: "empty", k: 1, want: geo.ErrEmptyCandidateSet},
		{description: "projected dataset", dataset: "mercator", k: 1, want: geo.ErrCoordinateSystemMismatch},
		{description: "missing dataset", dataset: "missing", k: 1, want: ErrNotFound},
		{description: "bad latitude", dataset: "stops", point: geo.Point{Lat: -91}, k: 1, want: geo.ErrCoordinateOutOfRange},
	}
	for _, testCase := range testCases {
		_, err := s.NearestSQL(ctx, testCase.dataset, testCase.point, testCase.k)
		if !errors.Is(err, testCase.want) {
			t.Errorf("%s: error = %v, want %v", testCase.description, err, testCase.want)
		}
	}
}
