package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/viant/nearstop/engine"
	"github.com/viant/nearstop/geo"
	"github.com/viant/nearstop/index"
	"github.com/viant/nearstop/internal/knn"
)

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a SQLite-backed Store and ensures its schema. The haversine_m
// function must be registered before db opened its first connection for
// NearestSQL to work; OpenFile takes care of that.
func New(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("store: db is nil")
	}
	if err := EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// OpenFile registers the geo functions, opens dsn and returns a store on it.
func OpenFile(ctx context.Context, dsn string) (*SQLiteStore, error) {
	if err := engine.RegisterGeoFunctions(); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	db, err := engine.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dsn, err)
	}
	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// DB returns the underlying database handle.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) SavePointSet(ctx context.Context, dataset string, set *geo.PointSet) error {
	if dataset == "" {
		return fmt.Errorf("store: empty dataset name")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM points WHERE dataset = ?`, dataset); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO datasets(name, crs) VALUES(?, ?)`, dataset, string(set.CRS)); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO points(dataset, position, id, lat, lon, attrs) VALUES(?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, r := range set.Records {
		var attrs interface{}
		if len(r.Attributes) > 0 {
			data, err := json.Marshal(r.Attributes)
			if err != nil {
				return fmt.Errorf("store: attributes of %d: %w", i, err)
			}
			attrs = string(data)
		}
		if _, err := stmt.ExecContext(ctx, dataset, i, r.ID, r.Point.Lat, r.Point.Lon, attrs); err != nil {
			return fmt.Errorf("store: insert point %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadPointSet(ctx context.Context, dataset string) (*geo.PointSet, error) {
	var crs string
	err := s.db.QueryRowContext(ctx, `SELECT crs FROM datasets WHERE name = ?`, dataset).Scan(&crs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: dataset %q", ErrNotFound, dataset)
	}
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, lat, lon, attrs FROM points WHERE dataset = ? ORDER BY position`, dataset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := &geo.PointSet{CRS: geo.CRS(crs)}
	for rows.Next() {
		var r geo.Record
		var id, attrs sql.NullString
		if err := rows.Scan(&id, &r.Point.Lat, &r.Point.Lon, &attrs); err != nil {
			return nil, err
		}
		r.ID = id.String
		if attrs.Valid && attrs.String != "" {
			if err := json.Unmarshal([]byte(attrs.String), &r.Attributes); err != nil {
				return nil, fmt.Errorf("store: attributes of %d: %w", len(set.Records), err)
			}
		}
		set.Records = append(set.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *SQLiteStore) SaveIndex(ctx context.Context, name string, kind index.Kind, idx index.Index) error {
	if name == "" {
		return fmt.Errorf("store: empty index name")
	}
	data, err := idx.MarshalBinary()
	if err != nil {
		return fmt.Errorf("store: marshal index %q: %w", name, err)
	}
	kind = kind.Resolve(idx.Len())
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO index_storage(name, kind, crs, data) VALUES(?, ?, ?, ?)`,
		name, string(kind), string(idx.Candidates().CRS), data)
	return err
}

func (s *SQLiteStore) LoadIndex(ctx context.Context, name string, opts index.Options) (index.Index, error) {
	var kind, crs string
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT kind, crs, data FROM index_storage WHERE name = ?`, name).Scan(&kind, &crs, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: index %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	if err := geo.CRS(crs).Check(); err != nil {
		return nil, fmt.Errorf("store: index %q: %w", name, err)
	}
	k, err := index.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	idx, err := index.Load(k, data, opts)
	if err != nil {
		return nil, fmt.Errorf("store: load index %q: %w", name, err)
	}
	return idx, nil
}

func (s *SQLiteStore) SaveMatches(ctx context.Context, run string, matches []geo.Match) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE run = ?`, run); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO matches(run, source, candidate, rank, distance) VALUES(?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, m := range matches {
		if _, err := stmt.ExecContext(ctx, run, m.Source, m.Candidate, m.Rank, m.Distance); err != nil {
			return fmt.Errorf("store: insert match %d/%d: %w", m.Source, m.Rank, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Matches(ctx context.Context, run string) ([]geo.Match, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, candidate, rank, distance FROM matches WHERE run = ? ORDER BY source, rank`, run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []geo.Match
	for rows.Next() {
		var m geo.Match
		if err := rows.Scan(&m.Source, &m.Candidate, &m.Rank, &m.Distance); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: run %q", ErrNotFound, run)
	}
	return out, nil
}

func (s *SQLiteStore) NearestSQL(ctx context.Context, dataset string, p geo.Point, k int) ([]geo.Match, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var crs string
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT d.crs, COUNT(p.position) FROM datasets d LEFT JOIN points p ON p.dataset = d.name WHERE d.name = ? GROUP BY d.name`, dataset).Scan(&crs, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: dataset %q", ErrNotFound, dataset)
	}
	if err != nil {
		return nil, err
	}
	if err := geo.CRS(crs).Check(); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, geo.ErrEmptyCandidateSet
	}
	if err := knn.CheckK(k, count); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT position, haversine_m(?, ?, lat, lon) AS distance
FROM points
WHERE dataset = ?
ORDER BY distance, position
LIMIT ?`, p.Lat, p.Lon, dataset, k)
	if err != nil {
		return nil, fmt.Errorf("store: nearest: %w", err)
	}
	defer rows.Close()

	var out []geo.Match
	for rows.Next() {
		m := geo.Match{Rank: len(out)}
		if err := rows.Scan(&m.Candidate, &m.Distance); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Ensure SQLiteStore satisfies the Store interface.
var _ Store = (*SQLiteStore)(nil)
