package store

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
    name TEXT PRIMARY KEY,
    crs TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS points (
    dataset TEXT NOT NULL,
    position INTEGER NOT NULL,
    id TEXT,
    lat REAL NOT NULL,
    lon REAL NOT NULL,
    attrs TEXT,
    PRIMARY KEY (dataset, position)
);
CREATE TABLE IF NOT EXISTS index_storage (
    name TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    crs TEXT NOT NULL,
    data BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS matches (
    run TEXT NOT NULL,
    source INTEGER NOT NULL,
    candidate INTEGER NOT NULL,
    rank INTEGER NOT NULL,
    distance REAL NOT NULL,
    PRIMARY KEY (run, source, rank)
);
`

// EnsureSchema creates the store tables if they do not already exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
