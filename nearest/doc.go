// Package nearest implements a SQLite virtual table answering nearest stop
// queries from SQL.
//
// Indexes are attached to a process wide catalog under a name, either built
// or through a loader run on first use. A virtual table names the catalog
// entry it serves:
//
//	CREATE VIRTUAL TABLE stop_nearest USING nearest(stops);
//	SELECT id, distance FROM stop_nearest WHERE qlat = ? AND qlon = ? AND k = 3;
//	SELECT id, distance FROM stop_nearest WHERE qlat = ? AND qlon = ? AND radius = 500;
//
// Without query constraints the table lists every candidate in position
// order with NULL rank and distance. nearest_invalidate(name) drops the
// cached index so the next query reloads it.
package nearest
