// Package store persists point sets, serialized indexes and match runs in
// SQLite using the shared modernc.org/sqlite driver from package engine.
//
// The schema is created on demand by New. NearestSQL answers a nearest
// query with plain SQL ordered by the haversine_m function, which makes it
// a slow but independent cross-check of the in-memory indexes.
package store
