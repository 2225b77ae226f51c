// Package geo defines the geographic data model shared by the nearest-stop
// index and its adapters:
//   - Point, CRS and PointSet: caller-owned inputs tagged with their
//     coordinate reference system
//   - Match: a (source, candidate, distance) result record
//   - Haversine distance and the single degree to radian boundary
//   - a compact binary encoding of point sets used to persist indexes
//   - the error taxonomy returned by every layer of this module
package geo
