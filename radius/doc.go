// Package radius answers "which candidates lie within R meters" queries.
// Candidates are held in an R-tree keyed by (lon, lat) degrees; a
// conservative degree box around the query selects possible members and the
// exact haversine distance decides.
package radius
