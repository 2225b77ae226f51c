// Package index defines the nearest-neighbor index abstraction used to match
// source points (buildings) to their closest candidates (stops) by haversine
// distance. Implementations in this module include a brute-force baseline, a
// ball tree, a cover tree and a vantage-point tree; all of them return
// identical matches, so callers choose a strategy for speed only.
package index
