// Package join attaches to every building its nearest stop.
//
// A Joiner builds a haversine index over the stops, queries it with every
// building and returns one Row per building together with descriptive
// statistics of the distances.
package join
