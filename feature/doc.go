// Package feature reads stops and buildings from GeoJSON and writes joined
// buildings back out, optionally with a link line to their nearest stop.
package feature
