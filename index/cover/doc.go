// Package cover provides a haversine kNN index backed by a cover tree.
// Subtree radii are computed once at build time, so the tree is read-only
// while queries run. Depth-first and best-first search are both available;
// they return identical matches.
package cover
