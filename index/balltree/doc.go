// Package balltree provides a ball tree over the sphere. Candidates are
// split recursively along the widest axis of their unit vectors; each ball
// is centered on a member point and carries the exact maximum central angle
// to its members, so lower bounds are valid for the haversine metric.
package balltree
