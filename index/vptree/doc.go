// Package vptree provides a vantage-point tree over haversine central
// angles. Each node splits the remaining candidates at the median angle to
// its vantage point; queries prune with the triangle inequality.
package vptree
