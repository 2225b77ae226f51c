// Package bruteforce provides the reference nearest-neighbor index: every
// query scans all candidates and keeps the k smallest haversine distances.
// Tree strategies are tested against it.
package bruteforce
