package geo

// Match pairs a source position with one of its nearest candidates.
type Match struct {
	// Source is the position of the query point in the source point set.
	Source int `json:"source"`
	// Candidate is the position of the matched point in the candidate set.
	Candidate int `json:"candidate"`
	// Rank is 0 for the nearest candidate, 1 for the second nearest, and so on.
	Rank int `json:"rank"`
	// Distance is the haversine distance in meters.
	Distance float64 `json:"distance"`
}
