package geo

// Record is a point with a stable identifier and an opaque attribute payload.
type Record struct {
	ID         string
	Point      Point
	Attributes map[string]interface{}
}

// PointSet is an ordered, CRS-tagged collection of records. The position of
// a record is its index in Records plus the window offset.
type PointSet struct {
	CRS     CRS
	Records []Record
	offset  int
}

// NewPointSet builds a point set from degree points.
func NewPointSet(crs CRS, points ...Point) *PointSet {
	ret := &PointSet{CRS: crs, Records: make([]Record, len(points))}
	for i, p := range points {
		ret.Records[i].Point = p
	}
	return ret
}

// NewPointSetFromPairs builds a point set from [lat, lon] pairs, failing on
// the first pair that is not exactly two finite in-range numbers.
func NewPointSetFromPairs(crs CRS, pairs [][]float64) (*PointSet, error) {
	ret := &PointSet{CRS: crs, Records: make([]Record, len(pairs))}
	for i, pair := range pairs {
		p, err := PointFromPair(pair)
		if err != nil {
			return nil, &PointError{Position: i, Err: err}
		}
		ret.Records[i].Point = p
	}
	return ret, nil
}

// Len returns the number of records.
func (s *PointSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Position returns the stable position of the i-th record.
func (s *PointSet) Position(i int) int { return s.offset + i }

// Offset returns the position of the first record.
func (s *PointSet) Offset() int { return s.offset }

// Window returns a view of records [lo, hi) that keeps original positions.
func (s *PointSet) Window(lo, hi int) *PointSet {
	return &PointSet{CRS: s.CRS, Records: s.Records[lo:hi], offset: s.offset + lo}
}

// Radians validates the CRS tag and every record and returns radian
// coordinates in order. Malformed records are reported as *PointError.
func (s *PointSet) Radians() ([]Radian, error) {
	if err := s.CRS.Check(); err != nil {
		return nil, err
	}
	ret := make([]Radian, len(s.Records))
	for i := range s.Records {
		if err := s.Records[i].Point.Validate(); err != nil {
			return nil, &PointError{Position: s.Position(i), Err: err}
		}
		ret[i] = s.Records[i].Point.Radians()
	}
	return ret, nil
}

// Invalid returns the positions of records failing Validate.
func (s *PointSet) Invalid() []int {
	if s == nil {
		return nil
	}
	var ret []int
	for i := range s.Records {
		if s.Records[i].Point.Validate() != nil {
			ret = append(ret, s.Position(i))
		}
	}
	return ret
}
