package geo

import (
	"encoding/binary"
	"errors"
	"math"
)

// MarshalBinary stores: crsLen(uint32), crs bytes, n(uint32), then for each
// record: idLen(uint32), id bytes, lat(float64), lon(float64).
// Attributes are not encoded.
func (s *PointSet) MarshalBinary() ([]byte, error) {
	size := 8 + len(s.CRS)
	for i := range s.Records {
		size += 4 + len(s.Records[i].ID) + 16
	}
	out := make([]byte, 0, size)
	putU32 := func(v uint32) { out = binary.LittleEndian.AppendUint32(out, v) }
	putF64 := func(v float64) { out = binary.LittleEndian.AppendUint64(out, math.Float64bits(v)) }
	putU32(uint32(len(s.CRS)))
	out = append(out, s.CRS...)
	putU32(uint32(len(s.Records)))
	for i := range s.Records {
		r := &s.Records[i]
		putU32(uint32(len(r.ID)))
		out = append(out, r.ID...)
		putF64(r.Point.Lat)
		putF64(r.Point.Lon)
	}
	return out, nil
}

// UnmarshalBinary restores a point set encoded by MarshalBinary.
func (s *PointSet) UnmarshalBinary(data []byte) error {
	off := 0
	getU32 := func() (uint32, bool) {
		if off+4 > len(data) {
			return 0, false
		}
		v := binary.LittleEndian.Uint32(data[off : off+4])
		off += 4
		return v, true
	}
	getF64 := func() (float64, bool) {
		if off+8 > len(data) {
			return 0, false
		}
		v := math.Float64frombits(binary.LittleEndian.Uint64(data[off : off+8]))
		off += 8
		return v, true
	}
	crsLen, ok := getU32()
	if !ok || off+int(crsLen) > len(data) {
		return errors.New("geo: invalid point set data")
	}
	crs := CRS(data[off : off+int(crsLen)])
	off += int(crsLen)
	n, ok := getU32()
	if !ok {
		return errors.New("geo: truncated point set header")
	}
	// each record needs at least 20 bytes
	if uint64(n)*20 > uint64(len(data)-off) {
		return errors.New("geo: truncated point set")
	}
	records := make([]Record, n)
	for i := range records {
		idLen, ok := getU32()
		if !ok || off+int(idLen) > len(data) {
			return errors.New("geo: truncated id")
		}
		records[i].ID = string(data[off : off+int(idLen)])
		off += int(idLen)
		lat, ok1 := getF64()
		lon, ok2 := getF64()
		if !ok1 || !ok2 {
			return errors.New("geo: truncated coordinates")
		}
		records[i].Point = Point{Lat: lat, Lon: lon}
	}
	s.CRS = crs
	s.Records = records
	s.offset = 0
	return nil
}
