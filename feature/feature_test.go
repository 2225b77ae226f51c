package feature

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/nearstop/geo"
	"github.com/viant/nearstop/join"
)

const stopsJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "A", "geometry": {"type": "Point", "coordinates": [7.16, 62.74]}, "properties": {"name": "Sentrum"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [7.19, 62.735]}, "properties": {"id": 17, "name": "Havna"}},
    {"type": "Feature", "id": 3, "geometry": {"type": "Polygon", "coordinates": [[[7.17, 62.74], [7.18, 62.74], [7.18, 62.75], [7.17, 62.75], [7.17, 62.74]]]}, "properties": {}},
    {"type": "Feature", "geometry": null, "properties": {"osm_id": "x"}}
  ]
}`

func TestRead(t *testing.T) {
	set, err := Read(strings.NewReader(stopsJSON), ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, geo.WGS84, set.CRS)
	require.Equal(t, 4, set.Len())

	// GeoJSON positions are [lon, lat]
	assert.Equal(t, geo.Point{Lat: 62.74, Lon: 7.16}, set.Records[0].Point)
	assert.Equal(t, "A", set.Records[0].ID)
	assert.Equal(t, "Sentrum", set.Records[0].Attributes["name"])

	assert.Equal(t, "17", set.Records[1].ID)
	assert.Equal(t, "3", set.Records[2].ID)
	assert.InDelta(t, 62.745, set.Records[2].Point.Lat, 1e-12)
	assert.InDelta(t, 7.175, set.Records[2].Point.Lon, 1e-12)

	assert.True(t, math.IsNaN(set.Records[3].Point.Lat))
	assert.Equal(t, []int{3}, set.Invalid())
}

func TestRead_IDProperty(t *testing.T) {
	set, err := Read(strings.NewReader(stopsJSON), ReadOptions{IDProperty: "osm_id"})
	require.NoError(t, err)
	assert.Equal(t, "A", set.Records[0].ID)
	assert.Equal(t, "", set.Records[1].ID)
	assert.Equal(t, "x", set.Records[3].ID)
}

func TestRead_LegacyCRS(t *testing.T) {
	var testCases = []struct {
		description string
		name        string
		expect      geo.CRS
	}{
		{description: "crs84", name: "urn:ogc:def:crs:OGC:1.3:CRS84", expect: geo.WGS84},
		{description: "epsg 4326 urn", name: "urn:ogc:def:crs:EPSG::4326", expect: geo.WGS84},
		{description: "web mercator", name: "urn:ogc:def:crs:EPSG::3857", expect: geo.WebMercator},
		{description: "utm", name: "urn:ogc:def:crs:EPSG::25832", expect: geo.CRS("EPSG:25832")},
	}
	for _, testCase := range testCases {
		doc := `{"type":"FeatureCollection","crs":{"type":"name","properties":{"name":"` + testCase.name + `"}},"features":[]}`
		set, err := Read(strings.NewReader(doc), ReadOptions{})
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, set.CRS, testCase.description)
	}
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(strings.NewReader(`{"type":"Feature"}`), ReadOptions{})
	assert.Error(t, err)
	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.geojson"), ReadOptions{})
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRead_EmptyGeometry(t *testing.T) {
	set, err := Read(strings.NewReader(`{"type":"FeatureCollection","features":[
{"type":"Feature","geometry":{"type":"MultiPoint","coordinates":[]},"properties":{}},
{"type":"Feature","geometry":{"type":"LineString","coordinates":[]},"properties":{}},
{"type":"Feature","geometry":null,"properties":{}},
{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{}}]}`), ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, 4, set.Len())
	for i := 0; i < 3; i++ {
		p := set.Records[i].Point
		assert.True(t, math.IsNaN(p.Lat) && math.IsNaN(p.Lon), "record %d: %v", i, p)
		assert.True(t, errors.Is(p.Validate(), geo.ErrDimensionMismatch), "record %d", i)
	}
	assert.Equal(t, geo.Point{}, set.Records[3].Point)
}

func rows() []join.Row {
	return []join.Row{
		{
			Building:       0,
			BuildingRecord: geo.Record{ID: "b0", Point: geo.Point{Lat: 62.741, Lon: 7.161}, Attributes: map[string]interface{}{"objtype": "Bygning"}},
			Stop:           1,
			StopRecord:     geo.Record{ID: "s1", Point: geo.Point{Lat: 62.74, Lon: 7.16}},
			Distance:       125.5,
		},
		{
			Building:       2,
			BuildingRecord: geo.Record{Point: geo.Point{Lat: 62.735, Lon: 7.19}},
			Stop:           0,
			StopRecord:     geo.Record{ID: "s0", Point: geo.Point{Lat: 62.735, Lon: 7.19}},
		},
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows(), WriteOptions{Links: true}))
	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 4)

	b0 := fc.Features[0]
	assert.Equal(t, "b0", b0.ID)
	assert.Equal(t, orb.Point{7.161, 62.741}, b0.Geometry)
	assert.Equal(t, "Bygning", b0.Properties.MustString("objtype"))
	assert.Equal(t, "s1", b0.Properties.MustString(StopIDProperty))
	assert.Equal(t, 1, b0.Properties.MustInt(StopPositionProperty))
	assert.Equal(t, 125.5, b0.Properties.MustFloat64(DistanceProperty))
	assert.Nil(t, fc.Features[1].ID)

	link := fc.Features[2]
	assert.Equal(t, orb.LineString{{7.161, 62.741}, {7.16, 62.74}}, link.Geometry)
	assert.Equal(t, 0, link.Properties.MustInt(BuildingProperty))
	assert.Equal(t, 2, fc.Features[3].Properties.MustInt(BuildingProperty))
}

func TestWriteFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "joined.geojson")
	require.NoError(t, WriteFile(path, rows(), WriteOptions{Indent: true}))
	set, err := ReadFile(path, ReadOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, "b0", set.Records[0].ID)
	assert.Equal(t, geo.Point{Lat: 62.741, Lon: 7.161}, set.Records[0].Point)
	assert.Equal(t, "s0", set.Records[1].Attributes[StopIDProperty])
}
