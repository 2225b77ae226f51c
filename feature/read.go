package feature

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/viant/nearstop/geo"
)

// DefaultIDProperty is the property used as record ID when a feature has no id.
const DefaultIDProperty = "id"

// ReadOptions controls GeoJSON decoding.
type ReadOptions struct {
	// IDProperty names the property holding the record ID.
	IDProperty string
}

// ReadFile decodes a GeoJSON FeatureCollection file.
func ReadFile(path string, opts ReadOptions) (*geo.PointSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feature: %w", err)
	}
	defer f.Close()
	set, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("feature: %s: %w", path, err)
	}
	return set, nil
}

// Read decodes a GeoJSON FeatureCollection into a point set. Point features
// map directly; other geometries are represented by the centre of their
// bound. Features without geometry keep a NaN point so validation reports
// them by position. The set is tagged WGS84 unless the document carries a
// legacy crs member naming another system.
func Read(r io.Reader, opts ReadOptions) (*geo.PointSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}
	if opts.IDProperty == "" {
		opts.IDProperty = DefaultIDProperty
	}
	set := &geo.PointSet{CRS: collectionCRS(fc), Records: make([]geo.Record, len(fc.Features))}
	for i, f := range fc.Features {
		set.Records[i] = geo.Record{
			ID:         featureID(f, opts.IDProperty),
			Point:      featurePoint(f),
			Attributes: map[string]interface{}(f.Properties),
		}
	}
	return set, nil
}

func featurePoint(f *geojson.Feature) geo.Point {
	// no geometry, or one without coordinates, keeps NaN
	if f.Geometry == nil || f.Geometry.Bound().IsEmpty() {
		return geo.Point{Lat: math.NaN(), Lon: math.NaN()}
	}
	var p orb.Point
	if point, ok := f.Geometry.(orb.Point); ok {
		p = point
	} else {
		p = f.Point()
	}
	return geo.Point{Lat: p.Lat(), Lon: p.Lon()}
}

func featureID(f *geojson.Feature, property string) string {
	if id := formatID(f.ID); id != "" {
		return id
	}
	return formatID(f.Properties[property])
}

func formatID(v interface{}) string {
	switch actual := v.(type) {
	case nil:
		return ""
	case string:
		return actual
	case float64:
		return strconv.FormatFloat(actual, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// collectionCRS reads the legacy {"crs":{"type":"name","properties":{"name":...}}} member.
func collectionCRS(fc *geojson.FeatureCollection) geo.CRS {
	member, ok := fc.ExtraMembers["crs"].(map[string]interface{})
	if !ok {
		return geo.WGS84
	}
	props, ok := member["properties"].(map[string]interface{})
	if !ok {
		return geo.WGS84
	}
	name, _ := props["name"].(string)
	if name == "" {
		return geo.WGS84
	}
	return geo.ParseCRS(name)
}
