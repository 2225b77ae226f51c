package feature

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/viant/nearstop/join"
)

// Properties added to every joined building.
const (
	StopIDProperty       = "stop_id"
	StopPositionProperty = "stop_position"
	DistanceProperty     = "distance"
	BuildingProperty     = "building"
)

// WriteOptions controls GeoJSON encoding.
type WriteOptions struct {
	// Links appends one LineString feature per row from the building to its stop.
	Links bool
	// Indent pretty prints the output.
	Indent bool
}

// Collection builds the output feature collection for rows.
func Collection(rows []join.Row, opts WriteOptions) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, row := range rows {
		b := row.BuildingRecord.Point
		f := geojson.NewFeature(orb.Point{b.Lon, b.Lat})
		if row.BuildingRecord.ID != "" {
			f.ID = row.BuildingRecord.ID
		}
		for k, v := range row.BuildingRecord.Attributes {
			f.Properties[k] = v
		}
		f.Properties[StopIDProperty] = row.StopRecord.ID
		f.Properties[StopPositionProperty] = row.Stop
		f.Properties[DistanceProperty] = row.Distance
		fc.Append(f)
	}
	if !opts.Links {
		return fc
	}
	for _, row := range rows {
		b, s := row.BuildingRecord.Point, row.StopRecord.Point
		link := geojson.NewFeature(orb.LineString{{b.Lon, b.Lat}, {s.Lon, s.Lat}})
		link.Properties[BuildingProperty] = row.Building
		link.Properties[StopIDProperty] = row.StopRecord.ID
		link.Properties[StopPositionProperty] = row.Stop
		link.Properties[DistanceProperty] = row.Distance
		fc.Append(link)
	}
	return fc
}

// Write encodes rows as a GeoJSON FeatureCollection.
func Write(w io.Writer, rows []join.Row, opts WriteOptions) error {
	fc := Collection(rows, opts)
	var data []byte
	var err error
	if opts.Indent {
		data, err = json.MarshalIndent(fc, "", "  ")
	} else {
		data, err = json.Marshal(fc)
	}
	if err != nil {
		return fmt.Errorf("feature: encode: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// WriteFile writes rows to path.
func WriteFile(path string, rows []join.Row, opts WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("feature: %w", err)
	}
	if err := Write(f, rows, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
