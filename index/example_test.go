package index_test

import (
	"fmt"

	"github.com/viant/nearstop/geo"
	"github.com/viant/nearstop/index"
)

func ExampleBuild() {
	stops := geo.NewPointSet(geo.WGS84, geo.Point{Lat: 0, Lon: 0}, geo.Point{Lat: 0, Lon: 1})
	buildings := geo.NewPointSet(geo.WGS84, geo.Point{Lat: 0, Lon: 0.6})

	idx, err := index.Build(index.Auto, stops, index.Options{})
	if err != nil {
		fmt.Println(err)
		return
	}
	matches, err := idx.Query(buildings, 1)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("building %d -> stop %d (%.0f m)\n", matches[0].Source, matches[0].Candidate, matches[0].Distance)
	// Output: building 0 -> stop 1 (44478 m)
}
