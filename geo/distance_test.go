package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	var testCases = []struct {
		description string
		a, b        Point
		expect      float64
		delta       float64
	}{
		{description: "same point", a: Point{10, 10}, b: Point{10, 10}, expect: 0, delta: 1e-9},
		{description: "one degree of longitude at the equator", a: Point{0, 0}, b: Point{0, 1}, expect: 111194.93, delta: 0.01},
		{description: "one degree of latitude", a: Point{0, 0}, b: Point{1, 0}, expect: 111194.93, delta: 0.01},
		{description: "antipodes", a: Point{0, 0}, b: Point{0, 180}, expect: math.Pi * EarthRadius, delta: 1e-6},
		{description: "pole to pole", a: Point{90, 0}, b: Point{-90, 0}, expect: math.Pi * EarthRadius, delta: 1e-6},
		{description: "across antimeridian", a: Point{0, 179.5}, b: Point{0, -179.5}, expect: 111194.93, delta: 0.01},
	}
	for _, testCase := range testCases {
		actual := Haversine(testCase.a, testCase.b)
		assert.InDelta(t, testCase.expect, actual, testCase.delta, testCase.description)
		assert.InDelta(t, actual, Haversine(testCase.b, testCase.a), 1e-9, testCase.description+" symmetric")
	}
}

func TestCentralAngle_MatchesManualFormula(t *testing.T) {
	a := Point{Lat: 62.7412, Lon: 7.1603}
	b := Point{Lat: 62.7355, Lon: 7.1921}
	phi1, phi2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dPhi := phi2 - phi1
	dLambda := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Pow(math.Sin(dPhi/2), 2) + math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(dLambda/2), 2)
	manual := 2 * EarthRadius * math.Asin(math.Sqrt(h))
	assert.InDelta(t, manual, Haversine(a, b), 1e-6)
}

func TestAngleMetersRoundTrip(t *testing.T) {
	assert.InDelta(t, 1234.5, AngleToMeters(MetersToAngle(1234.5)), 1e-9)
}
