package balltree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/nearstop/geo"
)

func TestIndex_BallsContainMembers(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	points := make([]geo.Point, 400)
	for i := range points {
		points[i] = geo.Point{Lat: rng.Float64()*170 - 85, Lon: rng.Float64()*360 - 180}
	}
	idx := New(WithLeafSize(8))
	require.NoError(t, idx.Build(geo.NewPointSet(geo.WGS84, points...)))
	assert.Equal(t, 400, idx.Len())
	for _, n := range idx.nodes {
		for _, m := range idx.perm[n.lo:n.hi] {
			assert.LessOrEqual(t, geo.CentralAngle(idx.pts[n.center], idx.pts[m]), n.radius)
		}
		if n.left < 0 {
			assert.LessOrEqual(t, n.hi-n.lo, 8)
		}
	}
}

func TestIndex_ZeroValueUsesDefaultLeafSize(t *testing.T) {
	idx := &Index{}
	require.NoError(t, idx.Build(geo.NewPointSet(geo.WGS84, geo.Point{Lat: 1, Lon: 1})))
	assert.Equal(t, DefaultLeafSize, idx.leafSize)
	matches, err := idx.Query(geo.NewPointSet(geo.WGS84, geo.Point{Lat: 1, Lon: 1.5}), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, matches[0].Candidate)
}
