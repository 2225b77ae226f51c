package report

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/viant/nearstop/geo"
	"github.com/viant/nearstop/join"
)

func TestWrite(t *testing.T) {
	rows := []join.Row{
		{
			Building:       0,
			BuildingRecord: geo.Record{ID: "b0", Point: geo.Point{Lat: 62.741, Lon: 7.161}},
			Stop:           1,
			StopRecord:     geo.Record{ID: "s1", Point: geo.Point{Lat: 62.74, Lon: 7.16}},
			Distance:       125.5,
		},
		{
			Building:       3,
			BuildingRecord: geo.Record{ID: "b3", Point: geo.Point{Lat: 62.735, Lon: 7.19}},
			Stop:           0,
			StopRecord:     geo.Record{ID: "s0", Point: geo.Point{Lat: 62.735, Lon: 7.19}},
		},
	}
	stats := join.Describe([]float64{125.5, 0})
	path := filepath.Join(t.TempDir(), "nearest.xlsx")
	require.NoError(t, Write(path, rows, stats))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{NearestSheet, SummarySheet}, f.GetSheetList())

	nearest, err := f.GetRows(NearestSheet)
	require.NoError(t, err)
	require.Len(t, nearest, 3)
	assert.Equal(t, "Building ID", nearest[0][1])
	assert.Equal(t, []string{"0", "b0", "62.741", "7.161", "1", "s1", "62.74", "7.16", "125.5"}, nearest[1])
	assert.Equal(t, "3", nearest[2][0])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 9)
	assert.Equal(t, []string{"count", "2"}, summary[1])
	assert.Equal(t, []string{"mean", "62.75"}, summary[2])
	assert.Equal(t, []string{"max", "125.5"}, summary[8])
}

func TestReadPointSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stops.xlsx")
	f := excelize.NewFile()
	sheetRows := [][]interface{}{
		{"ID", "Lat", "Lon"},
		{"s0", 62.74, 7.16},
		{"s1", "62,735", "7,19"},
		{"s2", "n/a", 7.2},
	}
	for i, row := range sheetRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	set, err := ReadPointSet(path, DefaultSheetOptions)
	require.NoError(t, err)
	assert.Equal(t, geo.WGS84, set.CRS)
	require.Equal(t, 3, set.Len())
	assert.Equal(t, "s0", set.Records[0].ID)
	assert.Equal(t, geo.Point{Lat: 62.74, Lon: 7.16}, set.Records[0].Point)
	assert.Equal(t, geo.Point{Lat: 62.735, Lon: 7.19}, set.Records[1].Point)
	assert.True(t, math.IsNaN(set.Records[2].Point.Lat))
	assert.Equal(t, []int{2}, set.Invalid())
	assert.Equal(t, 3, set.Records[1].Attributes["row"])

	_, err = ReadPointSet(path, SheetOptions{Sheet: "Missing", LatColumn: 1, LonColumn: 2})
	assert.Error(t, err)
}
