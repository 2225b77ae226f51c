package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/viant/nearstop/join"
)

// Sheet names of the written workbook.
const (
	NearestSheet = "Nearest"
	SummarySheet = "Summary"
)

var nearestHeader = []interface{}{
	"Building", "Building ID", "Building Lat", "Building Lon",
	"Stop", "Stop ID", "Stop Lat", "Stop Lon",
	"Distance (m)",
}

// Write saves rows and their stats to an XLSX workbook at path.
func Write(path string, rows []join.Row, stats join.Stats) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(NearestSheet)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := writeNearest(f, rows); err != nil {
		return fmt.Errorf("report: %s: %w", NearestSheet, err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := writeSummary(f, stats); err != nil {
		return fmt.Errorf("report: %s: %w", SummarySheet, err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return f.SaveAs(path)
}

func writeNearest(f *excelize.File, rows []join.Row) error {
	sw, err := f.NewStreamWriter(NearestSheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", nearestHeader); err != nil {
		return err
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		b, s := r.BuildingRecord.Point, r.StopRecord.Point
		row := []interface{}{
			r.Building, r.BuildingRecord.ID, b.Lat, b.Lon,
			r.Stop, r.StopRecord.ID, s.Lat, s.Lon,
			r.Distance,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func writeSummary(f *excelize.File, stats join.Stats) error {
	sw, err := f.NewStreamWriter(SummarySheet)
	if err != nil {
		return err
	}
	lines := [][]interface{}{
		{"Statistic", "Distance (m)"},
		{"count", stats.Count},
		{"mean", stats.Mean},
		{"std", stats.Std},
		{"min", stats.Min},
		{"25%", stats.P25},
		{"50%", stats.P50},
		{"75%", stats.P75},
		{"max", stats.Max},
	}
	for i, line := range lines {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := sw.SetRow(cell, line); err != nil {
			return err
		}
	}
	return sw.Flush()
}
