package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/viant/nearstop/geo"
)

// SheetOptions locates point columns in a worksheet. Columns are 0-based;
// the first row is a header.
type SheetOptions struct {
	Sheet     string
	IDColumn  int
	LatColumn int
	LonColumn int
}

// DefaultSheetOptions reads ID, Lat, Lon from the first three columns of
// the first sheet.
var DefaultSheetOptions = SheetOptions{IDColumn: 0, LatColumn: 1, LonColumn: 2}

func parseCoord(val string) (float64, error) {
	// decimal comma locales
	val = strings.TrimSpace(strings.ReplaceAll(val, ",", "."))
	if val == "" {
		return 0, fmt.Errorf("empty")
	}
	return strconv.ParseFloat(val, 64)
}

// ReadPointSet reads a WGS84 point set from a worksheet. Rows whose
// coordinates do not parse are kept with NaN coordinates so validation
// reports them by position.
func ReadPointSet(path string, opts SheetOptions) (*geo.PointSet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	defer f.Close()
	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("report: %s: %w", sheet, err)
	}
	set := &geo.PointSet{CRS: geo.WGS84}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) == 0 {
			continue
		}
		r := geo.Record{ID: cell(row, opts.IDColumn)}
		lat, latErr := parseCoord(cell(row, opts.LatColumn))
		lon, lonErr := parseCoord(cell(row, opts.LonColumn))
		if latErr != nil || lonErr != nil {
			lat, lon = math.NaN(), math.NaN()
		}
		r.Point = geo.Point{Lat: lat, Lon: lon}
		r.Attributes = map[string]interface{}{"row": i + 1}
		set.Records = append(set.Records, r)
	}
	return set, nil
}

func cell(row []string, column int) string {
	if column < 0 || column >= len(row) {
		return ""
	}
	return row[column]
}
