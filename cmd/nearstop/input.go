package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/nearstop/feature"
	"github.com/viant/nearstop/geo"
	"github.com/viant/nearstop/report"
)

// readPoints loads a point set from a GeoJSON or XLSX file.
func readPoints(path, idProperty string) (*geo.PointSet, error) {
	if path == "" {
		return nil, fmt.Errorf("input file not set")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return report.ReadPointSet(path, report.DefaultSheetOptions)
	default:
		return feature.ReadFile(path, feature.ReadOptions{IDProperty: idProperty})
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
