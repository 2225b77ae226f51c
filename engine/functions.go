package engine

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"

	sqlite "modernc.org/sqlite"

	"github.com/viant/nearstop/geo"
)

var registerOnce sync.Once
var registerErr error

// RegisterGeoFunctions registers haversine_m(lat1, lon1, lat2, lon2) with
// the driver. Functions are visible on connections opened after the first
// call; later calls are no-ops.
func RegisterGeoFunctions() error {
	registerOnce.Do(func() {
		registerErr = sqlite.RegisterDeterministicScalarFunction("haversine_m", 4, haversineImpl)
		if registerErr != nil && strings.Contains(registerErr.Error(), "already registered") {
			registerErr = nil
		}
	})
	return registerErr
}

func asFloat(arg driver.Value) (float64, bool, error) {
	switch v := arg.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return v, true, nil
	case int64:
		return float64(v), true, nil
	default:
		return 0, false, fmt.Errorf("haversine_m: unsupported argument type %T; want REAL", arg)
	}
}

// haversineImpl returns NULL when any argument is NULL and an error for
// coordinates outside degree ranges.
func haversineImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 4 {
		return nil, fmt.Errorf("haversine_m: expected 4 arguments, got %d", len(args))
	}
	var values [4]float64
	for i, arg := range args {
		v, ok, err := asFloat(arg)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		values[i] = v
	}
	a := geo.Point{Lat: values[0], Lon: values[1]}
	b := geo.Point{Lat: values[2], Lon: values[3]}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("haversine_m: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("haversine_m: %w", err)
	}
	return geo.Haversine(a, b), nil
}
