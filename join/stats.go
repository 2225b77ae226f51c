package join

import (
	"math"
	"sort"
)

// Stats summarizes a distance column the way a data frame describe does.
type Stats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	P25   float64 `json:"p25"`
	P50   float64 `json:"p50"`
	P75   float64 `json:"p75"`
	Max   float64 `json:"max"`
}

// Describe computes count, mean, sample standard deviation, min, max and
// linearly interpolated quartiles. Std is 0 for fewer than two values and
// every field is 0 for an empty input.
func Describe(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	n := len(sorted)
	ret := Stats{
		Count: n,
		Mean:  sum / float64(n),
		Min:   sorted[0],
		Max:   sorted[n-1],
		P25:   quantile(sorted, 0.25),
		P50:   quantile(sorted, 0.5),
		P75:   quantile(sorted, 0.75),
	}
	if n > 1 {
		var sq float64
		for _, v := range sorted {
			d := v - ret.Mean
			sq += d * d
		}
		ret.Std = math.Sqrt(sq / float64(n-1))
	}
	return ret
}

func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
