package index

import (
	"runtime"
	"sync"

	"github.com/viant/nearstop/geo"
)

// minWindow is the smallest number of sources handed to one worker.
const minWindow = 256

// Query runs idx.Query over contiguous windows of sources on up to workers
// goroutines and concatenates the results in source order. workers <= 0
// uses GOMAXPROCS. The result is identical to idx.Query(sources, k).
func Query(idx Index, sources *geo.PointSet, k int, workers int) ([]geo.Match, error) {
	total := sources.Len()
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if limit := (total + minWindow - 1) / minWindow; workers > limit {
		workers = limit
	}
	if workers <= 1 {
		return idx.Query(sources, k)
	}
	chunkSize := (total + workers - 1) / workers
	results := make([][]geo.Match, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if start >= total {
			break
		}
		if end > total {
			end = total
		}
		wg.Add(1)
		go func(w, s, e int) {
			defer wg.Done()
			results[w], errs[w] = idx.Query(sources.Window(s, e), k)
		}(w, start, end)
	}
	wg.Wait()
	size := 0
	for w := range results {
		if errs[w] != nil {
			return nil, errs[w]
		}
		size += len(results[w])
	}
	out := make([]geo.Match, 0, size)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
