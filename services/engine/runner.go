package engine

import (
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// RunAll simulates every symbol independently across a worker pool and
// collects the per-symbol ledgers. Within a symbol the walk is strictly
// sequential; across symbols there is no shared mutable state, so the only
// synchronization is job distribution and result collection. Results come
// back sorted by symbol so repeated runs are comparable.
func RunAll(cfg *Config, series map[string]*Series, workers int, log zerolog.Logger) ([]*PerformanceRecord, error) {
	driver, err := NewDriver(cfg, log)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	jobs := make(chan *Series)
	results := make(chan *PerformanceRecord)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				if rec := driver.RunSymbol(s); rec != nil {
					results <- rec
				}
			}
		}()
	}

	go func() {
		keys := make([]string, 0, len(series))
		for k := range series {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if series[k] != nil {
				jobs <- series[k]
			}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var recs []*PerformanceRecord
	for rec := range results {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Symbol < recs[j].Symbol })
	return recs, nil
}
