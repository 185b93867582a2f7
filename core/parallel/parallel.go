// Package parallel splits index ranges across CPU cores.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// chunks divides items into at most runtime.NumCPU() contiguous ranges.
func chunks(items int) [][2]int {
	if items <= 0 {
		return nil
	}
	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items // No need for more workers than items
	}

	// Ceiling division
	chunkSize := (items + numWorkers - 1) / numWorkers

	out := make([][2]int, 0, numWorkers)
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

// Parallelize executes fn for each [start, end) range in parallel and waits
// for all ranges to finish.
func Parallelize(items int, fn func(start, end int)) {
	_ = ParallelizeErr(items, func(start, end int) error {
		fn(start, end)
		return nil
	})
}

// ParallelizeErr is Parallelize for range functions that can fail. It returns
// the first error; the remaining ranges still run to completion.
func ParallelizeErr(items int, fn func(start, end int) error) error {
	var g errgroup.Group
	for _, r := range chunks(items) {
		g.Go(func() error {
			return fn(r[0], r[1])
		})
	}
	return g.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of items exceeds the threshold
// If below threshold, normal sequential processing is performed
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
