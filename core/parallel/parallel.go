// Package parallel splits row ranges across CPU cores.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// chunks returns the number of workers and the size of each contiguous range.
func chunks(items int) (workers, size int) {
	workers = min(runtime.NumCPU(), items)
	size = (items + workers - 1) / workers
	return workers, size
}

// Parallelize runs fn over contiguous [start, end) ranges covering items,
// one range per CPU core, and waits for all of them.
func Parallelize(items int, fn func(start, end int)) {
	_ = ParallelizeErr(items, func(start, end int) error {
		fn(start, end)
		return nil
	})
}

// ParallelizeErr is like Parallelize but returns the first error reported
// by fn. All ranges still run to completion.
func ParallelizeErr(items int, fn func(start, end int) error) error {
	if items <= 0 {
		return nil
	}
	workers, size := chunks(items)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * size
		end := min(start+size, items)
		if start >= end {
			break
		}
		g.Go(func() error {
			return fn(start, end)
		})
	}
	return g.Wait()
}

// ParallelizeWithThreshold runs fn sequentially over [0, items) when items
// does not exceed threshold and in parallel otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	Parallelize(items, fn)
}
