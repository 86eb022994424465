package grid

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minRowsPerTask keeps small grids from paying goroutine overhead per row.
const minRowsPerTask = 8

// ParallelRows calls fn for every row j in [0, Height), spreading contiguous
// row chunks over GOMAXPROCS workers. fn must only write cells of its own row.
func (g *Grid) ParallelRows(fn func(j int)) {
	g.ParallelRange(0, g.Height, fn)
}

// ParallelRange is ParallelRows restricted to rows [from, to).
func (g *Grid) ParallelRange(from, to int, fn func(j int)) {
	rows := to - from
	if rows <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers <= 1 || rows <= minRowsPerTask {
		for j := from; j < to; j++ {
			fn(j)
		}
		return
	}

	chunk := (rows + workers - 1) / workers
	if chunk < minRowsPerTask {
		chunk = minRowsPerTask
	}

	var eg errgroup.Group
	eg.SetLimit(workers)
	for start := from; start < to; start += chunk {
		lo, hi := start, min(start+chunk, to)
		eg.Go(func() error {
			for j := lo; j < hi; j++ {
				fn(j)
			}
			return nil
		})
	}
	_ = eg.Wait()
}
