// Package parallel runs data-parallel loops over index ranges.
// Every worker owns a disjoint contiguous chunk of [0, n), so callers can
// scatter results into pre-sized slices without locking.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minChunk is the smallest range worth handing to its own goroutine.
const minChunk = 256

// chunks splits [0, n) into contiguous ranges, one per worker.
func chunks(n int) [][2]int {
	if n <= 0 {
		return nil
	}
	workers := runtime.GOMAXPROCS(0)
	if limit := n / minChunk; limit < workers {
		workers = limit
	}
	if workers < 1 {
		workers = 1
	}
	size := (n + workers - 1) / workers
	out := make([][2]int, 0, workers)
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		out = append(out, [2]int{lo, hi})
	}
	return out
}

// For calls fn once per chunk of [0, n). Chunks run concurrently; For returns
// after all of them finished.
func For(n int, fn func(lo, hi int)) {
	cs := chunks(n)
	if len(cs) == 1 {
		fn(cs[0][0], cs[0][1])
		return
	}
	var g errgroup.Group
	for _, c := range cs {
		g.Go(func() error {
			fn(c[0], c[1])
			return nil
		})
	}
	_ = g.Wait()
}

// Reduce computes one partial result per chunk and folds the partials in
// chunk order, so the result does not depend on goroutine scheduling.
func Reduce[T any](n int, fn func(lo, hi int) T, merge func(acc, part T) T) T {
	var zero T
	cs := chunks(n)
	if len(cs) == 0 {
		return zero
	}
	parts := make([]T, len(cs))
	var g errgroup.Group
	for i, c := range cs {
		g.Go(func() error {
			parts[i] = fn(c[0], c[1])
			return nil
		})
	}
	_ = g.Wait()

	acc := parts[0]
	for _, p := range parts[1:] {
		acc = merge(acc, p)
	}
	return acc
}
