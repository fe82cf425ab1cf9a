// Package stats holds the lock-free counters shared across in-process
// worker goroutines in -procs mode: cmd/hitori adds each worker's leaf count
// from that worker's goroutine once its Run returns, while the status
// server's push loop reads all of them concurrently, which is what xsync's
// counter buys over a plain mutex-guarded map. Counts are not updated while
// a worker is still searching.
package stats

import "github.com/puzpuzpuz/xsync/v3"

// Registry tracks one leaf counter per rank.
type Registry struct {
	leaves *xsync.MapOf[int, *xsync.Counter]
}

// NewRegistry builds an empty registry for `size` ranks.
func NewRegistry(size int) *Registry {
	r := &Registry{leaves: xsync.NewMapOf[int, *xsync.Counter]()}
	for rank := 0; rank < size; rank++ {
		r.leaves.Store(rank, xsync.NewCounter())
	}
	return r
}

// Add increments rank's leaf counter by delta.
func (r *Registry) Add(rank int, delta int64) {
	c, ok := r.leaves.Load(rank)
	if !ok {
		return
	}
	c.Add(delta)
}

// Snapshot returns the current leaf count for every rank, indexed by rank.
func (r *Registry) Snapshot() []int64 {
	out := make([]int64, r.leaves.Size())
	r.leaves.Range(func(rank int, c *xsync.Counter) bool {
		out[rank] = c.Value()
		return true
	})
	return out
}

// Total sums every rank's leaf count.
func (r *Registry) Total() int64 {
	var total int64
	r.leaves.Range(func(_ int, c *xsync.Counter) bool {
		total += c.Value()
		return true
	})
	return total
}
