// Package coordinator implements the three protocols that turn P independent
// DFS workers into one distributed search: on-demand work stealing, a
// Dijkstra-Safra termination ring, and a first-finder solution broadcast.
// None of it touches grid.Status directly; it only moves search.State values
// across a transport.Transport.
package coordinator

import "time"

// Policy tunes the work-stealing protocol. Defaults match spec.md §4.4.
type Policy struct {
	// Cutoff is the stack size at or below which a worker refuses to donate:
	// requests arriving when Len() <= Cutoff are answered with NoWork.
	Cutoff int
	// SplitDivisor is the donor/keep ratio: a donor keeps Len()/SplitDivisor
	// states and offers the rest.
	SplitDivisor int
	// ChunkSize caps a single donation regardless of SplitDivisor, so one
	// greedy thief can't empty a donor's entire surplus in one message.
	ChunkSize int
	// NumRetry bounds how many times a thief re-sends Request to the same
	// peer before moving on, each time waiting up to RequestTimeout.
	NumRetry int
	// RequestTimeout is how long a thief waits for Work/NoWork before
	// retrying or moving to the next peer.
	RequestTimeout time.Duration
}

// DefaultPolicy matches the ratios called out in spec.md's Design Notes.
func DefaultPolicy() Policy {
	return Policy{
		Cutoff:         1,
		SplitDivisor:   4,
		ChunkSize:      256,
		NumRetry:       3,
		RequestTimeout: 50 * time.Millisecond,
	}
}

// isBackwardDonation reports whether a donation from src to dst travels
// against the token ring's direction (0 -> 1 -> ... -> P-1 -> 0), which is
// the case Safra's algorithm requires the donor to blacken itself for: any
// send to a lower rank, except the P-1 -> 0 wrap, which is forward.
func isBackwardDonation(src, dst, size int) bool {
	if dst >= src {
		return false
	}
	return !(src == size-1 && dst == 0)
}
