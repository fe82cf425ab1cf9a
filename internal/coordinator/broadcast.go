package coordinator

import (
	"context"
	"sync"

	"github.com/smilemakc/hitori/internal/transport"
)

// SolutionBroadcaster guarantees the first worker to find a solution notifies
// every peer exactly once (I4): Announce is idempotent via sync.Once, so a
// worker racing its own duplicate discovery, or reacting to one it already
// sent, never double-sends.
type SolutionBroadcaster struct {
	tr   transport.Transport
	once sync.Once
	sent bool
	err  error
}

// NewSolutionBroadcaster builds a broadcaster bound to tr.
func NewSolutionBroadcaster(tr transport.Transport) *SolutionBroadcaster {
	return &SolutionBroadcaster{tr: tr}
}

// Announce sends SolutionFound to every other rank. Only the first call does
// anything; later calls return the first call's error (nil on success).
func (b *SolutionBroadcaster) Announce(ctx context.Context) error {
	b.once.Do(func() {
		b.sent = true
		for r := 0; r < b.tr.Size(); r++ {
			if r == b.tr.Rank() {
				continue
			}
			if sendErr := b.tr.Send(ctx, r, transport.SolutionFound, transport.Zero); sendErr != nil && b.err == nil {
				b.err = sendErr
			}
		}
	})
	return b.err
}

// Announced reports whether this worker itself fired the broadcast.
func (b *SolutionBroadcaster) Announced() bool { return b.sent }

// Poll is a non-blocking check for a peer's SolutionFound notice.
func (b *SolutionBroadcaster) Poll() bool {
	_, _, ok := b.tr.TryRecv(transport.SolutionFound)
	return ok
}
