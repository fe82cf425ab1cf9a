package coordinator

import (
	"context"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/smilemakc/hitori/internal/bitmap"
	"github.com/smilemakc/hitori/internal/search"
	"github.com/smilemakc/hitori/internal/transport"
)

// Coordinator bundles the work-stealing, termination, and broadcast
// protocols a single worker needs, all sharing one transport.Transport.
type Coordinator struct {
	tr     transport.Transport
	n      int // board dimension, needed to (de)compress states
	policy Policy

	Term      *TerminationDetector
	Broadcast *SolutionBroadcaster
}

// NewCoordinator builds a Coordinator for a board of dimension n.
func NewCoordinator(tr transport.Transport, n int, policy Policy) *Coordinator {
	return &Coordinator{
		tr:        tr,
		n:         n,
		policy:    policy,
		Term:      NewTerminationDetector(tr),
		Broadcast: NewSolutionBroadcaster(tr),
	}
}

// RequestWork asks peers, in ring order starting after this rank, for a share
// of their stack. It stops at the first peer that donates and pushes the
// received states onto stk, reporting whether any work was obtained.
func (c *Coordinator) RequestWork(ctx context.Context, stk *search.Stack) (bool, error) {
	size := c.tr.Size()
	if size == 1 {
		return false, nil
	}
	rank := c.tr.Rank()
	for i := 1; i < size; i++ {
		peer := (rank + i) % size
		got, err := c.requestFrom(ctx, peer, stk)
		if err != nil {
			return false, err
		}
		if got {
			return true, nil
		}
	}
	return false, nil
}

func (c *Coordinator) requestFrom(ctx context.Context, peer int, stk *search.Stack) (bool, error) {
	for attempt := 0; attempt < c.policy.NumRetry; attempt++ {
		if err := c.tr.Send(ctx, peer, transport.Request, transport.Zero); err != nil {
			return false, err
		}
		payload, isWork, timedOut, err := c.awaitReply(ctx, peer)
		if err != nil {
			return false, err
		}
		if timedOut {
			continue
		}
		if !isWork {
			return false, nil
		}
		states, err := c.decodeWork(payload)
		if err != nil {
			return false, err
		}
		stk.PushAll(states)
		return true, nil
	}
	return false, nil
}

// awaitReply races a Work and a NoWork receive from peer, bounded by the
// policy's RequestTimeout. timedOut distinguishes "no answer yet" (caller may
// retry) from an explicit NoWork (caller should move on).
func (c *Coordinator) awaitReply(ctx context.Context, peer int) (payload []byte, isWork, timedOut bool, err error) {
	cctx, cancel := context.WithTimeout(ctx, c.policy.RequestTimeout)
	defer cancel()

	type result struct {
		tag     transport.Tag
		payload []byte
		err     error
	}
	ch := make(chan result, 2)
	go func() {
		p, e := c.tr.Recv(cctx, peer, transport.Work)
		ch <- result{transport.Work, p, e}
	}()
	go func() {
		p, e := c.tr.Recv(cctx, peer, transport.NoWork)
		ch <- result{transport.NoWork, p, e}
	}()

	r := <-ch
	if r.err != nil {
		if ctx.Err() != nil {
			return nil, false, false, ctx.Err()
		}
		return nil, false, true, nil
	}
	return r.payload, r.tag == transport.Work, false, nil
}

func (c *Coordinator) decodeWork(payload []byte) ([]search.State, error) {
	var compressed []search.Compressed
	if err := msgpack.Unmarshal(payload, &compressed); err != nil {
		return nil, fmt.Errorf("coordinator: decode work reply: %w", err)
	}
	states := make([]search.State, len(compressed))
	for i, cs := range compressed {
		states[i] = search.State{
			Status: bitmap.Decode(cs.Bitmap, c.n),
			Row:    int(cs.Row),
			Col:    int(cs.Col),
		}
	}
	return states, nil
}

// HandleWorkRequest answers a Request from `from`: NoWork if stk is at or
// below Cutoff, otherwise donates its top portion (keeping
// Len()/SplitDivisor, at least 1, and donating at most ChunkSize states) and,
// per Safra's rule, blackens
// this worker if the donation travels backward through the ring.
func (c *Coordinator) HandleWorkRequest(ctx context.Context, from int, stk *search.Stack) (donated bool, err error) {
	n := stk.Len()
	if n <= c.policy.Cutoff {
		return false, c.tr.Send(ctx, from, transport.NoWork, transport.Zero)
	}

	keep := n / c.policy.SplitDivisor
	if keep < 1 {
		keep = 1
	}
	if keep >= n {
		keep = n - 1
	}
	donateCount := n - keep
	if c.policy.ChunkSize > 0 && donateCount > c.policy.ChunkSize {
		donateCount = c.policy.ChunkSize
		keep = n - donateCount
	}

	states := stk.Slice(keep)
	stk.Truncate(keep)

	compressed := make([]search.Compressed, len(states))
	for i, st := range states {
		compressed[i] = search.Compressed{
			Bitmap: bitmap.Encode(st.Status, c.n),
			Row:    int32(st.Row),
			Col:    int32(st.Col),
		}
	}
	payload, err := msgpack.Marshal(compressed)
	if err != nil {
		return false, fmt.Errorf("coordinator: encode donation: %w", err)
	}
	if err := c.tr.Send(ctx, from, transport.Work, payload); err != nil {
		return false, err
	}

	if isBackwardDonation(c.tr.Rank(), from, c.tr.Size()) {
		c.Term.MarkBlack()
	}
	return true, nil
}
