package transport

import "context"

type envelope struct {
	src     int
	payload []byte
}

// Inbox is the receiving half of a Transport: one buffered FIFO per tag,
// shared by potentially many senders. It factors out the mismatched-source
// requeue logic that both internal/transport/inproc (same-process sends)
// and internal/transport/grpcnet (networked sends) need on their inbound
// side, so that tricky concurrency code is written and tested exactly once.
type Inbox struct {
	chans map[Tag]chan envelope
}

// NewInbox allocates an inbox with `buf` slots per tag.
func NewInbox(buf int) *Inbox {
	ib := &Inbox{chans: make(map[Tag]chan envelope, 6)}
	for _, tag := range []Tag{Request, Work, NoWork, SolutionFound, Token, Termination} {
		ib.chans[tag] = make(chan envelope, buf)
	}
	return ib
}

// Push enqueues an inbound message from `src` on `tag`. Safe to call
// concurrently from multiple goroutines. Blocks if the tag's buffer is full;
// callers should size buffers generously for their expected fan-in.
func (ib *Inbox) Push(tag Tag, src int, payload []byte) {
	ib.chans[tag] <- envelope{src: src, payload: payload}
}

// TryRecv returns the next queued message for tag, or ok=false if none is
// pending. Never blocks.
func (ib *Inbox) TryRecv(tag Tag) (src int, payload []byte, ok bool) {
	select {
	case env := <-ib.chans[tag]:
		return env.src, env.payload, true
	default:
		return 0, nil, false
	}
}

// Recv blocks until a message from exactly `src` on `tag` arrives, or ctx is
// done. Messages from other sources on the same tag are requeued so their
// relative order is preserved for later Recv/TryRecv calls.
func (ib *Inbox) Recv(ctx context.Context, src int, tag Tag) ([]byte, error) {
	ch := ib.chans[tag]
	var requeue []envelope
	defer func() {
		for _, env := range requeue {
			ch <- env
		}
	}()
	for {
		select {
		case env := <-ch:
			if env.src == src {
				return env.payload, nil
			}
			requeue = append(requeue, env)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
