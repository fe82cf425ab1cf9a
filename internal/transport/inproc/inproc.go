// Package inproc realizes transport.Transport as a mesh of in-memory inboxes
// shared between goroutines in a single process. It is the default runtime
// for local simulation (-procs) and the substrate every coordinator/engine
// unit test runs against, per the Design Notes' "mock before binding to a
// real transport" guidance.
package inproc

import (
	"context"
	"fmt"

	"github.com/smilemakc/hitori/internal/transport"
)

// Mesh is a shared switchboard for P ranks. Build once with NewMesh, then
// call Endpoint(rank) once per worker goroutine.
type Mesh struct {
	size  int
	inbox []*transport.Inbox
}

// NewMesh allocates one Inbox per rank.
func NewMesh(size int) *Mesh {
	m := &Mesh{size: size, inbox: make([]*transport.Inbox, size)}
	for i := range m.inbox {
		m.inbox[i] = transport.NewInbox(4*size + 16)
	}
	return m
}

// Endpoint returns the transport.Transport view for the given rank.
func (m *Mesh) Endpoint(rank int) transport.Transport {
	return &endpoint{mesh: m, rank: rank}
}

type endpoint struct {
	mesh *Mesh
	rank int
}

func (e *endpoint) Rank() int { return e.rank }
func (e *endpoint) Size() int { return e.mesh.size }

func (e *endpoint) Send(ctx context.Context, dest int, tag transport.Tag, payload []byte) error {
	if dest < 0 || dest >= e.mesh.size {
		return fmt.Errorf("inproc: send to out-of-range rank %d", dest)
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	done := make(chan struct{})
	go func() {
		e.mesh.inbox[dest].Push(tag, e.rank, cp)
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *endpoint) TryRecv(tag transport.Tag) (int, []byte, bool) {
	return e.mesh.inbox[e.rank].TryRecv(tag)
}

func (e *endpoint) Recv(ctx context.Context, src int, tag transport.Tag) ([]byte, error) {
	return e.mesh.inbox[e.rank].Recv(ctx, src, tag)
}

func (e *endpoint) Close() error { return nil }
