package coordinator

import (
	"context"
	"fmt"

	"github.com/smilemakc/hitori/internal/transport"
)

// TerminationDetector runs one worker's side of the Dijkstra-Safra token
// ring. Rank 0 owns the token at start; every worker blackens itself on a
// backward donation (MarkBlack) and whitens again the moment it forwards the
// token on. Rank 0 declares termination only when the token returns white
// AND rank 0 is itself white — the strict two-condition form of the rule
// (see DESIGN.md for why this repo diverges from the source it was modeled
// on, which checked only the token's color).
type TerminationDetector struct {
	tr    transport.Transport
	rank  int
	size  int
	color transport.TokenColor
	// started is set once rank 0 has put the token on the ring; from then on
	// Poll keeps that single token circulating.
	started bool
}

// NewTerminationDetector builds a detector bound to tr's rank and ring size.
func NewTerminationDetector(tr transport.Transport) *TerminationDetector {
	return &TerminationDetector{tr: tr, rank: tr.Rank(), size: tr.Size(), color: transport.White}
}

// Color reports this worker's current Safra color.
func (d *TerminationDetector) Color() transport.TokenColor { return d.color }

// MarkBlack flags this worker dirty; call it whenever a work donation travels
// backward through the ring (coordinator.Coordinator.HandleWorkRequest does
// this automatically).
func (d *TerminationDetector) MarkBlack() { d.color = transport.Black }

// Initiate starts the ring from rank 0 by sending a white token to rank 1.
// A no-op on every other rank, on a lone worker (size==1), which has no
// ring and should rely on the engine's P==1 short circuit instead, and on
// rank 0 once its token is already circulating.
func (d *TerminationDetector) Initiate(ctx context.Context) error {
	if d.rank != 0 || d.size == 1 || d.started {
		return nil
	}
	d.started = true
	d.color = transport.White
	return d.tr.Send(ctx, 1, transport.Token, []byte{byte(transport.White)})
}

// Poll is a non-blocking check for an inbound token, meant to be called from
// the engine's idle service point. It returns terminate=true only on rank 0,
// and only once the ring has gone all the way around clean.
func (d *TerminationDetector) Poll(ctx context.Context) (terminate bool, err error) {
	src, payload, ok := d.tr.TryRecv(transport.Token)
	if !ok {
		return false, nil
	}
	if len(payload) != 1 {
		return false, fmt.Errorf("coordinator: malformed token from rank %d (%d bytes)", src, len(payload))
	}
	incoming := transport.TokenColor(payload[0])

	if d.rank == 0 {
		if incoming == transport.White && d.color == transport.White {
			return true, nil
		}
		// Either the ring reported dirt or rank 0 itself went dirty while the
		// token was in flight: reset and send a fresh white token around.
		d.color = transport.White
		return false, d.tr.Send(ctx, 1, transport.Token, []byte{byte(transport.White)})
	}

	outgoing := incoming
	if d.color == transport.Black {
		outgoing = transport.Black
	}
	d.color = transport.White
	next := (d.rank + 1) % d.size
	return false, d.tr.Send(ctx, next, transport.Token, []byte{byte(outgoing)})
}
