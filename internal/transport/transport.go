// Package transport defines the six tagged point-to-point channels the
// distributed search engine uses to exchange work, tokens, and termination
// notices. It is kept as a small capability interface so the coordinator and
// engine packages can be unit-tested against an in-process mock before being
// bound to a real networked transport (internal/transport/grpcnet).
package transport

import "context"

// Tag distinguishes the six logical channels.
type Tag uint8

const (
	Request Tag = iota
	Work
	NoWork
	SolutionFound
	Token
	Termination
)

func (t Tag) String() string {
	switch t {
	case Request:
		return "REQUEST"
	case Work:
		return "WORK"
	case NoWork:
		return "NO_WORK"
	case SolutionFound:
		return "SOLUTION_FOUND"
	case Token:
		return "TOKEN"
	case Termination:
		return "TERMINATION"
	default:
		return "UNKNOWN"
	}
}

// Transport is the capability every worker uses to talk to its peers. Send
// returns once the message is handed off, and may wait while the receiver's
// buffer for that tag is full (or until ctx is done); ordering is guaranteed
// per (source, destination, tag) but not across tags. TryRecv never blocks. Recv blocks until a matching message
// arrives or ctx is done.
type Transport interface {
	Rank() int
	Size() int
	Send(ctx context.Context, dest int, tag Tag, payload []byte) error
	TryRecv(tag Tag) (src int, payload []byte, ok bool)
	Recv(ctx context.Context, src int, tag Tag) (payload []byte, err error)
	Close() error
}

// TokenColor is the single-byte payload carried on the Token channel.
type TokenColor byte

const (
	White TokenColor = 'W'
	Black TokenColor = 'B'
)

// Zero is the canonical single-byte payload for REQUEST/NO_WORK/
// SOLUTION_FOUND/TERMINATION, per spec.md §6.
var Zero = []byte{0}
