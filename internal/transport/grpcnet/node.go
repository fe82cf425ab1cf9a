package grpcnet

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/smilemakc/hitori/internal/transport"
)

const rankMetadataKey = "hitori-rank"

// rawStream is satisfied by both grpc.ClientStream and grpc.ServerStream;
// it is everything Node needs to push/pull Frames over an established
// bidirectional stream.
type rawStream interface {
	SendMsg(m interface{}) error
	RecvMsg(m interface{}) error
}

type peerConn struct {
	mu     sync.Mutex
	stream rawStream
}

func (p *peerConn) send(f *Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stream.SendMsg(f)
}

// Node is a transport.Transport backed by a real gRPC mesh: one listener
// accepting inbound streams from lower-numbered peers, and outbound dials to
// higher-numbered peers, together forming a full mesh of P*(P-1)/2 persistent
// bidirectional streams that multiplex all six tags.
type Node struct {
	rank  int
	addrs []string // addrs[i] is where rank i listens

	log zerolog.Logger

	server   *grpc.Server
	listener net.Listener

	mu    sync.Mutex
	peers map[int]*peerConn

	ready chan struct{}

	inbox *transport.Inbox
}

// NewNode constructs a Node for `rank` among len(addrs) total ranks; addrs[rank]
// is the address this node listens on.
func NewNode(rank int, addrs []string, log zerolog.Logger) *Node {
	return &Node{
		rank:  rank,
		addrs: addrs,
		log:   log.With().Int("rank", rank).Logger(),
		peers: make(map[int]*peerConn),
		ready: make(chan struct{}),
		inbox: transport.NewInbox(4*len(addrs) + 64),
	}
}

func (n *Node) Rank() int { return n.rank }
func (n *Node) Size() int { return len(n.addrs) }

// Start begins listening and, once listening, dials every higher-ranked
// peer, blocking until the full mesh is connected or ctx is done.
func (n *Node) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", n.addrs[n.rank])
	if err != nil {
		return fmt.Errorf("grpcnet: listen on %s: %w", n.addrs[n.rank], err)
	}
	n.listener = lis
	n.server = grpc.NewServer()
	n.server.RegisterService(&serviceDesc, n)

	go func() {
		if err := n.server.Serve(lis); err != nil {
			n.log.Debug().Err(err).Msg("grpc server stopped")
		}
	}()

	for peer := n.rank + 1; peer < len(n.addrs); peer++ {
		if err := n.dial(ctx, peer); err != nil {
			return err
		}
	}

	return n.waitForMesh(ctx)
}

func (n *Node) dial(ctx context.Context, peer int) error {
	conn, err := grpc.NewClient(n.addrs[peer], grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("grpcnet: dial rank %d at %s: %w", peer, n.addrs[peer], err)
	}

	md := metadata.Pairs(rankMetadataKey, strconv.Itoa(n.rank))
	streamCtx := metadata.NewOutgoingContext(context.Background(), md)

	deadline := time.Now().Add(30 * time.Second)
	var stream grpc.ClientStream
	for {
		stream, err = conn.NewStream(streamCtx, &serviceDesc.Streams[0], channelMethod, grpc.CallContentSubtype(codecName))
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("grpcnet: open stream to rank %d: %w", peer, err)
		}
		select {
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	n.registerPeer(peer, stream)
	go n.readLoop(peer, stream)
	return nil
}

// Channel implements meshServer: the accept side of an incoming stream from
// a lower-numbered peer.
func (n *Node) Channel(stream grpc.ServerStream) error {
	md, ok := metadata.FromIncomingContext(stream.Context())
	if !ok || len(md.Get(rankMetadataKey)) == 0 {
		return fmt.Errorf("grpcnet: incoming stream missing %s metadata", rankMetadataKey)
	}
	peer, err := strconv.Atoi(md.Get(rankMetadataKey)[0])
	if err != nil {
		return fmt.Errorf("grpcnet: invalid rank metadata: %w", err)
	}

	n.registerPeer(peer, stream)
	n.readLoop(peer, stream)
	return nil
}

func (n *Node) registerPeer(peer int, stream rawStream) {
	n.mu.Lock()
	n.peers[peer] = &peerConn{stream: stream}
	done := len(n.peers) == len(n.addrs)-1
	n.mu.Unlock()
	if done {
		close(n.ready)
	}
}

func (n *Node) readLoop(peer int, stream rawStream) {
	for {
		var f Frame
		if err := stream.RecvMsg(&f); err != nil {
			n.log.Debug().Err(err).Int("peer", peer).Msg("mesh stream closed")
			return
		}
		n.inbox.Push(transport.Tag(f.Tag), peer, f.Payload)
	}
}

func (n *Node) waitForMesh(ctx context.Context) error {
	if len(n.addrs) == 1 {
		return nil
	}
	select {
	case <-n.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Node) peerConnFor(dest int) (*peerConn, error) {
	n.mu.Lock()
	p, ok := n.peers[dest]
	n.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("grpcnet: no established stream to rank %d", dest)
	}
	return p, nil
}

func (n *Node) Send(ctx context.Context, dest int, tag transport.Tag, payload []byte) error {
	p, err := n.peerConnFor(dest)
	if err != nil {
		return err
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	return p.send(&Frame{Tag: uint8(tag), Payload: cp})
}

func (n *Node) TryRecv(tag transport.Tag) (int, []byte, bool) {
	return n.inbox.TryRecv(tag)
}

func (n *Node) Recv(ctx context.Context, src int, tag transport.Tag) ([]byte, error) {
	return n.inbox.Recv(ctx, src, tag)
}

func (n *Node) Close() error {
	if n.server != nil {
		n.server.GracefulStop()
	}
	if n.listener != nil {
		return n.listener.Close()
	}
	return nil
}
