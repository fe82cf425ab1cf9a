package grpcnet

import "google.golang.org/grpc"

// meshServer is the hand-written analogue of a protoc-generated server
// interface for the single streaming method this package needs.
type meshServer interface {
	Channel(stream grpc.ServerStream) error
}

func channelHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(meshServer).Channel(stream)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "hitori.transport.Mesh",
	HandlerType: (*meshServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Channel",
			Handler:       channelHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "internal/transport/grpcnet/service.go",
}

const channelMethod = "/hitori.transport.Mesh/Channel"
