// Package grpcnet realizes transport.Transport as a real networked mesh: one
// bidirectional gRPC stream per pair of ranks, multiplexing all six
// tags. Frames are marshaled with a hand-registered JSON codec rather than
// protobuf, so the service requires no protoc code-generation step.
package grpcnet

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const codecName = "json"

// Frame is the wire envelope for every message on the mesh: the logical tag
// plus its payload. Work payloads are themselves msgpack-encoded
// []search.Compressed arrays (see internal/coordinator), every other tag's
// payload is the one-byte value from spec.md §6.
type Frame struct {
	Tag     uint8  `json:"tag"`
	Payload []byte `json:"payload"`
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
