package inproc

import (
	"context"
	"testing"
	"time"

	"github.com/smilemakc/hitori/internal/transport"
	"github.com/stretchr/testify/require"
)

func TestMesh_SendTryRecv(t *testing.T) {
	mesh := NewMesh(3)
	e0 := mesh.Endpoint(0)
	e1 := mesh.Endpoint(1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, e0.Send(ctx, 1, transport.Request, transport.Zero))

	src, payload, ok := e1.TryRecv(transport.Request)
	require.True(t, ok)
	require.Equal(t, 0, src)
	require.Equal(t, transport.Zero, payload)

	_, _, ok = e1.TryRecv(transport.Request)
	require.False(t, ok)
}

func TestMesh_RecvBlocksForMatchingSource(t *testing.T) {
	mesh := NewMesh(3)
	e0 := mesh.Endpoint(0)
	e2 := mesh.Endpoint(2)
	e1 := mesh.Endpoint(1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, e2.Send(ctx, 1, transport.Work, []byte("from-2")))
	require.NoError(t, e0.Send(ctx, 1, transport.Work, []byte("from-0")))

	payload, err := e1.Recv(ctx, 0, transport.Work)
	require.NoError(t, err)
	require.Equal(t, "from-0", string(payload))

	payload, err = e1.Recv(ctx, 2, transport.Work)
	require.NoError(t, err)
	require.Equal(t, "from-2", string(payload))
}

func TestMesh_FIFOPerSourceDestTag(t *testing.T) {
	mesh := NewMesh(2)
	e0 := mesh.Endpoint(0)
	e1 := mesh.Endpoint(1)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, e0.Send(ctx, 1, transport.Token, []byte{byte(i)}))
	}
	for i := 0; i < 5; i++ {
		_, payload, ok := e1.TryRecv(transport.Token)
		require.True(t, ok)
		require.Equal(t, byte(i), payload[0])
	}
}
