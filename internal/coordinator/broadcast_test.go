package coordinator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smilemakc/hitori/internal/transport/inproc"
)

func TestSolutionBroadcaster_AnnouncesOnceToEveryPeer(t *testing.T) {
	const size = 4
	mesh := inproc.NewMesh(size)
	finder := NewSolutionBroadcaster(mesh.Endpoint(0))

	ctx := context.Background()
	require.NoError(t, finder.Announce(ctx))
	require.NoError(t, finder.Announce(ctx)) // idempotent, must not double-send
	require.True(t, finder.Announced())

	for r := 1; r < size; r++ {
		ep := mesh.Endpoint(r)
		bc := NewSolutionBroadcaster(ep)
		require.True(t, bc.Poll(), "rank %d should have exactly one pending notice", r)
		require.False(t, bc.Poll(), "a second Announce must not have sent a duplicate")
	}
}

func TestSolutionBroadcaster_PollFalseWithoutAnnouncement(t *testing.T) {
	mesh := inproc.NewMesh(2)
	bc := NewSolutionBroadcaster(mesh.Endpoint(1))
	require.False(t, bc.Poll())
}
