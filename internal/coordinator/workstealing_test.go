package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smilemakc/hitori/internal/grid"
	"github.com/smilemakc/hitori/internal/search"
	"github.com/smilemakc/hitori/internal/transport"
	"github.com/smilemakc/hitori/internal/transport/inproc"
)

func seedStack(n, count int) *search.Stack {
	stk := search.NewStack()
	for i := 0; i < count; i++ {
		stk.Push(search.State{Status: grid.NewStatus(n), Row: i % n, Col: 0})
	}
	return stk
}

func TestHandleWorkRequest_BelowCutoffRepliesNoWork(t *testing.T) {
	mesh := inproc.NewMesh(2)
	donorTr := mesh.Endpoint(0)
	thiefTr := mesh.Endpoint(1)

	c := NewCoordinator(donorTr, 4, DefaultPolicy())
	stk := seedStack(4, 1) // policy.Cutoff == 1, so Len()==1 must not donate

	ctx := context.Background()
	donated, err := c.HandleWorkRequest(ctx, 1, stk)
	require.NoError(t, err)
	require.False(t, donated)
	require.Equal(t, 1, stk.Len())

	src, payload, ok := thiefTr.TryRecv(transport.NoWork)
	require.True(t, ok)
	require.Equal(t, 0, src)
	require.Equal(t, transport.Zero, payload)
}

func TestHandleWorkRequest_DonatesTopPortionAndCoversFrontier(t *testing.T) {
	mesh := inproc.NewMesh(2)
	donorTr := mesh.Endpoint(0)
	thiefTr := mesh.Endpoint(1)

	policy := DefaultPolicy()
	policy.ChunkSize = 0 // no cap, exercise the plain SplitDivisor rule
	c := NewCoordinator(donorTr, 4, policy)

	const total = 8
	stk := seedStack(4, total)
	before := stk.Slice(0)

	ctx := context.Background()
	donated, err := c.HandleWorkRequest(ctx, 1, stk)
	require.NoError(t, err)
	require.True(t, donated)

	kept := stk.Slice(0)
	require.Equal(t, before[:len(kept)], kept)

	recvCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	payload, err := thiefTr.Recv(recvCtx, 0, transport.Work)
	require.NoError(t, err)

	tc := NewCoordinator(thiefTr, 4, policy)
	states, err := tc.decodeWork(payload)
	require.NoError(t, err)

	require.Equal(t, total, len(kept)+len(states))
}

func TestRequestWork_SkipsPeersThatRefuseAndAcceptsDonor(t *testing.T) {
	mesh := inproc.NewMesh(3)
	requester := mesh.Endpoint(0)
	stingy := mesh.Endpoint(1)
	generous := mesh.Endpoint(2)

	policy := DefaultPolicy()
	policy.RequestTimeout = 200 * time.Millisecond
	policy.Cutoff = 1

	rc := NewCoordinator(requester, 4, policy)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		sc := NewCoordinator(stingy, 4, policy)
		stk := seedStack(4, 1)
		for {
			if _, err := stingy.Recv(ctx, 0, transport.Request); err != nil {
				return
			}
			if _, err := sc.HandleWorkRequest(ctx, 0, stk); err != nil {
				return
			}
		}
	}()
	go func() {
		gc := NewCoordinator(generous, 4, policy)
		stk := seedStack(4, 8)
		if _, err := generous.Recv(ctx, 0, transport.Request); err != nil {
			return
		}
		_, _ = gc.HandleWorkRequest(ctx, 0, stk)
	}()

	stk := search.NewStack()
	got, err := rc.RequestWork(ctx, stk)
	require.NoError(t, err)
	require.True(t, got)
	require.Greater(t, stk.Len(), 0)
}

func TestPolicy_IsBackwardDonation(t *testing.T) {
	require.True(t, isBackwardDonation(2, 1, 4))
	require.False(t, isBackwardDonation(1, 2, 4))
	require.False(t, isBackwardDonation(3, 0, 4)) // wrap, forward
	require.True(t, isBackwardDonation(3, 1, 4))
}
