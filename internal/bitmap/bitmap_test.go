package bitmap

import (
	"testing"

	"github.com/smilemakc/hitori/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	for n := 1; n <= 4; n++ {
		n := n
		t.Run("", func(t *testing.T) {
			s := grid.NewStatus(n)
			for i := 0; i < len(s); i += 2 {
				s[i] = grid.Blackened
			}
			bm := Encode(s, n)
			decoded := Decode(bm, n)
			require.Equal(t, s, decoded)
		})
	}
}

func TestRoundTrip_BoundaryN8(t *testing.T) {
	n := 8
	s := grid.NewStatus(n)
	s.Set(n, 0, 0, grid.Blackened)
	s.Set(n, 7, 7, grid.Blackened)
	bm := Encode(s, n)
	assert.Equal(t, uint64(1)<<63|uint64(1), bm)
	assert.Equal(t, s, Decode(bm, n))
}

func TestEncode_PanicsAboveCapacity(t *testing.T) {
	assert.Panics(t, func() {
		Encode(grid.NewStatus(9), 9)
	})
}
