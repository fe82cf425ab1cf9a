// Package boardio generates puzzle input and renders solutions — the
// out-of-scope-for-the-core collaborators spec.md §1 names explicitly
// (grid initialization, pretty-printing), kept as ordinary packages the CLI
// wires in rather than folded into internal/grid.
package boardio

import (
	"math/rand"

	"github.com/smilemakc/hitori/internal/grid"
)

// Random returns an N*N matrix of values in [1, n], a range chosen so
// duplicates (and therefore non-trivial puzzles) are common.
func Random(n int, seed int64) grid.Matrix {
	r := rand.New(rand.NewSource(seed))
	vals := make([]int, n*n)
	for i := range vals {
		vals[i] = r.Intn(n) + 1
	}
	return grid.Matrix{N: n, Vals: vals}
}

// Fixed8x8 is the reference 8x8 board spec.md §6's -p flag selects.
func Fixed8x8() grid.Matrix {
	return grid.Matrix{N: 8, Vals: []int{
		1, 2, 3, 4, 5, 6, 7, 8,
		2, 3, 1, 5, 4, 8, 6, 7,
		3, 1, 2, 6, 7, 5, 8, 4,
		4, 5, 6, 1, 2, 3, 4, 1,
		5, 4, 7, 2, 1, 4, 3, 6,
		6, 8, 5, 3, 6, 7, 1, 2,
		7, 6, 8, 7, 3, 1, 2, 5,
		8, 7, 4, 8, 6, 2, 5, 3,
	}}
}

// Render delegates to grid.Render; kept here so callers that only know about
// boards, not search internals, have one import to reach for.
func Render(m grid.Matrix, s grid.Status) string {
	return grid.Render(m, s)
}
