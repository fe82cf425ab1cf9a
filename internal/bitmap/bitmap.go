// Package bitmap packs an N*N status grid into a uint64 bitmap for N*N <= 64,
// the compressed representation states take while migrating across workers.
package bitmap

import (
	"fmt"

	"github.com/smilemakc/hitori/internal/grid"
)

// MaxCells is the largest board grid.Status this package can encode.
const MaxCells = 64

// Encode packs s (row-major, n*n cells) into a uint64, bit r*n+c set iff
// s[r*n+c] is blackened. Panics if n*n > MaxCells: this is the documented
// boundary of the bitmap encoding (spec.md §4.2), not a recoverable error.
func Encode(s grid.Status, n int) uint64 {
	if n*n > MaxCells {
		panic(fmt.Sprintf("bitmap: n*n=%d exceeds %d-bit capacity", n*n, MaxCells))
	}
	var bm uint64
	for i, v := range s {
		if v == grid.Blackened {
			bm |= 1 << uint(i)
		}
	}
	return bm
}

// Decode unpacks bitmap into a fresh n*n status grid.
func Decode(bm uint64, n int) grid.Status {
	if n*n > MaxCells {
		panic(fmt.Sprintf("bitmap: n*n=%d exceeds %d-bit capacity", n*n, MaxCells))
	}
	s := grid.NewStatus(n)
	for i := 0; i < n*n; i++ {
		if bm&(1<<uint(i)) != 0 {
			s[i] = grid.Blackened
		}
	}
	return s
}
