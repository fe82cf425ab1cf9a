package grid

import "testing"

func mat(n int, vals ...int) Matrix {
	return Matrix{N: n, Vals: vals}
}

func TestIsValid_LatinSquareEmptyAssignment(t *testing.T) {
	m := mat(4,
		1, 2, 3, 4,
		2, 3, 4, 1,
		3, 4, 1, 2,
		4, 1, 2, 3,
	)
	s := NewStatus(4)
	if !IsValid(m, s) {
		t.Fatal("empty assignment over a Latin square must be valid")
	}
	if HasIsland(s, 4) {
		t.Fatal("all-open grid is trivially connected")
	}
}

func TestIsValid_DetectsDuplicate(t *testing.T) {
	m := mat(4,
		1, 1, 2, 3,
		2, 3, 1, 4,
		3, 2, 4, 1,
		4, 1, 3, 2,
	)
	s := NewStatus(4)
	if IsValid(m, s) {
		t.Fatal("two open cells sharing a row value must be invalid")
	}
	// (0,1) is in both duplicate pairs: row 0's 1s and column 1's 1s.
	s.Set(4, 0, 1, Blackened)
	if !IsValid(m, s) {
		t.Fatal("blackening (0,1) should resolve the row and column conflicts")
	}
}

func TestIsValid_SingleCell(t *testing.T) {
	m := mat(1, 7)
	s := NewStatus(1)
	if !IsValid(m, s) {
		t.Fatal("single cell with no duplicates is valid")
	}
}

func TestIsValid_UnsolvableTwoByTwo(t *testing.T) {
	m := mat(2, 1, 1, 1, 1)
	// Every X-assignment either leaves a duplicate, puts two X cells side by
	// side, or disconnects the open cells (the diagonal pairs); IsSafe should
	// never let the search reach a valid leaf for this board.
	all := NewStatus(2)
	if IsValid(m, all) {
		t.Fatal("all-open assignment has duplicates in every row and column")
	}
}

func TestHasIsland(t *testing.T) {
	n := 3
	s := NewStatus(n)
	// Blacken both orthogonal neighbours of the corner (0,0) to wall it off.
	s.Set(n, 0, 1, Blackened)
	s.Set(n, 1, 0, Blackened)
	if !HasIsland(s, n) {
		t.Fatal("expected a disconnected open region once (0,0) is walled off")
	}
}

func TestIsSafe_RejectsAdjacentBlackened(t *testing.T) {
	n := 3
	m := mat(n, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	s := NewStatus(n)
	s.Set(n, 0, 0, Blackened)
	if IsSafe(s, 0, 1, m) {
		t.Fatal("adjacent to an existing X must never be safe")
	}
}

func TestIsSafe_RevertsTentativeMark(t *testing.T) {
	n := 3
	m := mat(n, 1, 1, 3, 4, 5, 6, 7, 8, 9)
	s := NewStatus(n)
	_ = IsSafe(s, 0, 0, m)
	if s.Get(n, 0, 0) != Open {
		t.Fatal("IsSafe must revert its tentative mark before returning")
	}
}

func TestIsSafe_RequiresDuplicateInLineToBlacken(t *testing.T) {
	n := 3
	m := mat(n, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	s := NewStatus(n)
	if IsSafe(s, 0, 0, m) {
		t.Fatal("blackening a cell with no row/col duplicate should never be safe")
	}
}

func TestIsSafe_RejectsRowOverfull(t *testing.T) {
	n := 3
	m := mat(n,
		1, 2, 1,
		4, 5, 6,
		7, 8, 1,
	)
	s := NewStatus(n)
	s.Set(n, 0, 0, Blackened)
	// (0,2) has no blackened neighbour and repeats the open 1 at (2,2) in its
	// column, but blackening it would put n-1=2 X cells in row 0.
	if IsSafe(s, 0, 2, m) {
		t.Fatal("reaching n-1 blackened cells in a row must be unsafe")
	}
}
