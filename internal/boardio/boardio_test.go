package boardio

import "testing"

func TestRandom_Deterministic(t *testing.T) {
	a := Random(4, 42)
	b := Random(4, 42)
	for i := range a.Vals {
		if a.Vals[i] != b.Vals[i] {
			t.Fatalf("same seed produced different boards at %d: %d vs %d", i, a.Vals[i], b.Vals[i])
		}
	}
}

func TestFixed8x8_HasEightByEightCells(t *testing.T) {
	m := Fixed8x8()
	if m.N != 8 || len(m.Vals) != 64 {
		t.Fatalf("expected an 8x8 board, got N=%d len=%d", m.N, len(m.Vals))
	}
}
