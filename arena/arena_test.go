package arena

import "testing"

func TestGetReturnsRequestedLength(t *testing.T) {
	var a Arena
	buf := a.Get(10)
	if len(buf) != 10 {
		t.Fatalf("got len %d, want 10", len(buf))
	}
}

func TestGetAboveLargestClassIsNotPooled(t *testing.T) {
	var a Arena
	buf := a.Get(1 << 20)
	if len(buf) != 1<<20 {
		t.Fatalf("got len %d, want %d", len(buf), 1<<20)
	}
	a.Reset()
	if len(a.borrowed) != 0 {
		t.Fatal("expected Reset to clear borrowed")
	}
}

func TestResetRecyclesPooledBuffers(t *testing.T) {
	var a Arena
	first := a.Get(100)
	first[0] = 0xAB
	a.Reset()

	var b Arena
	second := b.Get(100)
	// Not guaranteed the same backing array (sync.Pool makes no promise),
	// but Reset must at least leave the Arena empty and reusable.
	if len(second) != 100 {
		t.Fatalf("got len %d, want 100", len(second))
	}
	b.Reset()
}

func TestResetIsIdempotentOnEmptyArena(t *testing.T) {
	var a Arena
	a.Reset()
	a.Reset()
}

func TestClassForPicksSmallestFit(t *testing.T) {
	cases := map[int]int{1: 0, 256: 0, 257: 1, 4096: 2, 65536: 4, 65537: -1}
	for n, want := range cases {
		if got := classFor(n); got != want {
			t.Errorf("classFor(%d) = %d, want %d", n, got, want)
		}
	}
}
