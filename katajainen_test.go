package zopfli

import (
	"math/rand"
	"testing"
)

// checkLengths verifies that the code lengths are within maxBits and
// form a complete prefix code (Kraft sum exactly one) when more than
// one symbol is in use.
func checkLengths(t *testing.T, freqs []int, maxBits int, lengths []uint32) {
	t.Helper()
	used := 0
	kraft := 0 // scaled by 1 << maxBits
	for i, l := range lengths {
		if freqs[i] == 0 && l != 0 {
			t.Errorf("symbol %d: unused but got length %d", i, l)
		}
		if freqs[i] != 0 && l == 0 {
			t.Errorf("symbol %d: used but got no code", i)
		}
		if int(l) > maxBits {
			t.Errorf("symbol %d: length %d exceeds %d", i, l, maxBits)
		}
		if l != 0 {
			used++
			kraft += 1 << (uint(maxBits) - uint(l))
		}
	}
	if used >= 2 && kraft != 1<<uint(maxBits) {
		t.Errorf("incomplete or oversubscribed code: kraft sum %d/%d", kraft, 1<<uint(maxBits))
	}
}

func TestLengthLimitedCodeLengths(t *testing.T) {
	cases := []struct {
		freqs   []int
		maxBits int
	}{
		{[]int{0, 0, 0, 0}, 15},
		{[]int{5, 0, 0, 0}, 15},
		{[]int{5, 3, 0, 0}, 15},
		{[]int{1, 1, 1, 1}, 15},
		{[]int{1, 1, 5, 7, 10, 14}, 3},
		{[]int{1, 2, 4, 8, 16, 32, 64, 128, 256, 512}, 4},
		{[]int{252, 0, 1, 6, 9, 10, 6, 3, 20, 44, 68, 105, 64, 666, 28}, 7},
	}
	for _, c := range cases {
		lengths := make([]uint32, len(c.freqs))
		lengthLimitedCodeLengths(c.freqs, c.maxBits, lengths)
		checkLengths(t, c.freqs, c.maxBits, lengths)
	}
}

func TestSingleSymbolGetsACode(t *testing.T) {
	freqs := make([]int, numD)
	freqs[7] = 100
	lengths := make([]uint32, numD)
	lengthLimitedCodeLengths(freqs, 15, lengths)
	if lengths[7] != 1 {
		t.Errorf("got length %d, want 1", lengths[7])
	}
}

// Without a binding limit, package-merge must match the cost of an
// unlimited Huffman code, which for these simple cases is known.
func TestOptimalCost(t *testing.T) {
	freqs := []int{1, 1, 2, 4, 8}
	lengths := make([]uint32, len(freqs))
	lengthLimitedCodeLengths(freqs, 15, lengths)
	cost := 0
	for i, l := range lengths {
		cost += freqs[i] * int(l)
	}
	// Optimal tree: 8:1, 4:2, 2:3, 1:4, 1:4.
	if want := 8*1 + 4*2 + 2*3 + 1*4 + 1*4; cost != want {
		t.Errorf("total cost %d, want %d", cost, want)
	}
}

func TestRandomHistograms(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 100; trial++ {
		freqs := make([]int, numLL)
		for i := range freqs {
			if rng.Intn(3) != 0 {
				freqs[i] = rng.Intn(1000)
			}
		}
		lengths := make([]uint32, numLL)
		lengthLimitedCodeLengths(freqs, 15, lengths)
		checkLengths(t, freqs, 15, lengths)
	}
}
