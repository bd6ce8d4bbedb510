package zopfli

import (
	"bytes"
	"math/rand"
	"testing"
)

func optimalParse(t *testing.T, data []byte, iterations int) *lz77Store {
	t.Helper()
	options := DefaultOptions()
	s := newBlockState(&options, 0, len(data), true)
	store := newLZ77Store(data)
	lz77Optimal(s, data, 0, len(data), iterations, store)
	return store
}

func TestOptimalRoundTrip(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte("a"),
		[]byte("Hello, World!\n"),
		bytes.Repeat([]byte{0}, 2000),
		bytes.Repeat([]byte("abcabc"), 300),
		textData(20000),
	}
	rng := rand.New(rand.NewSource(99))
	random := make([]byte, 5000)
	rng.Read(random)
	inputs = append(inputs, random)

	for _, data := range inputs {
		store := optimalParse(t, data, 5)
		if got := reconstruct(t, store); !bytes.Equal(got, data) {
			t.Errorf("optimal parse of %d bytes does not reproduce the input", len(data))
		}
	}
}

func TestOptimalNotWorseThanGreedy(t *testing.T) {
	data := textData(30000)
	greedy := greedyParse(t, data)
	optimal := optimalParse(t, data, 5)

	greedyCost := calculateBlockSize(greedy, 0, greedy.size(), BlockDynamic)
	optimalCost := calculateBlockSize(optimal, 0, optimal.size(), BlockDynamic)
	if optimalCost > greedyCost {
		t.Errorf("squeeze gave %.0f bits, greedy %.0f", optimalCost, greedyCost)
	}
}

func TestOptimalFixedRoundTrip(t *testing.T) {
	data := textData(10000)
	options := DefaultOptions()
	s := newBlockState(&options, 0, len(data), true)
	store := newLZ77Store(data)
	lz77OptimalFixed(s, data, 0, len(data), store)
	if got := reconstruct(t, store); !bytes.Equal(got, data) {
		t.Error("fixed-tree parse does not reproduce the input")
	}
}

func TestCalculateEntropy(t *testing.T) {
	bitlengths := make([]float64, 4)
	calculateEntropy([]int{1, 1, 1, 1}, bitlengths)
	for i, b := range bitlengths {
		if b != 2 {
			t.Errorf("symbol %d: cost %f, want 2", i, b)
		}
	}

	// Zero counts get the cost of a single occurrence.
	calculateEntropy([]int{0, 0, 4, 4}, bitlengths)
	if bitlengths[2] != 1 || bitlengths[3] != 1 {
		t.Errorf("used symbols: costs %f %f, want 1 1", bitlengths[2], bitlengths[3])
	}
	if bitlengths[0] != 3 {
		t.Errorf("unused symbol: cost %f, want 3", bitlengths[0])
	}
}

func TestRanState(t *testing.T) {
	// The generator must be deterministic so compression is
	// reproducible.
	r1 := newRanState()
	r2 := newRanState()
	for i := 0; i < 100; i++ {
		if r1.ran() != r2.ran() {
			t.Fatal("generator is not deterministic")
		}
	}
}

func TestTraceBackwards(t *testing.T) {
	// Path lengths 3, 1, 2 reach position 6.
	lengthArray := []uint16{0, 0, 0, 3, 1, 0, 2}
	path := traceBackwards(6, lengthArray)
	want := []uint16{3, 1, 2}
	if len(path) != len(want) {
		t.Fatalf("path %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("path %v, want %v", path, want)
		}
	}
}
