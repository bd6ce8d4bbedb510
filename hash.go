package zopfli

const (
	hashShift = 5
	hashMask  = 32767
)

// A hash holds the rolling-hash state used to find matches. Two views
// are maintained: the first hashes the 3 bytes at each position, the
// second folds the length of the run of identical bytes into the hash
// so that long runs keep short chains.
type hash struct {
	head    []int32  // hash value -> most recent position in window
	prev    []uint16 // position -> previous position with the same hash
	hashval []int32  // position -> hash value at that position; -1 if unset
	val     int      // current hash value

	// Second view, using a hash that includes the run length.
	head2    []int32
	prev2    []uint16
	hashval2 []int32
	val2     int

	// same[pos&windowMask] is the number of bytes after pos that equal
	// the byte at pos.
	same []uint16
}

func newHash() *hash {
	h := &hash{
		head:     make([]int32, hashMask+1),
		prev:     make([]uint16, windowSize),
		hashval:  make([]int32, windowSize),
		head2:    make([]int32, hashMask+1),
		prev2:    make([]uint16, windowSize),
		hashval2: make([]int32, windowSize),
		same:     make([]uint16, windowSize),
	}
	h.reset()
	return h
}

func (h *hash) reset() {
	h.val = 0
	h.val2 = 0
	for i := range h.head {
		h.head[i] = -1
		h.head2[i] = -1
	}
	for i := 0; i < windowSize; i++ {
		h.prev[i] = uint16(i)
		h.prev2[i] = uint16(i)
		h.hashval[i] = -1
		h.hashval2[i] = -1
		h.same[i] = 0
	}
}

func (h *hash) updateValue(c byte) {
	h.val = ((h.val << hashShift) ^ int(c)) & hashMask
}

// warmup prepares the rolling hash for position pos by feeding it the
// first bytes of the range.
func (h *hash) warmup(in []byte, pos, end int) {
	h.updateValue(in[pos])
	if pos+1 < end {
		h.updateValue(in[pos+1])
	}
}

// update registers position pos in both hash views. The hash value is
// rolled forward with the third byte of the key at pos.
func (h *hash) update(in []byte, pos int) {
	hpos := pos & windowMask

	if pos+minMatch <= len(in) {
		h.updateValue(in[pos+minMatch-1])
	} else {
		h.updateValue(0)
	}
	h.hashval[hpos] = int32(h.val)
	if h.head[h.val] != -1 && h.hashval[h.head[h.val]] == int32(h.val) {
		h.prev[hpos] = uint16(h.head[h.val])
	} else {
		h.prev[hpos] = uint16(hpos)
	}
	h.head[h.val] = int32(hpos)

	// Update the count of identical bytes following pos.
	amount := 0
	if h.same[(pos-1)&windowMask] > 1 {
		amount = int(h.same[(pos-1)&windowMask]) - 1
	}
	for pos+amount+1 < len(in) && in[pos] == in[pos+amount+1] && amount < 65535 {
		amount++
	}
	h.same[hpos] = uint16(amount)

	h.val2 = ((amount - minMatch) & 255) ^ h.val
	h.hashval2[hpos] = int32(h.val2)
	if h.head2[h.val2] != -1 && h.hashval2[h.head2[h.val2]] == int32(h.val2) {
		h.prev2[hpos] = uint16(h.head2[h.val2])
	} else {
		h.prev2[hpos] = uint16(hpos)
	}
	h.head2[h.val2] = int32(hpos)
}
