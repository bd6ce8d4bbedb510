package zopfli

// lengthsToSymbols converts a set of code lengths into canonical Huffman
// codes, using the numbering rule from RFC 1951 section 3.2.2. The codes are
// returned with the most significant bit first; use reverseBits before
// writing them to a deflate stream.
func lengthsToSymbols(lengths []uint32, maxBits uint32, symbols []uint32) {
	blCount := make([]uint32, maxBits+1)
	nextCode := make([]uint32, maxBits+1)

	for i := range symbols {
		symbols[i] = 0
	}
	for _, l := range lengths {
		blCount[l]++
	}
	blCount[0] = 0

	code := uint32(0)
	for bits := uint32(1); bits <= maxBits; bits++ {
		code = (code + blCount[bits-1]) << 1
		nextCode[bits] = code
	}
	for i, l := range lengths {
		if l != 0 {
			symbols[i] = nextCode[l]
			nextCode[l]++
		}
	}
}

// reverseBits returns the low bitLength bits of number in reversed order.
// Deflate writes Huffman codes most significant bit first but packs all
// other fields least significant bit first, so codes are reversed once and
// then written like any other field.
func reverseBits(number uint32, bitLength uint32) uint32 {
	var reversed uint32
	for i := uint32(0); i < bitLength; i++ {
		reversed = reversed<<1 | (number>>i)&1
	}
	return reversed
}
