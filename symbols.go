package zopfli

const (
	minMatch = 3   // the smallest match length that can be encoded
	maxMatch = 258 // the largest match length that can be encoded

	windowSize = 32768
	windowMask = windowSize - 1

	// numLL and numD are the sizes of the literal/length and distance
	// alphabets. The two extra distance entries (30 and 31) are invalid
	// in deflate but keeping them makes the arrays line up with the
	// HDIST field.
	numLL = 288
	numD  = 32

	endSymbol = 256

	// The special code-length alphabet of RFC 1951 section 3.2.7.
	numCL = 19
)

// The length code for length x (minMatch <= x <= maxMatch) is
// lengthCodes[x-minMatch] + 257.
var lengthCodes = [256]uint8{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 12, 12,
	13, 13, 13, 13, 14, 14, 14, 14, 15, 15,
	15, 15, 16, 16, 16, 16, 16, 16, 16, 16,
	17, 17, 17, 17, 17, 17, 17, 17, 18, 18,
	18, 18, 18, 18, 18, 18, 19, 19, 19, 19,
	19, 19, 19, 19, 20, 20, 20, 20, 20, 20,
	20, 20, 20, 20, 20, 20, 20, 20, 20, 20,
	21, 21, 21, 21, 21, 21, 21, 21, 21, 21,
	21, 21, 21, 21, 21, 21, 22, 22, 22, 22,
	22, 22, 22, 22, 22, 22, 22, 22, 22, 22,
	22, 22, 23, 23, 23, 23, 23, 23, 23, 23,
	23, 23, 23, 23, 23, 23, 23, 23, 24, 24,
	24, 24, 24, 24, 24, 24, 24, 24, 24, 24,
	24, 24, 24, 24, 24, 24, 24, 24, 24, 24,
	24, 24, 24, 24, 24, 24, 24, 24, 24, 24,
	25, 25, 25, 25, 25, 25, 25, 25, 25, 25,
	25, 25, 25, 25, 25, 25, 25, 25, 25, 25,
	25, 25, 25, 25, 25, 25, 25, 25, 25, 25,
	25, 25, 26, 26, 26, 26, 26, 26, 26, 26,
	26, 26, 26, 26, 26, 26, 26, 26, 26, 26,
	26, 26, 26, 26, 26, 26, 26, 26, 26, 26,
	26, 26, 26, 26, 27, 27, 27, 27, 27, 27,
	27, 27, 27, 27, 27, 27, 27, 27, 27, 27,
	27, 27, 27, 27, 27, 27, 27, 27, 27, 27,
	27, 27, 27, 27, 27, 28,
}

// The number of extra bits for length code 257+x.
var lengthExtraBits = [29]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1,
	1, 1, 2, 2, 2, 2, 3, 3, 3, 3,
	4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// The smallest length - minMatch encoded by length code 257+x.
var lengthBase = [29]uint16{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 10,
	12, 14, 16, 20, 24, 28, 32, 40, 48, 56,
	64, 80, 96, 112, 128, 160, 192, 224, 255,
}

// The distance code for distance-1 values below 256 is
// distCodes[distance-1]; larger distances are mapped through distCode.
var distCodes = [256]uint8{
	0, 1, 2, 3, 4, 4, 5, 5, 6, 6, 6, 6, 7, 7, 7, 7,
	8, 8, 8, 8, 8, 8, 8, 8, 9, 9, 9, 9, 9, 9, 9, 9,
	10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10,
	11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11,
	12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12,
	12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 12,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14,
	14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14,
	14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14,
	14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14, 14,
	15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15,
	15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15,
	15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15,
	15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15, 15,
}

// The number of extra bits for distance code x.
var distExtraBits = [30]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3,
	4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// The smallest distance - 1 encoded by distance code x.
var distBase = [30]uint32{
	0x0000, 0x0001, 0x0002, 0x0003, 0x0004,
	0x0006, 0x0008, 0x000c, 0x0010, 0x0018,
	0x0020, 0x0030, 0x0040, 0x0060, 0x0080,
	0x00c0, 0x0100, 0x0180, 0x0200, 0x0300,
	0x0400, 0x0600, 0x0800, 0x0c00, 0x1000,
	0x1800, 0x2000, 0x3000, 0x4000, 0x6000,
}

// The order in which code-length code lengths are written,
// per RFC 1951 section 3.2.7.
var clOrder = [numCL]uint8{
	16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15,
}

// lengthSymbol returns the literal/length alphabet symbol (257..285)
// for a match of the given length (minMatch..maxMatch).
func lengthSymbol(length uint16) int {
	return 257 + int(lengthCodes[length-minMatch])
}

func lengthSymbolExtraBits(symbol int) int {
	return int(lengthExtraBits[symbol-257])
}

func lengthExtraBitsCount(length uint16) int {
	return int(lengthExtraBits[lengthCodes[length-minMatch]])
}

func lengthExtraBitsValue(length uint16) uint32 {
	c := lengthCodes[length-minMatch]
	return uint32(length-minMatch) - uint32(lengthBase[c])
}

// distSymbol returns the distance alphabet symbol (0..29) for a
// distance in 1..32768.
func distSymbol(dist uint16) int {
	d := uint32(dist) - 1
	if d < 256 {
		return int(distCodes[d])
	}
	if d < 256<<7 {
		return int(distCodes[d>>7]) + 14
	}
	return int(distCodes[d>>14]) + 28
}

func distSymbolExtraBits(symbol int) int {
	return int(distExtraBits[symbol])
}

func distExtraBitsCount(dist uint16) int {
	return int(distExtraBits[distSymbol(dist)])
}

func distExtraBitsValue(dist uint16) uint32 {
	return uint32(dist) - 1 - distBase[distSymbol(dist)]
}
