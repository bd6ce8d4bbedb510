package zopfli

import (
	"fmt"
	"io"
)

// masterBlockSize bounds how much input is compressed at once. Larger
// inputs are deflated in chunks of this size, each chunk free to contain
// multiple deflate blocks.
const masterBlockSize = 1000000

const bufferFlushSize = 246

// A bitWriter packs bits least significant first into bytes and writes
// them to an underlying io.Writer. Write errors are sticky: after the
// first error all further output is discarded.
type bitWriter struct {
	w       io.Writer
	bits    uint64
	nbits   uint
	bytes   [bufferFlushSize + 8]byte
	nbytes  int
	written int
	err     error
}

func newBitWriter(w io.Writer) *bitWriter {
	return &bitWriter{w: w}
}

func (w *bitWriter) write(b []byte) {
	if w.err != nil {
		return
	}
	w.written += len(b)
	_, w.err = w.w.Write(b)
}

// writeBits writes the low n bits of b, least significant bit first.
func (w *bitWriter) writeBits(b uint64, n uint) {
	w.bits |= b << w.nbits
	w.nbits += n
	if w.nbits >= 48 {
		bits := w.bits
		w.bits >>= 48
		w.nbits -= 48
		nb := w.nbytes
		w.bytes[nb] = byte(bits)
		w.bytes[nb+1] = byte(bits >> 8)
		w.bytes[nb+2] = byte(bits >> 16)
		w.bytes[nb+3] = byte(bits >> 24)
		w.bytes[nb+4] = byte(bits >> 32)
		w.bytes[nb+5] = byte(bits >> 40)
		nb += 6
		if nb >= bufferFlushSize {
			w.write(w.bytes[:nb])
			nb = 0
		}
		w.nbytes = nb
	}
}

// writeCode writes a canonical Huffman code, most significant bit first.
func (w *bitWriter) writeCode(code, length uint32) {
	w.writeBits(uint64(reverseBits(code, length)), uint(length))
}

// alignToByte pads the stream with zero bits to the next byte boundary.
func (w *bitWriter) alignToByte() {
	w.nbits = (w.nbits + 7) &^ 7
}

// writeBytes writes raw bytes. The stream must be byte aligned.
func (w *bitWriter) writeBytes(p []byte) {
	if w.err != nil {
		return
	}
	if w.nbits&7 != 0 {
		panic("zopfli: writeBytes with unfinished bits")
	}
	n := w.nbytes
	for w.nbits != 0 {
		w.bytes[n] = byte(w.bits)
		w.bits >>= 8
		w.nbits -= 8
		n++
	}
	if n != 0 {
		w.write(w.bytes[:n])
	}
	w.nbytes = 0
	w.write(p)
}

// flush writes all buffered bits, padding the last byte with zeros.
func (w *bitWriter) flush() {
	if w.err != nil {
		w.nbits = 0
		return
	}
	n := w.nbytes
	for w.nbits != 0 {
		w.bytes[n] = byte(w.bits)
		w.bits >>= 8
		if w.nbits > 8 {
			w.nbits -= 8
		} else {
			w.nbits = 0
		}
		n++
	}
	w.bits = 0
	w.write(w.bytes[:n])
	w.nbytes = 0
}

// bitsWritten reports the total number of bits passed to the writer,
// including bits still buffered.
func (w *bitWriter) bitsWritten() int {
	return (w.written+w.nbytes)*8 + int(w.nbits)
}

// fixedTree fills in the code lengths of the fixed literal/length and
// distance trees from RFC 1951 section 3.2.6.
func fixedTree(llLengths, dLengths []uint32) {
	for i := 0; i < 144; i++ {
		llLengths[i] = 8
	}
	for i := 144; i < 256; i++ {
		llLengths[i] = 9
	}
	for i := 256; i < 280; i++ {
		llLengths[i] = 7
	}
	for i := 280; i < numLL; i++ {
		llLengths[i] = 8
	}
	for i := 0; i < numD; i++ {
		dLengths[i] = 5
	}
}

// encodeTree run-length encodes the literal/length and distance code
// lengths and writes the dynamic block header, using only the repeat
// codes enabled by use16 (copy previous), use17 (short zero run) and
// use18 (long zero run). With a nil writer it only returns the header
// size in bits.
func encodeTree(llLengths, dLengths []uint32, use16, use17, use18 bool, w *bitWriter) int {
	var rle, rleBits []uint32
	var clCounts [numCL]int
	sizeOnly := w == nil

	hlit := 29
	for hlit > 0 && llLengths[257+hlit-1] == 0 {
		hlit--
	}
	hdist := 29
	for hdist > 0 && dLengths[1+hdist-1] == 0 {
		hdist--
	}
	hlit2 := hlit + 257
	lldTotal := hlit2 + hdist + 1

	lengthAt := func(i int) int {
		if i < hlit2 {
			return int(llLengths[i])
		}
		return int(dLengths[i-hlit2])
	}

	for i := 0; i < lldTotal; i++ {
		symbol := lengthAt(i)
		count := 1
		if use16 || (symbol == 0 && (use17 || use18)) {
			for j := i + 1; j < lldTotal && symbol == lengthAt(j); j++ {
				count++
			}
		}
		i += count - 1

		if symbol == 0 && count >= 3 {
			if use18 {
				for count >= 11 {
					count2 := count
					if count2 > 138 {
						count2 = 138
					}
					if !sizeOnly {
						rle = append(rle, 18)
						rleBits = append(rleBits, uint32(count2-11))
					}
					clCounts[18]++
					count -= count2
				}
			}
			if use17 {
				for count >= 3 {
					count2 := count
					if count2 > 10 {
						count2 = 10
					}
					if !sizeOnly {
						rle = append(rle, 17)
						rleBits = append(rleBits, uint32(count2-3))
					}
					clCounts[17]++
					count -= count2
				}
			}
		}

		// Repetitions of the previous value, the first one emitted
		// literally.
		if use16 && count >= 4 {
			count--
			clCounts[symbol]++
			if !sizeOnly {
				rle = append(rle, uint32(symbol))
				rleBits = append(rleBits, 0)
			}
			for count >= 3 {
				count2 := count
				if count2 > 6 {
					count2 = 6
				}
				if !sizeOnly {
					rle = append(rle, 16)
					rleBits = append(rleBits, uint32(count2-3))
				}
				clCounts[16]++
				count -= count2
			}
		}

		// Whatever remains is too short to repeat.
		clCounts[symbol] += count
		for count > 0 {
			if !sizeOnly {
				rle = append(rle, uint32(symbol))
				rleBits = append(rleBits, 0)
			}
			count--
		}
	}

	var clcl [numCL]uint32
	lengthLimitedCodeLengths(clCounts[:], 7, clcl[:])

	hclen := 15
	for hclen > 0 && clCounts[clOrder[hclen+4-1]] == 0 {
		hclen--
	}

	if !sizeOnly {
		var clSymbols [numCL]uint32
		lengthsToSymbols(clcl[:], 7, clSymbols[:])

		w.writeBits(uint64(hlit), 5)
		w.writeBits(uint64(hdist), 5)
		w.writeBits(uint64(hclen), 4)
		for i := 0; i < hclen+4; i++ {
			w.writeBits(uint64(clcl[clOrder[i]]), 3)
		}
		for i, sym := range rle {
			w.writeCode(clSymbols[sym], clcl[sym])
			switch sym {
			case 16:
				w.writeBits(uint64(rleBits[i]), 2)
			case 17:
				w.writeBits(uint64(rleBits[i]), 3)
			case 18:
				w.writeBits(uint64(rleBits[i]), 7)
			}
		}
	}

	size := 14 + (hclen+4)*3
	for i, c := range clCounts {
		size += int(clcl[i]) * c
	}
	size += clCounts[16] * 2
	size += clCounts[17] * 3
	size += clCounts[18] * 7
	return size
}

// calculateTreeSize returns the size in bits of the smallest dynamic
// header encoding of the given code lengths, over all combinations of
// repeat codes.
func calculateTreeSize(llLengths, dLengths []uint32) int {
	best := 0
	for i := 0; i < 8; i++ {
		size := encodeTree(llLengths, dLengths, i&1 != 0, i&2 != 0, i&4 != 0, nil)
		if best == 0 || size < best {
			best = size
		}
	}
	return best
}

// addDynamicTree writes the dynamic block header with the smallest of
// the eight repeat-code encodings.
func addDynamicTree(llLengths, dLengths []uint32, w *bitWriter) {
	best := -1
	bestSize := 0
	for i := 0; i < 8; i++ {
		size := encodeTree(llLengths, dLengths, i&1 != 0, i&2 != 0, i&4 != 0, nil)
		if best < 0 || size < bestSize {
			bestSize = size
			best = i
		}
	}
	encodeTree(llLengths, dLengths, best&1 != 0, best&2 != 0, best&4 != 0, w)
}

// patchDistanceCodes ensures there are at least two nonzero distance
// code lengths. Some decoders (zlib before 1.2.1.1, for one) reject
// blocks with a single distance code, which is otherwise valid when the
// block only uses one distance or none at all.
func patchDistanceCodes(dLengths []uint32) {
	n := 0
	for i := 0; i < 30; i++ {
		if dLengths[i] != 0 {
			n++
		}
		if n >= 2 {
			return
		}
	}
	if n == 0 {
		dLengths[0] = 1
		dLengths[1] = 1
	} else if dLengths[0] != 0 {
		dLengths[1] = 1
	} else {
		dLengths[0] = 1
	}
}

// calculateBlockSymbolSize returns the size in bits of the block data
// (symbols plus extra bits plus the end code), given the histogram and
// code lengths.
func calculateBlockSymbolSize(llCounts, dCounts []int, llLengths, dLengths []uint32) int {
	result := 0
	for i := 0; i < 256; i++ {
		result += int(llLengths[i]) * llCounts[i]
	}
	for i := 257; i < 286; i++ {
		result += int(llLengths[i]) * llCounts[i]
		result += lengthSymbolExtraBits(i) * llCounts[i]
	}
	for i := 0; i < 30; i++ {
		result += int(dLengths[i]) * dCounts[i]
		result += distSymbolExtraBits(i) * dCounts[i]
	}
	result += int(llLengths[endSymbol])
	return result
}

func absDiff(x, y int) int {
	if x > y {
		return x - y
	}
	return y - x
}

// optimizeHuffmanForRle mangles a histogram so that the resulting code
// lengths compress better with the dynamic header's run-length codes,
// trading a slightly worse code for a much smaller header. Taken from
// the Zopfli/brotli literature: runs of similar counts are flattened to
// their average.
func optimizeHuffmanForRle(counts []int) {
	length := len(counts)
	for length > 0 && counts[length-1] == 0 {
		length--
	}
	if length == 0 {
		return
	}

	// Mark counts that already form good runs, so they are left alone.
	goodForRle := make([]bool, length)
	symbol := counts[0]
	stride := 0
	for i := 0; i <= length; i++ {
		if i == length || counts[i] != symbol {
			if (symbol == 0 && stride >= 5) || (symbol != 0 && stride >= 7) {
				for k := 0; k < stride; k++ {
					goodForRle[i-k-1] = true
				}
			}
			stride = 1
			if i != length {
				symbol = counts[i]
			}
		} else {
			stride++
		}
	}

	// Replace the remaining counts with the average of their stride
	// whenever that creates a usable run.
	stride = 0
	limit := counts[0]
	sum := 0
	for i := 0; i <= length; i++ {
		if i == length || goodForRle[i] || absDiff(counts[i], limit) >= 4 {
			if stride >= 4 || (stride >= 3 && sum == 0) {
				count := (sum + stride/2) / stride
				if count < 1 {
					count = 1
				}
				if sum == 0 {
					count = 0
				}
				for k := 0; k < stride; k++ {
					counts[i-k-1] = count
				}
			}
			stride = 0
			sum = 0
			if i < length-3 {
				limit = (counts[i] + counts[i+1] + counts[i+2] + counts[i+3] + 2) / 4
			} else if i < length {
				limit = counts[i]
			} else {
				limit = 0
			}
		}
		stride++
		if i != length {
			sum += counts[i]
		}
	}
}

// tryOptimizeHuffmanForRle replaces the code lengths with ones computed
// from an RLE-smoothed histogram if that makes header plus data smaller.
// It returns the resulting size in bits.
func tryOptimizeHuffmanForRle(llCounts, dCounts []int, llLengths, dLengths []uint32) float64 {
	treeSize := calculateTreeSize(llLengths, dLengths)
	dataSize := calculateBlockSymbolSize(llCounts, dCounts, llLengths, dLengths)

	llCounts2 := make([]int, numLL)
	dCounts2 := make([]int, numD)
	copy(llCounts2, llCounts)
	copy(dCounts2, dCounts)
	optimizeHuffmanForRle(llCounts2)
	optimizeHuffmanForRle(dCounts2)

	llLengths2 := make([]uint32, numLL)
	dLengths2 := make([]uint32, numD)
	lengthLimitedCodeLengths(llCounts2, 15, llLengths2)
	lengthLimitedCodeLengths(dCounts2, 15, dLengths2)
	patchDistanceCodes(dLengths2)

	treeSize2 := calculateTreeSize(llLengths2, dLengths2)
	dataSize2 := calculateBlockSymbolSize(llCounts, dCounts, llLengths2, dLengths2)

	if treeSize2+dataSize2 < treeSize+dataSize {
		copy(llLengths, llLengths2)
		copy(dLengths, dLengths2)
		return float64(treeSize2 + dataSize2)
	}
	return float64(treeSize + dataSize)
}

// dynamicLengths computes the best dynamic-block code lengths for the
// symbols in [lstart, lend) and returns the block size, excluding the 3
// header bits, that results.
func dynamicLengths(lz77 *lz77Store, lstart, lend int, llLengths, dLengths []uint32) float64 {
	llCounts := make([]int, numLL)
	dCounts := make([]int, numD)
	lz77.histogram(lstart, lend, llCounts, dCounts)
	llCounts[endSymbol] = 1
	lengthLimitedCodeLengths(llCounts, 15, llLengths)
	lengthLimitedCodeLengths(dCounts, 15, dLengths)
	patchDistanceCodes(dLengths)
	return tryOptimizeHuffmanForRle(llCounts, dCounts, llLengths, dLengths)
}

// calculateBlockSize returns the exact size in bits the symbols in
// [lstart, lend) would occupy as a block of the given type, including
// the block header.
func calculateBlockSize(lz77 *lz77Store, lstart, lend int, btype BlockType) float64 {
	llLengths := make([]uint32, numLL)
	dLengths := make([]uint32, numD)

	switch btype {
	case BlockUncompressed:
		length := lz77.byteRange(lstart, lend)
		rem := length % 65535
		blocks := length / 65535
		if rem != 0 || length == 0 {
			blocks++
		}
		// Each uncompressed block has a padded 3-bit header and a
		// 4-byte LEN/NLEN field.
		return float64(blocks*5*8 + length*8)
	case BlockFixed:
		fixedTree(llLengths, dLengths)
		llCounts := make([]int, numLL)
		dCounts := make([]int, numD)
		lz77.histogram(lstart, lend, llCounts, dCounts)
		llCounts[endSymbol] = 1
		return 3 + float64(calculateBlockSymbolSize(llCounts, dCounts, llLengths, dLengths))
	default:
		return 3 + dynamicLengths(lz77, lstart, lend, llLengths, dLengths)
	}
}

// calculateBlockSizeAutoType returns the bit size of [lstart, lend)
// with the cheapest block type. The fixed type is only evaluated for
// small blocks, where it has a chance of winning.
func calculateBlockSizeAutoType(lz77 *lz77Store, lstart, lend int) float64 {
	uncompressedCost := calculateBlockSize(lz77, lstart, lend, BlockUncompressed)
	fixedCost := uncompressedCost
	if lz77.byteRange(lstart, lend) <= 1000 {
		fixedCost = calculateBlockSize(lz77, lstart, lend, BlockFixed)
	}
	dynCost := calculateBlockSize(lz77, lstart, lend, BlockDynamic)
	if uncompressedCost < fixedCost && uncompressedCost < dynCost {
		return uncompressedCost
	}
	if fixedCost < dynCost {
		return fixedCost
	}
	return dynCost
}

// addLZ77Data writes the Huffman-coded symbols of [lstart, lend),
// without the end code.
func addLZ77Data(lz77 *lz77Store, lstart, lend int,
	llSymbols []uint32, llLengths []uint32,
	dSymbols []uint32, dLengths []uint32, w *bitWriter) {
	for i := lstart; i < lend; i++ {
		dist := lz77.dists[i]
		litlen := lz77.litlens[i]
		if dist == 0 {
			if llLengths[litlen] == 0 {
				panic("zopfli: literal has no code")
			}
			w.writeCode(llSymbols[litlen], llLengths[litlen])
		} else {
			lls := lengthSymbol(litlen)
			ds := distSymbol(dist)
			if llLengths[lls] == 0 || dLengths[ds] == 0 {
				panic("zopfli: length or distance has no code")
			}
			w.writeCode(llSymbols[lls], llLengths[lls])
			w.writeBits(uint64(lengthExtraBitsValue(litlen)), uint(lengthExtraBitsCount(litlen)))
			w.writeCode(dSymbols[ds], dLengths[ds])
			w.writeBits(uint64(distExtraBitsValue(dist)), uint(distExtraBitsCount(dist)))
		}
	}
}

// addNonCompressedBlock writes [instart, inend) of in as stored blocks,
// splitting into 65535-byte chunks as needed. If final is set, the last
// chunk carries the BFINAL bit.
func addNonCompressedBlock(final bool, in []byte, instart, inend int, w *bitWriter) {
	pos := instart
	for {
		blocksize := 65535
		if pos+blocksize > inend {
			blocksize = inend - pos
		}
		currentFinal := pos+blocksize >= inend

		var header [4]byte
		nlen := ^uint16(blocksize)
		header[0] = byte(blocksize)
		header[1] = byte(blocksize >> 8)
		header[2] = byte(nlen)
		header[3] = byte(nlen >> 8)

		if final && currentFinal {
			w.writeBits(1, 1)
		} else {
			w.writeBits(0, 1)
		}
		w.writeBits(0, 2) // BTYPE 00
		w.alignToByte()
		w.writeBytes(header[:])
		w.writeBytes(in[pos : pos+blocksize])

		if currentFinal {
			break
		}
		pos += blocksize
	}
}

// addLZ77Block writes the symbols in [lstart, lend) as one deflate block
// of the given type.
func addLZ77Block(options *Options, btype BlockType, final bool,
	lz77 *lz77Store, lstart, lend int, w *bitWriter) {
	if btype == BlockUncompressed {
		length := lz77.byteRange(lstart, lend)
		pos := 0
		if lstart != lend {
			pos = lz77.pos[lstart]
		}
		addNonCompressedBlock(final, lz77.data, pos, pos+length, w)
		return
	}

	if final {
		w.writeBits(1, 1)
	} else {
		w.writeBits(0, 1)
	}
	w.writeBits(uint64(btype), 2)

	llLengths := make([]uint32, numLL)
	dLengths := make([]uint32, numD)
	if btype == BlockFixed {
		fixedTree(llLengths, dLengths)
	} else {
		detectTreeSize := w.bitsWritten()
		dynamicLengths(lz77, lstart, lend, llLengths, dLengths)
		addDynamicTree(llLengths, dLengths, w)
		if options.Verbose {
			fmt.Fprintf(options.diagnostic(), "treesize: %d\n",
				(w.bitsWritten()-detectTreeSize)/8)
		}
	}

	llSymbols := make([]uint32, numLL)
	dSymbols := make([]uint32, numD)
	lengthsToSymbols(llLengths, 15, llSymbols)
	lengthsToSymbols(dLengths, 15, dSymbols)

	detectBlockSize := w.bitsWritten()
	addLZ77Data(lz77, lstart, lend, llSymbols, llLengths, dSymbols, dLengths, w)
	w.writeCode(llSymbols[endSymbol], llLengths[endSymbol])

	if options.Verbose {
		uncompressed := lz77.byteRange(lstart, lend)
		compressed := (w.bitsWritten() - detectBlockSize) / 8
		fmt.Fprintf(options.diagnostic(),
			"compressed block size: %d (%dk) (unc: %d)\n",
			compressed, compressed/1024, uncompressed)
	}
}

// addLZ77BlockAutoType writes [lstart, lend) with whichever block type
// is smallest. For blocks where the fixed tree might win, it reruns the
// squeeze with the fixed cost model, since the optimal parse differs.
func addLZ77BlockAutoType(options *Options, final bool,
	lz77 *lz77Store, lstart, lend int, w *bitWriter) {
	uncompressedCost := calculateBlockSize(lz77, lstart, lend, BlockUncompressed)
	fixedCost := calculateBlockSize(lz77, lstart, lend, BlockFixed)
	dynCost := calculateBlockSize(lz77, lstart, lend, BlockDynamic)

	expensiveFixed := lend-lstart < 1000 || fixedCost <= dynCost*1.1

	if lstart == lend {
		// An empty block: the fixed header plus the 7-bit end code is
		// the smallest representation.
		var b uint64
		if final {
			b = 1
		}
		w.writeBits(b, 1)
		w.writeBits(1, 2)
		w.writeBits(0, 7)
		return
	}

	var fixedStore *lz77Store
	if expensiveFixed {
		instart := lz77.pos[lstart]
		inend := instart + lz77.byteRange(lstart, lend)
		s := newBlockState(options, instart, inend, true)
		fixedStore = newLZ77Store(lz77.data)
		lz77OptimalFixed(s, lz77.data, instart, inend, fixedStore)
		fixedCost = calculateBlockSize(fixedStore, 0, fixedStore.size(), BlockFixed)
	}

	switch {
	case uncompressedCost < fixedCost && uncompressedCost < dynCost:
		addLZ77Block(options, BlockUncompressed, final, lz77, lstart, lend, w)
	case fixedCost < dynCost:
		if fixedStore != nil {
			addLZ77Block(options, BlockFixed, final, fixedStore, 0, fixedStore.size(), w)
		} else {
			addLZ77Block(options, BlockFixed, final, lz77, lstart, lend, w)
		}
	default:
		addLZ77Block(options, BlockDynamic, final, lz77, lstart, lend, w)
	}
}

// deflatePart compresses [instart, inend) of in. Unless a block type is
// forced, it splits the range into blocks, squeezes each one, and then
// re-evaluates the split on the squeezed stream, keeping whichever split
// estimates smaller.
func deflatePart(options *Options, btype BlockType, final bool,
	in []byte, instart, inend int, w *bitWriter) {
	switch btype {
	case BlockUncompressed:
		addNonCompressedBlock(final, in, instart, inend, w)
		return
	case BlockFixed:
		s := newBlockState(options, instart, inend, true)
		store := newLZ77Store(in)
		lz77OptimalFixed(s, in, instart, inend, store)
		addLZ77Block(options, btype, final, store, 0, store.size(), w)
		return
	}

	var splitpoints []int
	if options.BlockSplitting {
		splitpoints = blockSplit(options, in, instart, inend, options.BlockSplittingMax)
	}

	lz77 := newLZ77Store(in)
	lz77splits := make([]int, 0, len(splitpoints))
	totalCost := 0.0
	for i := 0; i <= len(splitpoints); i++ {
		start := instart
		if i > 0 {
			start = splitpoints[i-1]
		}
		end := inend
		if i < len(splitpoints) {
			end = splitpoints[i]
		}
		s := newBlockState(options, start, end, true)
		store := newLZ77Store(in)
		lz77Optimal(s, in, start, end, options.NumIterations, store)
		totalCost += calculateBlockSizeAutoType(store, 0, store.size())
		lz77.appendStore(store)
		if i < len(splitpoints) {
			lz77splits = append(lz77splits, lz77.size())
		}
	}

	// Try splitting again on the squeezed stream; its match structure can
	// suggest better boundaries than the greedy pass did.
	if options.BlockSplitting && len(splitpoints) > 1 {
		splits2 := blockSplitLZ77(options, lz77, options.BlockSplittingMax)
		totalCost2 := 0.0
		for i := 0; i <= len(splits2); i++ {
			start, end := 0, lz77.size()
			if i > 0 {
				start = splits2[i-1]
			}
			if i < len(splits2) {
				end = splits2[i]
			}
			totalCost2 += calculateBlockSizeAutoType(lz77, start, end)
		}
		if totalCost2 < totalCost {
			lz77splits = splits2
		}
	}

	for i := 0; i <= len(lz77splits); i++ {
		start, end := 0, lz77.size()
		if i > 0 {
			start = lz77splits[i-1]
		}
		if i < len(lz77splits) {
			end = lz77splits[i]
		}
		addLZ77BlockAutoType(options, final && i == len(lz77splits), lz77, start, end, w)
	}
}

// deflate compresses all of in to the bit writer as a deflate stream,
// working in master blocks to bound memory use.
func deflate(options *Options, btype BlockType, final bool, in []byte, w *bitWriter) {
	offset := w.bitsWritten()
	i := 0
	for {
		masterFinal := i+masterBlockSize >= len(in)
		size := masterBlockSize
		if masterFinal {
			size = len(in) - i
		}
		deflatePart(options, btype, final && masterFinal, in, i, i+size, w)
		i += size
		if i >= len(in) {
			break
		}
	}
	if options.Verbose {
		insize := len(in)
		outsize := (w.bitsWritten() - offset + 7) / 8
		removed := 100.0
		if insize > 0 {
			removed = 100 * float64(insize-outsize) / float64(insize)
		}
		fmt.Fprintf(options.diagnostic(),
			"Original Size: %d, Deflate: %d, Compression: %f%% Removed\n",
			insize, outsize, removed)
	}
}
