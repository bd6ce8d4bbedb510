package zopfli

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// maxChainHits bounds how many hash-chain candidates the match search
// examines at one position.
const maxChainHits = 8192

// debugLZ77 enables additional runtime tests. It's intended to be used
// during development to supplement the unit tests.
const debugLZ77 = false

// An lz77Store holds a sequence of LZ77 symbols: literal bytes, and
// (length, distance) pairs referring back into the window. It also
// records the input position each symbol was emitted at, which the
// block splitter uses to convert symbol indexes to byte offsets.
type lz77Store struct {
	litlens []uint16 // literal byte value, or match length
	dists   []uint16 // 0 for a literal, 1..32768 for a match
	pos     []int    // input position of each symbol

	data []byte // the window the symbols refer to
}

func newLZ77Store(data []byte) *lz77Store {
	return &lz77Store{data: data}
}

func (s *lz77Store) size() int { return len(s.litlens) }

// storeLitLenDist appends one symbol. A dist of 0 means litlen is a
// literal byte; otherwise litlen is a match length.
func (s *lz77Store) storeLitLenDist(litlen, dist uint16, pos int) {
	s.litlens = append(s.litlens, litlen)
	s.dists = append(s.dists, dist)
	s.pos = append(s.pos, pos)
}

func (s *lz77Store) appendStore(t *lz77Store) {
	s.litlens = append(s.litlens, t.litlens...)
	s.dists = append(s.dists, t.dists...)
	s.pos = append(s.pos, t.pos...)
}

// byteRange returns the number of input bytes covered by the symbols
// in [lstart, lend).
func (s *lz77Store) byteRange(lstart, lend int) int {
	if lstart == lend {
		return 0
	}
	l := lend - 1
	n := 1
	if s.dists[l] != 0 {
		n = int(s.litlens[l])
	}
	return s.pos[l] + n - s.pos[lstart]
}

// histogram counts the literal/length and distance symbols in
// [lstart, lend). The slices must have numLL and numD entries.
func (s *lz77Store) histogram(lstart, lend int, llCounts, dCounts []int) {
	for i := range llCounts {
		llCounts[i] = 0
	}
	for i := range dCounts {
		dCounts[i] = 0
	}
	for i := lstart; i < lend; i++ {
		if s.dists[i] == 0 {
			llCounts[s.litlens[i]]++
		} else {
			llCounts[lengthSymbol(s.litlens[i])]++
			dCounts[distSymbol(s.dists[i])]++
		}
	}
}

// A blockState carries the per-block context of the match search: the
// options, the block boundaries, and the longest-match cache.
type blockState struct {
	options    *Options
	blockStart int
	blockEnd   int
	lmc        *matchCache
}

func newBlockState(options *Options, blockStart, blockEnd int, addCache bool) *blockState {
	s := &blockState{
		options:    options,
		blockStart: blockStart,
		blockEnd:   blockEnd,
	}
	if addCache {
		s.lmc = newMatchCache(blockEnd - blockStart)
	}
	return s
}

// getMatch returns the length of the common prefix of a and b, up to
// limit bytes, comparing eight bytes at a time.
func getMatch(a, b []byte, limit int) int {
	var n int
	a = a[:limit]
	for len(a) >= 8 {
		if diff := binary.LittleEndian.Uint64(a) ^ binary.LittleEndian.Uint64(b); diff != 0 {
			return n + bits.TrailingZeros64(diff)>>3
		}
		n += 8
		a = a[8:]
		b = b[8:]
	}
	b = b[:len(a)]
	for i := range a {
		if a[i] != b[i] {
			return n + i
		}
	}
	return n + len(a)
}

// tryCache attempts to answer the match search at pos from the cache.
// It may lower *limit when the cache knows the best length but not
// enough sublengths. It reports whether length and dist were filled in.
func (s *blockState) tryCache(pos int, limit *int, sublen []uint16) (length, dist uint16, ok bool) {
	if s.lmc == nil {
		return 0, 0, false
	}
	lmcpos := pos - s.blockStart

	// length > 0 with dist 0 marks a position that was never stored.
	cacheAvailable := s.lmc.length[lmcpos] == 0 || s.lmc.dist[lmcpos] != 0
	limitOK := cacheAvailable &&
		(*limit == maxMatch || int(s.lmc.length[lmcpos]) <= *limit ||
			(sublen != nil && s.lmc.maxSublen(lmcpos) >= *limit))

	if !cacheAvailable || !limitOK {
		return 0, 0, false
	}
	if sublen == nil || int(s.lmc.length[lmcpos]) <= s.lmc.maxSublen(lmcpos) {
		length = s.lmc.length[lmcpos]
		if int(length) > *limit {
			length = uint16(*limit)
		}
		if sublen != nil {
			s.lmc.loadSublen(lmcpos, length, sublen)
			dist = sublen[length]
			if debugLZ77 && *limit == maxMatch && length >= minMatch {
				if dist != s.lmc.dist[lmcpos] {
					panic("zopfli: corrupt match cache")
				}
			}
		} else {
			dist = s.lmc.dist[lmcpos]
		}
		return length, dist, true
	}
	// The sublengths must be recalculated, but the cache still tells
	// us when to stop.
	*limit = int(s.lmc.length[lmcpos])
	return 0, 0, false
}

// storeCache records a match search result for later iterations.
func (s *blockState) storeCache(pos, limit int, sublen []uint16, dist, length uint16) {
	if s.lmc == nil || limit != maxMatch || sublen == nil {
		return
	}
	lmcpos := pos - s.blockStart
	if !(s.lmc.length[lmcpos] == 0 || s.lmc.dist[lmcpos] != 0) {
		if length < minMatch {
			s.lmc.dist[lmcpos] = 0
			s.lmc.length[lmcpos] = 0
		} else {
			s.lmc.dist[lmcpos] = dist
			s.lmc.length[lmcpos] = length
		}
		s.lmc.storeSublen(sublen, lmcpos, length)
	}
}

// findLongestMatch searches the hash chains for the longest match at
// pos, considering at most maxChainHits candidates. If sublen is
// non-nil it must have 259 entries, and is filled with the smallest
// distance achieving each length up to the best one. When no match of
// at least minMatch bytes exists, the result is (0, 0), whether it
// comes from the search or from the cache.
func (s *blockState) findLongestMatch(h *hash, in []byte, pos, size, limit int, sublen []uint16) (length, dist uint16) {
	if length, dist, ok := s.tryCache(pos, &limit, sublen); ok {
		if debugLZ77 && pos+int(length) > size {
			panic("zopfli: cached match exceeds window")
		}
		return length, dist
	}

	if size-pos < minMatch {
		// The rest of the window is too short to contain a match.
		return 0, 0
	}
	if pos+limit > size {
		limit = size - pos
	}

	bestDist := uint16(0)
	bestLength := uint16(1)
	chainCounter := maxChainHits

	hpos := pos & windowMask
	hhead, hprev, hhashval, hval := h.head, h.prev, h.hashval, h.val

	pp := int(hhead[hval]) // during the whole loop, p == hprev[pp]
	p := int(hprev[pp])

	var distance int // not uint16: it can be windowSize
	if p < pp {
		distance = pp - p
	} else {
		distance = windowSize - p + pp
	}

	for distance < windowSize {
		if distance > pos {
			break
		}
		if debugLZ77 && hhashval[p] != int32(hval) {
			panic("zopfli: hash chain inconsistent")
		}
		if distance > 0 {
			currentLength := 0
			scan := pos
			match := pos - distance
			// Testing the byte at position bestLength first goes
			// slightly faster.
			if pos+int(bestLength) >= size ||
				in[scan+int(bestLength)] == in[match+int(bestLength)] {
				same0 := int(h.same[pos&windowMask])
				if same0 > 2 && in[scan] == in[match] {
					same1 := int(h.same[(pos-distance)&windowMask])
					same := same0
					if same1 < same {
						same = same1
					}
					if same > limit {
						same = limit
					}
					scan += same
					match += same
				}
				n := getMatch(in[scan:], in[match:], pos+limit-scan)
				currentLength = scan + n - pos
			}
			if currentLength > int(bestLength) {
				if sublen != nil {
					for j := int(bestLength) + 1; j <= currentLength; j++ {
						sublen[j] = uint16(distance)
					}
				}
				bestDist = uint16(distance)
				bestLength = uint16(currentLength)
				if currentLength >= limit {
					break
				}
			}
		}

		// Switch to the run-length hash once that will be more
		// efficient.
		if &hhead[0] != &h.head2[0] && int(bestLength) >= int(h.same[hpos]) &&
			h.val2 == int(h.hashval2[p]) {
			hhead, hprev, hhashval, hval = h.head2, h.prev2, h.hashval2, h.val2
		}

		pp = p
		p = int(hprev[p])
		if p == pp {
			break // uninitialized prev value
		}
		if p < pp {
			distance += pp - p
		} else {
			distance += windowSize - p + pp
		}

		chainCounter--
		if chainCounter <= 0 {
			break
		}
	}

	s.storeCache(pos, limit, sublen, bestDist, bestLength)

	if debugLZ77 && int(bestLength) > limit {
		panic("zopfli: match exceeds limit")
	}
	if bestLength < minMatch {
		return 0, 0
	}
	return bestLength, bestDist
}

// verifyLenDist checks that the bytes referenced by a match really
// equal the bytes at pos.
func verifyLenDist(in []byte, pos int, dist, length uint16) {
	for i := 0; i < int(length); i++ {
		if in[pos-int(dist)+i] != in[pos+i] {
			panic(fmt.Sprintf("zopfli: invalid match of length %d at distance %d, position %d", length, dist, pos))
		}
	}
}

// lengthScore rates a match for the greedy parser. Matches at
// distances beyond 1024 carry more extra bits, so they must be one
// byte longer to beat a closer match.
func lengthScore(length, dist uint16) int {
	if dist > 1024 {
		return int(length) - 1
	}
	return int(length)
}

// lz77Greedy produces an LZ77 parse of in[instart:inend] using the
// longest match at each position, with one-step lazy matching. The
// result seeds the block splitter and the squeeze bootstrap cost
// model.
func lz77Greedy(s *blockState, in []byte, instart, inend int, store *lz77Store, h *hash) {
	if instart == inend {
		return
	}

	windowStart := instart
	if windowStart > windowSize {
		windowStart = instart - windowSize
	} else {
		windowStart = 0
	}
	h.reset()
	h.warmup(in, windowStart, inend)
	for i := windowStart; i < instart; i++ {
		h.update(in, i)
	}

	var sublen [maxMatch + 1]uint16

	// Lazy matching state.
	prevLength := uint16(0)
	prevMatch := uint16(0)
	matchAvailable := false

	for i := instart; i < inend; i++ {
		h.update(in, i)

		leng, dist := s.findLongestMatch(h, in, i, inend, maxMatch, sublen[:])
		score := lengthScore(leng, dist)

		prevScore := lengthScore(prevLength, prevMatch)
		if matchAvailable {
			matchAvailable = false
			if score > prevScore+1 {
				store.storeLitLenDist(uint16(in[i-1]), 0, i-1)
				if score >= minMatch && leng < maxMatch {
					matchAvailable = true
					prevLength = leng
					prevMatch = dist
					continue
				}
			} else {
				// The previous match was at least as good; use it.
				leng = prevLength
				dist = prevMatch
				if debugLZ77 {
					verifyLenDist(in, i-1, dist, leng)
				}
				store.storeLitLenDist(leng, dist, i-1)
				for j := 2; j < int(leng); j++ {
					i++
					h.update(in, i)
				}
				continue
			}
		} else if score >= minMatch && leng < maxMatch {
			matchAvailable = true
			prevLength = leng
			prevMatch = dist
			continue
		}

		if score >= minMatch {
			if debugLZ77 {
				verifyLenDist(in, i, dist, leng)
			}
			store.storeLitLenDist(leng, dist, i)
		} else {
			leng = 1
			store.storeLitLenDist(uint16(in[i]), 0, i)
		}
		for j := 1; j < int(leng); j++ {
			i++
			h.update(in, i)
		}
	}
}
