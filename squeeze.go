package zopfli

import (
	"fmt"
	"math"
)

const largeFloat = 1e30

// A costModel provides bit costs for LZ77 symbols. Costs may be
// fractional: they are typically derived from entropy rather than from
// concrete code lengths.
type costModel interface {
	// literalCost returns the cost in bits of encoding b as a literal.
	literalCost(b byte) float64

	// matchCost returns the cost in bits of encoding a back-reference
	// with the given length and distance.
	matchCost(length, dist uint16) float64
}

// fixedCostModel gives the exact cost of symbols in the fixed trees of
// RFC 1951 section 3.2.6.
type fixedCostModel struct{}

func (fixedCostModel) literalCost(b byte) float64 {
	if b <= 143 {
		return 8
	}
	return 9
}

func (fixedCostModel) matchCost(length, dist uint16) float64 {
	lbits := lengthExtraBitsCount(length)
	dbits := distExtraBitsCount(dist)
	cost := 5 // every distance symbol has length 5
	if lengthSymbol(length) <= 279 {
		cost += 7
	} else {
		cost += 8
	}
	return float64(cost + lbits + dbits)
}

// symbolStats holds symbol frequencies of one squeeze pass and the
// entropy-based bit costs derived from them. It implements costModel
// for the next pass.
type symbolStats struct {
	litlens [numLL]int
	dists   [numD]int

	llSymbols [numLL]float64
	dSymbols  [numD]float64
}

func (stats *symbolStats) literalCost(b byte) float64 {
	return stats.llSymbols[b]
}

func (stats *symbolStats) matchCost(length, dist uint16) float64 {
	lbits := lengthExtraBitsCount(length)
	dbits := distExtraBitsCount(dist)
	return float64(lbits+dbits) +
		stats.llSymbols[lengthSymbol(length)] + stats.dSymbols[distSymbol(dist)]
}

func (stats *symbolStats) clearFreqs() {
	stats.litlens = [numLL]int{}
	stats.dists = [numD]int{}
}

// addWeighedFreqs sets stats' frequencies to s1*w1 + s2*w2.
func (stats *symbolStats) addWeighedFreqs(s1 *symbolStats, w1 float64, s2 *symbolStats, w2 float64) {
	for i := 0; i < numLL; i++ {
		stats.litlens[i] = int(float64(s1.litlens[i])*w1 + float64(s2.litlens[i])*w2)
	}
	for i := 0; i < numD; i++ {
		stats.dists[i] = int(float64(s1.dists[i])*w1 + float64(s2.dists[i])*w2)
	}
	stats.litlens[endSymbol] = 1
}

// calculate derives the entropy-based symbol costs from the counts.
func (stats *symbolStats) calculate() {
	calculateEntropy(stats.litlens[:], stats.llSymbols[:])
	calculateEntropy(stats.dists[:], stats.dSymbols[:])
}

// getStatistics fills stats with the symbol frequencies of store and
// recalculates the costs.
func (stats *symbolStats) getStatistics(store *lz77Store) {
	for i := 0; i < store.size(); i++ {
		if store.dists[i] == 0 {
			stats.litlens[store.litlens[i]]++
		} else {
			stats.litlens[lengthSymbol(store.litlens[i])]++
			stats.dists[distSymbol(store.dists[i])]++
		}
	}
	stats.litlens[endSymbol] = 1
	stats.calculate()
}

// calculateEntropy writes the Shannon bit cost of each symbol into
// bitlengths. Symbols with count 0 get the cost they would have if
// they occurred once.
func calculateEntropy(count []int, bitlengths []float64) {
	sum := 0
	for _, c := range count {
		sum += c
	}
	var log2sum float64
	if sum == 0 {
		log2sum = math.Log2(float64(len(count)))
	} else {
		log2sum = math.Log2(float64(sum))
	}
	for i, c := range count {
		if c == 0 {
			bitlengths[i] = log2sum
		} else {
			bitlengths[i] = log2sum - math.Log2(float64(c))
		}
		// Depending on the rounding of the logarithms, the subtraction
		// can give a negative result very close to zero.
		if bitlengths[i] < 0 && bitlengths[i] > -1e-5 {
			bitlengths[i] = 0
		}
	}
}

// ranState is the multiply-with-carry generator used to perturb the
// statistics once the squeeze stops improving.
type ranState struct {
	mW, mZ uint32
}

func newRanState() *ranState { return &ranState{mW: 1, mZ: 2} }

func (r *ranState) ran() uint32 {
	r.mZ = 36969*(r.mZ&65535) + (r.mZ >> 16)
	r.mW = 18000*(r.mW&65535) + (r.mW >> 16)
	return (r.mZ << 16) + r.mW
}

func (r *ranState) randomizeFreqs(freqs []int) {
	n := len(freqs)
	for i := range freqs {
		if (r.ran()>>4)%3 == 0 {
			freqs[i] = freqs[int(r.ran())%n]
		}
	}
}

func (r *ranState) randomizeStatFreqs(stats *symbolStats) {
	r.randomizeFreqs(stats.litlens[:])
	r.randomizeFreqs(stats.dists[:])
	stats.litlens[endSymbol] = 1
}

// minCost returns the minimum cost the model can return for any valid
// match, used to skip provably useless relaxations in the DP.
func minCost(model costModel) float64 {
	// Distances that start a new distance symbol; only those can
	// change the cost. See RFC 1951 section 3.2.5.
	var dsymbols = [30]uint16{
		1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193, 257,
		385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289,
		16385, 24577,
	}

	bestLength := uint16(0)
	best := largeFloat
	for i := minMatch; i <= maxMatch; i++ {
		if c := model.matchCost(uint16(i), 1); c < best {
			bestLength = uint16(i)
			best = c
		}
	}

	bestDist := uint16(0)
	best = largeFloat
	for _, d := range dsymbols {
		if c := model.matchCost(minMatch, d); c < best {
			bestDist = d
			best = c
		}
	}

	return model.matchCost(bestLength, bestDist)
}

// bestLengths performs the forward pass of the squeeze: a shortest-path
// computation over byte positions where edges are literals and matches,
// weighted by the cost model. lengthArray[j] receives the length of the
// last symbol on the cheapest path reaching instart+j. The returned
// value is the model cost of reaching inend.
func bestLengths(s *blockState, in []byte, instart, inend int, model costModel, lengthArray []uint16, h *hash, costs []float32) float64 {
	if instart == inend {
		return 0
	}
	blockSize := inend - instart

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

	for i := 1; i < blockSize+1; i++ {
		costs[i] = largeFloat
	}
	costs[0] = 0
	lengthArray[0] = 0

	mc := minCost(model)
	var sublen [maxMatch + 1]uint16

	for i := instart; i < inend; i++ {
		j := i - instart // index in costs and lengthArray
		h.update(in, i)

		// In a long run of the same byte, with enough of the run
		// before and after the position, every position in the middle
		// is reached by a maximal match from maxMatch back. Skipping
		// ahead avoids the expensive match search there.
		if int(h.same[i&windowMask]) > maxMatch*2 &&
			i > instart+maxMatch+1 &&
			i+maxMatch*2+1 < inend &&
			int(h.same[(i-maxMatch)&windowMask]) > maxMatch {
			symbolCost := model.matchCost(maxMatch, 1)
			for k := 0; k < maxMatch; k++ {
				costs[j+maxMatch] = costs[j] + float32(symbolCost)
				lengthArray[j+maxMatch] = maxMatch
				i++
				j++
				h.update(in, i)
			}
		}

		leng, _ := s.findLongestMatch(h, in, i, inend, maxMatch, sublen[:])

		// Literal.
		if newCost := costs[j] + float32(model.literalCost(in[i])); newCost < costs[j+1] {
			costs[j+1] = newCost
			lengthArray[j+1] = 1
		}

		// Matches.
		kend := int(leng)
		if inend-i < kend {
			kend = inend - i
		}
		for k := minMatch; k <= kend; k++ {
			// Skip the cost model call if we are already at the
			// minimum it can return.
			if float64(costs[j+k]-costs[j]) <= mc {
				continue
			}
			newCost := costs[j] + float32(model.matchCost(uint16(k), sublen[k]))
			if newCost < costs[j+k] {
				costs[j+k] = newCost
				lengthArray[j+k] = uint16(k)
			}
		}
	}

	if debugLZ77 && costs[blockSize] < 0 {
		panic("zopfli: negative path cost")
	}
	return float64(costs[blockSize])
}

// traceBackwards converts the lengthArray of bestLengths into the list
// of symbol lengths along the optimal path, in forward order.
func traceBackwards(size int, lengthArray []uint16) []uint16 {
	if size == 0 {
		return nil
	}
	var path []uint16
	for index := size; index > 0; index -= int(lengthArray[index]) {
		path = append(path, lengthArray[index])
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// followPath turns a path of symbol lengths into LZ77 symbols,
// re-running the match search to recover the distances.
func followPath(s *blockState, in []byte, instart, inend int, path []uint16, store *lz77Store, h *hash) {
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

	pos := instart
	for _, length := range path {
		h.update(in, pos)

		if length >= minMatch {
			// The match search with the path length as limit finds the
			// distance belonging to this length.
			leng, dist := s.findLongestMatch(h, in, pos, inend, int(length), nil)
			if debugLZ77 && leng != length && length > 2 && leng > 2 {
				panic("zopfli: followed path does not reproduce its length")
			}
			if debugLZ77 {
				verifyLenDist(in, pos, dist, length)
			}
			store.storeLitLenDist(length, dist, pos)
		} else {
			length = 1
			store.storeLitLenDist(uint16(in[pos]), 0, pos)
		}

		for j := 1; j < int(length); j++ {
			h.update(in, pos+j)
		}
		pos += int(length)
	}
}

// lz77OptimalRun performs one complete squeeze pass: forward cost
// computation, backward trace, and symbol reconstruction. The returned
// cost is the model's estimate, not the exact encoded size.
func lz77OptimalRun(s *blockState, in []byte, instart, inend int, lengthArray []uint16, model costModel, store *lz77Store, h *hash, costs []float32) float64 {
	cost := bestLengths(s, in, instart, inend, model, lengthArray, h, costs)
	path := traceBackwards(inend-instart, lengthArray)
	followPath(s, in, instart, inend, path, store, h)
	return cost
}

// stagnationLimit is how many consecutive iterations may pass without
// improving the best encoded size before the squeeze gives up.
const stagnationLimit = 5

// lz77Optimal computes an approximately optimal LZ77 parse of
// in[instart:inend]. It starts from the greedy parse, then repeatedly
// re-parses under a cost model derived from the previous iteration's
// Huffman statistics, keeping the best result seen.
func lz77Optimal(s *blockState, in []byte, instart, inend, numIterations int, store *lz77Store) {
	blockSize := inend - instart
	lengthArray := make([]uint16, blockSize+1)
	costs := make([]float32, blockSize+1)
	h := newHash()

	currentStore := newLZ77Store(in)
	var stats, bestStats, lastStats symbolStats

	// Initial run with the greedy parse; its statistics seed the cost
	// model.
	lz77Greedy(s, in, instart, inend, currentStore, h)
	stats.getStatistics(currentStore)

	ran := newRanState()
	lastRandomStep := -1

	bestCost := largeFloat
	lastCost := 0.0
	stagnation := 0

	for i := 0; i < numIterations; i++ {
		currentStore = newLZ77Store(in)
		lz77OptimalRun(s, in, instart, inend, lengthArray, &stats, currentStore, h, costs)
		cost := calculateBlockSize(currentStore, 0, currentStore.size(), BlockDynamic)
		if s.options.VerboseMore || (s.options.Verbose && cost < bestCost) {
			fmt.Fprintf(s.options.diagnostic(), "Iteration %d: %d bit\n", i, int(cost))
		}
		if cost < bestCost {
			*store = *currentStore
			bestStats = stats
			bestCost = cost
			stagnation = 0
		} else {
			stagnation++
			if stagnation >= stagnationLimit {
				break
			}
		}
		lastStats = stats
		stats.clearFreqs()
		stats.getStatistics(currentStore)
		if lastRandomStep != -1 {
			// Once randomness has kicked in, combining the last two
			// stat runs converges slower but better.
			stats.addWeighedFreqs(&stats, 1.0, &lastStats, 0.5)
			stats.calculate()
		}
		if i > 5 && cost == lastCost {
			stats = bestStats
			ran.randomizeStatFreqs(&stats)
			stats.calculate()
			lastRandomStep = i
		}
		lastCost = cost
	}

	if store.size() == 0 {
		// numIterations == 0 still has to produce a parse.
		*store = *currentStore
	}
}

// lz77OptimalFixed computes the optimal LZ77 parse for the fixed
// Huffman trees. The tree is known, so a single shortest-path run
// gives the best possible result.
func lz77OptimalFixed(s *blockState, in []byte, instart, inend int, store *lz77Store) {
	blockSize := inend - instart
	lengthArray := make([]uint16, blockSize+1)
	costs := make([]float32, blockSize+1)
	h := newHash()

	s.blockStart = instart
	s.blockEnd = inend

	lz77OptimalRun(s, in, instart, inend, lengthArray, fixedCostModel{}, store, h, costs)
}
