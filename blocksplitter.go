package zopfli

import "fmt"

// findMinimum locates the i in [start, end) minimizing f(i). Small
// ranges are scanned linearly; larger ones are narrowed by repeatedly
// evaluating nine evenly spaced points, which finds a good local
// minimum at far fewer evaluations.
func findMinimum(f func(i int) float64, start, end int) (int, float64) {
	if end-start < 1024 {
		best := largeFloat
		result := start
		for i := start; i < end; i++ {
			if v := f(i); v < best {
				best = v
				result = i
			}
		}
		return result, best
	}

	const num = 9
	var p [num]int
	var vp [num]float64
	pos := start
	lastBest := largeFloat
	for end-start > num {
		for i := 0; i < num; i++ {
			p[i] = start + (i+1)*((end-start)/(num+1))
			vp[i] = f(p[i])
		}
		besti := 0
		best := vp[0]
		for i := 1; i < num; i++ {
			if vp[i] < best {
				best = vp[i]
				besti = i
			}
		}
		if best > lastBest {
			break
		}
		if besti != 0 {
			start = p[besti-1]
		}
		if besti != num-1 {
			end = p[besti+1]
		}
		pos = p[besti]
		lastBest = best
	}
	return pos, lastBest
}

// splitCost is the estimated total size of splitting [start, end) at i.
func splitCost(lz77 *lz77Store, start, i, end int) float64 {
	return calculateBlockSizeAutoType(lz77, start, i) +
		calculateBlockSizeAutoType(lz77, i, end)
}

func addSorted(value int, out []int) []int {
	out = append(out, value)
	for i := 0; i < len(out)-1; i++ {
		if out[i] > value {
			copy(out[i+1:], out[i:len(out)-1])
			out[i] = value
			break
		}
	}
	return out
}

// findLargestSplittableBlock returns the largest not-yet-done range
// between consecutive split points, or ok=false when every range has
// been marked done.
func findLargestSplittableBlock(lz77size int, done map[int]bool, splitpoints []int) (lstart, lend int, ok bool) {
	longest := 0
	for i := 0; i <= len(splitpoints); i++ {
		start := 0
		if i > 0 {
			start = splitpoints[i-1]
		}
		end := lz77size - 1
		if i < len(splitpoints) {
			end = splitpoints[i]
		}
		if !done[start] && end-start > longest {
			lstart = start
			lend = end
			longest = end - start
			ok = true
		}
	}
	return lstart, lend, ok
}

// blockSplitLZ77 recursively bisects the symbol stream wherever a split
// reduces the estimated total size, returning the split points as
// indexes into the stream. maxBlocks of 0 means no limit.
func blockSplitLZ77(options *Options, lz77 *lz77Store, maxBlocks int) []int {
	if lz77.size() < 10 {
		return nil // not worth splitting
	}

	done := make(map[int]bool)
	var splitpoints []int
	numBlocks := 1
	lstart, lend := 0, lz77.size()
	for {
		if maxBlocks > 0 && numBlocks >= maxBlocks {
			break
		}
		llpos, cost := findMinimum(func(i int) float64 {
			return splitCost(lz77, lstart, i, lend)
		}, lstart+1, lend)

		if debugLZ77 && (llpos <= lstart || llpos >= lend) {
			panic("zopfli: split point outside range")
		}

		origCost := calculateBlockSizeAutoType(lz77, lstart, lend)
		if cost > origCost || llpos == lstart+1 || llpos == lend {
			done[lstart] = true
		} else {
			splitpoints = addSorted(llpos, splitpoints)
			numBlocks++
		}

		var ok bool
		lstart, lend, ok = findLargestSplittableBlock(lz77.size(), done, splitpoints)
		if !ok || lend-lstart < 10 {
			break
		}
	}
	return splitpoints
}

// blockSplit chooses block boundaries for [instart, inend) of in,
// returning them as byte positions. It runs a greedy parse first, since
// the real parse does not exist yet at this point.
func blockSplit(options *Options, in []byte, instart, inend, maxBlocks int) []int {
	s := newBlockState(options, instart, inend, false)
	store := newLZ77Store(in)
	h := newHash()
	lz77Greedy(s, in, instart, inend, store, h)

	lz77splits := blockSplitLZ77(options, store, maxBlocks)

	// Convert symbol indexes to input byte positions.
	var splitpoints []int
	if len(lz77splits) > 0 {
		pos := instart
		for i := 0; i < store.size(); i++ {
			length := 1
			if store.dists[i] != 0 {
				length = int(store.litlens[i])
			}
			if len(splitpoints) < len(lz77splits) && lz77splits[len(splitpoints)] == i {
				splitpoints = append(splitpoints, pos)
				if len(splitpoints) == len(lz77splits) {
					break
				}
			}
			pos += length
		}
	}

	if options.Verbose && len(splitpoints) > 0 {
		fmt.Fprintf(options.diagnostic(), "block split points: ")
		for _, p := range splitpoints {
			fmt.Fprintf(options.diagnostic(), "%d ", p)
		}
		fmt.Fprintf(options.diagnostic(), "(hex:")
		for _, p := range splitpoints {
			fmt.Fprintf(options.diagnostic(), " %x", p)
		}
		fmt.Fprintf(options.diagnostic(), ")\n")
	}

	return splitpoints
}
