package zopfli

// cacheLength is how many (length, distance) sublength entries are
// cached per position. More entries use more memory but let the
// squeeze pass reuse more of the match search.
const cacheLength = 8

// A matchCache memoises the result of the longest-match search for
// every position of a block, so that repeated squeeze iterations do
// not repeat the chain walks. Entries are pure functions of the
// window contents and the position.
type matchCache struct {
	length []uint16
	dist   []uint16

	// sublen stores, per position, up to cacheLength entries of 3
	// bytes each: length-3, and the little-endian distance that is the
	// cheapest way to achieve at least that length.
	sublen []uint8
}

func newMatchCache(blockSize int) *matchCache {
	c := &matchCache{
		length: make([]uint16, blockSize),
		dist:   make([]uint16, blockSize),
		sublen: make([]uint8, cacheLength*3*blockSize),
	}
	// length > 0 and dist == 0 marks an empty entry.
	for i := range c.length {
		c.length[i] = 1
	}
	return c
}

// storeSublen compresses the sublength vector for pos into the cache.
// Only lengths where the distance changes are recorded.
func (c *matchCache) storeSublen(sublen []uint16, pos int, length uint16) {
	if length < minMatch {
		return
	}
	cache := c.sublen[cacheLength*3*pos:]
	bestLength := 0
	j := 0
	for i := minMatch; i <= int(length); i++ {
		if i == int(length) || sublen[i] != sublen[i+1] {
			cache[j*3] = uint8(i - minMatch)
			cache[j*3+1] = uint8(sublen[i])
			cache[j*3+2] = uint8(sublen[i] >> 8)
			bestLength = i
			j++
			if j >= cacheLength {
				break
			}
		}
	}
	if j < cacheLength {
		cache[(cacheLength-1)*3] = uint8(bestLength - minMatch)
	}
}

// loadSublen expands the cached entries for pos back into a full
// sublength vector.
func (c *matchCache) loadSublen(pos int, length uint16, sublen []uint16) {
	if length < minMatch {
		return
	}
	maxLength := c.maxSublen(pos)
	cache := c.sublen[cacheLength*3*pos:]
	prevLength := 0
	for j := 0; j < cacheLength; j++ {
		length := int(cache[j*3]) + minMatch
		dist := uint16(cache[j*3+1]) | uint16(cache[j*3+2])<<8
		for i := prevLength; i <= length; i++ {
			sublen[i] = dist
		}
		if length == maxLength {
			break
		}
		prevLength = length + 1
	}
}

// maxSublen returns the largest length whose distance is cached for
// pos, or 0 if no sublengths are cached there.
func (c *matchCache) maxSublen(pos int) int {
	cache := c.sublen[cacheLength*3*pos:]
	if cache[1] == 0 && cache[2] == 0 {
		return 0
	}
	return int(cache[(cacheLength-1)*3]) + minMatch
}
