package zopfli

import "sort"

// A pmNode is a node in the package-merge algorithm: either a single leaf
// (symbol with nonzero frequency) or a package combining two nodes from the
// previous level.
type pmNode struct {
	weight      int
	leaf        int // symbol index, or -1 for a package
	left, right *pmNode
}

// lengthLimitedCodeLengths fills bitlengths with minimum-redundancy code
// lengths for the given symbol frequencies, with no length exceeding maxBits.
// Symbols with zero frequency get length 0. It uses the package-merge
// algorithm (Katajainen, Moffat, Turpin).
func lengthLimitedCodeLengths(frequencies []int, maxBits int, bitlengths []uint32) {
	for i := range bitlengths {
		bitlengths[i] = 0
	}

	var leaves []*pmNode
	for i, f := range frequencies {
		if f != 0 {
			leaves = append(leaves, &pmNode{weight: f, leaf: i})
		}
	}

	n := len(leaves)
	switch n {
	case 0:
		return
	case 1:
		bitlengths[leaves[0].leaf] = 1
		return
	case 2:
		bitlengths[leaves[0].leaf] = 1
		bitlengths[leaves[1].leaf] = 1
		return
	}

	if n > 1<<uint(maxBits) {
		panic("zopfli: too many symbols for maximum code length")
	}
	if maxBits > n-1 {
		maxBits = n - 1
	}

	sort.Slice(leaves, func(i, j int) bool {
		return leaves[i].weight < leaves[j].weight
	})

	// Build maxBits levels. Each level is the sorted merge of the leaves
	// with the packages formed by pairing adjacent nodes of the previous
	// level.
	row := make([]*pmNode, n)
	copy(row, leaves)
	for level := 1; level < maxBits; level++ {
		packages := make([]*pmNode, 0, len(row)/2)
		for i := 0; i+1 < len(row); i += 2 {
			packages = append(packages, &pmNode{
				weight: row[i].weight + row[i+1].weight,
				leaf:   -1,
				left:   row[i],
				right:  row[i+1],
			})
		}
		next := make([]*pmNode, 0, n+len(packages))
		li, pi := 0, 0
		for li < n || pi < len(packages) {
			switch {
			case pi == len(packages):
				next = append(next, leaves[li])
				li++
			case li == n || packages[pi].weight < leaves[li].weight:
				next = append(next, packages[pi])
				pi++
			default:
				next = append(next, leaves[li])
				li++
			}
		}
		row = next
	}

	// The code length of each symbol is the number of times its leaf occurs,
	// directly or inside packages, among the 2n-2 cheapest nodes of the last
	// level.
	var count func(node *pmNode)
	count = func(node *pmNode) {
		if node.leaf >= 0 {
			bitlengths[node.leaf]++
			return
		}
		count(node.left)
		count(node.right)
	}
	for _, node := range row[:2*n-2] {
		count(node)
	}
}
