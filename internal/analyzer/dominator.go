package analyzer

import (
	"fmt"

	"github.com/go-cfgkit/cfgkit/internal/cfgraph"
)

// DominatorTree implements the Cooper-Harvey-Kennedy iterative dominator
// algorithm over the CFG's forward reverse-post-order
// (cfgraph.CFG.TopologicalSequence), as described in "A Simple, Fast
// Dominance Algorithm" (Cooper, Harvey & Kennedy, 2001).
type DominatorTree struct {
	blocks     []*cfgraph.Block
	blockIndex map[*cfgraph.Block]int
	iDom       []int // -1 until resolved; entry resolves to itself
	dominated  [][]int
	entryIndex int
}

// NewDominatorTree builds an empty, unanalyzed DominatorTree.
func NewDominatorTree() *DominatorTree {
	return &DominatorTree{blockIndex: make(map[*cfgraph.Block]int)}
}

// Analyze materializes the post-order index from cfg.TopologicalSequence()
// and runs the fixpoint.
func (dt *DominatorTree) Analyze(cfg *cfgraph.CFG) {
	order := cfg.TopologicalSequence()

	dt.blocks = order
	dt.blockIndex = make(map[*cfgraph.Block]int, len(order))
	dt.iDom = make([]int, len(order))
	for i, b := range order {
		dt.blockIndex[b] = i
		dt.iDom[i] = -1
	}

	dt.entryIndex = dt.blockIndex[cfg.Entry]
	dt.computeDT()
}

// index returns b's position in the analyzed order. A block absent from
// the index is a contract violation (the caller is querying a block the
// traversal never produced), not a recoverable condition.
func (dt *DominatorTree) index(b *cfgraph.Block) int {
	n, ok := dt.blockIndex[b]
	if !ok {
		panic(fmt.Sprintf("analyzer: DominatorTree: block %v is not in the analyzed order", b))
	}
	return n
}

// intersect walks two fingers up the dominator chain until they meet,
// advancing whichever finger currently has the LARGER index.
//
// This is the opposite comparison from the classical Cooper-Harvey-Kennedy
// presentation, which numbers the entry node highest (plain postorder) and
// so climbs the smaller finger. Here the entry is numbered 0 (reverse
// postorder, ascending away from entry), where a block's immediate
// dominator always has a strictly smaller index than the block itself.
// Climbing the smaller finger under that numbering never converges (it
// walks toward the entry on both sides independently and can loop at
// index 0 forever); climbing the larger one walks each finger
// down to its dominator until they land on the same ancestor.
func (dt *DominatorTree) intersect(b1, b2 int) int {
	finger1, finger2 := b1, b2
	for finger1 != finger2 {
		for finger1 > finger2 {
			finger1 = dt.iDom[finger1]
		}
		for finger2 > finger1 {
			finger2 = dt.iDom[finger2]
		}
	}
	return finger1
}

func (dt *DominatorTree) computeDT() {
	dt.iDom[dt.entryIndex] = dt.entryIndex

	changed := true
	for changed {
		changed = false
		for bInd, b := range dt.blocks {
			if bInd == dt.entryIndex {
				continue
			}
			newIdom := 0
			processed := false
			for _, pred := range b.Predecessors {
				p := dt.index(pred)
				if dt.iDom[p] == -1 {
					continue
				}
				if !processed {
					newIdom = p
					processed = true
				} else {
					newIdom = dt.intersect(p, newIdom)
				}
			}
			if processed && dt.iDom[bInd] != newIdom {
				dt.iDom[bInd] = newIdom
				changed = true
			}
		}
	}

	dt.dominated = make([][]int, len(dt.blocks))
	for n := range dt.blocks {
		if n == dt.entryIndex {
			continue
		}
		if dt.iDom[n] >= 0 {
			p := dt.iDom[n]
			dt.dominated[p] = append(dt.dominated[p], n)
		}
	}
}

// Dominates reports whether a dominates b: every path from entry to b
// passes through a. Every reachable block dominates itself.
func (dt *DominatorTree) Dominates(a, b *cfgraph.Block) bool {
	id := dt.index(a)
	successorID := dt.index(b)

	next := successorID
	for {
		if next == id {
			return true
		}
		if next == dt.entryIndex {
			return false
		}
		next = dt.iDom[next]
	}
}

// GetDominator returns b's immediate dominator, or (nil, false) if b is the
// entry block.
func (dt *DominatorTree) GetDominator(b *cfgraph.Block) (*cfgraph.Block, bool) {
	n := dt.index(b)
	if n == dt.entryIndex {
		return nil, false
	}
	return dt.blocks[dt.iDom[n]], true
}

// GetCommonDominator returns the nearest common dominator of b1 and b2.
func (dt *DominatorTree) GetCommonDominator(b1, b2 *cfgraph.Block) *cfgraph.Block {
	n1 := dt.index(b1)
	n2 := dt.index(b2)
	n := dt.intersect(dt.iDom[n1], dt.iDom[n2])
	return dt.blocks[n]
}

// GetDominatedBlocks returns the direct children of b in the dominator tree.
func (dt *DominatorTree) GetDominatedBlocks(b *cfgraph.Block) []*cfgraph.Block {
	n := dt.index(b)
	children := make([]*cfgraph.Block, 0, len(dt.dominated[n]))
	for _, idx := range dt.dominated[n] {
		children = append(children, dt.blocks[idx])
	}
	return children
}
