package analyzer

import (
	"fmt"

	"github.com/go-cfgkit/cfgkit/internal/cfgraph"
)

// PostDominatorTree is the symmetric construction of DominatorTree on the
// reversed graph: rooted at Exit, walking predecessor/successor links
// swapped, over cfgraph.CFG.ReverseTopologicalSequence. It additionally
// computes post-dominance frontiers.
type PostDominatorTree struct {
	blocks     []*cfgraph.Block
	blockIndex map[*cfgraph.Block]int
	pDom       []int
	dominated  [][]int
	frontiers  [][]int
	exitIndex  int
}

// NewPostDominatorTree builds an empty, unanalyzed PostDominatorTree.
func NewPostDominatorTree() *PostDominatorTree {
	return &PostDominatorTree{blockIndex: make(map[*cfgraph.Block]int)}
}

// Analyze materializes the node order from cfg.ReverseTopologicalSequence()
// and runs the fixpoint plus post-dominance frontier computation.
func (pdt *PostDominatorTree) Analyze(cfg *cfgraph.CFG) {
	order := cfg.ReverseTopologicalSequence()

	pdt.blocks = order
	pdt.blockIndex = make(map[*cfgraph.Block]int, len(order))
	pdt.pDom = make([]int, len(order))
	for i, b := range order {
		pdt.blockIndex[b] = i
		pdt.pDom[i] = -1
	}

	pdt.exitIndex = pdt.blockIndex[cfg.Exit]
	pdt.computeDT()
}

// index returns b's position in the analyzed order. A block absent from
// the index is a contract violation (the caller is querying a block the
// traversal never produced), not a recoverable condition.
func (pdt *PostDominatorTree) index(b *cfgraph.Block) int {
	n, ok := pdt.blockIndex[b]
	if !ok {
		panic(fmt.Sprintf("analyzer: PostDominatorTree: block %v is not in the analyzed order", b))
	}
	return n
}

// intersect mirrors DominatorTree.intersect: it climbs whichever finger has
// the larger index, since Exit is index 0 here and a block's immediate
// post-dominator always has a strictly smaller index.
func (pdt *PostDominatorTree) intersect(b1, b2 int) int {
	finger1, finger2 := b1, b2
	for finger1 != finger2 {
		for finger1 > finger2 {
			finger1 = pdt.pDom[finger1]
		}
		for finger2 > finger1 {
			finger2 = pdt.pDom[finger2]
		}
	}
	return finger1
}

func (pdt *PostDominatorTree) computeDT() {
	pdt.pDom[pdt.exitIndex] = pdt.exitIndex

	changed := true
	for changed {
		changed = false
		for bInd, b := range pdt.blocks {
			if bInd == pdt.exitIndex {
				continue
			}
			newPdom := 0
			processed := false
			for _, succ := range b.Successors {
				p := pdt.index(succ)
				if pdt.pDom[p] == -1 {
					continue
				}
				if !processed {
					newPdom = p
					processed = true
				} else {
					newPdom = pdt.intersect(p, newPdom)
				}
			}
			if processed && pdt.pDom[bInd] != newPdom {
				pdt.pDom[bInd] = newPdom
				changed = true
			}
		}
	}

	pdt.dominated = make([][]int, len(pdt.blocks))
	for n := range pdt.blocks {
		if n == pdt.exitIndex {
			continue
		}
		if pdt.pDom[n] >= 0 {
			p := pdt.pDom[n]
			pdt.dominated[p] = append(pdt.dominated[p], n)
		}
	}

	pdt.computeFrontiers()
}

// computeFrontiers implements the post-dominance frontier rule:
// for each branch block b (>=2 successors), walk a runner from each
// successor upward through the post-dominator chain until reaching b's own
// post-dominator; every block visited along the way is recorded as lying
// in b's frontier.
//
// Frontiers are indexed by the branch block itself: frontiers[b] holds
// the runner blocks visited between b's successors and its
// post-dominator. Queries go through Frontier(b), which returns
// frontiers[index(b)].
func (pdt *PostDominatorTree) computeFrontiers() {
	pdt.frontiers = make([][]int, len(pdt.blocks))

	for bInd, block := range pdt.blocks {
		if len(block.Successors) < 2 {
			continue
		}
		blockPostDom := pdt.pDom[bInd]
		seen := make(map[int]struct{})

		for _, successor := range block.Successors {
			runner := pdt.index(successor)
			for runner != blockPostDom {
				if _, ok := seen[runner]; !ok {
					seen[runner] = struct{}{}
					pdt.frontiers[bInd] = append(pdt.frontiers[bInd], runner)
				}
				runner = pdt.pDom[runner]
			}
		}
	}
}

// Dominates reports whether a post-dominates b: every path from b to exit
// passes through a.
func (pdt *PostDominatorTree) Dominates(a, b *cfgraph.Block) bool {
	id := pdt.index(a)
	predecessorID := pdt.index(b)

	next := predecessorID
	for {
		if next == id {
			return true
		}
		if next == pdt.exitIndex {
			return false
		}
		next = pdt.pDom[next]
	}
}

// GetPostDominator returns b's immediate post-dominator. Exit is its own
// post-dominator.
func (pdt *PostDominatorTree) GetPostDominator(b *cfgraph.Block) *cfgraph.Block {
	n := pdt.index(b)
	return pdt.blocks[pdt.pDom[n]]
}

// GetDominatedBlocks returns the direct children of b in the post-dominator
// tree.
func (pdt *PostDominatorTree) GetDominatedBlocks(b *cfgraph.Block) []*cfgraph.Block {
	n := pdt.index(b)
	children := make([]*cfgraph.Block, 0, len(pdt.dominated[n]))
	for _, idx := range pdt.dominated[n] {
		children = append(children, pdt.blocks[idx])
	}
	return children
}

// Frontier returns the set of blocks whose post-dominance frontier contains
// b: the blocks met while walking up the post-dominator chain from each of
// b's successors, stopping before GetPostDominator(b). It is empty unless b
// has >=2 successors.
func (pdt *PostDominatorTree) Frontier(b *cfgraph.Block) []*cfgraph.Block {
	n := pdt.index(b)
	blocks := make([]*cfgraph.Block, 0, len(pdt.frontiers[n]))
	for _, idx := range pdt.frontiers[n] {
		blocks = append(blocks, pdt.blocks[idx])
	}
	return blocks
}
