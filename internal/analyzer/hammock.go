package analyzer

import "github.com/go-cfgkit/cfgkit/internal/cfgraph"

// Hammock is a single-entry/single-exit (SESE) region node in the hammock
// tree. A leaf hammock has Entry == Exit (a single block); an internal
// hammock's Entry dominates and Exit post-dominates every block within it.
type Hammock struct {
	Parent   *Hammock
	Children []*Hammock
	Entry    *cfgraph.Block
	Exit     *cfgraph.Block
}

// IsLeaf reports whether h wraps a single block.
func (h *Hammock) IsLeaf() bool {
	return h.Entry == h.Exit
}

// HammockAnalysis builds the hammock tree for a CFG, given its dominator
// and post-dominator trees.
type HammockAnalysis struct {
	Root *Hammock

	dt  *DominatorTree
	pdt *PostDominatorTree
	cfg *cfgraph.CFG
}

// NewHammockAnalysis builds an empty, unanalyzed HammockAnalysis.
func NewHammockAnalysis() *HammockAnalysis {
	return &HammockAnalysis{Root: &Hammock{}}
}

// Analyze seeds the root hammock (CFG.Entry, CFG.Exit), wraps every other
// block - the exit included - as a singleton leaf child of the root, and
// recursively refines the tree via splitHammock.
//
// Wrapping Exit keeps it visible in the final tree as a leaf under
// whichever region it lands in; a region can never claim it, since no
// block strictly post-dominates the exit.
func (ha *HammockAnalysis) Analyze(cfg *cfgraph.CFG, dt *DominatorTree, pdt *PostDominatorTree) {
	ha.cfg = cfg
	ha.dt = dt
	ha.pdt = pdt

	ha.Root.Entry = cfg.Entry
	ha.Root.Exit = cfg.Exit
	ha.Root.Children = nil

	for _, block := range cfg.Blocks {
		if block == cfg.Entry {
			continue
		}
		ha.Root.Children = append(ha.Root.Children, &Hammock{
			Parent: ha.Root,
			Entry:  block,
			Exit:   block,
		})
	}

	ha.splitHammock(ha.Root)
}

// expandHammock walks upward in the dominator tree from entry, stopping at
// the first block with >=2 successors; that candidate's post-dominator is
// accepted as the new exit iff it post-dominates the current exit. It
// bails out (returns false, unchanged) when entry has no immediate
// dominator, when that immediate dominator is the parent's exit, or when
// the climb beyond it steps onto the parent's entry or exit; an immediate
// dominator equal to the parent's entry is accepted if it has >=2
// successors.
func (ha *HammockAnalysis) expandHammock(entry, exit, parentEntry, parentExit *cfgraph.Block) (*cfgraph.Block, *cfgraph.Block, bool) {
	dominator, ok := ha.dt.GetDominator(entry)
	if !ok {
		return entry, exit, false
	}
	if dominator == entry || dominator == parentExit {
		return entry, exit, false
	}
	for len(dominator.Successors) < 2 {
		next, ok := ha.dt.GetDominator(dominator)
		if !ok {
			return entry, exit, false
		}
		dominator = next
		if dominator == parentEntry || dominator == parentExit {
			return entry, exit, false
		}
	}

	postDominator := ha.pdt.GetPostDominator(dominator)
	if !ha.pdt.Dominates(postDominator, exit) {
		return entry, exit, false
	}

	changed := entry != dominator || exit != postDominator
	return dominator, postDominator, changed
}

// blockToHammock is a reference-identity map from a candidate hammock's
// entry block to the candidate itself.
type blockToHammock = map[*cfgraph.Block]*Hammock

func removeChild(h *Hammock, child *Hammock) {
	for i, c := range h.Children {
		if c == child {
			h.Children = append(h.Children[:i:i], h.Children[i+1:]...)
			return
		}
	}
}

// createNewHammock expands a single candidate to a fixed point and, if that
// expansion produced a genuinely wider region, claims it: either by
// mutating the unvisited candidate whose entry the expansion landed on, or
// - when the expansion landed on a block that is not itself a candidate
// (the parent's own entry, typically) - by attaching a fresh hammock to
// the parent. Every other unvisited candidate the new region strictly
// contains is reparented under it and removed from unvisited.
func (ha *HammockAnalysis) createNewHammock(unvisited blockToHammock, hammock *Hammock) *Hammock {
	entry, exit := hammock.Entry, hammock.Exit
	parent := hammock.Parent

	// The expansion strictly ascends the dominator tree on every changed
	// step, so the fixed point is reached in at most tree-depth steps.
	for {
		newEntry, newExit, changed := ha.expandHammock(entry, exit, parent.Entry, parent.Exit)
		entry, exit = newEntry, newExit
		if !changed {
			break
		}
	}

	if entry == hammock.Entry {
		return hammock
	}
	// Guards against claiming a degenerate span; compares against
	// hammock.Exit, not hammock.Entry, since the entry side was already
	// handled above.
	if exit == hammock.Exit {
		return hammock
	}
	// An expansion that stabilized on the parent's own span adds nothing.
	if entry == parent.Entry && exit == parent.Exit {
		return hammock
	}

	newHammock, claimed := unvisited[entry]
	if claimed {
		delete(unvisited, entry)
	} else {
		newHammock = &Hammock{Parent: parent}
		parent.Children = append(parent.Children, newHammock)
	}
	newHammock.Entry = entry
	newHammock.Exit = exit

	// Snapshot the parent's children so reparenting may shrink the slice
	// mid-walk; only unvisited candidates are considered, in the
	// deterministic order the parent holds them.
	candidates := make([]*Hammock, len(parent.Children))
	copy(candidates, parent.Children)

	for _, v := range candidates {
		if existing, ok := unvisited[v.Entry]; !ok || existing != v {
			continue
		}
		if v.Entry == entry || v.Entry == exit {
			continue
		}
		if !ha.dt.Dominates(entry, v.Entry) {
			continue
		}
		if !ha.pdt.Dominates(exit, v.Exit) {
			continue
		}
		removeChild(parent, v)
		v.Parent = newHammock
		newHammock.Children = append(newHammock.Children, v)
		delete(unvisited, v.Entry)
	}

	return newHammock
}

// splitHammock recursively refines the children of a parent hammock,
// repeatedly expanding candidates until no candidate expands into a
// non-leaf region. Candidates are drawn from snapshots of the parent's
// children so claiming may delete unvisited entries mid-iteration.
func (ha *HammockAnalysis) splitHammock(hammock *Hammock) {
	unvisited := make(blockToHammock, len(hammock.Children))
	for _, child := range hammock.Children {
		unvisited[child.Entry] = child
	}

	changed := true
	for changed {
		changed = false
		snapshot := make([]*Hammock, len(hammock.Children))
		copy(snapshot, hammock.Children)

		for _, child := range snapshot {
			if existing, ok := unvisited[child.Entry]; !ok || existing != child {
				continue
			}
			newHammock := ha.createNewHammock(unvisited, child)
			if !newHammock.IsLeaf() {
				ha.splitHammock(newHammock)
				changed = true
				break
			}
		}
	}
}
