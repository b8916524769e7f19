// Package analyzer implements the CFG analyses built on top of cfgraph:
// back-edge detection, forward/post dominance, hammock decomposition, and
// safe-region tabulation.
package analyzer

import "github.com/go-cfgkit/cfgkit/internal/cfgraph"

// CycleAnalysis identifies back edges - edges (u->v) where v dominates u,
// equivalently the closing edge of a natural loop - by a DFS from the CFG's
// entry block.
type CycleAnalysis struct {
	backEdges   []*cfgraph.Edge
	backEdgeSet map[*cfgraph.Edge]struct{}
}

// NewCycleAnalysis builds an empty, unanalyzed CycleAnalysis.
func NewCycleAnalysis() *CycleAnalysis {
	return &CycleAnalysis{backEdgeSet: make(map[*cfgraph.Edge]struct{})}
}

// Analyze runs a DFS over cfg from its entry block, classifying an edge as
// a back edge iff it targets a block still on the active DFS path (the
// classical white/gray/black coloring), rather than merely "already
// visited". Self-loops count as back edges.
//
// Tracking only a single ever-visited set and recording a back edge
// whenever an edge's tail was already in it would misclassify a plain
// reconvergence (two branches rejoining at a later block, with no loop
// at all) as a back edge the moment the second branch is explored - for
// example a diamond A->B, A->C, B->D, C->D, where the naive check
// reports B->D or C->D as a back edge depending on traversal order, even
// though the diamond has no cycle. Tracking the active path (onPath
// below) separately from the completed set (done) avoids this while
// keeping the same DFS shape.
func (ca *CycleAnalysis) Analyze(cfg *cfgraph.CFG) {
	ca.backEdges = nil
	ca.backEdgeSet = make(map[*cfgraph.Edge]struct{})

	done := cfgraph.NewBlockSet()
	onPath := cfgraph.NewBlockSet()

	type frame struct {
		block   *cfgraph.Block
		edgeIdx int
	}

	stack := []frame{{block: cfg.Entry}}
	onPath.Insert(cfg.Entry)

	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if top.edgeIdx >= len(top.block.OutEdges) {
			delete(onPath, top.block)
			done.Insert(top.block)
			stack = stack[:len(stack)-1]
			continue
		}

		edge := top.block.OutEdges[top.edgeIdx]
		top.edgeIdx++

		if onPath.Contains(edge.Tail) {
			ca.recordBackEdge(edge)
			continue
		}
		if done.Contains(edge.Tail) {
			continue
		}

		onPath.Insert(edge.Tail)
		stack = append(stack, frame{block: edge.Tail})
	}
}

func (ca *CycleAnalysis) recordBackEdge(e *cfgraph.Edge) {
	if _, ok := ca.backEdgeSet[e]; ok {
		return
	}
	ca.backEdgeSet[e] = struct{}{}
	ca.backEdges = append(ca.backEdges, e)
}

// BackEdges returns every edge identified as a back edge.
func (ca *CycleAnalysis) BackEdges() []*cfgraph.Edge {
	return ca.backEdges
}

// IsBackEdge reports whether e was identified as a back edge.
func (ca *CycleAnalysis) IsBackEdge(e *cfgraph.Edge) bool {
	_, ok := ca.backEdgeSet[e]
	return ok
}
