package analyzer

import (
	"github.com/go-cfgkit/cfgkit/internal/cfgraph"
	"github.com/go-cfgkit/cfgkit/internal/ir"
)

// BlocksWithBackwardBranches returns every block that is the head of a
// Branch-type back edge and whose last instruction is a branch terminator.
func BlocksWithBackwardBranches(ca *CycleAnalysis) cfgraph.BlockSet {
	set := cfgraph.NewBlockSet()
	for _, edge := range ca.BackEdges() {
		if edge.Type != cfgraph.EdgeBranch {
			continue
		}
		if _, ok := cfgraph.GetBranch(edge.Head); !ok {
			continue
		}
		set.Insert(edge.Head)
	}
	return set
}

// BlocksThatCanObserveSideEffects tabulates every instruction across blocks
// that can observe a side effect. The underlying flattening logic lives on
// cfgraph.Block since it is a pure function of block contents, not of this
// analysis's state.
func BlocksThatCanObserveSideEffects(blocks []*cfgraph.Block) []ir.Instruction {
	return cfgraph.BlocksThatCanObserveSideEffects(blocks)
}

// BlocksWithCallsToFunctionsThatObserveSideEffects tabulates every block
// containing a call to a function that observes side effects.
func BlocksWithCallsToFunctionsThatObserveSideEffects(blocks []*cfgraph.Block) cfgraph.BlockSet {
	return cfgraph.BlocksWithCallsToFunctionsThatObserveSideEffects(blocks)
}
