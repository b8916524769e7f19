// Package cfgraph implements the block/edge/CFG data model: reference-identity
// nodes with dual adjacency (an owned edge list plus derived neighbor lists),
// kept mutually consistent by the CFG's mutation primitives.
package cfgraph

import (
	"fmt"

	"github.com/go-cfgkit/cfgkit/internal/ir"
)

// Block is a maximal straight-line instruction sequence: a CFG node.
// Block identity is reference-based - two *Block values are equal iff they
// are the same allocation - so Block is always handled through a pointer
// and never copied.
type Block struct {
	// ID is a stable integer, unique within the owning CFG.
	ID int

	// Instructions is the block's straight-line instruction sequence. The
	// last instruction, if any, may be a branch terminator.
	Instructions []ir.Instruction

	// Children is used only for structural hashing/equality (e.g. a
	// client deduplicating semantically identical blocks); the analyses
	// never read it.
	Children []*Block

	InEdges      []*Edge
	OutEdges     []*Edge
	Predecessors []*Block
	Successors   []*Block

	// Label is a human-readable name, purely cosmetic.
	Label string
}

// NewBlock allocates an empty block with the given id.
func NewBlock(id int) *Block {
	return &Block{ID: id}
}

// AddInstruction appends an instruction to the block.
func (b *Block) AddInstruction(i ir.Instruction) {
	b.Instructions = append(b.Instructions, i)
}

// IsLeaf reports whether the block has no structural children.
func (b *Block) IsLeaf() bool {
	return len(b.Children) == 0
}

// IsEmpty reports whether the block carries no instructions.
func (b *Block) IsEmpty() bool {
	return len(b.Instructions) == 0
}

// GetBranch returns the block's last instruction iff it is a branch
// terminator; otherwise it returns the zero Instruction and false.
func GetBranch(b *Block) (ir.Instruction, bool) {
	if len(b.Instructions) == 0 {
		return ir.Instruction{}, false
	}
	last := b.Instructions[len(b.Instructions)-1]
	if last.IsBranchTerminator() {
		return last, true
	}
	return ir.Instruction{}, false
}

func (b *Block) String() string {
	label := b.Label
	if label == "" {
		label = fmt.Sprintf("bb%d", b.ID)
	}
	return fmt.Sprintf("[%s: %d instrs]", label, len(b.Instructions))
}

// StructuralHash computes a hash over instructions and children, recursively.
// It is distinct from (and must never be conflated with) the identity used
// by the analyses' block-to-index maps: two structurally-equal-but-distinct
// blocks must not collide there.
func (b *Block) StructuralHash() uint64 {
	var h uint64 = 1469598103934665603 // FNV-1a offset basis
	const prime uint64 = 1099511628211

	mix := func(v uint64) {
		h ^= v
		h *= prime
	}

	for _, instr := range b.Instructions {
		mix(uint64(instr.Op))
		mix(uint64(instr.Operand))
	}
	for _, child := range b.Children {
		mix(child.StructuralHash())
	}
	mix(uint64(len(b.Children)))
	return h
}

// BlockSet is a reference-identity set of blocks, keyed by pointer.
type BlockSet map[*Block]struct{}

// NewBlockSet builds an empty BlockSet.
func NewBlockSet() BlockSet {
	return make(BlockSet)
}

// Insert adds b to the set, reporting whether it was newly inserted.
func (s BlockSet) Insert(b *Block) bool {
	if _, ok := s[b]; ok {
		return false
	}
	s[b] = struct{}{}
	return true
}

// Contains reports whether b is a member of the set.
func (s BlockSet) Contains(b *Block) bool {
	_, ok := s[b]
	return ok
}

// BlocksThatCanObserveSideEffects flattens every instruction across blocks
// that satisfies Instruction.CanObserveSideEffects.
func BlocksThatCanObserveSideEffects(blocks []*Block) []ir.Instruction {
	var instructions []ir.Instruction
	for _, block := range blocks {
		for _, instr := range block.Instructions {
			if instr.CanObserveSideEffects() {
				instructions = append(instructions, instr)
			}
		}
	}
	return instructions
}

// BlocksWithCallsToFunctionsThatObserveSideEffects returns the set of blocks
// containing a Call or TailCall instruction.
func BlocksWithCallsToFunctionsThatObserveSideEffects(blocks []*Block) BlockSet {
	set := NewBlockSet()
	for _, block := range blocks {
		for _, instr := range block.Instructions {
			if instr.IsCall() {
				set.Insert(block)
				break
			}
		}
	}
	return set
}
