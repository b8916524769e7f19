// Package ir models the opaque instruction set consumed by the CFG analyses.
//
// The analyses never interpret operands; they only ask two questions of an
// instruction (can it observe side-effecting state, and is it a branch
// terminator) plus whether it is a Call or TailCall. Everything else -
// arithmetic, stack shuffling, constant loads, yields - passes through
// untouched.
package ir

import "fmt"

// Opcode tags an Instruction's shape. The zero value is OpLdInt; the
// constructors New and NewWithOperand always take an explicit opcode.
type Opcode int

const (
	OpLdInt Opcode = iota
	OpLdFloat
	OpLdGlobal
	OpLdLocal
	OpLdEnv
	OpLdStatic
	OpLdField
	OpStLocal
	OpStEnv
	OpStStatic
	OpStField
	OpTailCall
	OpCall
	OpThreadYield
	OpJmp
	OpJmpZ
	OpJmpNz
	OpAdd
	OpSub
	OpDiv
	OpMul
	OpMod
	OpShr
	OpShl
	OpPop
	OpDup
)

var opcodeNames = map[Opcode]string{
	OpLdInt:       "LdInt",
	OpLdFloat:     "LdFloat",
	OpLdGlobal:    "LdGlobal",
	OpLdLocal:     "LdLocal",
	OpLdEnv:       "LdEnv",
	OpLdStatic:    "LdStatic",
	OpLdField:     "LdField",
	OpStLocal:     "StLocal",
	OpStEnv:       "StEnv",
	OpStStatic:    "StStatic",
	OpStField:     "StField",
	OpTailCall:    "TailCall",
	OpCall:        "Call",
	OpThreadYield: "ThreadYield",
	OpJmp:         "Jmp",
	OpJmpZ:        "JmpZ",
	OpJmpNz:       "JmpNz",
	OpAdd:         "Add",
	OpSub:         "Sub",
	OpDiv:         "Div",
	OpMul:         "Mul",
	OpMod:         "Mod",
	OpShr:         "Shr",
	OpShl:         "Shl",
	OpPop:         "Pop",
	OpDup:         "Dup",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// Instruction is a single tagged-variant bytecode instruction. Operand is
// unused by opcodes that don't carry one (e.g. Add, Dup); it is the one
// argument every one-operand opcode needs (jump target, local/global
// slot, call arity), which keeps Instruction a flat, comparable value
// instead of forcing per-opcode structs.
type Instruction struct {
	Op      Opcode
	Operand int64
}

// New builds an Instruction with no operand (arithmetic, stack ops, yield).
func New(op Opcode) Instruction {
	return Instruction{Op: op}
}

// NewWithOperand builds an Instruction carrying a single operand (jump
// targets, local/global/env/static slots, call arity).
func NewWithOperand(op Opcode, operand int64) Instruction {
	return Instruction{Op: op, Operand: operand}
}

// CanObserveSideEffects reports whether i loads or stores local,
// environment, static, global, or field state.
func (i Instruction) CanObserveSideEffects() bool {
	switch i.Op {
	case OpStEnv, OpStField, OpStLocal, OpStStatic,
		OpLdEnv, OpLdField, OpLdGlobal, OpLdLocal, OpLdStatic:
		return true
	default:
		return false
	}
}

// IsBranchTerminator reports whether i is an unconditional or conditional
// jump - the only instructions legal as a block's final instruction when
// the block has more than one successor.
func (i Instruction) IsBranchTerminator() bool {
	switch i.Op {
	case OpJmp, OpJmpZ, OpJmpNz:
		return true
	default:
		return false
	}
}

// IsCall reports whether i is a Call or TailCall, the two opcodes the
// safe-region analysis treats as potential side-effecting calls.
func (i Instruction) IsCall() bool {
	return i.Op == OpCall || i.Op == OpTailCall
}

func (i Instruction) String() string {
	switch i.Op {
	case OpAdd, OpSub, OpDiv, OpMul, OpMod, OpShr, OpShl, OpDup, OpThreadYield,
		OpLdField, OpStField:
		return i.Op.String()
	default:
		return fmt.Sprintf("%s(%d)", i.Op, i.Operand)
	}
}
