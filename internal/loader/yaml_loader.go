// Package loader builds a cfgraph.CFG from a human-authored YAML program
// description. Bytecode parsing of a real instruction stream is out of
// scope; this is the minimal client needed to exercise the analyses end
// to end, using the same structured unmarshal-then-validate pipeline as
// the rest of this module's file loaders.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/go-cfgkit/cfgkit/internal/cfgraph"
	"github.com/go-cfgkit/cfgkit/internal/ir"
)

// Program is the YAML document shape: a flat block list plus an edge list
// connecting them by symbolic name. "entry" and "exit" are reserved names
// referring to the CFG's sentinel blocks; every other name must appear
// exactly once in Blocks.
type Program struct {
	Blocks []BlockDesc `yaml:"blocks"`
	Edges  []EdgeDesc  `yaml:"edges"`
}

// BlockDesc describes one non-sentinel block.
type BlockDesc struct {
	Name         string            `yaml:"name"`
	Label        string            `yaml:"label"`
	Instructions []InstructionDesc `yaml:"instructions"`
}

// InstructionDesc describes one instruction by opcode name.
type InstructionDesc struct {
	Op      string `yaml:"op"`
	Operand int64  `yaml:"operand"`
}

// EdgeDesc describes one edge by the symbolic names of its endpoints.
type EdgeDesc struct {
	Head string `yaml:"head"`
	Tail string `yaml:"tail"`
	Type string `yaml:"type"`
}

const (
	entryName = "entry"
	exitName  = "exit"
)

// LoadFile reads and parses a YAML program description from path.
func LoadFile(path string) (*cfgraph.CFG, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: reading %s: %w", path, err)
	}
	return Load(data)
}

// Load parses a YAML program description and builds the corresponding CFG.
func Load(data []byte) (*cfgraph.CFG, error) {
	var prog Program
	if err := yaml.Unmarshal(data, &prog); err != nil {
		return nil, fmt.Errorf("loader: parsing yaml: %w", err)
	}
	return Build(&prog)
}

// Build constructs a cfgraph.CFG from an already-parsed Program.
func Build(prog *Program) (*cfgraph.CFG, error) {
	cfg := cfgraph.New()

	blocksByName := map[string]*cfgraph.Block{
		entryName: cfg.Entry,
		exitName:  cfg.Exit,
	}

	for _, bd := range prog.Blocks {
		if bd.Name == "" {
			return nil, fmt.Errorf("loader: block with no name")
		}
		if bd.Name == entryName || bd.Name == exitName {
			return nil, fmt.Errorf("loader: block name %q is reserved", bd.Name)
		}
		if _, exists := blocksByName[bd.Name]; exists {
			return nil, fmt.Errorf("loader: duplicate block name %q", bd.Name)
		}

		block := cfgraph.NewBlock(cfg.NewID())
		block.Label = bd.Label
		if block.Label == "" {
			block.Label = bd.Name
		}

		for _, id := range bd.Instructions {
			instr, err := buildInstruction(id)
			if err != nil {
				return nil, fmt.Errorf("loader: block %q: %w", bd.Name, err)
			}
			block.AddInstruction(instr)
		}

		cfg.InsertBlock(block)
		blocksByName[bd.Name] = block
	}

	for i, ed := range prog.Edges {
		head, ok := blocksByName[ed.Head]
		if !ok {
			return nil, fmt.Errorf("loader: edge[%d]: unknown head block %q", i, ed.Head)
		}
		tail, ok := blocksByName[ed.Tail]
		if !ok {
			return nil, fmt.Errorf("loader: edge[%d]: unknown tail block %q", i, ed.Tail)
		}
		ty, err := edgeType(ed.Type)
		if err != nil {
			return nil, fmt.Errorf("loader: edge[%d]: %w", i, err)
		}
		cfg.InsertEdge(cfgraph.NewEdge(head, tail, ty))
	}

	return cfg, nil
}

func edgeType(s string) (cfgraph.EdgeType, error) {
	switch s {
	case "", "fallthrough":
		return cfgraph.EdgeFallThrough, nil
	case "branch":
		return cfgraph.EdgeBranch, nil
	case "dummy":
		return cfgraph.EdgeDummy, nil
	default:
		return cfgraph.EdgeInvalid, fmt.Errorf("unknown edge type %q", s)
	}
}

var opcodesByName = map[string]ir.Opcode{
	"ld_int":       ir.OpLdInt,
	"ld_float":     ir.OpLdFloat,
	"ld_global":    ir.OpLdGlobal,
	"ld_local":     ir.OpLdLocal,
	"ld_env":       ir.OpLdEnv,
	"ld_static":    ir.OpLdStatic,
	"ld_field":     ir.OpLdField,
	"st_local":     ir.OpStLocal,
	"st_env":       ir.OpStEnv,
	"st_static":    ir.OpStStatic,
	"st_field":     ir.OpStField,
	"tail_call":    ir.OpTailCall,
	"call":         ir.OpCall,
	"thread_yield": ir.OpThreadYield,
	"jmp":          ir.OpJmp,
	"jmpz":         ir.OpJmpZ,
	"jmpnz":        ir.OpJmpNz,
	"add":          ir.OpAdd,
	"sub":          ir.OpSub,
	"div":          ir.OpDiv,
	"mul":          ir.OpMul,
	"mod":          ir.OpMod,
	"shr":          ir.OpShr,
	"shl":          ir.OpShl,
	"pop":          ir.OpPop,
	"dup":          ir.OpDup,
}

func buildInstruction(id InstructionDesc) (ir.Instruction, error) {
	op, ok := opcodesByName[id.Op]
	if !ok {
		return ir.Instruction{}, fmt.Errorf("unknown opcode %q", id.Op)
	}
	return ir.NewWithOperand(op, id.Operand), nil
}
