package loader

import "testing"

// diamondYAML is a reconverging branch in program-description form:
// blocks a, b, c plus the implicit entry/exit, edges entry->a, entry->b,
// a->c, b->c, c->exit.
const diamondYAML = `
blocks:
  - name: a
    instructions:
      - op: ld_int
        operand: 1
  - name: b
    instructions:
      - op: ld_int
        operand: 2
  - name: c
    instructions:
      - op: add
edges:
  - head: entry
    tail: a
    type: branch
  - head: entry
    tail: b
    type: branch
  - head: a
    tail: c
  - head: b
    tail: c
  - head: c
    tail: exit
`

func TestLoadDiamond(t *testing.T) {
	cfg, err := Load([]byte(diamondYAML))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Size() != 5 {
		t.Fatalf("expected 5 blocks (E, A, B, C, X), got %d", cfg.Size())
	}
	if len(cfg.Entry.Successors) != 2 {
		t.Errorf("expected entry to have 2 successors, got %d", len(cfg.Entry.Successors))
	}
	if len(cfg.Exit.Predecessors) != 1 {
		t.Errorf("expected exit to have 1 predecessor, got %d", len(cfg.Exit.Predecessors))
	}

	found := 0
	for _, blk := range cfg.Blocks {
		if blk == cfg.Entry || blk == cfg.Exit {
			continue
		}
		if len(blk.Instructions) == 1 {
			found++
		}
	}
	if found != 3 {
		t.Errorf("expected exactly 3 single-instruction blocks (a, b, c), got %d", found)
	}
}

func TestLoadRejectsDuplicateBlockName(t *testing.T) {
	data := []byte(`
blocks:
  - name: a
  - name: a
edges: []
`)
	if _, err := Load(data); err == nil {
		t.Fatal("expected an error for a duplicate block name")
	}
}

func TestLoadRejectsReservedBlockName(t *testing.T) {
	data := []byte(`
blocks:
  - name: entry
edges: []
`)
	if _, err := Load(data); err == nil {
		t.Fatal("expected an error for a block named 'entry'")
	}
}

func TestLoadRejectsUnknownEdgeEndpoint(t *testing.T) {
	data := []byte(`
blocks:
  - name: a
edges:
  - head: entry
    tail: nope
`)
	if _, err := Load(data); err == nil {
		t.Fatal("expected an error for an edge referencing an unknown block")
	}
}

func TestLoadRejectsUnknownOpcode(t *testing.T) {
	data := []byte(`
blocks:
  - name: a
    instructions:
      - op: not_a_real_opcode
edges: []
`)
	if _, err := Load(data); err == nil {
		t.Fatal("expected an error for an unknown opcode name")
	}
}
