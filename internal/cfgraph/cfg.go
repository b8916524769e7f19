package cfgraph

import "fmt"

// CFG owns the block list, edge list, and a monotonically increasing id
// allocator, plus two distinguished blocks - Entry and Exit - that are
// created empty at construction and remain present for the CFG's lifetime.
// The client connects Entry to real code and real exits to Exit.
//
// Mutation primitives (InsertBlock/InsertEdge/RemoveEdge/SplitEdge) assume
// well-formed input: an endpoint-missing or duplicate-edge condition is a
// programming error and panics rather than returning an error, treating
// CFG invariant violations as contract violations rather than recoverable
// errors.
type CFG struct {
	Blocks []*Block
	Edges  []*Edge
	Entry  *Block
	Exit   *Block

	nextID int
}

// New allocates a CFG with fresh, empty Entry and Exit blocks. Ids 0 and 1
// are reserved for the sentinels; the first client-allocated block receives
// id 2.
func New() *CFG {
	c := &CFG{nextID: 2}
	c.Entry = NewBlock(0)
	c.Exit = NewBlock(1)
	c.Blocks = []*Block{c.Entry, c.Exit}
	return c
}

// NewID returns the next free block id. No prior block in this CFG carries
// the returned id.
func (c *CFG) NewID() int {
	id := c.nextID
	c.nextID++
	return id
}

// Size returns the number of blocks in the CFG, including Entry and Exit.
func (c *CFG) Size() int {
	return len(c.Blocks)
}

// InsertBlock appends b to the CFG's block list and returns it unchanged.
func (c *CFG) InsertBlock(b *Block) *Block {
	c.Blocks = append(c.Blocks, b)
	return b
}

// InsertEdge requires both of e's endpoints to be set. It appends e to the
// CFG's edge list, pushes it onto e.Head's out-edges and e.Tail's in-edges,
// and records the derived successor/predecessor links.
func (c *CFG) InsertEdge(e *Edge) *Edge {
	if e.Head == nil || e.Tail == nil {
		panic("cfgraph: InsertEdge requires both endpoints to be set")
	}
	for _, existing := range e.Head.OutEdges {
		if existing == e {
			panic("cfgraph: InsertEdge: edge already inserted")
		}
	}
	c.Edges = append(c.Edges, e)
	e.Head.OutEdges = append(e.Head.OutEdges, e)
	e.Tail.InEdges = append(e.Tail.InEdges, e)
	e.Head.Successors = append(e.Head.Successors, e.Tail)
	e.Tail.Predecessors = append(e.Tail.Predecessors, e.Head)
	return e
}

func removeFirstEdge(edges []*Edge, e *Edge) ([]*Edge, bool) {
	for i, v := range edges {
		if v == e {
			return append(edges[:i:i], edges[i+1:]...), true
		}
	}
	return edges, false
}

func removeFirstBlock(blocks []*Block, b *Block) ([]*Block, bool) {
	for i, v := range blocks {
		if v == b {
			return append(blocks[:i:i], blocks[i+1:]...), true
		}
	}
	return blocks, false
}

// RemoveEdge removes the first occurrence of e (by identity) from the CFG's
// edge list and from each of the four adjacency locations it participates
// in. It panics if e is not present in all four locations - that is a
// programming error, not a runtime condition to recover from.
func (c *CFG) RemoveEdge(e *Edge) {
	var ok bool

	e.Head.OutEdges, ok = removeFirstEdge(e.Head.OutEdges, e)
	if !ok {
		panic("cfgraph: RemoveEdge: e not present in head.OutEdges")
	}
	e.Tail.InEdges, ok = removeFirstEdge(e.Tail.InEdges, e)
	if !ok {
		panic("cfgraph: RemoveEdge: e not present in tail.InEdges")
	}
	e.Head.Successors, ok = removeFirstBlock(e.Head.Successors, e.Tail)
	if !ok {
		panic("cfgraph: RemoveEdge: tail not present in head.Successors")
	}
	e.Tail.Predecessors, ok = removeFirstBlock(e.Tail.Predecessors, e.Head)
	if !ok {
		panic("cfgraph: RemoveEdge: head not present in tail.Predecessors")
	}
	c.Edges, ok = removeFirstEdge(c.Edges, e)
	if !ok {
		panic("cfgraph: RemoveEdge: e not present in cfg.Edges")
	}
}

// EdgePair is the (first, second) pair of edges produced by SplitEdge.
type EdgePair struct {
	First  *Edge
	Second *Edge
}

// SplitEdge removes e, inserts newBlock, and reconnects head->newBlock and
// newBlock->tail with two fresh edges carrying e's original type.
func (c *CFG) SplitEdge(e *Edge, newBlock *Block) EdgePair {
	head, tail, ty := e.Head, e.Tail, e.Type
	c.RemoveEdge(e)
	c.InsertBlock(newBlock)

	first := c.InsertEdge(NewEdge(head, newBlock, ty))
	second := c.InsertEdge(NewEdge(newBlock, tail, ty))
	return EdgePair{First: first, Second: second}
}

// containsBlock reports whether block appears in blocks.
func containsBlock(blocks []*Block, block *Block) bool {
	for _, b := range blocks {
		if b == block {
			return true
		}
	}
	return false
}

// walkOrder implements the shared shape of TopologicalSequence and
// ReverseTopologicalSequence: a readiness-gated BFS from seed, following
// `forward` for progress and `backward` as the completion predicate,
// restarting from an already-emitted block's unvisited forward-neighbor
// whenever the queue drains while blocks remain.
//
// The restart scan walks `sequence` (equivalent here to `visited`, since
// every visited block is pushed to `sequence` before its neighbors are
// considered) and the readiness predicate is a plain "every
// backward-neighbor already visited" check.
func walkOrder(size int, seed *Block, forward func(*Block) []*Block, backward func(*Block) []*Block) []*Block {
	visited := NewBlockSet()
	sequence := make([]*Block, 0, size)
	queue := []*Block{seed}

	for len(sequence) != size {
		if len(queue) == 0 {
			restarted := false
			for _, block := range sequence {
				for _, next := range forward(block) {
					if !visited.Contains(next) {
						queue = append(queue, next)
						restarted = true
						break
					}
				}
				if restarted {
					break
				}
			}
			if !restarted {
				break
			}
		}

		current := queue[0]
		queue = queue[1:]
		if !visited.Insert(current) {
			continue
		}
		sequence = append(sequence, current)

		for _, next := range forward(current) {
			ready := true
			for _, dep := range backward(next) {
				if !visited.Contains(dep) {
					ready = false
					break
				}
			}
			if ready && !containsBlock(queue, next) {
				queue = append(queue, next)
			}
		}
	}
	return sequence
}

// TopologicalSequence returns a reverse-post-order traversal from Entry,
// using predecessor-completion as the readiness condition. The returned
// sequence contains every block reachable from Entry; unreachable blocks
// are omitted. It is deterministic given the insertion order of edges.
func (c *CFG) TopologicalSequence() []*Block {
	return walkOrder(c.Size(), c.Entry,
		func(b *Block) []*Block { return b.Successors },
		func(b *Block) []*Block { return b.Predecessors },
	)
}

// ReverseTopologicalSequence returns the symmetric traversal rooted at Exit,
// following predecessor links - the node order the post-dominator analysis
// consumes.
//
// Rooted at Exit rather than Entry, since post-dominance is defined over
// paths to Exit.
func (c *CFG) ReverseTopologicalSequence() []*Block {
	return walkOrder(c.Size(), c.Exit,
		func(b *Block) []*Block { return b.Predecessors },
		func(b *Block) []*Block { return b.Successors },
	)
}

func (c *CFG) String() string {
	return fmt.Sprintf("CFG{blocks=%d, edges=%d}", len(c.Blocks), len(c.Edges))
}
