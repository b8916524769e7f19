package analyzer

import (
	"testing"

	"github.com/go-cfgkit/cfgkit/internal/cfgraph"
)

// buildDiamond builds the reconverging branch: blocks {E, A, B, C, X},
// edges E->A, E->B, A->C, B->C, C->X.
func buildDiamond() (cfg *cfgraph.CFG, a, b, c *cfgraph.Block) {
	cfg = cfgraph.New()
	a = cfg.InsertBlock(cfgraph.NewBlock(cfg.NewID()))
	b = cfg.InsertBlock(cfgraph.NewBlock(cfg.NewID()))
	c = cfg.InsertBlock(cfgraph.NewBlock(cfg.NewID()))

	cfg.InsertEdge(cfgraph.NewEdge(cfg.Entry, a, cfgraph.EdgeBranch))
	cfg.InsertEdge(cfgraph.NewEdge(cfg.Entry, b, cfgraph.EdgeBranch))
	cfg.InsertEdge(cfgraph.NewEdge(a, c, cfgraph.EdgeFallThrough))
	cfg.InsertEdge(cfgraph.NewEdge(b, c, cfgraph.EdgeFallThrough))
	cfg.InsertEdge(cfgraph.NewEdge(c, cfg.Exit, cfgraph.EdgeFallThrough))
	return cfg, a, b, c
}

// buildSimpleLoop builds a single natural loop: blocks {E, H, B, X},
// edges E->H, H->B, B->H, H->X.
func buildSimpleLoop() (cfg *cfgraph.CFG, h, b *cfgraph.Block) {
	cfg = cfgraph.New()
	h = cfg.InsertBlock(cfgraph.NewBlock(cfg.NewID()))
	b = cfg.InsertBlock(cfgraph.NewBlock(cfg.NewID()))

	cfg.InsertEdge(cfgraph.NewEdge(cfg.Entry, h, cfgraph.EdgeFallThrough))
	cfg.InsertEdge(cfgraph.NewEdge(h, b, cfgraph.EdgeBranch))
	cfg.InsertEdge(cfgraph.NewEdge(b, h, cfgraph.EdgeBranch))
	cfg.InsertEdge(cfgraph.NewEdge(h, cfg.Exit, cfgraph.EdgeBranch))
	return cfg, h, b
}

// buildNestedLoop builds two nested natural loops: blocks {E, H1, H2, B2,
// B1, X}, edges E->H1, H1->H2, H2->B2, B2->H2, H2->B1, B1->H1, H1->X.
func buildNestedLoop() (cfg *cfgraph.CFG, h1, h2, b2, b1 *cfgraph.Block) {
	cfg = cfgraph.New()
	h1 = cfg.InsertBlock(cfgraph.NewBlock(cfg.NewID()))
	h2 = cfg.InsertBlock(cfgraph.NewBlock(cfg.NewID()))
	b2 = cfg.InsertBlock(cfgraph.NewBlock(cfg.NewID()))
	b1 = cfg.InsertBlock(cfgraph.NewBlock(cfg.NewID()))

	cfg.InsertEdge(cfgraph.NewEdge(cfg.Entry, h1, cfgraph.EdgeFallThrough))
	cfg.InsertEdge(cfgraph.NewEdge(h1, h2, cfgraph.EdgeBranch))
	cfg.InsertEdge(cfgraph.NewEdge(h2, b2, cfgraph.EdgeBranch))
	cfg.InsertEdge(cfgraph.NewEdge(b2, h2, cfgraph.EdgeBranch))
	cfg.InsertEdge(cfgraph.NewEdge(h2, b1, cfgraph.EdgeBranch))
	cfg.InsertEdge(cfgraph.NewEdge(b1, h1, cfgraph.EdgeBranch))
	cfg.InsertEdge(cfgraph.NewEdge(h1, cfg.Exit, cfgraph.EdgeBranch))
	return cfg, h1, h2, b2, b1
}

func TestDiamondDominance(t *testing.T) {
	cfg, a, _, c := buildDiamond()

	dt := NewDominatorTree()
	dt.Analyze(cfg)

	dom, ok := dt.GetDominator(c)
	if !ok || dom != cfg.Entry {
		t.Errorf("get_dominator(C) = E expected, got %v (ok=%v)", dom, ok)
	}

	domA, ok := dt.GetDominator(a)
	if !ok || domA != cfg.Entry {
		t.Errorf("get_dominator(A) = E expected, got %v (ok=%v)", domA, ok)
	}

	pdt := NewPostDominatorTree()
	pdt.Analyze(cfg)

	pdomA := pdt.GetPostDominator(a)
	if pdomA != c {
		t.Errorf("get_post_dominator(A) = C expected, got %v", pdomA)
	}

	ca := NewCycleAnalysis()
	ca.Analyze(cfg)
	if len(ca.BackEdges()) != 0 {
		t.Errorf("expected no back edges in a diamond, got %d", len(ca.BackEdges()))
	}
}

func TestSimpleLoopBackEdge(t *testing.T) {
	cfg, h, b := buildSimpleLoop()

	ca := NewCycleAnalysis()
	ca.Analyze(cfg)

	found := false
	for _, e := range ca.BackEdges() {
		if e.Head == b && e.Tail == h {
			found = true
		}
	}
	if !found {
		t.Error("expected B->H to be identified as a back edge")
	}
	if len(ca.BackEdges()) != 1 {
		t.Errorf("expected exactly one back edge, got %d", len(ca.BackEdges()))
	}

	dt := NewDominatorTree()
	dt.Analyze(cfg)
	if !dt.Dominates(h, b) {
		t.Error("expected dominates(H, B) = true")
	}

	pdt := NewPostDominatorTree()
	pdt.Analyze(cfg)
	if pdt.GetPostDominator(h) != cfg.Exit {
		t.Errorf("expected get_post_dominator(H) = X, got %v", pdt.GetPostDominator(h))
	}
}

func TestNestedLoopBackEdgesAndDominance(t *testing.T) {
	cfg, h1, h2, b2, b1 := buildNestedLoop()

	ca := NewCycleAnalysis()
	ca.Analyze(cfg)
	if len(ca.BackEdges()) != 2 {
		t.Fatalf("expected 2 back edges, got %d", len(ca.BackEdges()))
	}

	hasEdge := func(head, tail *cfgraph.Block) bool {
		for _, e := range ca.BackEdges() {
			if e.Head == head && e.Tail == tail {
				return true
			}
		}
		return false
	}
	if !hasEdge(b2, h2) {
		t.Error("expected B2->H2 to be a back edge")
	}
	if !hasEdge(b1, h1) {
		t.Error("expected B1->H1 to be a back edge")
	}

	dt := NewDominatorTree()
	dt.Analyze(cfg)
	if !dt.Dominates(h1, h2) {
		t.Error("expected dominates(H1, H2) = true")
	}
	if dt.Dominates(h2, h1) {
		t.Error("expected dominates(H2, H1) = false")
	}
}

func TestSplitEdgeThenRedominate(t *testing.T) {
	cfg, a, _, c := buildDiamond()

	var aToC *cfgraph.Edge
	for _, e := range cfg.Edges {
		if e.Head == a && e.Tail == c {
			aToC = e
		}
	}
	m := cfgraph.NewBlock(cfg.NewID())
	cfg.SplitEdge(aToC, m)

	dt := NewDominatorTree()
	dt.Analyze(cfg)

	dom, ok := dt.GetDominator(m)
	if !ok || dom != a {
		t.Errorf("expected get_dominator(M) = A after split, got %v (ok=%v)", dom, ok)
	}
}

// On the diamond, root (E, X) gains a single non-leaf child (E, C)
// covering {E, A, B, C}; A and B become leaves under (E, C); X stays a
// leaf under root.
func TestHammockOnDiamond(t *testing.T) {
	cfg, a, b, c := buildDiamond()

	dt := NewDominatorTree()
	dt.Analyze(cfg)
	pdt := NewPostDominatorTree()
	pdt.Analyze(cfg)

	ha := NewHammockAnalysis()
	ha.Analyze(cfg, dt, pdt)

	root := ha.Root
	if root.Entry != cfg.Entry || root.Exit != cfg.Exit {
		t.Fatalf("expected root hammock (E, X), got (%v, %v)", root.Entry, root.Exit)
	}

	var innerHammock *Hammock
	var xLeaf *Hammock
	for _, child := range root.Children {
		if child.Entry == cfg.Entry && child.Exit == c {
			innerHammock = child
		}
		if child.IsLeaf() && child.Entry == cfg.Exit {
			xLeaf = child
		}
	}

	if innerHammock == nil {
		t.Fatal("expected a non-leaf child hammock (E, C)")
	}
	if xLeaf == nil {
		t.Error("expected X to appear as a leaf under root")
	}

	var aLeaf, bLeaf bool
	for _, child := range innerHammock.Children {
		if child.IsLeaf() && child.Entry == a {
			aLeaf = true
		}
		if child.IsLeaf() && child.Entry == b {
			bLeaf = true
		}
	}
	if !aLeaf || !bLeaf {
		t.Errorf("expected A and B as leaves under (E, C), children=%v", innerHammock.Children)
	}
}

func TestQueryingUnknownBlockPanics(t *testing.T) {
	cfg, _, _, _ := buildDiamond()

	dt := NewDominatorTree()
	dt.Analyze(cfg)
	pdt := NewPostDominatorTree()
	pdt.Analyze(cfg)

	stranger := cfgraph.NewBlock(99)

	assertPanics := func(name string, f func()) {
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected a panic for a block outside the analyzed order", name)
			}
		}()
		f()
	}

	assertPanics("DominatorTree.GetDominator", func() { dt.GetDominator(stranger) })
	assertPanics("DominatorTree.Dominates", func() { dt.Dominates(cfg.Entry, stranger) })
	assertPanics("PostDominatorTree.GetPostDominator", func() { pdt.GetPostDominator(stranger) })
}

func TestDominanceIsReflexive(t *testing.T) {
	cfg, _, _, _ := buildDiamond()

	dt := NewDominatorTree()
	dt.Analyze(cfg)
	pdt := NewPostDominatorTree()
	pdt.Analyze(cfg)

	for _, b := range cfg.Blocks {
		if !dt.Dominates(b, b) {
			t.Errorf("expected dominates(%v, %v) = true", b, b)
		}
		if !pdt.Dominates(b, b) {
			t.Errorf("expected post-dominates(%v, %v) = true", b, b)
		}
	}
}

func TestGetCommonDominator(t *testing.T) {
	cfg, a, b, c := buildDiamond()

	dt := NewDominatorTree()
	dt.Analyze(cfg)

	if got := dt.GetCommonDominator(a, b); got != cfg.Entry {
		t.Errorf("expected common dominator of A, B to be E, got %v", got)
	}
	if got := dt.GetCommonDominator(a, c); got != cfg.Entry {
		t.Errorf("expected common dominator of A, C to be E, got %v", got)
	}
}

func TestGetDominatedBlocks(t *testing.T) {
	cfg, a, b, c := buildDiamond()

	dt := NewDominatorTree()
	dt.Analyze(cfg)

	children := dt.GetDominatedBlocks(cfg.Entry)
	want := map[*cfgraph.Block]bool{a: true, b: true, c: true}
	if len(children) != 3 {
		t.Fatalf("expected E to immediately dominate 3 blocks, got %d", len(children))
	}
	for _, child := range children {
		if !want[child] {
			t.Errorf("unexpected dominator-tree child of E: %v", child)
		}
	}
}

func TestSelfLoopIsBackEdge(t *testing.T) {
	cfg := cfgraph.New()
	s := cfg.InsertBlock(cfgraph.NewBlock(cfg.NewID()))
	cfg.InsertEdge(cfgraph.NewEdge(cfg.Entry, s, cfgraph.EdgeFallThrough))
	loop := cfg.InsertEdge(cfgraph.NewEdge(s, s, cfgraph.EdgeBranch))
	cfg.InsertEdge(cfgraph.NewEdge(s, cfg.Exit, cfgraph.EdgeBranch))

	ca := NewCycleAnalysis()
	ca.Analyze(cfg)

	if !ca.IsBackEdge(loop) {
		t.Error("expected the self-loop S->S to be a back edge")
	}
	if len(ca.BackEdges()) != 1 {
		t.Errorf("expected exactly one back edge, got %d", len(ca.BackEdges()))
	}
}

// On the simple loop, the body's hammock expands up to the loop header and
// down to the CFG exit: root (E, X) gains a non-leaf child (H, X) with B as
// its only leaf; X stays a leaf under root since nothing strictly
// post-dominates it.
func TestHammockOnSimpleLoop(t *testing.T) {
	cfg, h, b := buildSimpleLoop()

	dt := NewDominatorTree()
	dt.Analyze(cfg)
	pdt := NewPostDominatorTree()
	pdt.Analyze(cfg)

	ha := NewHammockAnalysis()
	ha.Analyze(cfg, dt, pdt)

	var loopRegion *Hammock
	for _, child := range ha.Root.Children {
		if child.Entry == h && child.Exit == cfg.Exit {
			loopRegion = child
		}
	}
	if loopRegion == nil {
		t.Fatal("expected a non-leaf hammock (H, X) under root")
	}
	if loopRegion.IsLeaf() {
		t.Fatal("expected (H, X) to be a non-leaf region")
	}
	if len(loopRegion.Children) != 1 || loopRegion.Children[0].Entry != b || !loopRegion.Children[0].IsLeaf() {
		t.Errorf("expected B as the only leaf under (H, X), got %v", loopRegion.Children)
	}
}

// Every non-leaf hammock's entry must dominate the entry, and its exit
// post-dominate the exit, of every hammock nested beneath it.
func TestHammockContainment(t *testing.T) {
	cfg, _, _, _, _ := buildNestedLoop()

	dt := NewDominatorTree()
	dt.Analyze(cfg)
	pdt := NewPostDominatorTree()
	pdt.Analyze(cfg)

	ha := NewHammockAnalysis()
	ha.Analyze(cfg, dt, pdt)

	var check func(h *Hammock)
	check = func(h *Hammock) {
		for _, child := range h.Children {
			if !dt.Dominates(h.Entry, child.Entry) {
				t.Errorf("hammock (%v, %v): entry does not dominate child entry %v", h.Entry, h.Exit, child.Entry)
			}
			if !pdt.Dominates(h.Exit, child.Exit) {
				t.Errorf("hammock (%v, %v): exit does not post-dominate child exit %v", h.Entry, h.Exit, child.Exit)
			}
			if child.Parent != h {
				t.Errorf("child (%v, %v) has stale parent pointer", child.Entry, child.Exit)
			}
			check(child)
		}
	}
	check(ha.Root)
}

// On the diamond, Frontier(E) holds the runner blocks walked between each
// of E's successors and E's post-dominator (C): {A, B}. Neither E itself
// nor C appears - under the alternative convention that records the join
// block instead, this set would be {C}; computeFrontiers deliberately
// follows the runner-block indexing (see DESIGN.md on the frontier
// indexing choice), and this test pins that down.
func TestPostDominanceFrontierOnDiamond(t *testing.T) {
	cfg, a, b, _ := buildDiamond()

	pdt := NewPostDominatorTree()
	pdt.Analyze(cfg)

	frontier := pdt.Frontier(cfg.Entry)
	if len(frontier) != 2 {
		t.Fatalf("expected 2 blocks in E's frontier, got %d: %v", len(frontier), frontier)
	}

	var hasA, hasB bool
	for _, block := range frontier {
		if block == a {
			hasA = true
		}
		if block == b {
			hasB = true
		}
	}
	if !hasA || !hasB {
		t.Errorf("expected frontier(E) = {A, B}, got %v", frontier)
	}
}
