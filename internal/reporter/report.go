// Package reporter formats analyzer results into a serializable report,
// supporting JSON, YAML, and indented text output.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/go-cfgkit/cfgkit/internal/analyzer"
	"github.com/go-cfgkit/cfgkit/internal/cfgraph"
	"github.com/go-cfgkit/cfgkit/internal/config"
)

// EdgeRef names an edge by the string form of its endpoints, for
// serialization (the analyses themselves key everything by pointer
// identity, which doesn't survive a round trip through JSON/YAML).
type EdgeRef struct {
	Head string `json:"head" yaml:"head"`
	Tail string `json:"tail" yaml:"tail"`
}

// CycleReport is the serializable form of a CycleAnalysis.
type CycleReport struct {
	BackEdges []EdgeRef `json:"back_edges" yaml:"back_edges"`
}

// DominanceEntry names one block's immediate dominator (or post-dominator).
type DominanceEntry struct {
	Block     string `json:"block" yaml:"block"`
	Dominator string `json:"dominator" yaml:"dominator"`
}

// DominatorReport is the serializable form of a DominatorTree.
type DominatorReport struct {
	ImmediateDominators []DominanceEntry `json:"immediate_dominators" yaml:"immediate_dominators"`
}

// FrontierEntry names the post-dominance frontier computed for one branch
// block.
type FrontierEntry struct {
	Block    string   `json:"block" yaml:"block"`
	Frontier []string `json:"frontier" yaml:"frontier"`
}

// PostDominatorReport is the serializable form of a PostDominatorTree.
type PostDominatorReport struct {
	ImmediatePostDominators []DominanceEntry `json:"immediate_post_dominators" yaml:"immediate_post_dominators"`
	Frontiers               []FrontierEntry  `json:"frontiers" yaml:"frontiers"`
}

// HammockNode is the serializable form of one analyzer.Hammock.
type HammockNode struct {
	Entry    string        `json:"entry" yaml:"entry"`
	Exit     string        `json:"exit" yaml:"exit"`
	Leaf     bool          `json:"leaf" yaml:"leaf"`
	Children []HammockNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// SafeRegionReport is the serializable form of the safe-region
// tabulation helpers.
type SafeRegionReport struct {
	BackwardBranchBlocks []string `json:"backward_branch_blocks" yaml:"backward_branch_blocks"`
	SideEffectObserving  []string `json:"side_effect_observing_blocks" yaml:"side_effect_observing_blocks"`
	CallingSideEffecting []string `json:"calling_side_effecting_blocks" yaml:"calling_side_effecting_blocks"`
}

// Summary aggregates counts across the analyses that ran.
type Summary struct {
	BlockCount       int `json:"block_count" yaml:"block_count"`
	EdgeCount        int `json:"edge_count" yaml:"edge_count"`
	BackEdgeCount    int `json:"back_edge_count,omitempty" yaml:"back_edge_count,omitempty"`
	HammockCount     int `json:"hammock_count,omitempty" yaml:"hammock_count,omitempty"`
	UnsafeBlockCount int `json:"unsafe_block_count,omitempty" yaml:"unsafe_block_count,omitempty"`
}

// Metadata carries report provenance: when the run happened, which
// binary version produced it, what it was configured to do, and a
// per-run id, since one report here always describes exactly one CFG.
type Metadata struct {
	RunID         string         `json:"run_id" yaml:"run_id"`
	GeneratedAt   time.Time      `json:"generated_at" yaml:"generated_at"`
	Version       string         `json:"version" yaml:"version"`
	Source        string         `json:"source,omitempty" yaml:"source,omitempty"`
	Configuration *config.Config `json:"configuration,omitempty" yaml:"configuration,omitempty"`
}

// Report is the complete analysis report for one CFG. Each analysis
// section is nil when that analysis wasn't requested.
type Report struct {
	Metadata      Metadata             `json:"metadata" yaml:"metadata"`
	Summary       Summary              `json:"summary" yaml:"summary"`
	Cycle         *CycleReport         `json:"cycle,omitempty" yaml:"cycle,omitempty"`
	Dominator     *DominatorReport     `json:"dominator,omitempty" yaml:"dominator,omitempty"`
	PostDominator *PostDominatorReport `json:"post_dominator,omitempty" yaml:"post_dominator,omitempty"`
	Hammock       *HammockNode         `json:"hammock,omitempty" yaml:"hammock,omitempty"`
	SafeRegion    *SafeRegionReport    `json:"safe_region,omitempty" yaml:"safe_region,omitempty"`
}

// blockName returns a block's display name, preferring its Label.
func blockName(b *cfgraph.Block) string {
	if b == nil {
		return ""
	}
	return b.String()
}

// BuildCycleReport converts a CycleAnalysis into its serializable form.
func BuildCycleReport(ca *analyzer.CycleAnalysis) *CycleReport {
	r := &CycleReport{}
	for _, e := range ca.BackEdges() {
		r.BackEdges = append(r.BackEdges, EdgeRef{Head: blockName(e.Head), Tail: blockName(e.Tail)})
	}
	return r
}

// BuildDominatorReport converts a DominatorTree into its serializable
// form. It walks the same traversal the tree was analyzed over, so only
// blocks present in the tree's index are queried; blocks unreachable
// from the entry are omitted, matching the analysis itself.
func BuildDominatorReport(cfg *cfgraph.CFG, dt *analyzer.DominatorTree) *DominatorReport {
	r := &DominatorReport{}
	for _, b := range cfg.TopologicalSequence() {
		dom, ok := dt.GetDominator(b)
		if !ok {
			continue
		}
		r.ImmediateDominators = append(r.ImmediateDominators, DominanceEntry{
			Block:     blockName(b),
			Dominator: blockName(dom),
		})
	}
	return r
}

// BuildPostDominatorReport converts a PostDominatorTree into its
// serializable form, including the post-dominance frontier of every
// branch block. It walks the reverse traversal the tree was analyzed
// over, so only blocks present in the tree's index are queried.
func BuildPostDominatorReport(cfg *cfgraph.CFG, pdt *analyzer.PostDominatorTree) *PostDominatorReport {
	r := &PostDominatorReport{}
	for _, b := range cfg.ReverseTopologicalSequence() {
		if b == cfg.Exit {
			continue
		}
		pdom := pdt.GetPostDominator(b)
		if pdom != nil {
			r.ImmediatePostDominators = append(r.ImmediatePostDominators, DominanceEntry{
				Block:     blockName(b),
				Dominator: blockName(pdom),
			})
		}
		if len(b.Successors) < 2 {
			continue
		}
		frontier := pdt.Frontier(b)
		names := make([]string, 0, len(frontier))
		for _, f := range frontier {
			names = append(names, blockName(f))
		}
		r.Frontiers = append(r.Frontiers, FrontierEntry{Block: blockName(b), Frontier: names})
	}
	return r
}

// BuildHammockReport converts a hammock tree rooted at root into its
// serializable form.
func BuildHammockReport(root *analyzer.Hammock) *HammockNode {
	if root == nil {
		return nil
	}
	node := &HammockNode{
		Entry: blockName(root.Entry),
		Exit:  blockName(root.Exit),
		Leaf:  root.IsLeaf(),
	}
	for _, child := range root.Children {
		node.Children = append(node.Children, *BuildHammockReport(child))
	}
	return node
}

// CountHammockNodes counts every node in a hammock tree, root included.
func CountHammockNodes(n *HammockNode) int {
	if n == nil {
		return 0
	}
	count := 1
	for i := range n.Children {
		count += CountHammockNodes(&n.Children[i])
	}
	return count
}

// BuildSafeRegionReport runs the safe-region tabulation helpers against
// ca and cfg.Blocks and converts the result into its serializable form.
// Block lists follow cfg.Blocks order so report output is stable.
func BuildSafeRegionReport(cfg *cfgraph.CFG, ca *analyzer.CycleAnalysis) *SafeRegionReport {
	r := &SafeRegionReport{}

	backward := analyzer.BlocksWithBackwardBranches(ca)
	calling := analyzer.BlocksWithCallsToFunctionsThatObserveSideEffects(cfg.Blocks)
	for _, b := range cfg.Blocks {
		if backward.Contains(b) {
			r.BackwardBranchBlocks = append(r.BackwardBranchBlocks, blockName(b))
		}
		if calling.Contains(b) {
			r.CallingSideEffecting = append(r.CallingSideEffecting, blockName(b))
		}
	}
	for _, instr := range analyzer.BlocksThatCanObserveSideEffects(cfg.Blocks) {
		r.SideEffectObserving = append(r.SideEffectObserving, instr.Op.String())
	}
	return r
}

// Reporter formats and writes a Report to its configured writer in the
// format named by cfg.Output.Format.
type Reporter struct {
	config *config.Config
	writer io.Writer
}

// New creates a Reporter writing to w using cfg's output settings.
func New(cfg *config.Config, w io.Writer) *Reporter {
	return &Reporter{config: cfg, writer: w}
}

// NewRunID generates a fresh report run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Write formats report per the configured output format and writes it.
func (r *Reporter) Write(report *Report) error {
	switch strings.ToLower(r.config.Output.Format) {
	case "yaml":
		return r.writeYAML(report)
	case "text":
		return r.writeText(report)
	case "json":
		fallthrough
	default:
		return r.writeJSON(report)
	}
}

func (r *Reporter) writeJSON(report *Report) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func (r *Reporter) writeYAML(report *Report) error {
	encoder := yaml.NewEncoder(r.writer)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(report)
}

func (r *Reporter) writeText(report *Report) error {
	fmt.Fprintf(r.writer, "CFG Analysis Report (run %s)\n", report.Metadata.RunID)
	fmt.Fprintf(r.writer, "=============================\n\n")
	fmt.Fprintf(r.writer, "Blocks: %d  Edges: %d\n", report.Summary.BlockCount, report.Summary.EdgeCount)

	if report.Cycle != nil {
		fmt.Fprintf(r.writer, "\nBack edges (%d):\n", len(report.Cycle.BackEdges))
		for _, e := range report.Cycle.BackEdges {
			fmt.Fprintf(r.writer, "  %s -> %s\n", e.Head, e.Tail)
		}
	}

	if report.Dominator != nil {
		fmt.Fprintf(r.writer, "\nImmediate dominators (%d):\n", len(report.Dominator.ImmediateDominators))
		for _, e := range report.Dominator.ImmediateDominators {
			fmt.Fprintf(r.writer, "  idom(%s) = %s\n", e.Block, e.Dominator)
		}
	}

	if report.PostDominator != nil {
		fmt.Fprintf(r.writer, "\nImmediate post-dominators (%d):\n", len(report.PostDominator.ImmediatePostDominators))
		for _, e := range report.PostDominator.ImmediatePostDominators {
			fmt.Fprintf(r.writer, "  ipdom(%s) = %s\n", e.Block, e.Dominator)
		}
		for _, f := range report.PostDominator.Frontiers {
			fmt.Fprintf(r.writer, "  frontier(%s) = %v\n", f.Block, f.Frontier)
		}
	}

	if report.Hammock != nil {
		fmt.Fprintf(r.writer, "\nHammock tree:\n")
		writeHammockText(r.writer, report.Hammock, 1)
	}

	if report.SafeRegion != nil {
		fmt.Fprintf(r.writer, "\nBackward-branch blocks: %v\n", report.SafeRegion.BackwardBranchBlocks)
		fmt.Fprintf(r.writer, "Blocks calling side-effecting functions: %v\n", report.SafeRegion.CallingSideEffecting)
	}

	fmt.Fprintf(r.writer, "\nGenerated at: %s\n", report.Metadata.GeneratedAt.Format(time.RFC3339))
	return nil
}

func writeHammockText(w io.Writer, n *HammockNode, depth int) {
	indent := strings.Repeat("  ", depth)
	kind := "hammock"
	if n.Leaf {
		kind = "leaf"
	}
	fmt.Fprintf(w, "%s(%s, %s) [%s]\n", indent, n.Entry, n.Exit, kind)
	for i := range n.Children {
		writeHammockText(w, &n.Children[i], depth+1)
	}
}
