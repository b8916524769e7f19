// Package service orchestrates a CFG analysis run: given an already-built
// cfgraph.CFG and a config.Config saying which analyses to run, it runs
// them in dependency order and assembles a reporter.Report. Both the CLI
// and the MCP server call into this package rather than duplicating the
// orchestration.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-cfgkit/cfgkit/internal/analyzer"
	"github.com/go-cfgkit/cfgkit/internal/cfgraph"
	"github.com/go-cfgkit/cfgkit/internal/config"
	"github.com/go-cfgkit/cfgkit/internal/reporter"
	"github.com/go-cfgkit/cfgkit/internal/version"
)

// Service runs CFG analyses per its configuration.
type Service struct {
	config *config.Config
}

// New builds a Service. A nil cfg falls back to config.DefaultConfig().
func New(cfg *config.Config) *Service {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Service{config: cfg}
}

// Analyze runs every analysis enabled in the Service's configuration
// against cfg and returns the assembled report. source is a display name
// (e.g. the originating file path) recorded in the report metadata.
func (s *Service) Analyze(ctx context.Context, cfgraphCFG *cfgraph.CFG, source string) (*reporter.Report, error) {
	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("service: invalid configuration: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	report := &reporter.Report{
		Metadata: reporter.Metadata{
			RunID:         reporter.NewRunID(),
			GeneratedAt:   time.Now(),
			Version:       version.Short(),
			Source:        source,
			Configuration: s.config,
		},
		Summary: reporter.Summary{
			BlockCount: cfgraphCFG.Size(),
			EdgeCount:  len(cfgraphCFG.Edges),
		},
	}

	analyses := s.config.Analyses

	var ca *analyzer.CycleAnalysis
	if analyses.Cycle || analyses.SafeRegion {
		ca = analyzer.NewCycleAnalysis()
		ca.Analyze(cfgraphCFG)
	}
	if analyses.Cycle {
		report.Cycle = reporter.BuildCycleReport(ca)
		report.Summary.BackEdgeCount = len(report.Cycle.BackEdges)
	}

	var dt *analyzer.DominatorTree
	if analyses.Dominator || analyses.Hammock {
		dt = analyzer.NewDominatorTree()
		dt.Analyze(cfgraphCFG)
	}
	if analyses.Dominator {
		report.Dominator = reporter.BuildDominatorReport(cfgraphCFG, dt)
	}

	var pdt *analyzer.PostDominatorTree
	if analyses.PostDominator || analyses.Hammock {
		pdt = analyzer.NewPostDominatorTree()
		pdt.Analyze(cfgraphCFG)
	}
	if analyses.PostDominator {
		report.PostDominator = reporter.BuildPostDominatorReport(cfgraphCFG, pdt)
	}

	if analyses.Hammock {
		ha := analyzer.NewHammockAnalysis()
		ha.Analyze(cfgraphCFG, dt, pdt)
		report.Hammock = reporter.BuildHammockReport(ha.Root)
		report.Summary.HammockCount = reporter.CountHammockNodes(report.Hammock)
	}

	if analyses.SafeRegion {
		report.SafeRegion = reporter.BuildSafeRegionReport(cfgraphCFG, ca)
		report.Summary.UnsafeBlockCount = len(report.SafeRegion.BackwardBranchBlocks)
	}

	return report, nil
}
