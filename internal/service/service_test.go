package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-cfgkit/cfgkit/internal/cfgraph"
	"github.com/go-cfgkit/cfgkit/internal/config"
)

// buildDiamond builds S1: blocks {E, A, B, C, X}, edges E->A, E->B, A->C,
// B->C, C->X.
func buildDiamond() *cfgraph.CFG {
	cfg := cfgraph.New()
	a := cfg.InsertBlock(cfgraph.NewBlock(cfg.NewID()))
	b := cfg.InsertBlock(cfgraph.NewBlock(cfg.NewID()))
	c := cfg.InsertBlock(cfgraph.NewBlock(cfg.NewID()))

	cfg.InsertEdge(cfgraph.NewEdge(cfg.Entry, a, cfgraph.EdgeBranch))
	cfg.InsertEdge(cfgraph.NewEdge(cfg.Entry, b, cfgraph.EdgeBranch))
	cfg.InsertEdge(cfgraph.NewEdge(a, c, cfgraph.EdgeFallThrough))
	cfg.InsertEdge(cfgraph.NewEdge(b, c, cfgraph.EdgeFallThrough))
	cfg.InsertEdge(cfgraph.NewEdge(c, cfg.Exit, cfgraph.EdgeFallThrough))
	return cfg
}

func TestServiceAnalyzeRunsAllAnalysesByDefault(t *testing.T) {
	svc := New(config.DefaultConfig())
	report, err := svc.Analyze(context.Background(), buildDiamond(), "diamond.cfg.yaml")

	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, 5, report.Summary.BlockCount)
	assert.Equal(t, 5, report.Summary.EdgeCount)
	assert.NotEmpty(t, report.Metadata.RunID)
	assert.Equal(t, "diamond.cfg.yaml", report.Metadata.Source)

	require.NotNil(t, report.Cycle)
	assert.Empty(t, report.Cycle.BackEdges)

	require.NotNil(t, report.Dominator)
	assert.NotEmpty(t, report.Dominator.ImmediateDominators)

	require.NotNil(t, report.PostDominator)
	assert.NotEmpty(t, report.PostDominator.ImmediatePostDominators)

	require.NotNil(t, report.Hammock)
	require.NotNil(t, report.SafeRegion)
}

func TestServiceAnalyzeSkipsDisabledAnalyses(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Analyses.Hammock = false
	cfg.Analyses.PostDominator = false
	cfg.Analyses.Dominator = false
	cfg.Analyses.SafeRegion = false
	cfg.Analyses.Cycle = false

	svc := New(cfg)
	report, err := svc.Analyze(context.Background(), buildDiamond(), "diamond.cfg.yaml")

	require.NoError(t, err)
	assert.Nil(t, report.Cycle)
	assert.Nil(t, report.Dominator)
	assert.Nil(t, report.PostDominator)
	assert.Nil(t, report.Hammock)
	assert.Nil(t, report.SafeRegion)
}

func TestServiceAnalyzeRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Analyses.Hammock = true
	cfg.Analyses.Dominator = false

	svc := New(cfg)
	_, err := svc.Analyze(context.Background(), buildDiamond(), "diamond.cfg.yaml")
	assert.Error(t, err)
}

func TestNewFallsBackToDefaultConfig(t *testing.T) {
	svc := New(nil)
	assert.NotNil(t, svc.config)
}
