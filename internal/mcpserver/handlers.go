package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/go-cfgkit/cfgkit/internal/config"
	"github.com/go-cfgkit/cfgkit/internal/loader"
	"github.com/go-cfgkit/cfgkit/internal/service"
)

// Handlers holds the dependencies the MCP tool handlers need.
type Handlers struct {
	config *config.Config
}

// NewHandlers builds a Handlers backed by cfg. A nil cfg falls back to
// config.DefaultConfig().
func NewHandlers(cfg *config.Config) *Handlers {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Handlers{config: cfg}
}

// HandleAnalyzeCFG handles the analyze_cfg tool.
func (h *Handlers) HandleAnalyzeCFG(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	program, ok := args["program"].(string)
	if !ok || program == "" {
		return mcp.NewToolResultError("program parameter is required and must be a non-empty string"), nil
	}

	cfg := *h.config
	if rawAnalyses, ok := args["analyses"].([]interface{}); ok && len(rawAnalyses) > 0 {
		selected := map[string]bool{}
		for _, a := range rawAnalyses {
			if str, ok := a.(string); ok {
				selected[str] = true
			}
		}
		cfg.Analyses = config.AnalysesConfig{
			Cycle:         selected["cycle"],
			Dominator:     selected["dominator"],
			PostDominator: selected["post_dominator"],
			Hammock:       selected["hammock"],
			SafeRegion:    selected["safe_region"],
		}
	}
	if err := cfg.Validate(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid analysis selection: %v", err)), nil
	}

	cfgraphCFG, err := loader.Load([]byte(program))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse program: %v", err)), nil
	}

	report, err := service.New(&cfg).Analyze(ctx, cfgraphCFG, "mcp:analyze_cfg")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	jsonData, err := json.Marshal(report)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
