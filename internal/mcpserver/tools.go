// Package mcpserver exposes cfgctl's analysis pipeline as an MCP tool
// against mark3labs/mcp-go. This toolkit has a single analysis pipeline,
// so it registers one tool, analyze_cfg.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers cfgctl's MCP tools with s.
func RegisterTools(s *server.MCPServer, h *Handlers) {
	s.AddTool(mcp.NewTool("analyze_cfg",
		mcp.WithDescription("Run control-flow-graph analyses (back edges, dominance, post-dominance, hammock decomposition, safe-region tabulation) on a YAML program description"),
		mcp.WithString("program",
			mcp.Required(),
			mcp.Description("The YAML program description text (blocks + edges)")),
		mcp.WithArray("analyses",
			mcp.WithStringEnumItems([]string{"cycle", "dominator", "post_dominator", "hammock", "safe_region"}),
			mcp.Description("Analyses to run. Default: the analyses enabled in the server's configuration")),
	), h.HandleAnalyzeCFG)
}
