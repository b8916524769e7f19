package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-cfgkit/cfgkit/internal/config"
	"github.com/go-cfgkit/cfgkit/internal/mcpserver"
	mcpserversdk "github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "cfgctl"
	serverVersion = "1.0.0"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	server := mcpserversdk.NewMCPServer(
		serverName,
		serverVersion,
		mcpserversdk.WithToolCapabilities(true),
		mcpserversdk.WithLogging(),
	)

	configPath := os.Getenv("CFGCTL_CONFIG")
	cfg, err := config.LoadConfigWithTarget(configPath, "")
	if err != nil {
		log.Printf("warning: failed to load config: %v, using defaults", err)
		cfg = config.DefaultConfig()
	}

	handlers := mcpserver.NewHandlers(cfg)
	mcpserver.RegisterTools(server, handlers)

	log.Printf("starting %s MCP server v%s\n", serverName, serverVersion)
	log.Println("registered tools:")
	log.Println("  - analyze_cfg: control-flow-graph analysis")
	log.Println("server ready - waiting for MCP client connection...")

	if err := mcpserversdk.ServeStdio(server); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
