package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// defaultConfigTOML is the template written by `cfgctl init`, matching
// config.DefaultConfig()'s values with explanatory comments.
const defaultConfigTOML = `# cfgctl configuration file

[analyses]
# Which analyzer passes to run. hammock requires dominator and
# post_dominator; safe_region requires cycle.
cycle = true
dominator = true
post_dominator = true
hammock = true
safe_region = true

[output]
# One of "json", "yaml", "text".
format = "json"
# Directory for batch reports; empty writes a single-file run to stdout.
directory = ""

[discovery]
# Globs (doublestar syntax) used when a target is a directory.
include_patterns = ["**/*.cfg.yaml", "**/*.cfg.yml"]
exclude_patterns = []

[concurrency]
# 0 means use GOMAXPROCS workers.
max_workers = 0
show_progress = true
`

// NewInitCmd creates the init cobra command.
func NewInitCmd() *cobra.Command {
	var force bool
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .cfgctl.toml configuration file",
		Long: `Write a .cfgctl.toml configuration file in the current directory
with the default settings and explanatory comments.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(configPath)
			if err != nil {
				return fmt.Errorf("failed to resolve config path: %w", err)
			}

			if _, err := os.Stat(abs); err == nil && !force {
				return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", abs)
			}

			if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			if err := os.WriteFile(abs, []byte(defaultConfigTOML), 0o644); err != nil {
				return fmt.Errorf("failed to write configuration file: %w", err)
			}

			rel, err := filepath.Rel(".", abs)
			if err != nil {
				rel = abs
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created: %s\n", rel)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration file")
	cmd.Flags().StringVarP(&configPath, "config", "c", ".cfgctl.toml", "Configuration file path")
	return cmd
}
