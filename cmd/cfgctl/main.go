package main

import (
	"os"

	"github.com/go-cfgkit/cfgkit/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cfgctl",
	Short: "A control-flow-graph analysis toolkit",
	Long: `cfgctl analyzes control-flow graphs for back edges, dominance,
post-dominance, hammock (single-entry-single-exit) regions, and
safe-region tabulation.

Point it at a YAML program description (or a directory of them) and it
runs the requested analyses and reports the results as JSON, YAML, or
text.`,
	Version: version.Short(),
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewAnalyzeCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
