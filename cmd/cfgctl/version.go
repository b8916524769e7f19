package main

import (
	"fmt"

	"github.com/go-cfgkit/cfgkit/internal/version"
	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version cobra command.
func NewVersionCmd() *cobra.Command {
	short := false

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version, build commit, build date, Go version, and
platform information. Use --short to display only the version number.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if short {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", version.Short())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", version.Info())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Show only version number")
	return cmd
}
