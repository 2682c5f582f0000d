package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/djmoore711/brandfetch-mcp/bootstrap"
)

var (
	// Set via ldflags at build time
	commit    = "none"
	buildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("brandfetchd %s\n", bootstrap.Version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", buildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
