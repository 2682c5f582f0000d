package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "brandfetchd",
	Short: "Brand lookup service with usage-aware API fallback",
	Long: `Brandfetchd serves brand information (logos, colors, company profiles)
from the Brandfetch API while protecting its scarce monthly quota.

Lookups try the unmetered logo endpoint first and escalate to the
metered brand API only when needed, with every metered call recorded
in a durable monthly ledger before it is made.

Quick start:
  brandfetchd serve     # Start the HTTP API
  brandfetchd lookup --domain stripe.com

Management:
  brandfetchd usage     # Inspect the monthly quota ledger
  brandfetchd validate  # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Credentials commonly live in a .env file during development.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "brandfetch.yaml", "config file path")
}
