package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/djmoore711/brandfetch-mcp/app"
	"github.com/djmoore711/brandfetch-mcp/bootstrap"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Run a single brand lookup from the command line",
	Long: `Run one lookup through the same fallback engine the server uses,
including quota accounting, and print the outcome as JSON.

Examples:
  brandfetchd lookup --domain stripe.com
  brandfetchd lookup --name "Acme Corp"`,
	RunE: runLookup,
}

var (
	lookupDomain string
	lookupName   string
)

func init() {
	rootCmd.AddCommand(lookupCmd)

	lookupCmd.Flags().StringVar(&lookupDomain, "domain", "", "look up by domain")
	lookupCmd.Flags().StringVar(&lookupName, "name", "", "look up by brand name")
}

func runLookup(cmd *cobra.Command, args []string) error {
	a, err := bootstrap.New(cfgFile)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}
	defer a.Shutdown()

	out, err := a.Service.Handle(context.Background(), app.LookupRequest{
		Domain: lookupDomain,
		Name:   lookupName,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}

	if !out.Success() {
		os.Exit(1)
	}
	return nil
}
