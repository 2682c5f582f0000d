package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/djmoore711/brandfetch-mcp/bootstrap"
	"github.com/djmoore711/brandfetch-mcp/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the brand lookup HTTP API",
	Long: `Start the brandfetchd server.

The server will:
  - Load configuration from brandfetch.yaml (or --config)
  - Or load configuration from BRANDFETCH_* environment variables
  - Open the usage ledger database
  - Serve lookups at POST /v1/lookup and usage at GET /v1/usage

Environment variables (for Docker deployments):
  BRANDFETCH_BRAND_API_KEY  - Brand API key (required)
  BRANDFETCH_LOGO_API_KEY   - Logo endpoint key
  BRANDFETCH_CLIENT_ID      - Client ID for CDN hotlink compliance
  BRANDFETCH_MONTHLY_LIMIT  - Metered calls per month (default: 250)
  BRANDFETCH_DATABASE_DSN   - Ledger database path (default: brandfetch.db)
  BRANDFETCH_SERVER_PORT    - Server port (default: 8080)
  BRANDFETCH_LOG_LEVEL      - Log level: debug, info, warn, error

Examples:
  brandfetchd serve
  brandfetchd serve --config /etc/brandfetchd/config.yaml

  # Docker (env vars only):
  BRANDFETCH_BRAND_API_KEY=bf_xxx brandfetchd serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	if !hasConfigFile && !config.HasEnvConfig() {
		fmt.Println("No configuration found.")
		fmt.Println()
		fmt.Printf("Option 1: Create %s (see config.example.yaml)\n", cfgFile)
		fmt.Println("Option 2: Set BRANDFETCH_BRAND_API_KEY environment variable")
		fmt.Println()
		fmt.Println("Example (env vars):")
		fmt.Println("  BRANDFETCH_BRAND_API_KEY=bf_xxx brandfetchd serve")
		return nil
	}

	if !hasConfigFile {
		fmt.Println("Running with environment variables (no config file)")
	}

	app, err := bootstrap.New(cfgFile)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
