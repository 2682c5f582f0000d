package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/djmoore711/brandfetch-mcp/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithFallback(cfgFile)
		if err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}

		fmt.Println("Configuration valid")
		fmt.Printf("  Monthly limit:  %d\n", cfg.Quota.MonthlyLimit)
		fmt.Printf("  Warn threshold: %.0f%%\n", cfg.Quota.WarnThresholdRatio*100)
		fmt.Printf("  Ledger:         %s (%s)\n", cfg.Database.Driver, cfg.Database.DSN)
		fmt.Printf("  Cache TTL:      %s\n", cfg.Cache.TTL)
		if cfg.Cache.RedisURL != "" {
			fmt.Println("  Redis tier:     enabled")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
