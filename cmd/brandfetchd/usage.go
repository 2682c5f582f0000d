package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/djmoore711/brandfetch-mcp/adapters/sqlite"
	"github.com/djmoore711/brandfetch-mcp/config"
	"github.com/djmoore711/brandfetch-mcp/domain/quota"
	"github.com/djmoore711/brandfetch-mcp/ports"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Inspect the monthly quota ledger",
	Long: `Inspect and manage the metered-call usage ledger.

Examples:
  brandfetchd usage summary
  brandfetchd usage history --periods=6
  brandfetchd usage reset --period=2026-08`,
}

var usageSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show consumption for the current period",
	RunE:  runUsageSummary,
}

var usageHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show per-period consumption, newest first",
	RunE:  runUsageHistory,
}

var usageResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Zero a period's count (administrative)",
	Long: `Zero a period's consumption count.

This does not change what the provider has already billed; use it only
to correct a ledger that has drifted from the provider's own accounting.`,
	RunE: runUsageReset,
}

var (
	usagePeriods int
	resetPeriod  string
)

func init() {
	rootCmd.AddCommand(usageCmd)

	usageCmd.AddCommand(usageSummaryCmd)
	usageCmd.AddCommand(usageHistoryCmd)
	usageCmd.AddCommand(usageResetCmd)

	usageHistoryCmd.Flags().IntVar(&usagePeriods, "periods", 6, "number of periods to show")
	usageResetCmd.Flags().StringVar(&resetPeriod, "period", "", "period to reset, e.g. 2026-08 (required)")
	usageResetCmd.MarkFlagRequired("period")
}

func openLedger() (ports.LedgerStore, *config.Config, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.Driver != "sqlite" {
		return nil, nil, fmt.Errorf("usage commands need the sqlite ledger, configured driver is %q", cfg.Database.Driver)
	}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return sqlite.NewLedgerStore(db), cfg, nil
}

func runUsageSummary(cmd *cobra.Command, args []string) error {
	ledger, cfg, err := openLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	period := quota.PeriodOf(time.Now())
	count, err := ledger.Get(context.Background(), period)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}

	limit := cfg.Quota.MonthlyLimit
	_, resetsAt, _ := period.Bounds()

	fmt.Printf("Period:    %s\n", period)
	fmt.Printf("Used:      %d / %d\n", count, limit)
	fmt.Printf("Remaining: %d\n", quota.RemainingOf(count, limit))
	fmt.Printf("Resets:    %s\n", resetsAt.Format("2006-01-02 15:04 MST"))

	d := quota.Evaluate(count, limit, cfg.Quota.WarnThresholdRatio)
	if d.Verdict != quota.Allowed {
		fmt.Printf("Status:    %s\n", d.Verdict)
	}
	return nil
}

func runUsageHistory(cmd *cobra.Command, args []string) error {
	ledger, cfg, err := openLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	records, err := ledger.History(context.Background(), usagePeriods)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No usage recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PERIOD\tUSED\tLIMIT\tUPDATED")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
			r.Period, r.Count, cfg.Quota.MonthlyLimit,
			r.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runUsageReset(cmd *cobra.Command, args []string) error {
	period := quota.Period(resetPeriod)
	if _, err := period.Time(); err != nil {
		return fmt.Errorf("invalid period %q, want YYYY-MM", resetPeriod)
	}

	ledger, _, err := openLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	if err := ledger.Reset(context.Background(), period); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	fmt.Printf("Period %s reset to 0.\n", period)
	return nil
}
