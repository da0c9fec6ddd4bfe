package cmd

import (
	"fmt"
	"strconv"
	"time"

	"statement-reconciliation-service/internal/stats"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <year> <month>",
	Short: "Show reconciliation figures for one month",
	Long: `Stats aggregates the credit transactions dated inside the given month:
how much arrived, how much of it is reconciled, and how much still waits
for a decision.

Example:
  reconciler stats 2024 3`,
	Args: cobra.ExactArgs(2),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	year, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid year %q: %w", args[0], err)
	}
	month, err := strconv.Atoi(args[1])
	if err != nil || month < 1 || month > 12 {
		return fmt.Errorf("invalid month %q: must be 1-12", args[1])
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	transactions, _, cleanup, err := openStores(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer cleanup()

	period, err := stats.NewCalculator(transactions).ForMonth(cmd.Context(), year, time.Month(month))
	if err != nil {
		return err
	}

	fmt.Printf("Statistics for %04d-%02d\n", period.Year, period.Month)
	fmt.Printf("Credits imported:   %d (%s)\n", period.TotalCount, period.TotalCredited.StringFixed(2))
	fmt.Printf("Reconciled:         %d (%s)\n", period.ReconciledCount, period.ReconciledAmount.StringFixed(2))
	fmt.Printf("Still pending:      %s\n", period.PendingAmount.StringFixed(2))
	fmt.Printf("Reconciliation rate: %.1f%%\n", period.ReconciliationRate*100)
	return nil
}
