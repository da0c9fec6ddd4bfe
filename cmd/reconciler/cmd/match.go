package cmd

import (
	"fmt"

	"statement-reconciliation-service/internal/matcher"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var matchCmd = &cobra.Command{
	Use:   "match <transaction-id>",
	Short: "Propose ledger entries for a pending credit",
	Long: `Match searches the ledger for open income entries with the same amount
as the transaction and a due date within the search window, and prints
them scored, best first. Nothing is written.

Examples:
  reconciler match 6f1c9b4e-...
  reconciler match 6f1c9b4e-... --window-days 10`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().Int("window-days", matcher.DefaultWindowDays, "due-date search window half-width in days")
	viper.BindPFlag("window-days", matchCmd.Flags().Lookup("window-days"))
}

func runMatch(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	transactions, ledger, cleanup, err := openStores(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer cleanup()

	txn, err := transactions.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	finder, err := matcher.NewFinder(ledger, settings.MatcherConfig())
	if err != nil {
		return err
	}

	candidates, err := finder.FindCandidates(cmd.Context(), txn)
	if err != nil {
		return err
	}

	fmt.Printf("Transaction %s: %s %s on %s (%s)\n",
		txn.ID, txn.Direction, txn.Amount.StringFixed(2),
		txn.TransactionDate.Format("2006-01-02"), txn.Description)

	if len(candidates) == 0 {
		fmt.Println("No candidates found")
		return nil
	}

	fmt.Printf("%-38s %-12s %-8s %s\n", "LEDGER ENTRY", "DUE DATE", "SCORE", "DAY DIFF")
	for _, candidate := range candidates {
		fmt.Printf("%-38s %-12s %-8d %d\n",
			candidate.Entry.ID,
			candidate.Entry.DueDate.Format("2006-01-02"),
			candidate.Score,
			candidate.DayDifference)
	}
	return nil
}
