package cmd

import (
	"fmt"

	"statement-reconciliation-service/internal/reconciler"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var confirmCmd = &cobra.Command{
	Use:   "confirm <transaction-id> <ledger-entry-id>",
	Short: "Link a pending credit to a ledger entry and settle it",
	Long: `Confirm marks the transaction Reconciled, links it to the ledger entry,
and settles the entry with the bank-observed transaction date as its
payment date.

Example:
  reconciler confirm 6f1c9b4e-... 9a2d31c7-... --actor alice`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecision(cmd, func(service *reconciler.Service, actor string) error {
			if err := service.Confirm(cmd.Context(), args[0], args[1], actor); err != nil {
				return err
			}
			fmt.Printf("Reconciled %s against %s\n", args[0], args[1])
			return nil
		})
	},
}

var ignoreCmd = &cobra.Command{
	Use:   "ignore <transaction-id>",
	Short: "Exclude a pending transaction from matching permanently",
	Long: `Ignore marks the transaction Ignored. The ledger is untouched and the
transaction is never offered for matching again; there is no un-ignore.

Example:
  reconciler ignore 6f1c9b4e-... --actor alice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecision(cmd, func(service *reconciler.Service, actor string) error {
			if err := service.Ignore(cmd.Context(), args[0], actor); err != nil {
				return err
			}
			fmt.Printf("Ignored %s\n", args[0])
			return nil
		})
	},
}

var revertCmd = &cobra.Command{
	Use:   "revert <transaction-id>",
	Short: "Undo a reconciliation",
	Long: `Revert returns a Reconciled transaction to Pending and reopens the
ledger entry it was linked to. Reverting an already-pending transaction
is a no-op.

Example:
  reconciler revert 6f1c9b4e-... --actor alice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecision(cmd, func(service *reconciler.Service, actor string) error {
			if err := service.Revert(cmd.Context(), args[0], actor); err != nil {
				return err
			}
			fmt.Printf("Reverted %s\n", args[0])
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{confirmCmd, ignoreCmd, revertCmd} {
		c.Flags().String("actor", "", "who is making the decision (defaults to $USER)")
		rootCmd.AddCommand(c)
	}
}

// runDecision wires up the reconciliation service and runs one state
// machine operation with the configured actor.
func runDecision(cmd *cobra.Command, fn func(service *reconciler.Service, actor string) error) error {
	cmd.SilenceUsage = true

	viper.BindPFlag("actor", cmd.Flags().Lookup("actor"))
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	transactions, ledger, cleanup, err := openStores(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer cleanup()

	return fn(reconciler.NewService(transactions, ledger), settings.Actor)
}
