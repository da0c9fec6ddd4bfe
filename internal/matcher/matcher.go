// Package matcher proposes ledger entries for imported bank transactions.
// Matching is advisory: candidates are computed on demand and scored, and
// a human (or the CLI acting for one) confirms or rejects them.
package matcher

import (
	"context"
	"fmt"
	"sort"

	"statement-reconciliation-service/internal/models"
	"statement-reconciliation-service/internal/stores"
	"statement-reconciliation-service/pkg/errors"
	"statement-reconciliation-service/pkg/logger"
)

// DefaultWindowDays is the half-width of the due-date search window.
const DefaultWindowDays = 5

// Config controls candidate search.
type Config struct {
	// WindowDays widens or narrows the due-date window around the
	// transaction date. Zero means same-day only.
	WindowDays int
}

// DefaultConfig returns the standard matching configuration.
func DefaultConfig() *Config {
	return &Config{WindowDays: DefaultWindowDays}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.WindowDays < 0 {
		return fmt.Errorf("window days cannot be negative, got %d", c.WindowDays)
	}
	return nil
}

// ScoreDayDifference converts a day gap between transaction date and due
// date into a match confidence score.
func ScoreDayDifference(days int) int {
	if days < 0 {
		days = -days
	}
	switch {
	case days == 0:
		return 100
	case days == 1:
		return 90
	case days <= 3:
		return 80
	case days <= 5:
		return 70
	default:
		// Reachable only with a widened window.
		return 60
	}
}

// Finder searches the ledger for entries that could explain a bank
// transaction.
type Finder struct {
	ledger stores.LedgerStore
	config *Config
	logger logger.Logger
}

// NewFinder creates a Finder over the given ledger store.
func NewFinder(ledger stores.LedgerStore, config *Config) (*Finder, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matcher configuration: %w", err)
	}
	return &Finder{
		ledger: ledger,
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("matcher"),
	}, nil
}

// FindCandidates returns scored ledger candidates for a credit transaction
// awaiting reconciliation, best first.
//
// Only Pending credits are matchable: debits have no expected-receipt
// counterpart in the ledger, and transactions already reconciled or
// ignored must not be offered again. Candidates carry the same amount as
// the transaction and a due date within the configured window; ties on
// score break toward the smaller day gap, then the earlier due date.
func (f *Finder) FindCandidates(ctx context.Context, txn *models.BankTransaction) ([]models.MatchCandidate, error) {
	if !txn.IsCredit() {
		return nil, errors.InvalidState("find candidates", txn.Direction.String(), models.DirectionCredit.String())
	}
	if txn.Status != models.StatusPending {
		return nil, errors.InvalidState("find candidates", txn.Status.String(), models.StatusPending.String())
	}

	from := txn.TransactionDate.AddDate(0, 0, -f.config.WindowDays)
	to := txn.TransactionDate.AddDate(0, 0, f.config.WindowDays)

	entries, err := f.ledger.QueryOpenByAmountAndDueDateRange(ctx, txn.Amount, from, to)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.MatchCandidate, 0, len(entries))
	for _, entry := range entries {
		days := models.DaysBetween(txn.TransactionDate, entry.DueDate)
		candidates = append(candidates, models.MatchCandidate{
			Transaction:   txn,
			Entry:         entry,
			Score:         ScoreDayDifference(days),
			DayDifference: days,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].DayDifference != candidates[j].DayDifference {
			return candidates[i].DayDifference < candidates[j].DayDifference
		}
		return candidates[i].Entry.DueDate.Before(candidates[j].Entry.DueDate)
	})

	f.logger.WithFields(logger.Fields{
		"transaction_id": txn.ID,
		"amount":         txn.Amount.String(),
		"candidates":     len(candidates),
	}).Debug("Candidate search finished")

	return candidates, nil
}
