// Package stats derives per-month reconciliation figures from the
// transaction store. Pure read; nothing is cached or persisted.
package stats

import (
	"context"
	"time"

	"statement-reconciliation-service/internal/models"
	"statement-reconciliation-service/internal/stores"

	"github.com/shopspring/decimal"
)

// PeriodStats summarizes the credit transactions of one calendar month.
type PeriodStats struct {
	Year  int `json:"year"`
	Month int `json:"month"`

	TotalCredited      decimal.Decimal `json:"totalCredited"`
	ReconciledAmount   decimal.Decimal `json:"reconciledAmount"`
	ReconciledCount    int             `json:"reconciledCount"`
	PendingAmount      decimal.Decimal `json:"pendingAmount"`
	TotalCount         int             `json:"totalCount"`
	ReconciliationRate float64         `json:"reconciliationRate"`
}

// Calculator computes reconciliation statistics.
type Calculator struct {
	transactions stores.TransactionStore
}

// NewCalculator creates a Calculator over the given transaction store.
func NewCalculator(transactions stores.TransactionStore) *Calculator {
	return &Calculator{transactions: transactions}
}

// ForMonth aggregates the credit transactions dated inside the given
// month. Debits are out of scope entirely; Ignored credits count toward
// the totals but never toward the reconciled figures, which is what keeps
// the rate honest about money that arrived and was deliberately set
// aside. The rate is 0 for an empty month.
func (c *Calculator) ForMonth(ctx context.Context, year int, month time.Month) (*PeriodStats, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	transactions, err := c.transactions.QueryByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	result := &PeriodStats{
		Year:             year,
		Month:            int(month),
		TotalCredited:    decimal.Zero,
		ReconciledAmount: decimal.Zero,
		PendingAmount:    decimal.Zero,
	}

	for _, txn := range transactions {
		if !txn.IsCredit() {
			continue
		}

		result.TotalCount++
		result.TotalCredited = result.TotalCredited.Add(txn.Amount)

		switch txn.Status {
		case models.StatusReconciled:
			result.ReconciledCount++
			result.ReconciledAmount = result.ReconciledAmount.Add(txn.Amount)
		case models.StatusPending:
			result.PendingAmount = result.PendingAmount.Add(txn.Amount)
		}
	}

	if result.TotalCount > 0 {
		result.ReconciliationRate = float64(result.ReconciledCount) / float64(result.TotalCount)
	}

	return result, nil
}
