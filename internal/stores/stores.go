// Package stores persists bank transactions and exposes the engine's
// narrow view of the ledger. The engine owns the bank_transactions table
// outright; on ledger_entries it only reads and flips the payment fields.
package stores

import (
	"context"
	"time"

	"statement-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// StatusMutation describes a reconciliation-status change applied to a
// bank transaction. The three link fields are set together on Confirm and
// cleared together on Revert and Ignore.
type StatusMutation struct {
	Status        models.ReconciliationStatus
	LinkedEntryID *string
	ReconciledBy  *string
	ReconciledAt  *time.Time
}

// TransactionStore persists bank transactions imported from statements.
type TransactionStore interface {
	// ExistsByNaturalKey reports whether a transaction with the given
	// natural key has already been imported.
	ExistsByNaturalKey(ctx context.Context, naturalKey string) (bool, error)

	// Insert persists a draft as a new Pending transaction and returns the
	// stored record. A natural-key collision yields a coded duplicate
	// error.
	Insert(ctx context.Context, draft *models.TransactionDraft) (*models.BankTransaction, error)

	// Get returns a transaction by ID, or a coded not_found error.
	Get(ctx context.Context, id string) (*models.BankTransaction, error)

	// UpdateStatus applies a status mutation to a transaction.
	UpdateStatus(ctx context.Context, id string, mutation StatusMutation) error

	// QueryPending returns all transactions still awaiting a
	// reconciliation decision, oldest first.
	QueryPending(ctx context.Context) ([]*models.BankTransaction, error)

	// QueryByDateRange returns transactions whose transaction date falls
	// in [from, to], oldest first.
	QueryByDateRange(ctx context.Context, from, to time.Time) ([]*models.BankTransaction, error)
}

// LedgerStore is the engine's access to ledger entries.
type LedgerStore interface {
	// GetEntry returns a ledger entry by ID, or a coded not_found error.
	GetEntry(ctx context.Context, id string) (*models.LedgerEntry, error)

	// QueryOpenByAmountAndDueDateRange returns unpaid income entries with
	// exactly the given amount and a due date in [from, to].
	QueryOpenByAmountAndDueDateRange(ctx context.Context, amount decimal.Decimal, from, to time.Time) ([]*models.LedgerEntry, error)

	// MarkPaid settles an entry, recording the date the money actually
	// arrived.
	MarkPaid(ctx context.Context, id string, paidOn time.Time) error

	// MarkPending reopens an entry, clearing its paid-on date.
	MarkPending(ctx context.Context, id string) error
}
