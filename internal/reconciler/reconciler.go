// Package reconciler applies reconciliation decisions across the
// transaction and ledger stores.
//
// Confirm and Revert each touch both stores without a cross-store
// transaction primitive. The service writes the transaction side first,
// compensates it when the ledger side fails, and reports a coded partial
// failure naming the stuck half when even the compensation fails, so an
// inconsistent pair is always visible to the caller and retryable.
package reconciler

import (
	"context"
	"time"

	"statement-reconciliation-service/internal/models"
	"statement-reconciliation-service/internal/stores"
	"statement-reconciliation-service/pkg/errors"
	"statement-reconciliation-service/pkg/logger"
)

// Service executes the reconciliation state machine.
type Service struct {
	transactions stores.TransactionStore
	ledger       stores.LedgerStore
	logger       logger.Logger
	now          func() time.Time
}

// NewService creates a reconciliation Service over the given stores.
func NewService(transactions stores.TransactionStore, ledger stores.LedgerStore) *Service {
	return &Service{
		transactions: transactions,
		ledger:       ledger,
		logger:       logger.GetGlobalLogger().WithComponent("reconciler"),
		now:          time.Now,
	}
}

// WithClock overrides the service clock. Tests use it to pin reconciledAt
// timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Confirm links a Pending credit transaction to an open income ledger
// entry and settles the entry.
//
// The entry's paidOnDate becomes the transaction date: the bank-observed
// date is the authoritative payment date, not the moment someone clicked
// confirm. The transaction side is written first; a ledger-side failure
// rolls the transaction back, and a coded partial failure is returned
// when that rollback fails too.
func (s *Service) Confirm(ctx context.Context, transactionID, ledgerEntryID, actor string) error {
	log := s.logger.WithFields(logger.Fields{
		"transaction_id": transactionID,
		"entry_id":       ledgerEntryID,
		"actor":          actor,
	})

	txn, err := s.transactions.Get(ctx, transactionID)
	if err != nil {
		return err
	}
	if txn.Status != models.StatusPending {
		return errors.InvalidState("confirm", txn.Status.String(), models.StatusPending.String())
	}

	entry, err := s.ledger.GetEntry(ctx, ledgerEntryID)
	if err != nil {
		return err
	}
	if !entry.IsOpenIncome() {
		return errors.InvalidState("confirm",
			entry.Direction.String()+"/"+entry.PaymentStatus.String(),
			models.EntryIncome.String()+"/"+models.PaymentPending.String())
	}

	at := s.now()
	err = s.transactions.UpdateStatus(ctx, transactionID, stores.StatusMutation{
		Status:        models.StatusReconciled,
		LinkedEntryID: &ledgerEntryID,
		ReconciledBy:  &actor,
		ReconciledAt:  &at,
	})
	if err != nil {
		return err
	}

	if err := s.ledger.MarkPaid(ctx, ledgerEntryID, txn.TransactionDate); err != nil {
		log.WithError(err).Error("Ledger settle failed, rolling back transaction link")
		rollback := s.transactions.UpdateStatus(ctx, transactionID, stores.StatusMutation{
			Status: models.StatusPending,
		})
		if rollback != nil {
			log.WithError(rollback).Error("Rollback failed, transaction left linked to unsettled entry")
			return errors.PartialReconciliation("confirm", transactionID, "transaction", rollback)
		}
		return err
	}

	log.Info("Transaction reconciled")
	return nil
}

// Ignore excludes a Pending transaction from matching permanently. The
// ledger is untouched.
func (s *Service) Ignore(ctx context.Context, transactionID, actor string) error {
	txn, err := s.transactions.Get(ctx, transactionID)
	if err != nil {
		return err
	}
	if txn.Status != models.StatusPending {
		return errors.InvalidState("ignore", txn.Status.String(), models.StatusPending.String())
	}

	at := s.now()
	err = s.transactions.UpdateStatus(ctx, transactionID, stores.StatusMutation{
		Status:       models.StatusIgnored,
		ReconciledBy: &actor,
		ReconciledAt: &at,
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logger.Fields{
		"transaction_id": transactionID,
		"actor":          actor,
	}).Info("Transaction ignored")
	return nil
}

// Revert returns a Reconciled transaction to Pending and reopens the
// ledger entry it was linked to.
//
// Reverting an already-Pending unlinked transaction is a no-op rather
// than an error, so a caller recovering from a reported partial failure
// can simply retry. An Ignored transaction has no reversal path.
func (s *Service) Revert(ctx context.Context, transactionID, actor string) error {
	log := s.logger.WithFields(logger.Fields{
		"transaction_id": transactionID,
		"actor":          actor,
	})

	txn, err := s.transactions.Get(ctx, transactionID)
	if err != nil {
		return err
	}

	switch txn.Status {
	case models.StatusPending:
		if txn.LinkedEntryID == nil {
			log.Debug("Revert on already-pending transaction, nothing to do")
			return nil
		}
	case models.StatusReconciled:
		// proceed
	default:
		return errors.InvalidState("revert", txn.Status.String(), models.StatusReconciled.String())
	}

	// Capture the link before clearing it; the mutation wipes it from the
	// stored row.
	linkedEntryID := txn.LinkedEntryID

	err = s.transactions.UpdateStatus(ctx, transactionID, stores.StatusMutation{
		Status: models.StatusPending,
	})
	if err != nil {
		return err
	}

	if linkedEntryID != nil {
		if err := s.ledger.MarkPending(ctx, *linkedEntryID); err != nil {
			log.WithError(err).Error("Ledger reopen failed after transaction reset")
			return errors.PartialReconciliation("revert", transactionID, "ledger", err)
		}
	}

	log.Info("Reconciliation reverted")
	return nil
}
