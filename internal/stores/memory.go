package stores

import (
	"context"
	"sort"
	"sync"
	"time"

	"statement-reconciliation-service/internal/models"
	"statement-reconciliation-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryTransactionStore is an in-memory TransactionStore. It backs unit
// tests of the engine layers and small single-process deployments that do
// not want a database.
type MemoryTransactionStore struct {
	mu           sync.RWMutex
	transactions map[string]*models.BankTransaction
	byNaturalKey map[string]string
}

// NewMemoryTransactionStore creates an empty in-memory transaction store.
func NewMemoryTransactionStore() *MemoryTransactionStore {
	return &MemoryTransactionStore{
		transactions: make(map[string]*models.BankTransaction),
		byNaturalKey: make(map[string]string),
	}
}

// ExistsByNaturalKey reports whether a natural key is already present.
func (s *MemoryTransactionStore) ExistsByNaturalKey(_ context.Context, naturalKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byNaturalKey[naturalKey]
	return ok, nil
}

// Insert persists a draft as a new Pending transaction.
func (s *MemoryTransactionStore) Insert(_ context.Context, draft *models.TransactionDraft) (*models.BankTransaction, error) {
	if err := draft.Validate(); err != nil {
		return nil, errors.StorageError("validate draft", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byNaturalKey[draft.NaturalKey]; ok {
		return nil, errors.DuplicateTransaction(draft.NaturalKey)
	}

	txn := &models.BankTransaction{
		ID:                uuid.NewString(),
		NaturalKey:        draft.NaturalKey,
		TransactionDate:   draft.TransactionDate,
		Direction:         draft.Direction,
		Amount:            draft.Amount,
		Description:       draft.Description,
		SourceFile:        draft.SourceFile,
		SourceInstitution: draft.SourceInstitution,
		SourceKind:        draft.SourceKind,
		Status:            models.StatusPending,
	}

	s.transactions[txn.ID] = txn
	s.byNaturalKey[txn.NaturalKey] = txn.ID

	copied := *txn
	return &copied, nil
}

// Get returns a transaction by ID.
func (s *MemoryTransactionStore) Get(_ context.Context, id string) (*models.BankTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, ok := s.transactions[id]
	if !ok {
		return nil, errors.NotFound("transaction", id)
	}
	copied := *txn
	return &copied, nil
}

// UpdateStatus applies a status mutation to a transaction.
func (s *MemoryTransactionStore) UpdateStatus(_ context.Context, id string, mutation StatusMutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.transactions[id]
	if !ok {
		return errors.NotFound("transaction", id)
	}

	txn.Status = mutation.Status
	txn.LinkedEntryID = mutation.LinkedEntryID
	txn.ReconciledBy = mutation.ReconciledBy
	txn.ReconciledAt = mutation.ReconciledAt
	return nil
}

// QueryPending returns all Pending transactions, oldest first.
func (s *MemoryTransactionStore) QueryPending(_ context.Context) ([]*models.BankTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.BankTransaction
	for _, txn := range s.transactions {
		if txn.Status == models.StatusPending {
			copied := *txn
			result = append(result, &copied)
		}
	}
	sortTransactions(result)
	return result, nil
}

// QueryByDateRange returns transactions dated in [from, to], oldest first.
func (s *MemoryTransactionStore) QueryByDateRange(_ context.Context, from, to time.Time) ([]*models.BankTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from = models.NormalizeDate(from)
	to = models.NormalizeDate(to)

	var result []*models.BankTransaction
	for _, txn := range s.transactions {
		date := models.NormalizeDate(txn.TransactionDate)
		if !date.Before(from) && !date.After(to) {
			copied := *txn
			result = append(result, &copied)
		}
	}
	sortTransactions(result)
	return result, nil
}

func sortTransactions(transactions []*models.BankTransaction) {
	sort.Slice(transactions, func(i, j int) bool {
		if !transactions[i].TransactionDate.Equal(transactions[j].TransactionDate) {
			return transactions[i].TransactionDate.Before(transactions[j].TransactionDate)
		}
		return transactions[i].NaturalKey < transactions[j].NaturalKey
	})
}

// MemoryLedgerStore is an in-memory LedgerStore.
type MemoryLedgerStore struct {
	mu      sync.RWMutex
	entries map[string]*models.LedgerEntry
}

// NewMemoryLedgerStore creates an empty in-memory ledger store.
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		entries: make(map[string]*models.LedgerEntry),
	}
}

// Seed adds an entry, assigning an ID when the entry has none. Intended
// for tests and fixtures.
func (s *MemoryLedgerStore) Seed(entry *models.LedgerEntry) *models.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	copied := *entry
	s.entries[entry.ID] = &copied
	return entry
}

// GetEntry returns a ledger entry by ID.
func (s *MemoryLedgerStore) GetEntry(_ context.Context, id string) (*models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, errors.NotFound("ledger entry", id)
	}
	copied := *entry
	return &copied, nil
}

// QueryOpenByAmountAndDueDateRange returns unpaid income entries with the
// exact amount and a due date in [from, to].
func (s *MemoryLedgerStore) QueryOpenByAmountAndDueDateRange(_ context.Context, amount decimal.Decimal, from, to time.Time) ([]*models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from = models.NormalizeDate(from)
	to = models.NormalizeDate(to)

	var result []*models.LedgerEntry
	for _, entry := range s.entries {
		if !entry.IsOpenIncome() || !entry.Amount.Equal(amount) {
			continue
		}
		due := models.NormalizeDate(entry.DueDate)
		if !due.Before(from) && !due.After(to) {
			copied := *entry
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].DueDate.Equal(result[j].DueDate) {
			return result[i].DueDate.Before(result[j].DueDate)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// MarkPaid settles an entry with the given settlement date.
func (s *MemoryLedgerStore) MarkPaid(_ context.Context, id string, paidOn time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return errors.NotFound("ledger entry", id)
	}
	paid := models.NormalizeDate(paidOn)
	entry.PaymentStatus = models.PaymentPaid
	entry.PaidOnDate = &paid
	return nil
}

// MarkPending reopens an entry and clears its paid-on date.
func (s *MemoryLedgerStore) MarkPending(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return errors.NotFound("ledger entry", id)
	}
	entry.PaymentStatus = models.PaymentPending
	entry.PaidOnDate = nil
	return nil
}

var _ TransactionStore = (*MemoryTransactionStore)(nil)
var _ LedgerStore = (*MemoryLedgerStore)(nil)
