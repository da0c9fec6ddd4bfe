// Package models defines the domain types of the reconciliation engine:
// bank transactions observed in statement exports, the two ledger-entry
// fields the engine is allowed to touch, and transient match candidates.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction represents the cash-flow direction of a bank transaction.
type Direction string

const (
	// DirectionCredit represents money arriving at the account
	DirectionCredit Direction = "CREDIT"
	// DirectionDebit represents money leaving the account
	DirectionDebit Direction = "DEBIT"
)

// String returns the string representation of Direction.
func (d Direction) String() string {
	return string(d)
}

// IsValid checks if the direction is valid.
func (d Direction) IsValid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// ReconciliationStatus represents the settlement state of a bank transaction.
type ReconciliationStatus string

const (
	// StatusPending means the transaction awaits a reconciliation decision
	StatusPending ReconciliationStatus = "PENDING"
	// StatusReconciled means the transaction is linked to a ledger entry
	StatusReconciled ReconciliationStatus = "RECONCILED"
	// StatusIgnored means the transaction was manually excluded from matching
	StatusIgnored ReconciliationStatus = "IGNORED"
)

// String returns the string representation of ReconciliationStatus.
func (s ReconciliationStatus) String() string {
	return string(s)
}

// IsValid checks if the status is valid.
func (s ReconciliationStatus) IsValid() bool {
	return s == StatusPending || s == StatusReconciled || s == StatusIgnored
}

// EntryDirection represents the direction of a ledger entry.
type EntryDirection string

const (
	// EntryIncome represents an expected receipt
	EntryIncome EntryDirection = "INCOME"
	// EntryExpense represents an expected payment
	EntryExpense EntryDirection = "EXPENSE"
)

// String returns the string representation of EntryDirection.
func (d EntryDirection) String() string {
	return string(d)
}

// IsValid checks if the entry direction is valid.
func (d EntryDirection) IsValid() bool {
	return d == EntryIncome || d == EntryExpense
}

// PaymentStatus represents the payment state of a ledger entry.
type PaymentStatus string

const (
	// PaymentPending means the entry awaits settlement
	PaymentPending PaymentStatus = "PENDING"
	// PaymentPaid means the entry has been settled
	PaymentPaid PaymentStatus = "PAID"
)

// String returns the string representation of PaymentStatus.
func (s PaymentStatus) String() string {
	return string(s)
}

// IsValid checks if the payment status is valid.
func (s PaymentStatus) IsValid() bool {
	return s == PaymentPending || s == PaymentPaid
}

// BankTransaction represents a cash movement observed in a bank or
// processor export. Amount is always the absolute value; Direction carries
// the sign.
type BankTransaction struct {
	ID                string               `json:"id"`
	NaturalKey        string               `json:"naturalKey"`
	TransactionDate   time.Time            `json:"transactionDate"`
	Direction         Direction            `json:"direction"`
	Amount            decimal.Decimal      `json:"amount"`
	Description       string               `json:"description"`
	SourceFile        string               `json:"sourceFile"`
	SourceInstitution string               `json:"sourceInstitution"`
	SourceKind        string               `json:"sourceKind"`
	Status            ReconciliationStatus `json:"reconciliationStatus"`
	LinkedEntryID     *string              `json:"linkedLedgerEntryId,omitempty"`
	ReconciledBy      *string              `json:"reconciledBy,omitempty"`
	ReconciledAt      *time.Time           `json:"reconciledAt,omitempty"`
}

// Validate performs basic validation on the BankTransaction.
func (t *BankTransaction) Validate() error {
	if strings.TrimSpace(t.NaturalKey) == "" {
		return fmt.Errorf("transaction natural key cannot be empty")
	}

	if t.TransactionDate.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}

	if !t.Direction.IsValid() {
		return fmt.Errorf("invalid transaction direction: %s", t.Direction)
	}

	if t.Amount.IsNegative() || t.Amount.IsZero() {
		return fmt.Errorf("transaction amount must be positive, got %s", t.Amount.String())
	}

	if !t.Status.IsValid() {
		return fmt.Errorf("invalid reconciliation status: %s", t.Status)
	}

	// The link and the status must agree in both directions.
	if t.Status == StatusReconciled && t.LinkedEntryID == nil {
		return fmt.Errorf("reconciled transaction must reference a ledger entry")
	}
	if t.Status != StatusReconciled && t.LinkedEntryID != nil {
		return fmt.Errorf("non-reconciled transaction cannot reference a ledger entry")
	}

	return nil
}

// IsCredit returns true if the transaction is a credit.
func (t *BankTransaction) IsCredit() bool {
	return t.Direction == DirectionCredit
}

// IsDebit returns true if the transaction is a debit.
func (t *BankTransaction) IsDebit() bool {
	return t.Direction == DirectionDebit
}

// String returns a string representation of the BankTransaction.
func (t *BankTransaction) String() string {
	return fmt.Sprintf("BankTransaction{ID: %s, Key: %s, Amount: %s, Direction: %s, Date: %s, Status: %s}",
		t.ID, t.NaturalKey, t.Amount.String(), t.Direction,
		t.TransactionDate.Format("2006-01-02"), t.Status)
}

// LedgerEntry is the engine's view of a financial ledger record. The engine
// only ever reads these fields and flips PaymentStatus between Pending and
// Paid; entries are created and deleted elsewhere.
type LedgerEntry struct {
	ID            string          `json:"id"`
	Direction     EntryDirection  `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"dueDate"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	PaidOnDate    *time.Time      `json:"paidOnDate,omitempty"`
}

// IsOpenIncome reports whether the entry is an unpaid expected receipt,
// the only kind of entry automatic matching considers.
func (e *LedgerEntry) IsOpenIncome() bool {
	return e.Direction == EntryIncome && e.PaymentStatus == PaymentPending
}

// String returns a string representation of the LedgerEntry.
func (e *LedgerEntry) String() string {
	return fmt.Sprintf("LedgerEntry{ID: %s, Amount: %s, Direction: %s, Due: %s, Status: %s}",
		e.ID, e.Amount.String(), e.Direction, e.DueDate.Format("2006-01-02"), e.PaymentStatus)
}

// MatchCandidate pairs a bank transaction with a plausible ledger entry.
// Computed on demand, never persisted.
type MatchCandidate struct {
	Transaction   *BankTransaction `json:"transaction"`
	Entry         *LedgerEntry     `json:"entry"`
	Score         int              `json:"score"`
	DayDifference int              `json:"dayDifference"`
}

// TransactionDraft is a parsed statement record awaiting persistence.
// It has no store-assigned ID yet; Status is always Pending.
type TransactionDraft struct {
	NaturalKey        string
	TransactionDate   time.Time
	Direction         Direction
	Amount            decimal.Decimal
	Description       string
	SourceFile        string
	SourceInstitution string
	SourceKind        string
}

// Validate performs basic validation on the TransactionDraft.
func (d *TransactionDraft) Validate() error {
	if strings.TrimSpace(d.NaturalKey) == "" {
		return fmt.Errorf("draft natural key cannot be empty")
	}

	if d.TransactionDate.IsZero() {
		return fmt.Errorf("draft transaction date cannot be zero")
	}

	if !d.Direction.IsValid() {
		return fmt.Errorf("invalid draft direction: %s", d.Direction)
	}

	if d.Amount.IsNegative() || d.Amount.IsZero() {
		return fmt.Errorf("draft amount must be positive, got %s", d.Amount.String())
	}

	return nil
}

// Utility functions shared by parsers and stores.

// ParseDecimalFromString parses a decimal value from string with validation,
// stripping common currency symbols and thousand separators.
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseDateWithFormats attempts to parse a calendar date from string using
// the formats commonly seen in bank exports.
func ParseDateWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		"2006-01-02",
		"20060102",
		"01/02/2006",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05",
		"2006/01/02",
		"02-01-2006",
		"Jan 2, 2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return NormalizeDate(t), nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// NormalizeDate truncates a timestamp to its calendar date in UTC. Matching
// operates on dates, never on times of day.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the absolute number of calendar days between two dates.
func DaysBetween(a, b time.Time) int {
	diff := NormalizeDate(a).Sub(NormalizeDate(b))
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}
