package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validTransaction() *BankTransaction {
	return &BankTransaction{
		ID:              "1",
		NaturalKey:      "FITID-001",
		TransactionDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Direction:       DirectionCredit,
		Amount:          decimal.NewFromFloat(500.00),
		Description:     "Wire transfer",
		SourceFile:      "stmt.ofx",
		Status:          StatusPending,
	}
}

func TestBankTransaction_Validate(t *testing.T) {
	entryID := "L1"

	tests := []struct {
		name    string
		mutate  func(*BankTransaction)
		wantErr bool
	}{
		{"valid pending", func(tx *BankTransaction) {}, false},
		{"empty natural key", func(tx *BankTransaction) { tx.NaturalKey = "  " }, true},
		{"zero date", func(tx *BankTransaction) { tx.TransactionDate = time.Time{} }, true},
		{"bad direction", func(tx *BankTransaction) { tx.Direction = "SIDEWAYS" }, true},
		{"zero amount", func(tx *BankTransaction) { tx.Amount = decimal.Zero }, true},
		{"negative amount", func(tx *BankTransaction) { tx.Amount = decimal.NewFromFloat(-1) }, true},
		{"bad status", func(tx *BankTransaction) { tx.Status = "MAYBE" }, true},
		{"reconciled without link", func(tx *BankTransaction) { tx.Status = StatusReconciled }, true},
		{"pending with link", func(tx *BankTransaction) { tx.LinkedEntryID = &entryID }, true},
		{"reconciled with link", func(tx *BankTransaction) {
			tx.Status = StatusReconciled
			tx.LinkedEntryID = &entryID
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(tx)
			err := tx.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionDraft_Validate(t *testing.T) {
	draft := &TransactionDraft{
		NaturalKey:      "KEY1",
		TransactionDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Direction:       DirectionDebit,
		Amount:          decimal.NewFromFloat(150.00),
	}

	if err := draft.Validate(); err != nil {
		t.Errorf("Expected valid draft, got %v", err)
	}

	draft.Amount = decimal.NewFromFloat(-150.00)
	if err := draft.Validate(); err == nil {
		t.Error("Expected error for negative draft amount")
	}
}

func TestLedgerEntry_IsOpenIncome(t *testing.T) {
	tests := []struct {
		name     string
		entry    LedgerEntry
		expected bool
	}{
		{"income pending", LedgerEntry{Direction: EntryIncome, PaymentStatus: PaymentPending}, true},
		{"income paid", LedgerEntry{Direction: EntryIncome, PaymentStatus: PaymentPaid}, false},
		{"expense pending", LedgerEntry{Direction: EntryExpense, PaymentStatus: PaymentPending}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.IsOpenIncome(); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestParseDecimalFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"150.00", "150", false},
		{"-150.00", "-150", false},
		{"$1,234.56", "1234.56", false},
		{"  42.10  ", "42.1", false},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := ParseDecimalFromString(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalFromString(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && d.String() != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, d.String())
			}
		})
	}
}

func TestParseDateWithFormats(t *testing.T) {
	expected := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	inputs := []string{"2024-03-10", "20240310", "03/10/2024", "2024/03/10"}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			got, err := ParseDateWithFormats(input)
			if err != nil {
				t.Fatalf("ParseDateWithFormats(%q) failed: %v", input, err)
			}
			if !got.Equal(expected) {
				t.Errorf("Expected %v, got %v", expected, got)
			}
		})
	}

	if _, err := ParseDateWithFormats("not-a-date"); err == nil {
		t.Error("Expected error for unparseable date")
	}
}

func TestParseDateWithFormats_DropsTimeComponent(t *testing.T) {
	got, err := ParseDateWithFormats("2024-03-10 14:22:05")
	if err != nil {
		t.Fatalf("ParseDateWithFormats failed: %v", err)
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("Expected midnight UTC, got %v", got)
	}
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		other    time.Time
		expected int
	}{
		{"same day", base, 0},
		{"next day", base.AddDate(0, 0, 1), 1},
		{"two days earlier", base.AddDate(0, 0, -2), 2},
		{"ignores time of day", time.Date(2024, 3, 12, 23, 59, 0, 0, time.UTC), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(base, tt.other); got != tt.expected {
				t.Errorf("Expected %d days, got %d", tt.expected, got)
			}
		})
	}
}
