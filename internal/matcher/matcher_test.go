package matcher

import (
	"context"
	"testing"
	"time"

	"statement-reconciliation-service/internal/models"
	"statement-reconciliation-service/internal/stores"
	"statement-reconciliation-service/pkg/errors"

	"github.com/shopspring/decimal"
)

func TestScoreDayDifference(t *testing.T) {
	tests := []struct {
		days int
		want int
	}{
		{0, 100},
		{1, 90},
		{-1, 90},
		{2, 80},
		{3, 80},
		{4, 70},
		{5, 70},
		{6, 60},
		{30, 60},
	}
	for _, tt := range tests {
		if got := ScoreDayDifference(tt.days); got != tt.want {
			t.Errorf("ScoreDayDifference(%d) = %d, want %d", tt.days, got, tt.want)
		}
	}
}

func pendingCredit(amount string, date time.Time) *models.BankTransaction {
	return &models.BankTransaction{
		ID:              "tx-1",
		NaturalKey:      "TXN-001",
		TransactionDate: date,
		Direction:       models.DirectionCredit,
		Amount:          decimal.RequireFromString(amount),
		Status:          models.StatusPending,
	}
}

func seedEntry(store *stores.MemoryLedgerStore, amount string, due time.Time) *models.LedgerEntry {
	return store.Seed(&models.LedgerEntry{
		Direction:     models.EntryIncome,
		Amount:        decimal.RequireFromString(amount),
		DueDate:       due,
		PaymentStatus: models.PaymentPending,
	})
}

func TestFindCandidates_ScoresAndOrders(t *testing.T) {
	ctx := context.Background()
	ledger := stores.NewMemoryLedgerStore()
	txnDate := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	sameDay := seedEntry(ledger, "500.00", txnDate)
	twoOff := seedEntry(ledger, "500.00", txnDate.AddDate(0, 0, 2))
	fiveOff := seedEntry(ledger, "500.00", txnDate.AddDate(0, 0, -5))
	seedEntry(ledger, "500.00", txnDate.AddDate(0, 0, 9))  // outside window
	seedEntry(ledger, "123.45", txnDate)                   // amount mismatch

	finder, err := NewFinder(ledger, nil)
	if err != nil {
		t.Fatalf("NewFinder() error = %v", err)
	}

	candidates, err := finder.FindCandidates(ctx, pendingCredit("500.00", txnDate))
	if err != nil {
		t.Fatalf("FindCandidates() error = %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("len(candidates) = %d, want 3", len(candidates))
	}

	wantOrder := []struct {
		id    string
		score int
		days  int
	}{
		{sameDay.ID, 100, 0},
		{twoOff.ID, 80, 2},
		{fiveOff.ID, 70, 5},
	}
	for i, want := range wantOrder {
		got := candidates[i]
		if got.Entry.ID != want.id || got.Score != want.score || got.DayDifference != want.days {
			t.Errorf("candidates[%d] = entry %s score %d days %d, want entry %s score %d days %d",
				i, got.Entry.ID, got.Score, got.DayDifference, want.id, want.score, want.days)
		}
	}
}

func TestFindCandidates_DueDatePlusTwo(t *testing.T) {
	ctx := context.Background()
	ledger := stores.NewMemoryLedgerStore()
	txnDate := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	entry := seedEntry(ledger, "500.00", txnDate.AddDate(0, 0, 2))

	finder, _ := NewFinder(ledger, nil)
	candidates, err := finder.FindCandidates(ctx, pendingCredit("500.00", txnDate))
	if err != nil {
		t.Fatalf("FindCandidates() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("len(candidates) = %d, want 1", len(candidates))
	}
	if candidates[0].Entry.ID != entry.ID || candidates[0].Score != 80 {
		t.Errorf("candidate = entry %s score %d, want entry %s score 80",
			candidates[0].Entry.ID, candidates[0].Score, entry.ID)
	}
}

func TestFindCandidates_RejectsDebits(t *testing.T) {
	ctx := context.Background()
	finder, _ := NewFinder(stores.NewMemoryLedgerStore(), nil)

	txn := pendingCredit("500.00", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	txn.Direction = models.DirectionDebit

	_, err := finder.FindCandidates(ctx, txn)
	if !errors.IsInvalidState(err) {
		t.Errorf("FindCandidates(debit) error = %v, want invalid state", err)
	}
}

func TestFindCandidates_RejectsNonPending(t *testing.T) {
	ctx := context.Background()
	finder, _ := NewFinder(stores.NewMemoryLedgerStore(), nil)

	for _, status := range []models.ReconciliationStatus{models.StatusReconciled, models.StatusIgnored} {
		txn := pendingCredit("500.00", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
		txn.Status = status
		if status == models.StatusReconciled {
			entryID := "entry-1"
			txn.LinkedEntryID = &entryID
		}

		_, err := finder.FindCandidates(ctx, txn)
		if !errors.IsInvalidState(err) {
			t.Errorf("FindCandidates(%s) error = %v, want invalid state", status, err)
		}
	}
}

func TestFindCandidates_NoCandidatesIsEmptyNotError(t *testing.T) {
	ctx := context.Background()
	finder, _ := NewFinder(stores.NewMemoryLedgerStore(), nil)

	candidates, err := finder.FindCandidates(ctx,
		pendingCredit("500.00", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("FindCandidates() error = %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("len(candidates) = %d, want 0", len(candidates))
	}
}

func TestFindCandidates_WidenedWindowCapsScore(t *testing.T) {
	ctx := context.Background()
	ledger := stores.NewMemoryLedgerStore()
	txnDate := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	seedEntry(ledger, "500.00", txnDate.AddDate(0, 0, 9))

	finder, err := NewFinder(ledger, &Config{WindowDays: 10})
	if err != nil {
		t.Fatalf("NewFinder() error = %v", err)
	}

	candidates, err := finder.FindCandidates(ctx, pendingCredit("500.00", txnDate))
	if err != nil {
		t.Fatalf("FindCandidates() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("len(candidates) = %d, want 1", len(candidates))
	}
	if candidates[0].Score != 60 {
		t.Errorf("Score = %d, want 60", candidates[0].Score)
	}
}

func TestNewFinder_RejectsNegativeWindow(t *testing.T) {
	if _, err := NewFinder(stores.NewMemoryLedgerStore(), &Config{WindowDays: -1}); err == nil {
		t.Error("NewFinder() error = nil, want configuration error")
	}
}
