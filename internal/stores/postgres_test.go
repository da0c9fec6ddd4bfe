package stores

import (
	"context"
	"testing"
	"time"

	"statement-reconciliation-service/internal/models"
	"statement-reconciliation-service/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool() error = %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func testDraft() *models.TransactionDraft {
	return &models.TransactionDraft{
		NaturalKey:        "TXN-001",
		TransactionDate:   time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Direction:         models.DirectionCredit,
		Amount:            decimal.RequireFromString("500.00"),
		Description:       "Salary March",
		SourceFile:        "statement.ofx",
		SourceInstitution: "testbank",
		SourceKind:        "checking",
	}
}

var transactionRowColumns = []string{
	"id", "natural_key", "transaction_date", "direction", "amount", "description",
	"source_file", "source_institution", "source_kind", "status",
	"linked_entry_id", "reconciled_by", "reconciled_at",
}

func TestPostgresTransactionStore_Insert(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	store := NewPostgresTransactionStore(mock)
	draft := testDraft()

	mock.ExpectExec(`INSERT INTO bank_transactions`).
		WithArgs(pgxmock.AnyArg(), draft.NaturalKey, draft.TransactionDate,
			draft.Direction.String(), draft.Amount, draft.Description,
			draft.SourceFile, draft.SourceInstitution, draft.SourceKind,
			models.StatusPending.String()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	txn, err := store.Insert(ctx, draft)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if txn.ID == "" {
		t.Error("Insert() assigned no ID")
	}
	if txn.Status != models.StatusPending {
		t.Errorf("Status = %q, want %q", txn.Status, models.StatusPending)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresTransactionStore_Insert_UniqueViolation(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	store := NewPostgresTransactionStore(mock)
	draft := testDraft()

	mock.ExpectExec(`INSERT INTO bank_transactions`).
		WithArgs(pgxmock.AnyArg(), draft.NaturalKey, draft.TransactionDate,
			draft.Direction.String(), draft.Amount, draft.Description,
			draft.SourceFile, draft.SourceInstitution, draft.SourceKind,
			models.StatusPending.String()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := store.Insert(ctx, draft)
	if err == nil {
		t.Fatal("Insert() error = nil, want duplicate error")
	}
	if !errors.IsDuplicate(err) {
		t.Errorf("IsDuplicate(err) = false for %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresTransactionStore_ExistsByNaturalKey(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	store := NewPostgresTransactionStore(mock)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("TXN-001").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.ExistsByNaturalKey(ctx, "TXN-001")
	if err != nil {
		t.Fatalf("ExistsByNaturalKey() error = %v", err)
	}
	if !exists {
		t.Error("ExistsByNaturalKey() = false, want true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresTransactionStore_Get(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	store := NewPostgresTransactionStore(mock)

	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT (.+) FROM bank_transactions`).
		WithArgs("tx-1").
		WillReturnRows(pgxmock.NewRows(transactionRowColumns).AddRow(
			"tx-1", "TXN-001", date, "CREDIT", decimal.RequireFromString("500.00"),
			"Salary March", "statement.ofx", "testbank", "checking", "PENDING",
			nil, nil, nil,
		))

	txn, err := store.Get(ctx, "tx-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if txn.NaturalKey != "TXN-001" {
		t.Errorf("NaturalKey = %q, want %q", txn.NaturalKey, "TXN-001")
	}
	if txn.Direction != models.DirectionCredit {
		t.Errorf("Direction = %q, want %q", txn.Direction, models.DirectionCredit)
	}
	if txn.LinkedEntryID != nil {
		t.Errorf("LinkedEntryID = %v, want nil", *txn.LinkedEntryID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresTransactionStore_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	store := NewPostgresTransactionStore(mock)

	mock.ExpectQuery(`SELECT (.+) FROM bank_transactions`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Get(ctx, "missing")
	if err == nil {
		t.Fatal("Get() error = nil, want not found")
	}
	if !errors.IsNotFound(err) {
		t.Errorf("IsNotFound(err) = false for %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresTransactionStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	store := NewPostgresTransactionStore(mock)

	entryID := "entry-1"
	actor := "ops"
	at := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	mutation := StatusMutation{
		Status:        models.StatusReconciled,
		LinkedEntryID: &entryID,
		ReconciledBy:  &actor,
		ReconciledAt:  &at,
	}

	mock.ExpectExec(`UPDATE bank_transactions`).
		WithArgs(models.StatusReconciled.String(), &entryID, &actor, &at, "tx-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := store.UpdateStatus(ctx, "tx-1", mutation); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresTransactionStore_UpdateStatus_NotFound(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	store := NewPostgresTransactionStore(mock)

	mock.ExpectExec(`UPDATE bank_transactions`).
		WithArgs(models.StatusIgnored.String(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.UpdateStatus(ctx, "missing", StatusMutation{Status: models.StatusIgnored})
	if err == nil {
		t.Fatal("UpdateStatus() error = nil, want not found")
	}
	if !errors.IsNotFound(err) {
		t.Errorf("IsNotFound(err) = false for %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresTransactionStore_QueryPending(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	store := NewPostgresTransactionStore(mock)

	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT (.+) FROM bank_transactions`).
		WithArgs(models.StatusPending.String()).
		WillReturnRows(pgxmock.NewRows(transactionRowColumns).
			AddRow("tx-1", "TXN-001", date, "CREDIT", decimal.RequireFromString("500.00"),
				"", "", "", "", "PENDING", nil, nil, nil).
			AddRow("tx-2", "TXN-002", date.AddDate(0, 0, 2), "DEBIT", decimal.RequireFromString("42.50"),
				"", "", "", "", "PENDING", nil, nil, nil))

	pending, err := store.QueryPending(ctx)
	if err != nil {
		t.Fatalf("QueryPending() error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("len(pending) = %d, want 2", len(pending))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

var entryRowColumns = []string{"id", "direction", "amount", "due_date", "payment_status", "paid_on_date"}

func TestPostgresLedgerStore_QueryOpenByAmountAndDueDateRange(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	store := NewPostgresLedgerStore(mock)

	amount := decimal.RequireFromString("500.00")
	from := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM ledger_entries`).
		WithArgs(models.EntryIncome.String(), models.PaymentPending.String(), amount, from, to).
		WillReturnRows(pgxmock.NewRows(entryRowColumns).
			AddRow("entry-1", "INCOME", amount, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), "PENDING", nil))

	entries, err := store.QueryOpenByAmountAndDueDateRange(ctx, amount, from, to)
	if err != nil {
		t.Fatalf("QueryOpenByAmountAndDueDateRange() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if !entries[0].IsOpenIncome() {
		t.Error("entry is not reported as open income")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresLedgerStore_MarkPaid(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	store := NewPostgresLedgerStore(mock)

	paidOn := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE ledger_entries`).
		WithArgs(models.PaymentPaid.String(), paidOn, "entry-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := store.MarkPaid(ctx, "entry-1", paidOn); err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresLedgerStore_MarkPending_NotFound(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	store := NewPostgresLedgerStore(mock)

	mock.ExpectExec(`UPDATE ledger_entries`).
		WithArgs(models.PaymentPending.String(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.MarkPending(ctx, "missing")
	if err == nil {
		t.Fatal("MarkPending() error = nil, want not found")
	}
	if !errors.IsNotFound(err) {
		t.Errorf("IsNotFound(err) = false for %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresLedgerStore_GetEntry_NotFound(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	store := NewPostgresLedgerStore(mock)

	mock.ExpectQuery(`SELECT (.+) FROM ledger_entries`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetEntry(ctx, "missing")
	if err == nil {
		t.Fatal("GetEntry() error = nil, want not found")
	}
	if !errors.IsNotFound(err) {
		t.Errorf("IsNotFound(err) = false for %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
