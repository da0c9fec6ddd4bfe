package stores

import (
	"context"
	stderrors "errors"
	"time"

	"statement-reconciliation-service/internal/models"
	"statement-reconciliation-service/pkg/errors"
	"statement-reconciliation-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Schema is the DDL for the tables this package owns. It is exported so
// operators can apply it with the tooling of their choice; the engine
// itself never migrates.
const Schema = `
CREATE TABLE IF NOT EXISTS bank_transactions (
    id                 UUID PRIMARY KEY,
    natural_key        TEXT NOT NULL UNIQUE,
    transaction_date   DATE NOT NULL,
    direction          TEXT NOT NULL,
    amount             NUMERIC(14,2) NOT NULL,
    description        TEXT NOT NULL DEFAULT '',
    source_file        TEXT NOT NULL DEFAULT '',
    source_institution TEXT NOT NULL DEFAULT '',
    source_kind        TEXT NOT NULL DEFAULT '',
    status             TEXT NOT NULL DEFAULT 'PENDING',
    linked_entry_id    UUID,
    reconciled_by      TEXT,
    reconciled_at      TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_bank_transactions_status
    ON bank_transactions (status);
CREATE INDEX IF NOT EXISTS idx_bank_transactions_date
    ON bank_transactions (transaction_date);

CREATE TABLE IF NOT EXISTS ledger_entries (
    id             UUID PRIMARY KEY,
    direction      TEXT NOT NULL,
    amount         NUMERIC(14,2) NOT NULL,
    due_date       DATE NOT NULL,
    payment_status TEXT NOT NULL DEFAULT 'PENDING',
    paid_on_date   DATE
);

CREATE INDEX IF NOT EXISTS idx_ledger_entries_open
    ON ledger_entries (amount, due_date)
    WHERE payment_status = 'PENDING';
`

// Querier supports database operations for both pool and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

var _ Querier = (*pgxpool.Pool)(nil)
var _ Querier = (pgx.Tx)(nil)

// Connect opens a pgx connection pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.StorageError("parse database url", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, errors.StorageError("create connection pool", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.StorageError("ping database", err)
	}

	logger.GetGlobalLogger().WithComponent("stores").Info("Connected to PostgreSQL")
	return pool, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == "23505"
}

const transactionColumns = `id, natural_key, transaction_date, direction, amount, description,
	       source_file, source_institution, source_kind, status,
	       linked_entry_id, reconciled_by, reconciled_at`

// PostgresTransactionStore implements TransactionStore on PostgreSQL.
type PostgresTransactionStore struct {
	querier Querier
	logger  logger.Logger
}

// NewPostgresTransactionStore creates a TransactionStore backed by the
// given querier (a pool or an open transaction).
func NewPostgresTransactionStore(querier Querier) *PostgresTransactionStore {
	return &PostgresTransactionStore{
		querier: querier,
		logger:  logger.GetGlobalLogger().WithComponent("transaction_store"),
	}
}

// WithTx returns a copy of the store bound to the given transaction.
func (s *PostgresTransactionStore) WithTx(tx pgx.Tx) *PostgresTransactionStore {
	return &PostgresTransactionStore{querier: tx, logger: s.logger}
}

// ExistsByNaturalKey reports whether a natural key is already present.
func (s *PostgresTransactionStore) ExistsByNaturalKey(ctx context.Context, naturalKey string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM bank_transactions WHERE natural_key = $1)`

	var exists bool
	if err := s.querier.QueryRow(ctx, query, naturalKey).Scan(&exists); err != nil {
		s.logger.WithError(err).WithField("natural_key", naturalKey).Error("Existence check failed")
		return false, errors.StorageError("check natural key", err)
	}
	return exists, nil
}

// Insert persists a draft as a new Pending transaction.
func (s *PostgresTransactionStore) Insert(ctx context.Context, draft *models.TransactionDraft) (*models.BankTransaction, error) {
	if err := draft.Validate(); err != nil {
		return nil, errors.StorageError("validate draft", err)
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

	query := `
		INSERT INTO bank_transactions (id, natural_key, transaction_date, direction, amount, description,
		                               source_file, source_institution, source_kind, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.querier.Exec(ctx, query,
		txn.ID,
		txn.NaturalKey,
		txn.TransactionDate,
		txn.Direction.String(),
		txn.Amount,
		txn.Description,
		txn.SourceFile,
		txn.SourceInstitution,
		txn.SourceKind,
		txn.Status.String(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.DuplicateTransaction(txn.NaturalKey)
		}
		s.logger.WithError(err).WithField("natural_key", txn.NaturalKey).Error("Insert failed")
		return nil, errors.StorageError("insert transaction", err)
	}

	return txn, nil
}

// Get returns a transaction by ID.
func (s *PostgresTransactionStore) Get(ctx context.Context, id string) (*models.BankTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM bank_transactions
		WHERE id = $1
	`

	txn, err := scanTransaction(s.querier.QueryRow(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("transaction", id)
		}
		s.logger.WithError(err).WithField("transaction_id", id).Error("Get failed")
		return nil, errors.StorageError("get transaction", err)
	}
	return txn, nil
}

// UpdateStatus applies a status mutation to a transaction.
func (s *PostgresTransactionStore) UpdateStatus(ctx context.Context, id string, mutation StatusMutation) error {
	query := `
		UPDATE bank_transactions
		SET status = $1, linked_entry_id = $2, reconciled_by = $3, reconciled_at = $4
		WHERE id = $5
	`

	result, err := s.querier.Exec(ctx, query,
		mutation.Status.String(),
		mutation.LinkedEntryID,
		mutation.ReconciledBy,
		mutation.ReconciledAt,
		id,
	)
	if err != nil {
		s.logger.WithError(err).WithField("transaction_id", id).Error("Status update failed")
		return errors.StorageError("update transaction status", err)
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("transaction", id)
	}
	return nil
}

// QueryPending returns all Pending transactions, oldest first.
func (s *PostgresTransactionStore) QueryPending(ctx context.Context) ([]*models.BankTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM bank_transactions
		WHERE status = $1
		ORDER BY transaction_date, natural_key
	`

	rows, err := s.querier.Query(ctx, query, models.StatusPending.String())
	if err != nil {
		return nil, errors.StorageError("query pending transactions", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// QueryByDateRange returns transactions dated in [from, to], oldest first.
func (s *PostgresTransactionStore) QueryByDateRange(ctx context.Context, from, to time.Time) ([]*models.BankTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM bank_transactions
		WHERE transaction_date >= $1 AND transaction_date <= $2
		ORDER BY transaction_date, natural_key
	`

	rows, err := s.querier.Query(ctx, query, models.NormalizeDate(from), models.NormalizeDate(to))
	if err != nil {
		return nil, errors.StorageError("query transactions by date range", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]*models.BankTransaction, error) {
	var transactions []*models.BankTransaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, errors.StorageError("scan transaction row", err)
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError("iterate transaction rows", err)
	}
	return transactions, nil
}

func scanTransaction(row pgx.Row) (*models.BankTransaction, error) {
	var txn models.BankTransaction
	var direction, status string

	err := row.Scan(
		&txn.ID,
		&txn.NaturalKey,
		&txn.TransactionDate,
		&direction,
		&txn.Amount,
		&txn.Description,
		&txn.SourceFile,
		&txn.SourceInstitution,
		&txn.SourceKind,
		&status,
		&txn.LinkedEntryID,
		&txn.ReconciledBy,
		&txn.ReconciledAt,
	)
	if err != nil {
		return nil, err
	}

	txn.Direction = models.Direction(direction)
	txn.Status = models.ReconciliationStatus(status)
	txn.TransactionDate = models.NormalizeDate(txn.TransactionDate)
	return &txn, nil
}

// PostgresLedgerStore implements LedgerStore on PostgreSQL.
type PostgresLedgerStore struct {
	querier Querier
	logger  logger.Logger
}

// NewPostgresLedgerStore creates a LedgerStore backed by the given querier.
func NewPostgresLedgerStore(querier Querier) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		querier: querier,
		logger:  logger.GetGlobalLogger().WithComponent("ledger_store"),
	}
}

// GetEntry returns a ledger entry by ID.
func (s *PostgresLedgerStore) GetEntry(ctx context.Context, id string) (*models.LedgerEntry, error) {
	query := `
		SELECT id, direction, amount, due_date, payment_status, paid_on_date
		FROM ledger_entries
		WHERE id = $1
	`

	entry, err := scanEntry(s.querier.QueryRow(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("ledger entry", id)
		}
		s.logger.WithError(err).WithField("entry_id", id).Error("Get entry failed")
		return nil, errors.StorageError("get ledger entry", err)
	}
	return entry, nil
}

// QueryOpenByAmountAndDueDateRange returns unpaid income entries with the
// exact amount and a due date in [from, to].
func (s *PostgresLedgerStore) QueryOpenByAmountAndDueDateRange(ctx context.Context, amount decimal.Decimal, from, to time.Time) ([]*models.LedgerEntry, error) {
	query := `
		SELECT id, direction, amount, due_date, payment_status, paid_on_date
		FROM ledger_entries
		WHERE direction = $1 AND payment_status = $2
		  AND amount = $3 AND due_date >= $4 AND due_date <= $5
		ORDER BY due_date, id
	`

	rows, err := s.querier.Query(ctx, query,
		models.EntryIncome.String(),
		models.PaymentPending.String(),
		amount,
		models.NormalizeDate(from),
		models.NormalizeDate(to),
	)
	if err != nil {
		return nil, errors.StorageError("query open ledger entries", err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, errors.StorageError("scan ledger entry row", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError("iterate ledger entry rows", err)
	}
	return entries, nil
}

// MarkPaid settles an entry with the given settlement date.
func (s *PostgresLedgerStore) MarkPaid(ctx context.Context, id string, paidOn time.Time) error {
	query := `
		UPDATE ledger_entries
		SET payment_status = $1, paid_on_date = $2
		WHERE id = $3
	`

	result, err := s.querier.Exec(ctx, query,
		models.PaymentPaid.String(),
		models.NormalizeDate(paidOn),
		id,
	)
	if err != nil {
		s.logger.WithError(err).WithField("entry_id", id).Error("Mark paid failed")
		return errors.StorageError("mark ledger entry paid", err)
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("ledger entry", id)
	}
	return nil
}

// MarkPending reopens an entry and clears its paid-on date.
func (s *PostgresLedgerStore) MarkPending(ctx context.Context, id string) error {
	query := `
		UPDATE ledger_entries
		SET payment_status = $1, paid_on_date = NULL
		WHERE id = $2
	`

	result, err := s.querier.Exec(ctx, query, models.PaymentPending.String(), id)
	if err != nil {
		s.logger.WithError(err).WithField("entry_id", id).Error("Mark pending failed")
		return errors.StorageError("mark ledger entry pending", err)
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("ledger entry", id)
	}
	return nil
}

func scanEntry(row pgx.Row) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	var direction, status string

	err := row.Scan(
		&entry.ID,
		&direction,
		&entry.Amount,
		&entry.DueDate,
		&status,
		&entry.PaidOnDate,
	)
	if err != nil {
		return nil, err
	}

	entry.Direction = models.EntryDirection(direction)
	entry.PaymentStatus = models.PaymentStatus(status)
	entry.DueDate = models.NormalizeDate(entry.DueDate)
	if entry.PaidOnDate != nil {
		paidOn := models.NormalizeDate(*entry.PaidOnDate)
		entry.PaidOnDate = &paidOn
	}
	return &entry, nil
}

var _ TransactionStore = (*PostgresTransactionStore)(nil)
var _ LedgerStore = (*PostgresLedgerStore)(nil)
