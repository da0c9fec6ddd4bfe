// Package importer drives statement ingestion: parse the export, skip
// what was already imported, persist the rest as Pending transactions.
package importer

import (
	"context"
	"fmt"

	"statement-reconciliation-service/internal/models"
	"statement-reconciliation-service/internal/parsers"
	"statement-reconciliation-service/internal/stores"
	"statement-reconciliation-service/pkg/errors"
	"statement-reconciliation-service/pkg/logger"
)

// ImportSummary reports what one statement import did.
type ImportSummary struct {
	Outcome         parsers.Outcome
	Imported        int
	Duplicated      int
	Errored         int
	NewTransactions []*models.BankTransaction
	Warnings        []string
}

// Importer ingests statement exports into the transaction store.
type Importer struct {
	statements   *parsers.StatementParser
	transactions stores.TransactionStore
	notifier     *Notifier
	logger       logger.Logger
}

// New creates an Importer writing to the given transaction store.
func New(transactions stores.TransactionStore) *Importer {
	return &Importer{
		statements:   parsers.NewStatementParser(),
		transactions: transactions,
		notifier:     NewNotifier(),
		logger:       logger.GetGlobalLogger().WithComponent("importer"),
	}
}

// Notifier returns the importer's notifier so callers can subscribe to
// successful imports.
func (i *Importer) Notifier() *Notifier {
	return i.notifier
}

// ImportStatement parses a statement export and persists every record not
// already known.
//
// A file no strategy can parse aborts the import with a coded parse error
// and persists nothing. Once parsing succeeded, records are isolated: a
// store failure on one draft is counted and reported as a warning while
// the rest of the batch continues. A natural-key collision detected at
// insert time counts as a duplicate, not an error, so concurrent imports
// of the same file converge on the same outcome.
func (i *Importer) ImportStatement(ctx context.Context, data []byte, sourceFile, institution, kind string) (*ImportSummary, error) {
	source := parsers.Source{File: sourceFile, Institution: institution, Kind: kind}
	log := i.logger.WithField("source_file", sourceFile)

	result, err := i.parse(data, source)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{
		Outcome:  result.Outcome,
		Warnings: result.Warnings,
	}

	for _, draft := range result.Drafts {
		exists, err := i.transactions.ExistsByNaturalKey(ctx, draft.NaturalKey)
		if err != nil {
			summary.Errored++
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("record %s: dedup check failed: %v", draft.NaturalKey, err))
			continue
		}
		if exists {
			summary.Duplicated++
			continue
		}

		txn, err := i.transactions.Insert(ctx, draft)
		if err != nil {
			if errors.IsDuplicate(err) {
				// Lost an insert race; same outcome as the pre-check.
				summary.Duplicated++
				continue
			}
			summary.Errored++
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("record %s: insert failed: %v", draft.NaturalKey, err))
			continue
		}

		summary.Imported++
		summary.NewTransactions = append(summary.NewTransactions, txn)
		i.notifier.Notify(txn)
	}

	log.WithFields(logger.Fields{
		"outcome":    summary.Outcome,
		"imported":   summary.Imported,
		"duplicated": summary.Duplicated,
		"errored":    summary.Errored,
	}).Info("Statement import finished")

	return summary, nil
}

func (i *Importer) parse(data []byte, source parsers.Source) (*parsers.Result, error) {
	if parsers.LooksDelimited(source.File) {
		parser, err := parsers.NewDelimitedParser(nil)
		if err != nil {
			return nil, errors.InternalError("build delimited parser", err)
		}
		return parser.Parse(data, source)
	}
	return i.statements.Parse(data, source)
}
