// Package parsers converts raw bank-export bytes into normalized
// transaction drafts.
//
// Two input families are supported:
//
//   - Tagged-record exports (OFX/QFX style). These go through a strategy
//     chain: a strict parse of the full grammar first, then a tolerant
//     per-block scan when the strict parser rejects the whole file. Each
//     strategy returns a typed outcome rather than throwing; only when
//     both strategies produce zero records is the file reported as a hard
//     parse failure, so an unparseable file is never confused with a
//     legitimately empty statement.
//
//   - Delimited (CSV-like) exports with caller-mapped columns.
//
// Parsing is a pure transform: no store is touched, and drafts carry no
// store-assigned ID. When an export provides no transaction identifier, a
// deterministic natural key is synthesized so that re-importing the same
// file yields the same keys while same-day/same-amount/same-memo twins in
// one file stay distinct.
package parsers

import (
	"strings"

	"statement-reconciliation-service/internal/models"
	"statement-reconciliation-service/pkg/errors"
	"statement-reconciliation-service/pkg/logger"
)

// Outcome identifies which strategy produced a parse result.
type Outcome string

const (
	// OutcomeStrict means the structured grammar accepted the whole file
	OutcomeStrict Outcome = "strict"
	// OutcomeTolerant means the lenient block scan recovered records after
	// the strict parser rejected the file
	OutcomeTolerant Outcome = "tolerant"
	// OutcomeFailed means no strategy extracted any record
	OutcomeFailed Outcome = "failed"
)

// Result is the output of parsing one statement file.
type Result struct {
	Outcome  Outcome
	Drafts   []*models.TransactionDraft
	Warnings []string
}

// Source describes where a statement file came from. Carried verbatim into
// every draft's metadata.
type Source struct {
	File        string
	Institution string
	Kind        string
}

// StatementParser parses tagged-record bank exports with a
// strict-then-tolerant strategy chain.
type StatementParser struct {
	logger logger.Logger
}

// NewStatementParser creates a StatementParser.
func NewStatementParser() *StatementParser {
	return &StatementParser{
		logger: logger.GetGlobalLogger().WithComponent("statement_parser"),
	}
}

// Parse converts raw tagged-record export bytes into transaction drafts.
//
// The strict grammar is attempted first. If it rejects the file, the
// tolerant block scan runs. A hard failure (coded parse_failed) is
// returned only when both strategies yield zero records from a non-empty
// unparseable file; a strictly-parsed statement containing no
// transactions is a valid empty result.
func (p *StatementParser) Parse(data []byte, source Source) (*Result, error) {
	log := p.logger.WithField("source_file", source.File)

	drafts, err := parseStrict(data, source)
	if err == nil {
		log.WithFields(logger.Fields{
			"strategy": OutcomeStrict,
			"records":  len(drafts),
		}).Info("Statement parsed")
		return &Result{Outcome: OutcomeStrict, Drafts: drafts}, nil
	}

	log.WithError(err).Debug("Strict parse rejected file, trying tolerant scan")

	drafts, warnings := parseTolerant(data, source)
	if len(drafts) > 0 {
		log.WithFields(logger.Fields{
			"strategy": OutcomeTolerant,
			"records":  len(drafts),
			"warnings": len(warnings),
		}).Warn("Statement recovered by tolerant parse")
		return &Result{Outcome: OutcomeTolerant, Drafts: drafts, Warnings: warnings}, nil
	}

	log.WithError(err).Error("Statement rejected by every parsing strategy")
	return &Result{Outcome: OutcomeFailed, Warnings: warnings},
		errors.ParseFailure(source.File, err)
}

// LooksDelimited reports whether a file name suggests a delimited export
// rather than a tagged-record one.
func LooksDelimited(fileName string) bool {
	lower := strings.ToLower(fileName)
	return strings.HasSuffix(lower, ".csv") || strings.HasSuffix(lower, ".tsv") || strings.HasSuffix(lower, ".txt")
}
