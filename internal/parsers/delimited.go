package parsers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"statement-reconciliation-service/internal/models"
	"statement-reconciliation-service/pkg/errors"
	"statement-reconciliation-service/pkg/logger"
)

// DelimitedConfig maps the columns of a delimited (CSV-like) export onto
// draft fields. The identifier column is optional; when absent or empty,
// natural keys are synthesized.
type DelimitedConfig struct {
	DateColumn        string
	AmountColumn      string
	DescriptionColumn string
	IdentifierColumn  string
	HasHeader         bool
	Delimiter         rune
	ColumnAliases     map[string]string
}

// DefaultDelimitedConfig returns a configuration for the common
// date/amount/description export shape.
func DefaultDelimitedConfig() *DelimitedConfig {
	return &DelimitedConfig{
		DateColumn:        "date",
		AmountColumn:      "amount",
		DescriptionColumn: "description",
		IdentifierColumn:  "",
		HasHeader:         true,
		Delimiter:         ',',
		ColumnAliases: map[string]string{
			"posting_date":     "date",
			"posted_date":      "date",
			"transaction_date": "date",
			"value_date":       "date",
			"amt":              "amount",
			"value":            "amount",
			"memo":             "description",
			"details":          "description",
			"narrative":        "description",
			"reference":        "identifier",
			"transaction_id":   "identifier",
			"fitid":            "identifier",
		},
	}
}

// Validate validates the delimited configuration.
func (c *DelimitedConfig) Validate() error {
	if strings.TrimSpace(c.DateColumn) == "" {
		return fmt.Errorf("date column is required")
	}
	if strings.TrimSpace(c.AmountColumn) == "" {
		return fmt.Errorf("amount column is required")
	}
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter is required")
	}
	return nil
}

// DelimitedParser parses delimited exports with caller-mapped columns.
type DelimitedParser struct {
	config *DelimitedConfig
	logger logger.Logger
}

// NewDelimitedParser creates a DelimitedParser with the given configuration.
func NewDelimitedParser(config *DelimitedConfig) (*DelimitedParser, error) {
	if config == nil {
		config = DefaultDelimitedConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid delimited configuration: %w", err)
	}
	return &DelimitedParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("delimited_parser"),
	}, nil
}

// Parse converts delimited export bytes into transaction drafts. Rows that
// cannot be parsed are skipped with a warning; the file as a whole fails
// (coded parse_failed) only when it contained rows and none survived.
func (p *DelimitedParser) Parse(data []byte, source Source) (*Result, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = p.config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	log := p.logger.WithField("source_file", source.File)

	columns, err := p.readColumns(reader)
	if err != nil {
		log.WithError(err).Error("Delimited header rejected")
		return &Result{Outcome: OutcomeFailed}, errors.ParseFailure(source.File, err)
	}

	keys := NewKeySynthesizer()
	var drafts []*models.TransactionDraft
	var warnings []string
	line := 0
	rows := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("line %d: unreadable row, skipped", line))
			continue
		}
		if isEmptyRecord(record) {
			continue
		}
		rows++

		draft, warning := p.parseRecord(record, columns, line, source, keys)
		if warning != "" {
			warnings = append(warnings, warning)
		}
		if draft != nil {
			drafts = append(drafts, draft)
		}
	}

	if rows > 0 && len(drafts) == 0 {
		log.WithField("rows", rows).Error("No delimited row could be parsed")
		return &Result{Outcome: OutcomeFailed, Warnings: warnings},
			errors.ParseFailure(source.File, fmt.Errorf("%d rows present, none parseable", rows))
	}

	log.WithFields(logger.Fields{
		"records":  len(drafts),
		"warnings": len(warnings),
	}).Info("Delimited statement parsed")

	return &Result{Outcome: OutcomeStrict, Drafts: drafts, Warnings: warnings}, nil
}

// columnIndex maps logical field names to record positions.
type columnIndex map[string]int

// readColumns resolves field positions from the header row, applying
// aliases, or from the configured order when the file has no header.
func (p *DelimitedParser) readColumns(reader *csv.Reader) (columnIndex, error) {
	columns := make(columnIndex)

	if !p.config.HasHeader {
		// Positional fallback: date, amount, description, identifier.
		columns["date"] = 0
		columns["amount"] = 1
		columns["description"] = 2
		if p.config.IdentifierColumn != "" {
			columns["identifier"] = 3
		}
		return columns, nil
	}

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read header row: %w", err)
	}

	for i, header := range headers {
		name := strings.ToLower(strings.TrimSpace(header))
		if alias, ok := p.config.ColumnAliases[name]; ok {
			name = alias
		}
		switch name {
		case strings.ToLower(p.config.DateColumn), "date":
			columns["date"] = i
		case strings.ToLower(p.config.AmountColumn), "amount":
			columns["amount"] = i
		case strings.ToLower(p.config.DescriptionColumn), "description":
			columns["description"] = i
		case strings.ToLower(p.config.IdentifierColumn), "identifier":
			if name != "" {
				columns["identifier"] = i
			}
		}
	}

	if _, ok := columns["date"]; !ok {
		return nil, fmt.Errorf("required column %q not found in header", p.config.DateColumn)
	}
	if _, ok := columns["amount"]; !ok {
		return nil, fmt.Errorf("required column %q not found in header", p.config.AmountColumn)
	}

	return columns, nil
}

// parseRecord converts one row into a draft.
func (p *DelimitedParser) parseRecord(record []string, columns columnIndex, line int, source Source, keys *KeySynthesizer) (*models.TransactionDraft, string) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	signed, err := models.ParseDecimalFromString(field("amount"))
	if err != nil {
		return nil, fmt.Sprintf("line %d: invalid amount: %v", line, err)
	}
	if signed.IsZero() {
		return nil, fmt.Sprintf("line %d: zero amount, skipped", line)
	}

	date, err := models.ParseDateWithFormats(field("date"))
	if err != nil {
		return nil, fmt.Sprintf("line %d: invalid date: %v", line, err)
	}

	description := field("description")

	naturalKey := field("identifier")
	if naturalKey == "" {
		naturalKey = keys.Key(date, signed, description)
	}

	return draftFromSigned(naturalKey, date, signed, description, source), ""
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
