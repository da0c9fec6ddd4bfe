package parsers

import (
	"fmt"
	"regexp"
	"strings"

	"statement-reconciliation-service/internal/models"
)

// Tolerant parsing recovers per-transaction blocks from files the strict
// grammar rejects: truncated exports, stray bytes between records, SGML
// tag soup. Each field is extracted independently per block; a block is
// only dropped when it lacks the two fields a draft cannot exist without
// (amount and date), and every drop is reported as a warning.

var (
	blockStartPattern = regexp.MustCompile(`(?i)<STMTTRN>`)
	blockEndPattern   = regexp.MustCompile(`(?i)</STMTTRN>`)

	datePattern   = regexp.MustCompile(`(?i)<DTPOSTED>\s*(\d{8})`)
	amountPattern = regexp.MustCompile(`(?i)<TRNAMT>\s*([+-]?[\d.,]+)`)
	idPattern     = regexp.MustCompile(`(?i)<FITID>\s*([^\r\n<]+)`)
	namePattern   = regexp.MustCompile(`(?i)<NAME>\s*([^\r\n<]+)`)
	memoPattern   = regexp.MustCompile(`(?i)<MEMO>\s*([^\r\n<]+)`)
)

// parseTolerant scans raw text for repeating transaction blocks. It never
// fails; zero drafts from a file the strict parser also rejected is the
// caller's signal to report a hard parse failure.
func parseTolerant(data []byte, source Source) ([]*models.TransactionDraft, []string) {
	text := string(data)
	starts := blockStartPattern.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		return nil, nil
	}

	keys := NewKeySynthesizer()
	var drafts []*models.TransactionDraft
	var warnings []string

	for i, start := range starts {
		// A block runs from its opening tag to the next block's opening
		// tag (or end of file); a missing closing tag does not lose the
		// following blocks.
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		block := text[start[1]:end]
		if loc := blockEndPattern.FindStringIndex(block); loc != nil {
			block = block[:loc[0]]
		}

		draft, warning := parseBlock(block, i, source, keys)
		if warning != "" {
			warnings = append(warnings, warning)
		}
		if draft != nil {
			drafts = append(drafts, draft)
		}
	}

	return drafts, warnings
}

// parseBlock extracts one draft from a transaction block. Fields are
// independent: a missing id or memo never aborts the block.
func parseBlock(block string, index int, source Source, keys *KeySynthesizer) (*models.TransactionDraft, string) {
	amountMatch := amountPattern.FindStringSubmatch(block)
	if amountMatch == nil {
		return nil, fmt.Sprintf("block %d: no amount found, skipped", index)
	}
	signed, err := models.ParseDecimalFromString(amountMatch[1])
	if err != nil {
		return nil, fmt.Sprintf("block %d: unreadable amount %q, skipped", index, amountMatch[1])
	}
	if signed.IsZero() {
		return nil, fmt.Sprintf("block %d: zero amount, skipped", index)
	}

	dateMatch := datePattern.FindStringSubmatch(block)
	if dateMatch == nil {
		return nil, fmt.Sprintf("block %d: no posted date found, skipped", index)
	}
	date, err := models.ParseDateWithFormats(dateMatch[1])
	if err != nil {
		return nil, fmt.Sprintf("block %d: unreadable date %q, skipped", index, dateMatch[1])
	}

	description := ""
	if m := namePattern.FindStringSubmatch(block); m != nil {
		description = strings.TrimSpace(m[1])
	}
	if description == "" {
		if m := memoPattern.FindStringSubmatch(block); m != nil {
			description = strings.TrimSpace(m[1])
		}
	}

	naturalKey := ""
	if m := idPattern.FindStringSubmatch(block); m != nil {
		naturalKey = strings.TrimSpace(m[1])
	}
	if naturalKey == "" {
		naturalKey = keys.Key(date, signed, description)
	}

	return draftFromSigned(naturalKey, date, signed, description, source), ""
}
