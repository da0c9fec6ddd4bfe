package parsers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// KeySynthesizer builds deterministic natural keys for statement records
// that carry no transaction identifier of their own.
//
// The key is a SHA256 over date, amount, normalized memo, and an
// occurrence counter. The counter makes two otherwise identical records in
// one file produce distinct keys, while re-parsing the same file in order
// reproduces the same sequence of keys, so re-imports deduplicate cleanly.
// One synthesizer instance covers exactly one file; it is not safe for
// concurrent use.
type KeySynthesizer struct {
	occurrences map[string]int
}

// NewKeySynthesizer creates a KeySynthesizer for a single file.
func NewKeySynthesizer() *KeySynthesizer {
	return &KeySynthesizer{
		occurrences: make(map[string]int),
	}
}

// Key returns the natural key for a record described by its posted date,
// signed amount, and memo text.
func (ks *KeySynthesizer) Key(date time.Time, amount decimal.Decimal, memo string) string {
	base := fmt.Sprintf("%s|%s|%s",
		date.Format("2006-01-02"),
		amount.StringFixed(2),
		NormalizeMemo(memo))

	n := ks.occurrences[base]
	ks.occurrences[base] = n + 1

	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", base, n)))
	return hex.EncodeToString(hash[:])
}

// NormalizeMemo canonicalizes memo text for key synthesis: diacritics are
// stripped so re-exports that differ only in accent encoding still hash
// identically, whitespace is collapsed, and the result is lowercased.
func NormalizeMemo(memo string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	normalized, _, err := transform.String(t, memo)
	if err != nil {
		// Unlikely for any valid UTF-8 input; fall back to the raw memo so
		// the key is still deterministic.
		normalized = memo
	}

	return strings.ToLower(strings.Join(strings.Fields(normalized), " "))
}
