package parsers

import (
	"time"

	"statement-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// draftFromSigned builds a draft from a signed amount: negative means
// debit, positive means credit, and the stored magnitude is always the
// absolute value.
func draftFromSigned(naturalKey string, date time.Time, signed decimal.Decimal, description string, source Source) *models.TransactionDraft {
	direction := models.DirectionCredit
	if signed.IsNegative() {
		direction = models.DirectionDebit
	}

	return &models.TransactionDraft{
		NaturalKey:        naturalKey,
		TransactionDate:   models.NormalizeDate(date),
		Direction:         direction,
		Amount:            signed.Abs(),
		Description:       description,
		SourceFile:        source.File,
		SourceInstitution: source.Institution,
		SourceKind:        source.Kind,
	}
}
