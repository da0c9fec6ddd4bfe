package parsers

import (
	"bytes"
	"fmt"
	"strings"

	"statement-reconciliation-service/internal/models"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

// parseStrict runs the structured tagged-record grammar over the whole
// file. A single malformed record makes the grammar reject the entire
// file, which is what triggers the tolerant fallback.
func parseStrict(data []byte, source Source) ([]*models.TransactionDraft, error) {
	response, err := ofxgo.ParseResponse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("structured parse rejected file: %w", err)
	}

	keys := NewKeySynthesizer()
	var drafts []*models.TransactionDraft

	for _, message := range response.Bank {
		statement, ok := message.(*ofxgo.StatementResponse)
		if !ok {
			return nil, fmt.Errorf("unexpected bank statement type %T", message)
		}
		if statement.BankTranList == nil {
			continue
		}
		batch, err := draftsFromTransactions(statement.BankTranList.Transactions, source, keys)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, batch...)
	}

	for _, message := range response.CreditCard {
		statement, ok := message.(*ofxgo.CCStatementResponse)
		if !ok {
			return nil, fmt.Errorf("unexpected credit card statement type %T", message)
		}
		if statement.BankTranList == nil {
			continue
		}
		batch, err := draftsFromTransactions(statement.BankTranList.Transactions, source, keys)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, batch...)
	}

	if len(response.Bank) == 0 && len(response.CreditCard) == 0 {
		return nil, fmt.Errorf("no bank or credit card statement in file")
	}

	return drafts, nil
}

// draftsFromTransactions converts structured records into drafts. Strict
// parsing is all-or-nothing: any invalid record rejects the file.
func draftsFromTransactions(transactions []ofxgo.Transaction, source Source, keys *KeySynthesizer) ([]*models.TransactionDraft, error) {
	drafts := make([]*models.TransactionDraft, 0, len(transactions))

	for i, txn := range transactions {
		signed := decimal.NewFromBigRat(&txn.TrnAmt.Rat, 2)
		if signed.IsZero() {
			return nil, fmt.Errorf("record %d has zero amount", i)
		}

		date := txn.DtPosted.Time
		if date.IsZero() {
			date = txn.DtUser.Time
		}
		if date.IsZero() {
			return nil, fmt.Errorf("record %d has no posted date", i)
		}

		description := strings.TrimSpace(txn.Name.String())
		if description == "" {
			description = strings.TrimSpace(txn.Memo.String())
		}

		naturalKey := strings.TrimSpace(txn.FiTID.String())
		if naturalKey == "" {
			naturalKey = keys.Key(date, signed, description)
		}

		drafts = append(drafts, draftFromSigned(naturalKey, date, signed, description, source))
	}

	return drafts, nil
}

