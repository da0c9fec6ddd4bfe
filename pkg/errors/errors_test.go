package errors

import (
	"fmt"
	"testing"
)

func TestEngineError_Error(t *testing.T) {
	err := New(CategoryStorage, CodeStorageError, "something broke")
	if err.Error() != "something broke" {
		t.Errorf("Expected plain message, got %q", err.Error())
	}

	err = err.WithSuggestion("try again")
	expected := "something broke (suggestion: try again)"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}

func TestWrap_NilCause(t *testing.T) {
	if Wrap(nil, CategoryStorage, CodeStorageError, "ignored") != nil {
		t.Error("Expected nil when wrapping nil error")
	}
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, CategoryStorage, CodeStorageError, "insert failed")

	if err.Unwrap() != cause {
		t.Error("Expected Unwrap to return the original cause")
	}
}

func TestCodePredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		predicate func(error) bool
		expected  bool
	}{
		{"duplicate matches", DuplicateTransaction("KEY1"), IsDuplicate, true},
		{"duplicate does not match not-found", DuplicateTransaction("KEY1"), IsNotFound, false},
		{"not-found matches", NotFound("transaction", "42"), IsNotFound, true},
		{"invalid-state matches", InvalidState("confirm", "Reconciled", "Pending"), IsInvalidState, true},
		{"parse-failure matches", ParseFailure("stmt.ofx", nil), IsParseFailure, true},
		{"partial matches", PartialReconciliation("revert", "42", "ledger", nil), IsPartialReconciliation, true},
		{"plain error matches nothing", fmt.Errorf("plain"), IsDuplicate, false},
		{"nil matches nothing", nil, IsNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.predicate(tt.err); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCodePredicates_WrappedChain(t *testing.T) {
	inner := DuplicateTransaction("KEY1")
	outer := fmt.Errorf("while importing: %w", inner)

	if !IsDuplicate(outer) {
		t.Error("Expected IsDuplicate to see through fmt.Errorf wrapping")
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, 0},
		{"plain error", fmt.Errorf("plain"), 1},
		{"file error", FileError(CodeFileNotFound, "/tmp/x", nil), 2},
		{"parse error", ParseFailure("stmt.ofx", nil), 3},
		{"storage error", StorageError("insert", fmt.Errorf("down")), 4},
		{"state error", InvalidState("confirm", "Ignored", "Pending"), 5},
		{"reconciliation error", PartialReconciliation("revert", "42", "ledger", nil), 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.expected {
				t.Errorf("Expected exit code %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestNewSummary(t *testing.T) {
	errs := []*EngineError{
		DuplicateTransaction("A"),
		DuplicateTransaction("B"),
		StorageError("insert", fmt.Errorf("down")),
	}

	summary := NewSummary(errs)

	if summary.Total != 3 {
		t.Errorf("Expected total 3, got %d", summary.Total)
	}
	if summary.ByCode[CodeDuplicateTransaction] != 2 {
		t.Errorf("Expected 2 duplicates, got %d", summary.ByCode[CodeDuplicateTransaction])
	}
	if summary.ByCategory[CategoryStorage] != 3 {
		t.Errorf("Expected 3 storage errors, got %d", summary.ByCategory[CategoryStorage])
	}
}

func TestSummary_Error(t *testing.T) {
	if NewSummary(nil).Error() != "no errors" {
		t.Error("Expected 'no errors' for empty summary")
	}

	single := NewSummary([]*EngineError{NotFound("ledger entry", "7")})
	if single.Error() != "ledger entry 7 not found" {
		t.Errorf("Expected single error passthrough, got %q", single.Error())
	}
}
