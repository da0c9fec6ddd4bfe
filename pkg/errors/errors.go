// Package errors defines the error taxonomy for the reconciliation engine.
//
// Every failure surfaced by the engine is an *EngineError carrying a
// category, a machine-readable code, optional context values, and the
// underlying cause. Callers branch on codes (IsDuplicate, IsNotFound, ...)
// rather than on message text.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Category groups errors by the subsystem that produced them.
type Category string

const (
	CategoryFile           Category = "file"
	CategoryParse          Category = "parse"
	CategoryStorage        Category = "storage"
	CategoryState          Category = "state"
	CategoryReconciliation Category = "reconciliation"
	CategoryInternal       Category = "internal"
)

// Code identifies a specific failure within a category.
type Code string

const (
	// File errors
	CodeFileNotFound   Code = "file_not_found"
	CodeFilePermission Code = "file_permission"

	// Parse errors
	CodeParseFailed   Code = "parse_failed"
	CodeInvalidFormat Code = "invalid_format"
	CodeMissingColumn Code = "missing_column"
	CodeInvalidData   Code = "invalid_data"

	// Storage errors
	CodeDuplicateTransaction Code = "duplicate_transaction"
	CodeStorageError         Code = "storage_error"
	CodeNotFound             Code = "not_found"

	// State machine errors
	CodeInvalidState Code = "invalid_state"

	// Reconciliation errors
	CodePartialReconciliation Code = "partial_reconciliation"

	// Internal errors
	CodeUnexpectedError Code = "unexpected_error"
)

// Context carries structured key/value detail about an error.
type Context map[string]interface{}

// EngineError is the base error type for the reconciliation engine.
type EngineError struct {
	Category   Category          `json:"category"`
	Code       Code              `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

func (e *EngineError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

// GetExitCode maps the error category to a CLI exit code.
func (e *EngineError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse:
		return 3
	case CategoryStorage:
		return 4
	case CategoryState:
		return 5
	case CategoryReconciliation, CategoryInternal:
		return 6
	default:
		return 1
	}
}

// WithContext attaches a key/value detail to the error.
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion attaches a remediation hint to the error.
func (e *EngineError) WithSuggestion(suggestion string) *EngineError {
	e.Suggestion = suggestion
	return e
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates a new EngineError with a captured stack trace.
func New(category Category, code Code, message string) *EngineError {
	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with engine error context. Returns nil for a
// nil cause.
func Wrap(err error, category Category, code Code, message string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// Constructors for the failure modes the engine reports.

// ParseFailure signals that a statement file was rejected by every parsing
// strategy. Nothing is persisted when this is returned.
func ParseFailure(sourceFile string, err error) *EngineError {
	return wrapOrNew(err, CategoryParse, CodeParseFailed,
		fmt.Sprintf("statement %s could not be parsed by any strategy", sourceFile)).
		WithSuggestion("verify the file is a bank export in a supported format").
		WithContext("source_file", sourceFile)
}

// DuplicateTransaction signals that a natural key already exists in the
// transaction store. Expected during re-import; counted, not logged as error.
func DuplicateTransaction(naturalKey string) *EngineError {
	return New(CategoryStorage, CodeDuplicateTransaction,
		fmt.Sprintf("transaction with natural key %s already imported", naturalKey)).
		WithContext("natural_key", naturalKey)
}

// StorageError signals a transient or infrastructure failure in a store.
func StorageError(operation string, err error) *EngineError {
	return wrapOrNew(err, CategoryStorage, CodeStorageError,
		fmt.Sprintf("storage failure during %s", operation)).
		WithSuggestion("check database connectivity and retry").
		WithContext("operation", operation)
}

// NotFound signals that a referenced record does not exist.
func NotFound(kind, id string) *EngineError {
	return New(CategoryStorage, CodeNotFound,
		fmt.Sprintf("%s %s not found", kind, id)).
		WithContext("kind", kind).
		WithContext("id", id)
}

// InvalidState signals a state-machine precondition violation.
func InvalidState(operation, current, required string) *EngineError {
	return New(CategoryState, CodeInvalidState,
		fmt.Sprintf("%s requires status %s, current status is %s", operation, required, current)).
		WithContext("operation", operation).
		WithContext("current_status", current).
		WithContext("required_status", required)
}

// PartialReconciliation signals that a cross-store update half-completed.
// The stuckSide names the store whose write did not land.
func PartialReconciliation(operation, transactionID, stuckSide string, err error) *EngineError {
	return wrapOrNew(err, CategoryReconciliation, CodePartialReconciliation,
		fmt.Sprintf("%s for transaction %s left the %s side unapplied", operation, transactionID, stuckSide)).
		WithSuggestion("re-run the operation or reconcile the record manually").
		WithContext("operation", operation).
		WithContext("transaction_id", transactionID).
		WithContext("stuck_side", stuckSide)
}

// FileError creates a file access error.
func FileError(code Code, path string, err error) *EngineError {
	var message string
	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
	default:
		message = fmt.Sprintf("file error: %s", path)
	}
	return wrapOrNew(err, CategoryFile, code, message).WithContext("file_path", path)
}

// InternalError creates an internal error for unexpected conditions.
func InternalError(operation string, err error) *EngineError {
	return wrapOrNew(err, CategoryInternal, CodeUnexpectedError,
		fmt.Sprintf("unexpected error during %s", operation)).
		WithContext("operation", operation)
}

func wrapOrNew(err error, category Category, code Code, message string) *EngineError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// Code predicates used by callers to classify failures.

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	engineErr, ok := AsEngineError(err)
	return ok && engineErr.Code == code
}

// IsDuplicate reports whether err is a duplicate-transaction error.
func IsDuplicate(err error) bool {
	return HasCode(err, CodeDuplicateTransaction)
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsInvalidState reports whether err is a state precondition violation.
func IsInvalidState(err error) bool {
	return HasCode(err, CodeInvalidState)
}

// IsParseFailure reports whether err is a whole-file parse failure.
func IsParseFailure(err error) bool {
	return HasCode(err, CodeParseFailed)
}

// IsPartialReconciliation reports whether err is a half-applied cross-store
// update.
func IsPartialReconciliation(err error) bool {
	return HasCode(err, CodePartialReconciliation)
}

// AsEngineError extracts an EngineError from an error chain.
func AsEngineError(err error) (*EngineError, bool) {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr, true
	}
	return nil, false
}

// GetExitCode returns the exit code for any error. Non-engine errors map
// to 1, nil maps to 0.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}
	if engineErr, ok := AsEngineError(err); ok {
		return engineErr.GetExitCode()
	}
	return 1
}

// Summary aggregates multiple errors for batch reporting.
type Summary struct {
	Total      int              `json:"total"`
	ByCategory map[Category]int `json:"by_category"`
	ByCode     map[Code]int     `json:"by_code"`
	Errors     []*EngineError   `json:"errors"`
}

// NewSummary builds a Summary from a slice of engine errors.
func NewSummary(errs []*EngineError) *Summary {
	summary := &Summary{
		Total:      len(errs),
		ByCategory: make(map[Category]int),
		ByCode:     make(map[Code]int),
		Errors:     errs,
	}
	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}
	return summary
}

// Error returns a one-line description of the summary.
func (s *Summary) Error() string {
	if s.Total == 0 {
		return "no errors"
	}
	if s.Total == 1 {
		return s.Errors[0].Error()
	}
	var parts []string
	for category, count := range s.ByCategory {
		parts = append(parts, fmt.Sprintf("%s: %d", category, count))
	}
	return fmt.Sprintf("%d errors occurred (%s)", s.Total, strings.Join(parts, ", "))
}
