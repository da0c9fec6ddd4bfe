package cmd

import (
	"fmt"
	"os"
	"strings"

	"statement-reconciliation-service/pkg/errors"
	"statement-reconciliation-service/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler turns engine errors into user-facing messages and
// process exit codes.
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler.
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError prints a user-friendly rendering of err and returns the
// exit code the process should finish with.
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if engineErr, ok := errors.AsEngineError(err); ok {
		return h.handleEngineError(engineErr)
	}
	return h.handleGenericError(err)
}

func (h *CLIErrorHandler) handleEngineError(err *errors.EngineError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	if help := h.getCategoryHelp(err.Category); help != "" {
		fmt.Fprintf(os.Stderr, "\n%s\n", help)
	}

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

func (h *CLIErrorHandler) handleGenericError(err error) int {
	if os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory") {
		fmt.Fprintf(os.Stderr, "Error: File not found\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}
	if os.IsPermission(err) || strings.Contains(err.Error(), "permission denied") {
		fmt.Fprintf(os.Stderr, "Error: Permission denied\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if !h.verbose {
		fmt.Fprintf(os.Stderr, "Run with --verbose for more detail\n")
	}
	return 1
}

func (h *CLIErrorHandler) getCategoryHelp(category errors.Category) string {
	switch category {
	case errors.CategoryParse:
		return `Parse error help:
• Verify the export really is an OFX/QFX or CSV statement
• Check for truncation; re-download the file from the bank if possible
• For CSV, confirm the header names the date and amount columns`

	case errors.CategoryStorage:
		return `Storage error help:
• Check that the database is reachable at the configured URL
• Verify the schema has been applied (see the stores package DDL)
• Duplicate-key reports usually mean the statement was already imported`

	case errors.CategoryState:
		return `State error help:
• Use 'reconciler match <transaction-id>' to inspect the transaction first
• Only Pending transactions can be confirmed or ignored
• Only Reconciled transactions can be reverted`

	case errors.CategoryReconciliation:
		return `Partial reconciliation help:
• One side of the two-store update did not complete
• The error names the half left inconsistent; re-run the operation once
  the store is healthy, or repair the named record manually`

	default:
		return ""
	}
}
