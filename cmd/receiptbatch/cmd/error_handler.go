package cmd

import (
	"fmt"
	"os"
	"strings"

	"receipt-batch-service/pkg/errors"
	"receipt-batch-service/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError prints a user-friendly message and returns the exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if batchErr, ok := errors.AsBatchError(err); ok {
		return h.handleBatchError(batchErr)
	}

	return h.handleGenericError(err)
}

// handleBatchError handles BatchError with detailed context
func (h *CLIErrorHandler) handleBatchError(err *errors.BatchError) int {
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

	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles errors outside the BatchError taxonomy
func (h *CLIErrorHandler) handleGenericError(err error) int {
	message := err.Error()

	switch {
	case strings.Contains(message, "no such file"):
		fmt.Fprintf(os.Stderr, "Error: File not found\n%s\n", message)
		fmt.Fprintf(os.Stderr, "\nCheck that the path is correct and the file exists.\n")
		return 2
	case strings.Contains(message, "permission denied"):
		fmt.Fprintf(os.Stderr, "Error: Permission denied\n%s\n", message)
		fmt.Fprintf(os.Stderr, "\nCheck the file permissions and your access rights.\n")
		return 2
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		return 1
	}
}

// getCategoryHelp returns guidance for each error category
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryValidation:
		return "Help: Check the batch input against the limits shown by 'receiptbatch process --help'."
	case errors.CategoryExtraction:
		return "Help: The document could not be read. Verify the file is a legible scan and the API key is set."
	case errors.CategoryAggregation:
		return "Help: Report generation needs at least one successfully extracted record."
	case errors.CategoryFile:
		return "Help: Verify the input paths exist and are readable."
	case errors.CategoryConfiguration:
		return "Help: Review the flag values and any config file for invalid settings."
	default:
		return "Help: Run with --verbose for more detail."
	}
}
