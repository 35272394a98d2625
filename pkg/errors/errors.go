package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryExtraction    ErrorCategory = "extraction"
	CategoryAggregation   ErrorCategory = "aggregation"
	CategoryFile          ErrorCategory = "file"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Validation errors (batch-level, fatal)
	CodeEmptyBatch      ErrorCode = "empty_batch"
	CodeTooManyFiles    ErrorCode = "too_many_files"
	CodeFileTooLarge    ErrorCode = "file_too_large"
	CodeUnsupportedType ErrorCode = "unsupported_type"
	CodeMissingField    ErrorCode = "missing_field"
	CodeOutOfRange      ErrorCode = "out_of_range"

	// Extraction errors (per-file, recovered)
	CodeExtractionFailed ErrorCode = "extraction_failed"
	CodeEmptyResponse    ErrorCode = "empty_response"
	CodeMalformedRecord  ErrorCode = "malformed_record"
	CodeTimeout          ErrorCode = "timeout"

	// Aggregation errors
	CodeNoRecords       ErrorCode = "no_records"
	CodeProcessingError ErrorCode = "processing_error"

	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeDirectoryError ErrorCode = "directory_error"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Internal errors
	CodeUnexpectedError   ErrorCode = "unexpected_error"
	CodeResourceExhausted ErrorCode = "resource_exhausted"
)

// BatchError is the base error type for all application errors
type BatchError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *BatchError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *BatchError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *BatchError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryExtraction, CategoryAggregation, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *BatchError) WithContext(key string, value interface{}) *BatchError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *BatchError) WithSuggestion(suggestion string) *BatchError {
	e.Suggestion = suggestion
	return e
}

// New creates a new BatchError
func New(category ErrorCategory, code ErrorCode, message string) *BatchError {
	return &BatchError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with BatchError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *BatchError {
	if err == nil {
		return nil
	}

	return &BatchError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// ValidationError creates a batch-level validation error. These are fatal:
// the batch aborts before any file is processed.
func ValidationError(code ErrorCode, field string, value interface{}, err error) *BatchError {
	var message string
	var suggestion string

	switch code {
	case CodeEmptyBatch:
		message = "no files provided for batch processing"
		suggestion = "add at least one receipt image or PDF to the batch"
	case CodeTooManyFiles:
		message = fmt.Sprintf("too many files in batch: %v", value)
		suggestion = "split the batch or raise the max-files limit"
	case CodeFileTooLarge:
		message = fmt.Sprintf("file '%s' exceeds the size limit", field)
		suggestion = "compress or rescan the document below the 10 MB ceiling"
	case CodeUnsupportedType:
		message = fmt.Sprintf("file '%s' has unsupported type: %v", field, value)
		suggestion = "only JPEG, PNG, WebP images and PDF documents are accepted"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeOutOfRange:
		message = fmt.Sprintf("value out of range in field '%s': %v", field, value)
		suggestion = "ensure the value is within the acceptable range"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *BatchError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ExtractionError creates a per-file extraction error. These are recovered:
// the file is counted as failed and the batch continues.
func ExtractionError(code ErrorCode, fileName string, err error) *BatchError {
	var message string
	var suggestion string

	switch code {
	case CodeExtractionFailed:
		message = fmt.Sprintf("recognition failed for file '%s'", fileName)
		suggestion = "check the document is legible and retry the file"
	case CodeEmptyResponse:
		message = fmt.Sprintf("recognition returned no data for file '%s'", fileName)
		suggestion = "the document may not contain a readable transaction"
	case CodeMalformedRecord:
		message = fmt.Sprintf("recognition returned a malformed record for file '%s'", fileName)
		suggestion = "retry the file or report the document format"
	case CodeTimeout:
		message = fmt.Sprintf("recognition timed out for file '%s'", fileName)
		suggestion = "increase the extraction timeout or retry later"
	default:
		message = fmt.Sprintf("extraction error for file '%s'", fileName)
		suggestion = "retry the file"
	}

	var result *BatchError
	if err != nil {
		result = Wrap(err, CategoryExtraction, code, message)
	} else {
		result = New(CategoryExtraction, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", fileName)
}

// AggregationError creates a report-aggregation error
func AggregationError(code ErrorCode, operation string, err error) *BatchError {
	var message string
	var suggestion string

	switch code {
	case CodeNoRecords:
		message = fmt.Sprintf("no transaction records available for %s", operation)
		suggestion = "at least one successfully extracted record is required"
	case CodeProcessingError:
		message = fmt.Sprintf("processing error during %s", operation)
		suggestion = "check the extracted data and try again"
	default:
		message = fmt.Sprintf("aggregation error during %s", operation)
		suggestion = "review the extracted records"
	}

	var result *BatchError
	if err != nil {
		result = Wrap(err, CategoryAggregation, code, message)
	} else {
		result = New(CategoryAggregation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *BatchError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeDirectoryError:
		message = fmt.Sprintf("directory error: %s", path)
		suggestion = "ensure the directory exists and is accessible"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *BatchError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *BatchError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *BatchError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *BatchError {
	var message string
	var suggestion string

	switch code {
	case CodeUnexpectedError:
		message = fmt.Sprintf("unexpected error during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	case CodeResourceExhausted:
		message = fmt.Sprintf("resource exhausted during %s", operation)
		suggestion = "try reducing batch size or increasing system resources"
	default:
		message = fmt.Sprintf("internal error during %s", operation)
		suggestion = "try again or contact support if the problem persists"
	}

	var result *BatchError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*BatchError         `json:"errors"`
	SampleErrors []*BatchError         `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errors []*BatchError) *ErrorSummary {
	if len(errors) == 0 {
		return &ErrorSummary{
			Total:      0,
			ByCategory: make(map[ErrorCategory]int),
			ByCode:     make(map[ErrorCode]int),
			Errors:     []*BatchError{},
		}
	}

	summary := &ErrorSummary{
		Total:      len(errors),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errors,
	}

	for _, err := range errors {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	// Include sample errors (max 5)
	maxSamples := 5
	if len(errors) > maxSamples {
		summary.SampleErrors = errors[:maxSamples]
	} else {
		summary.SampleErrors = errors
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	count, exists := es.ByCategory[category]
	return exists && count > 0
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	count, exists := es.ByCode[code]
	return exists && count > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// Utility functions

// IsBatchError checks if an error is a BatchError
func IsBatchError(err error) bool {
	_, ok := err.(*BatchError)
	return ok
}

// AsBatchError extracts a BatchError from an error chain
func AsBatchError(err error) (*BatchError, bool) {
	var batchErr *BatchError
	if errors.As(err, &batchErr) {
		return batchErr, true
	}
	return nil, false
}

// IsValidation reports whether the error is a fatal batch-level validation error
func IsValidation(err error) bool {
	if batchErr, ok := AsBatchError(err); ok {
		return batchErr.Category == CategoryValidation
	}
	return false
}

// WrapIfNeeded wraps an error if it's not already a BatchError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *BatchError {
	if err == nil {
		return nil
	}

	if batchErr, ok := AsBatchError(err); ok {
		return batchErr
	}

	return Wrap(err, category, code, message)
}
