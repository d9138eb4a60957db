package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryIngestion     ErrorCategory = "ingestion"
	CategorySchema        ErrorCategory = "schema"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConsistency   ErrorCategory = "consistency"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Ingestion errors
	CodeUnreadableInput  ErrorCode = "unreadable_input"
	CodeUndecodableInput ErrorCode = "undecodable_input"
	CodeEmptyInput       ErrorCode = "empty_input"

	// Schema errors
	CodeColumnCountMismatch ErrorCode = "column_count_mismatch"
	CodeUnmappableHeaders   ErrorCode = "unmappable_headers"

	// Validation errors
	CodeMissingField        ErrorCode = "missing_field"
	CodeInvalidAmount       ErrorCode = "invalid_amount"
	CodeInvalidDate         ErrorCode = "invalid_date"
	CodeInvalidSequenceType ErrorCode = "invalid_sequence_type"

	// Consistency errors
	CodeDuplicateEndToEnd  ErrorCode = "duplicate_end_to_end"
	CodeControlSumMismatch ErrorCode = "control_sum_mismatch"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// GeneratorError is the base error type for all application errors
type GeneratorError struct {
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
func (e *GeneratorError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *GeneratorError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *GeneratorError) GetExitCode() int {
	switch e.Category {
	case CategoryIngestion:
		return 2
	case CategorySchema, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryConsistency, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *GeneratorError) WithContext(key string, value interface{}) *GeneratorError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *GeneratorError) WithSuggestion(suggestion string) *GeneratorError {
	e.Suggestion = suggestion
	return e
}

// New creates a new GeneratorError
func New(category ErrorCategory, code ErrorCode, message string) *GeneratorError {
	return &GeneratorError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with GeneratorError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *GeneratorError {
	if err == nil {
		return nil
	}

	return &GeneratorError{
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

// IngestionError creates an error for unreadable or undecodable input
func IngestionError(code ErrorCode, source string, err error) *GeneratorError {
	var message string
	var suggestion string

	switch code {
	case CodeUnreadableInput:
		message = fmt.Sprintf("cannot read input: %s", source)
		suggestion = "check that the file exists and is readable"
	case CodeUndecodableInput:
		message = fmt.Sprintf("cannot decode input %s with any supported encoding", source)
		suggestion = "save the file as UTF-8 and upload it again"
	case CodeEmptyInput:
		message = fmt.Sprintf("input %s contains no data rows", source)
		suggestion = "ensure the file contains a header row and at least one data row"
	default:
		message = fmt.Sprintf("ingestion error: %s", source)
		suggestion = "check the input file and try again"
	}

	var result *GeneratorError
	if err != nil {
		result = Wrap(err, CategoryIngestion, code, message)
	} else {
		result = New(CategoryIngestion, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("source", source)
}

// SchemaError creates an error for tables whose shape cannot be mapped
// onto a canonical schema
func SchemaError(code ErrorCode, schema string, got, want int) *GeneratorError {
	var message string
	var suggestion string

	switch code {
	case CodeColumnCountMismatch:
		message = fmt.Sprintf("table has %d columns, schema '%s' expects %d", got, schema, want)
		suggestion = "compare the file against the downloadable template and remove or add columns"
	case CodeUnmappableHeaders:
		message = fmt.Sprintf("headers cannot be mapped onto schema '%s'", schema)
		suggestion = "rename the header row to match the template column names"
	default:
		message = fmt.Sprintf("schema error for '%s'", schema)
		suggestion = "check the table structure against the template"
	}

	return New(CategorySchema, code, message).
		WithSuggestion(suggestion).
		WithContext("schema", schema).
		WithContext("columns", got)
}

// ValidationError creates a validation error for a named field
func ValidationError(code ErrorCode, field string, value interface{}, err error) *GeneratorError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "use a plain decimal amount such as '100.50' or '100,50'"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use a date format such as YYYY-MM-DD or DD/MM/YYYY"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeInvalidSequenceType:
		message = fmt.Sprintf("invalid sequence type in field '%s': %v", field, value)
		suggestion = "use one of FRST, RCUR, OOFF, FNAL"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *GeneratorError
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

// RowError wraps a validation error with the 1-based row number of the
// offending input row so the caller can fix the source file
func RowError(err *GeneratorError, row int) *GeneratorError {
	if err == nil {
		return nil
	}
	err.Message = fmt.Sprintf("row %d: %s", row, err.Message)
	return err.WithContext("row", row)
}

// ConsistencyError creates an error for invariants the assembler checks
// defensively; these are unreachable when assembly is correct
func ConsistencyError(code ErrorCode, detail string) *GeneratorError {
	var message string

	switch code {
	case CodeDuplicateEndToEnd:
		message = fmt.Sprintf("duplicate end-to-end id in batch: %s", detail)
	case CodeControlSumMismatch:
		message = fmt.Sprintf("control sum does not match transaction total: %s", detail)
	default:
		message = fmt.Sprintf("batch consistency violation: %s", detail)
	}

	return New(CategoryConsistency, code, message).
		WithSuggestion("this indicates a bug in batch assembly - please report it").
		WithContext("detail", detail)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}) *GeneratorError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the command help for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this setting via flag, environment or config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	return New(CategoryConfiguration, code, message).
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *GeneratorError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	var result *GeneratorError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// Utility functions

// IsGeneratorError checks if an error is a GeneratorError
func IsGeneratorError(err error) bool {
	_, ok := err.(*GeneratorError)
	return ok
}

// AsGeneratorError extracts a GeneratorError from an error chain
func AsGeneratorError(err error) (*GeneratorError, bool) {
	var generatorErr *GeneratorError
	if errors.As(err, &generatorErr) {
		return generatorErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a GeneratorError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *GeneratorError {
	if err == nil {
		return nil
	}

	if generatorErr, ok := AsGeneratorError(err); ok {
		return generatorErr
	}

	return Wrap(err, category, code, message)
}
