package errors

import (
	"fmt"
)

// DocdexError is the structured error type for docdex.
// It carries the code, category, and retryability needed by callers
// to decide between surfacing, retrying, and rebuilding.
type DocdexError struct {
	// Code is the unique error code (e.g., "ERR_101_CORPUS_UNREADABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Corpus, Index, Output, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *DocdexError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *DocdexError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with DocdexError.
func (e *DocdexError) Is(target error) bool {
	if t, ok := target.(*DocdexError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *DocdexError) WithDetail(key, value string) *DocdexError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new DocdexError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *DocdexError {
	return &DocdexError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a DocdexError from an existing error.
// The error's message becomes the DocdexError message.
func Wrap(code string, err error) *DocdexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// CorpusError creates an error for unreadable or unsegmentable source material.
func CorpusError(message string, cause error) *DocdexError {
	return New(ErrCodeCorpusUnreadable, message, cause)
}

// CorpusEmptyError creates an error for corpora with no segmentable content.
func CorpusEmptyError(message string) *DocdexError {
	return New(ErrCodeCorpusEmpty, message, nil)
}

// IndexCorruptError creates an error for a corrupt or partially written index.
// Callers treat this as index-not-found and rebuild.
func IndexCorruptError(message string, cause error) *DocdexError {
	return New(ErrCodeIndexCorrupt, message, cause)
}

// IndexUnavailableError creates an error for a failed rebuild.
// This is the single typed error surfaced to retrieval callers.
func IndexUnavailableError(message string, cause error) *DocdexError {
	return New(ErrCodeIndexUnavailable, message, cause)
}

// MalformedOutputError creates an error for structured output that failed
// to parse back. Defensive: should not occur for well-formed internal data.
func MalformedOutputError(message string, cause error) *DocdexError {
	return New(ErrCodeMalformedOutput, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *DocdexError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *DocdexError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a DocdexError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if de, ok := err.(*DocdexError); ok {
		return de.Retryable
	}
	return false
}

// GetCode extracts the error code from a DocdexError.
// Returns empty string if not a DocdexError.
func GetCode(err error) string {
	if de, ok := err.(*DocdexError); ok {
		return de.Code
	}
	return ""
}

// GetCategory extracts the category from a DocdexError.
// Returns empty string if not a DocdexError.
func GetCategory(err error) Category {
	if de, ok := err.(*DocdexError); ok {
		return de.Category
	}
	return ""
}
