// Package errors provides structured error handling for docdex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Corpus errors (unreadable or empty source material)
//   - 2XX: Index errors (corrupt or unavailable index)
//   - 3XX: Output errors (malformed formatted output)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryCorpus indicates errors reading or segmenting source material.
	CategoryCorpus Category = "CORPUS"
	// CategoryIndex indicates errors loading, building, or persisting the index.
	CategoryIndex Category = "INDEX"
	// CategoryOutput indicates errors formatting or parsing retrieval output.
	CategoryOutput Category = "OUTPUT"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Corpus errors (100-199)
	ErrCodeCorpusUnreadable = "ERR_101_CORPUS_UNREADABLE"
	ErrCodeCorpusEmpty      = "ERR_102_CORPUS_EMPTY"

	// Index errors (200-299)
	ErrCodeIndexCorrupt     = "ERR_201_INDEX_CORRUPT"
	ErrCodeIndexUnavailable = "ERR_202_INDEX_UNAVAILABLE"
	ErrCodeIndexWrite       = "ERR_203_INDEX_WRITE"

	// Output errors (300-399)
	ErrCodeMalformedOutput = "ERR_301_MALFORMED_OUTPUT"

	// Validation errors (400-499)
	ErrCodeInvalidInput  = "ERR_401_INVALID_INPUT"
	ErrCodeConfigInvalid = "ERR_402_CONFIG_INVALID"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode derives the error category from the code's number range.
func categoryFromCode(code string) Category {
	if len(code) < 5 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryCorpus
	case '2':
		return CategoryIndex
	case '3':
		return CategoryOutput
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode derives severity from the code.
// Corrupt-index errors are warnings: the store recovers by rebuilding.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeIndexCorrupt:
		return SeverityWarning
	case ErrCodeCorpusUnreadable, ErrCodeIndexUnavailable:
		return SeverityFatal
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether operations failing with this code
// may succeed on retry. Transient index-write failures qualify; a
// structurally empty corpus does not.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeIndexWrite, ErrCodeIndexUnavailable:
		return true
	default:
		return false
	}
}
