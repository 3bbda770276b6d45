package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocdexError_Unwrap_PreservesOriginalError(t *testing.T) {
	originalErr := errors.New("disk gone")

	derr := New(ErrCodeCorpusUnreadable, "corpus root unreadable", originalErr)

	require.NotNil(t, derr)
	assert.Equal(t, originalErr, errors.Unwrap(derr))
	assert.True(t, errors.Is(derr, originalErr))
}

func TestDocdexError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "corpus error",
			code:     ErrCodeCorpusUnreadable,
			message:  "cannot read docs/",
			expected: "[ERR_101_CORPUS_UNREADABLE] cannot read docs/",
		},
		{
			name:     "index corrupt",
			code:     ErrCodeIndexCorrupt,
			message:  "truncated index file",
			expected: "[ERR_201_INDEX_CORRUPT] truncated index file",
		},
		{
			name:     "malformed output",
			code:     ErrCodeMalformedOutput,
			message:  "unparseable result block",
			expected: "[ERR_301_MALFORMED_OUTPUT] unparseable result block",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestDocdexError_Is_MatchesByCode(t *testing.T) {
	err1 := New(ErrCodeIndexUnavailable, "rebuild failed", nil)
	err2 := New(ErrCodeIndexUnavailable, "different message", nil)
	err3 := New(ErrCodeIndexCorrupt, "rebuild failed", nil)

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestCategoryFromCode(t *testing.T) {
	tests := []struct {
		code     string
		expected Category
	}{
		{ErrCodeCorpusUnreadable, CategoryCorpus},
		{ErrCodeCorpusEmpty, CategoryCorpus},
		{ErrCodeIndexCorrupt, CategoryIndex},
		{ErrCodeIndexUnavailable, CategoryIndex},
		{ErrCodeMalformedOutput, CategoryOutput},
		{ErrCodeInvalidInput, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{"bogus", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, categoryFromCode(tt.code))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrCodeIndexUnavailable, "rebuild failed", nil)))
	assert.True(t, IsRetryable(New(ErrCodeIndexWrite, "disk full", nil)))
	assert.False(t, IsRetryable(New(ErrCodeCorpusEmpty, "no fragments", nil)))
	assert.False(t, IsRetryable(errors.New("plain error")))
	assert.False(t, IsRetryable(nil))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWithDetail_ChainsAndStores(t *testing.T) {
	err := CorpusError("unreadable", nil).
		WithDetail("path", "/docs").
		WithDetail("op", "load")

	assert.Equal(t, "/docs", err.Details["path"])
	assert.Equal(t, "load", err.Details["op"])
}
