// Package mcp implements the Model Context Protocol server that
// exposes documentation retrieval to AI clients.
package mcp

import (
	"context"
	"errors"
	"fmt"

	dxerrors "github.com/docdex/docdex/internal/errors"
)

// Custom MCP error codes for docdex.
const (
	// ErrCodeIndexUnavailable indicates the index could not be built or loaded.
	ErrCodeIndexUnavailable = -32001

	// ErrCodeCorpusUnreadable indicates the documentation corpus is unreadable.
	ErrCodeCorpusUnreadable = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// Standard JSON-RPC error codes.
	ErrCodeInvalidParams = -32602
	ErrCodeInternalError = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError creates an error for invalid parameters.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var dxErr *dxerrors.DocdexError
	if errors.As(err, &dxErr) {
		return mapDocdexError(dxErr)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out.",
		}
	case errors.Is(err, context.Canceled):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request was canceled.",
		}
	default:
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: err.Error(),
		}
	}
}

// mapDocdexError converts a DocdexError to an MCPError by category.
func mapDocdexError(de *dxerrors.DocdexError) *MCPError {
	switch de.Category {
	case dxerrors.CategoryCorpus:
		return &MCPError{
			Code:    ErrCodeCorpusUnreadable,
			Message: fmt.Sprintf("%s Check that the documentation directory exists and is readable.", de.Message),
		}
	case dxerrors.CategoryIndex:
		return &MCPError{
			Code:    ErrCodeIndexUnavailable,
			Message: fmt.Sprintf("%s Run 'docdex index' to rebuild.", de.Message),
		}
	case dxerrors.CategoryValidation:
		return &MCPError{
			Code:    ErrCodeInvalidParams,
			Message: de.Message,
		}
	default:
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: de.Message,
		}
	}
}
