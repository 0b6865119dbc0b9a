// Package errors provides structured error types for the storyboard CLI and
// HTTP API.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - HTTP status mapping for the server
//
// The layout library itself reports failures with plain sentinel errors
// (story.ErrUnknownNode, layout.ErrInvalidConfig, ...); [Classify] maps them
// to codes at the edges.
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *NOT_FOUND: Resource not found
//   - CONFLICT: A layout pass is already running
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "node id cannot be empty")
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidStoryboard, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/matzehuels/storyboard/pkg/layout"
	"github.com/matzehuels/storyboard/pkg/story"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"
	ErrCodeInvalidStoryboard Code = "INVALID_STORYBOARD"
	ErrCodeInvalidNodeState  Code = "INVALID_NODE_STATE"

	// Resource not found errors
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeNodeNotFound   Code = "NODE_NOT_FOUND"
	ErrCodeBranchNotFound Code = "BRANCH_NOT_FOUND"
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"

	// State errors
	ErrCodeConflict Code = "CONFLICT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// sentinels maps library errors to codes. Order matters: the first match
// wins, so more specific errors come first.
var sentinels = []struct {
	err  error
	code Code
}{
	{story.ErrUnknownNode, ErrCodeNodeNotFound},
	{story.ErrUnknownBranch, ErrCodeBranchNotFound},
	{story.ErrInvalidNodeState, ErrCodeInvalidNodeState},
	{layout.ErrInvalidConfig, ErrCodeInvalidConfig},
	{layout.ErrLayoutInProgress, ErrCodeConflict},
	{story.ErrInvalidNodeType, ErrCodeInvalidStoryboard},
	{story.ErrBranchCycle, ErrCodeInvalidStoryboard},
	{story.ErrNodeInBranch, ErrCodeInvalidStoryboard},
	{story.ErrOriginNotInParent, ErrCodeInvalidStoryboard},
	{story.ErrNodeIsOrigin, ErrCodeInvalidStoryboard},
	{story.ErrNodeNotInBranch, ErrCodeInvalidStoryboard},
	{story.ErrOriginWithoutParent, ErrCodeInvalidStoryboard},
	{story.ErrDuplicateNodeID, ErrCodeInvalidStoryboard},
	{story.ErrDuplicateBranchID, ErrCodeInvalidStoryboard},
	{story.ErrLevelMismatch, ErrCodeInvalidStoryboard},
	{story.ErrIndexMismatch, ErrCodeInvalidStoryboard},
	{fs.ErrNotExist, ErrCodeFileNotFound},
}

// Classify returns err as an *Error. Errors that already carry a code are
// returned unchanged; known library sentinels get their matching code; all
// other errors become INTERNAL_ERROR. Classify(nil) is nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return &Error{Code: s.code, Message: err.Error(), Cause: err}
		}
	}
	return &Error{Code: ErrCodeInternal, Message: err.Error(), Cause: err}
}

// HTTPStatus returns the HTTP status code for an error code.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidConfig,
		ErrCodeInvalidStoryboard, ErrCodeInvalidNodeState:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeNodeNotFound, ErrCodeBranchNotFound, ErrCodeFileNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
