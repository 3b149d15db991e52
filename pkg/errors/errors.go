// Package errors provides structured error types for ctabridge.
//
// Every failure that crosses a package boundary carries a machine-readable
// [Code] so callers (the CLI, the HTTP server, a retry wrapper) can react to
// the kind of failure without string matching.
//
// # Error Codes
//
// The dispatcher surfaces exactly five domain kinds:
//   - UNKNOWN_ENDPOINT: the domain/endpoint pair is not registered
//   - MISSING_API_KEY: the domain requires a key and none is configured
//   - NETWORK_ERROR: the fetch collaborator failed
//   - PARSE_FAILURE: the upstream payload is not well-formed XML/JSON
//   - CACHE_CORRUPTION: more than one cache row exists for a URL
//
// The remaining codes cover configuration and input handling around the core.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownEndpoint, "bus endpoint %q", key)
//	if errors.Is(err, errors.ErrCodeUnknownEndpoint) {
//	    // caller bug, do not retry
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Dispatcher errors
	ErrCodeUnknownEndpoint Code = "UNKNOWN_ENDPOINT"
	ErrCodeMissingAPIKey   Code = "MISSING_API_KEY"
	ErrCodeNetwork         Code = "NETWORK_ERROR"
	ErrCodeParseFailure    Code = "PARSE_FAILURE"
	ErrCodeCacheCorruption Code = "CACHE_CORRUPTION"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Transport errors
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
// Only the outermost *Error is consulted, so a NETWORK_ERROR wrapping an
// INVALID_INPUT is a NETWORK_ERROR.
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

// HTTPStatus maps an error code to the status the HTTP server responds with.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeUnknownEndpoint:
		return http.StatusNotFound
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeMissingAPIKey:
		return http.StatusServiceUnavailable
	case ErrCodeNetwork, ErrCodeParseFailure:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
