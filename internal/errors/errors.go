// Package errors defines the stable error codes and the error type shared by
// every layer of the resolver.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// NotFound indicates no definition candidate exists at any scope
	NotFound ErrorCode = "NOT_FOUND"
	// Ambiguous indicates multiple candidates survived tie-breaking (internal only)
	Ambiguous ErrorCode = "AMBIGUOUS"
	// ArtifactUnavailable indicates an archive or file could not be read, or
	// decompilation failed
	ArtifactUnavailable ErrorCode = "ARTIFACT_UNAVAILABLE"
	// RecursionExceeded indicates the resolution depth guard tripped
	RecursionExceeded ErrorCode = "RECURSION_EXCEEDED"
	// PersistenceError indicates a store or load failure in the backing database
	PersistenceError ErrorCode = "PERSISTENCE_ERROR"
	// ParseError indicates source text could not be parsed
	ParseError ErrorCode = "PARSE_ERROR"
	// ConfigInvalid indicates the configuration file could not be loaded
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// IndexStale indicates the persisted index no longer matches the repository
	IndexStale ErrorCode = "INDEX_STALE"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// ResolveError carries a stable code, a human message, and an optional cause.
type ResolveError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// New creates a ResolveError with the given code and message.
func New(code ErrorCode, message string) *ResolveError {
	return &ResolveError{Code: code, Message: message}
}

// Newf creates a ResolveError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *ResolveError {
	return &ResolveError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a ResolveError that wraps an underlying cause.
func Wrap(code ErrorCode, message string, cause error) *ResolveError {
	return &ResolveError{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *ResolveError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ResolveError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *ResolveError) WithDetails(details interface{}) *ResolveError {
	e.Details = details
	return e
}

// CodeOf extracts the ErrorCode from an error chain. Errors that are not
// ResolveErrors map to InternalError.
func CodeOf(err error) ErrorCode {
	var re *ResolveError
	if stderrors.As(err, &re) {
		return re.Code
	}
	return InternalError
}

// IsNotFound reports whether the error chain carries the NotFound code.
func IsNotFound(err error) bool {
	return CodeOf(err) == NotFound
}
