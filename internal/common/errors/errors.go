// Package errors provides standardized error handling for the loan
// conversation flow and its HTTP surface.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Client input problems. Never retried.
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeUserNotFound    ErrorCode = "USER_NOT_FOUND"
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"

	// Transient upstream conditions. Retried with backoff by the caller.
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeLLMTimeout          ErrorCode = "LLM_TIMEOUT"
	ErrCodeRateLimitExceeded   ErrorCode = "RATE_LIMIT_EXCEEDED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewInvalidInputError creates a non-retryable error for a bad request field.
func NewInvalidInputError(field, reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   fmt.Sprintf("invalid value for %q: %s", field, reason),
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// NewUserNotFoundError creates a non-retryable error for an unknown applicant.
func NewUserNotFoundError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUserNotFound,
		Message:   fmt.Sprintf("user %q not found", userID),
		Retryable: false,
		Metadata:  map[string]interface{}{"userId": userID},
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError creates a non-retryable error for a missing session.
func NewSessionNotFoundError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   fmt.Sprintf("no active session for user %q", userID),
		Retryable: false,
		Metadata:  map[string]interface{}{"userId": userID},
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamUnavailableError creates a retryable error for a failed external
// dependency (LLM, profile lookup, sanctions screen).
func NewUpstreamUnavailableError(upstream string, cause error) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      ErrCodeUpstreamUnavailable,
		Message:   fmt.Sprintf("upstream %q unavailable", upstream),
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"upstream": upstream},
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable error for an LLM call that exhausted
// its deadline.
func NewLLMTimeoutError(cause error) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "LLM request timed out",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitError creates the 429 error for a throttled client.
func NewRateLimitError(limit int, windowSeconds int) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimitExceeded,
		Message:   fmt.Sprintf("rate limit exceeded: %d requests per %d seconds", limit, windowSeconds),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(cause error) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "an unexpected error occurred",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf extracts the ErrorCode from err, or ErrCodeInternal when err is not
// a StandardError.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// IsRetryable reports whether the caller may retry the operation that
// produced err.
func IsRetryable(err error) bool {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Retryable
	}
	return false
}
