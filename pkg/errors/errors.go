// Package errors defines structured error types and error handling utilities for
// the WaveCard Guard service. Errors carry a machine-readable code, an HTTP status
// to surface, and optional metadata for audit enrichment.
package errors

import (
	"fmt"
	"net/http"

	"github.com/wavecard/guard/pkg/constants"
)

// ================================================================================
// AppError
// ================================================================================

// AppError is a structured application error.
type AppError struct {
	code       constants.ErrorCode
	httpStatus int
	message    string
	cause      error
	metadata   map[string]interface{}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the machine-readable error code.
func (e *AppError) Code() constants.ErrorCode {
	return e.code
}

// HTTPStatus returns the HTTP status code to surface.
func (e *AppError) HTTPStatus() int {
	return e.httpStatus
}

// Unwrap returns the underlying cause for error chain support.
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause attaches a cause error to the chain.
func (e *AppError) WithCause(cause error) *AppError {
	e.cause = cause
	return e
}

// WithMetadata adds context metadata to the error.
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

// Metadata returns all attached metadata.
func (e *AppError) Metadata() map[string]interface{} {
	return e.metadata
}

// NewError creates a new AppError with the given code, status, and message.
func NewError(code constants.ErrorCode, httpStatus int, message string) *AppError {
	return &AppError{
		code:       code,
		httpStatus: httpStatus,
		message:    message,
	}
}

// ================================================================================
// Predefined Error Constructors
// ================================================================================

// ErrInvalidRequest creates an invalid_request error.
func ErrInvalidRequest(message string) *AppError {
	return NewError(constants.ErrCodeInvalidRequest, http.StatusBadRequest, message)
}

// ErrUnauthorized creates an unauthorized error.
func ErrUnauthorized(message string) *AppError {
	return NewError(constants.ErrCodeUnauthorized, http.StatusUnauthorized, message)
}

// ErrNotFound creates a not_found error.
func ErrNotFound(message string) *AppError {
	return NewError(constants.ErrCodeNotFound, http.StatusNotFound, message)
}

// ErrServerError creates a server_error error.
func ErrServerError(message string) *AppError {
	return NewError(constants.ErrCodeServerError, http.StatusInternalServerError, message)
}

// ErrUnavailable creates a temporarily_unavailable error.
func ErrUnavailable(message string) *AppError {
	return NewError(constants.ErrCodeUnavailable, http.StatusServiceUnavailable, message)
}

// ================================================================================
// Domain-Specific Error Constructors
// ================================================================================

// ErrRateLimitExceeded creates a rate limit exceeded error for a matched rule.
func ErrRateLimitExceeded(pattern string, limit int) *AppError {
	return NewError(
		constants.ErrCodeRateLimitExceeded,
		http.StatusTooManyRequests,
		fmt.Sprintf("rate limit exceeded for %q: %d requests", pattern, limit),
	).WithMetadata("endpoint_pattern", pattern).
		WithMetadata("limit", limit)
}

// ErrIPBlocked creates an error for a request from a blocked source IP.
func ErrIPBlocked(ip string) *AppError {
	return NewError(
		constants.ErrCodeForbidden,
		http.StatusForbidden,
		fmt.Sprintf("source IP %s is blocked", ip),
	).WithMetadata("ip_address", ip)
}

// ErrRuleNotFound creates an error for a missing rate limit rule.
func ErrRuleNotFound(id uint) *AppError {
	return ErrNotFound(fmt.Sprintf("rate limit rule %d not found", id)).
		WithMetadata("rule_id", id)
}

// ErrTemplateNotFound creates an error for a missing notification template.
func ErrTemplateNotFound(id uint) *AppError {
	return ErrNotFound(fmt.Sprintf("notification template %d not found", id)).
		WithMetadata("template_id", id)
}

// ErrFlagNotFound creates an error for an unknown feature flag key.
func ErrFlagNotFound(key string) *AppError {
	return ErrNotFound(fmt.Sprintf("feature flag %q not found", key)).
		WithMetadata("flag_key", key)
}

// ErrUnsupportedChannel creates an error for a channel with no registered sender.
func ErrUnsupportedChannel(channel string) *AppError {
	return ErrServerError(fmt.Sprintf("no sender registered for channel %q", channel)).
		WithMetadata("channel", channel)
}

// ErrDatabaseOperation wraps a persistence failure.
func ErrDatabaseOperation(err error) *AppError {
	return ErrServerError("database operation failed").WithCause(err)
}

// ErrCacheUnavailable wraps a cache-tier failure.
func ErrCacheUnavailable(err error) *AppError {
	return ErrUnavailable("cache unavailable").WithCause(err)
}

// ErrSendFailed wraps a provider delivery failure for a channel.
func ErrSendFailed(channel string, err error) *AppError {
	return ErrUnavailable(fmt.Sprintf("%s delivery failed", channel)).
		WithCause(err).
		WithMetadata("channel", channel)
}

// ================================================================================
// Error Classification Utilities
// ================================================================================

// AsAppError attempts to cast an error to *AppError.
func AsAppError(err error) (*AppError, bool) {
	appErr, ok := err.(*AppError)
	return appErr, ok
}

// IsNotFound reports whether the error is a not_found error.
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code() == constants.ErrCodeNotFound
	}
	return false
}

// IsRateLimit reports whether the error is a rate limit denial.
func IsRateLimit(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code() == constants.ErrCodeRateLimitExceeded
	}
	return false
}

// IsTransient reports whether the error can be retried.
func IsTransient(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code() == constants.ErrCodeUnavailable
	}
	return false
}

// WrapError wraps a generic error into an AppError with the given code.
func WrapError(err error, code constants.ErrorCode, message string) *AppError {
	var httpStatus int
	switch code {
	case constants.ErrCodeInvalidRequest:
		httpStatus = http.StatusBadRequest
	case constants.ErrCodeUnauthorized:
		httpStatus = http.StatusUnauthorized
	case constants.ErrCodeForbidden:
		httpStatus = http.StatusForbidden
	case constants.ErrCodeNotFound:
		httpStatus = http.StatusNotFound
	case constants.ErrCodeRateLimitExceeded:
		httpStatus = http.StatusTooManyRequests
	case constants.ErrCodeUnavailable:
		httpStatus = http.StatusServiceUnavailable
	default:
		httpStatus = http.StatusInternalServerError
	}
	return NewError(code, httpStatus, message).WithCause(err)
}

// ================================================================================
// Error Response Builder
// ================================================================================

// ErrorResponse is the JSON structure for error responses.
type ErrorResponse struct {
	Error            string                 `json:"error"`
	ErrorDescription string                 `json:"error_description"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// ToErrorResponse converts any error to an ErrorResponse.
func ToErrorResponse(err error) *ErrorResponse {
	if appErr, ok := AsAppError(err); ok {
		return &ErrorResponse{
			Error:            string(appErr.Code()),
			ErrorDescription: appErr.Error(),
			Metadata:         appErr.Metadata(),
		}
	}
	return &ErrorResponse{
		Error:            string(constants.ErrCodeServerError),
		ErrorDescription: "an unexpected error occurred",
	}
}
