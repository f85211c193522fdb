package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes used across the service. Callers match on Code, not on
// message text.
const (
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
	CodeNotConfigured    = "NOT_CONFIGURED"
	CodeRemoteService    = "REMOTE_SERVICE_ERROR"
	CodeChatNotFound     = "CHAT_NOT_FOUND"
	CodeBadRequest       = "BAD_REQUEST"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	CodeServerError      = "SERVER_ERROR"
)

// AppError is an application error carrying an HTTP status and a stable code.
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	cause      error
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As chains.
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// WithCause records the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// New creates a new application error
func New(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// NewBadRequest creates a 400 Bad Request error
func NewBadRequest(message string) *AppError {
	return New(http.StatusBadRequest, CodeBadRequest, message)
}

// NewNotFound creates a 404 Not Found error
func NewNotFound(code string, message string) *AppError {
	return New(http.StatusNotFound, code, message)
}

// NewNotAuthenticated signals that an operation requiring a signed-in
// session was invoked before the Telegram handshake completed.
func NewNotAuthenticated(message string) *AppError {
	return New(http.StatusUnauthorized, CodeNotAuthenticated, message)
}

// NewNotConfigured signals a missing credential or an uninitialized
// capability. Fatal for the dependent operation, surfaced to the caller.
func NewNotConfigured(message string) *AppError {
	return New(http.StatusServiceUnavailable, CodeNotConfigured, message)
}

// NewRemoteService wraps a failed chat-service or embedding call. The
// triggering operation logs it and aborts; nothing else is affected.
func NewRemoteService(message string, cause error) *AppError {
	return New(http.StatusBadGateway, CodeRemoteService, message).WithCause(cause)
}

// NewInternal creates a 500 Internal Server Error
func NewInternal(message string) *AppError {
	return New(http.StatusInternalServerError, CodeServerError, message)
}

// FromError converts any error to an AppError, passing AppErrors through.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternal(err.Error())
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}
