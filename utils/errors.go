package utils

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies failures for clients.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindConflict   ErrorKind = "conflict"
	KindAuth       ErrorKind = "auth"
	KindNotFound   ErrorKind = "not_found"
	KindRateLimit  ErrorKind = "rate_limit"
	KindServer     ErrorKind = "server"
)

// AppError is an error that knows how it should be rendered.
type AppError struct {
	Kind    ErrorKind
	Status  int
	Code    int
	Message string
	Detail  string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetail returns a copy of e carrying a client visible detail string.
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// ValidationError reports a missing or malformed field.
func ValidationError(code int, message string) *AppError {
	return &AppError{Kind: KindValidation, Status: http.StatusBadRequest, Code: code, Message: message}
}

// ConflictError reports a unique key collision.
func ConflictError(code int, message string) *AppError {
	return &AppError{Kind: KindConflict, Status: http.StatusBadRequest, Code: code, Message: message}
}

// AuthError reports bad credentials (400) or a missing/invalid token (401).
func AuthError(status, code int, message string) *AppError {
	return &AppError{Kind: KindAuth, Status: status, Code: code, Message: message}
}

// NotFoundError reports an absent row, or one the caller does not own.
func NotFoundError(code int, message string) *AppError {
	return &AppError{Kind: KindNotFound, Status: http.StatusNotFound, Code: code, Message: message}
}

// RateLimitError reports an exhausted limiter.
func RateLimitError(code int, message string) *AppError {
	return &AppError{Kind: KindRateLimit, Status: http.StatusTooManyRequests, Code: code, Message: message}
}

// ServerError wraps an unanticipated failure. The cause is logged, never sent.
func ServerError(code int, err error) *AppError {
	return &AppError{Kind: KindServer, Status: http.StatusInternalServerError, Code: code, Message: "Server error", Err: err}
}
