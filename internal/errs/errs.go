// Package errs defines the service's typed error taxonomy and the HTTP
// status each error code maps to.
package errs

import (
	"errors"
	"net/http"
)

// Code identifies an error category independent of transport.
type Code string

const (
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
	CodeBadRequest        Code = "bad_request"
	CodeUnauthorized      Code = "unauthorized"
	CodeForbidden         Code = "forbidden"
	CodeUpstreamError     Code = "upstream_error"
	CodeDependencyMissing Code = "dependency_missing"
	CodeValidation        Code = "validation_error"
	CodeRateLimited       Code = "rate_limited"
	CodeInternal          Code = "internal_error"
)

var statusByCode = map[Code]int{
	CodeNotFound:          http.StatusNotFound,
	CodeConflict:          http.StatusConflict,
	CodeBadRequest:        http.StatusBadRequest,
	CodeUnauthorized:      http.StatusUnauthorized,
	CodeForbidden:         http.StatusForbidden,
	CodeUpstreamError:     http.StatusBadGateway,
	CodeDependencyMissing: http.StatusServiceUnavailable,
	CodeValidation:        http.StatusUnprocessableEntity,
	CodeRateLimited:       http.StatusTooManyRequests,
	CodeInternal:          http.StatusInternalServerError,
}

// AppError is the one error type every layer above storage/transport
// drivers is expected to return. It is never wrapped a second time.
type AppError struct {
	Code       Code
	HTTPStatus int
	Message    string
	Details    []any
	cause      error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func newErr(code Code, message string, cause error, details ...any) *AppError {
	return &AppError{
		Code:       code,
		HTTPStatus: statusByCode[code],
		Message:    message,
		Details:    details,
		cause:      cause,
	}
}

func NotFound(message string, details ...any) *AppError {
	return newErr(CodeNotFound, message, nil, details...)
}

func Conflict(message string, details ...any) *AppError {
	return newErr(CodeConflict, message, nil, details...)
}

func BadRequest(message string, details ...any) *AppError {
	return newErr(CodeBadRequest, message, nil, details...)
}

func Unauthorized(message string, details ...any) *AppError {
	return newErr(CodeUnauthorized, message, nil, details...)
}

func Forbidden(message string, details ...any) *AppError {
	return newErr(CodeForbidden, message, nil, details...)
}

func UpstreamError(message string, cause error, details ...any) *AppError {
	return newErr(CodeUpstreamError, message, cause, details...)
}

func DependencyMissing(message string, details ...any) *AppError {
	return newErr(CodeDependencyMissing, message, nil, details...)
}

// FieldDetail is one per-field validation failure, matching the
// {type, loc, msg} shape the error envelope documents.
type FieldDetail struct {
	Type string `json:"type"`
	Loc  string `json:"loc"`
	Msg  string `json:"msg"`
}

func Validation(message string, fields ...FieldDetail) *AppError {
	details := make([]any, len(fields))
	for i, f := range fields {
		details[i] = f
	}
	return newErr(CodeValidation, message, nil, details...)
}

func RateLimited(message string, details ...any) *AppError {
	return newErr(CodeRateLimited, message, nil, details...)
}

func Internal(message string, cause error) *AppError {
	return newErr(CodeInternal, message, cause)
}

// As reports whether err (or something it wraps) is an *AppError.
func As(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}
