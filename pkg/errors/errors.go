// Package errors is the error taxonomy shared by services and the HTTP layer.
// Services return *Error values; the response writer maps the code to a
// status and decides how much of the error a client may see.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeProjectMismatch Code = "PROJECT_MISMATCH"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeConflict        Code = "CONFLICT"
	CodeIdempotency     Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit       Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal        Code = "INTERNAL_ERROR"
	CodeDependency      Code = "DEPENDENCY_UNAVAILABLE"
)

// Metadata describes how a code is rendered to clients.
type Metadata struct {
	HTTPStatus int
	Retryable  bool
	// PublicMessage replaces the error's own message unless ClientMessage is set.
	PublicMessage  string
	ClientMessage  bool
	DetailsAllowed bool
}

// Client errors expose their message; server-side failures never do.
var metadataByCode = map[Code]Metadata{
	CodeValidation:      {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", ClientMessage: true, DetailsAllowed: true},
	CodeUnauthorized:    {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required", ClientMessage: true},
	CodeForbidden:       {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied", ClientMessage: true},
	CodeNotFound:        {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found", ClientMessage: true},
	CodeProjectMismatch: {HTTPStatus: http.StatusConflict, PublicMessage: "load does not belong to project", ClientMessage: true, DetailsAllowed: true},
	CodeInvalidState:    {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "operation not allowed in current load state", ClientMessage: true, DetailsAllowed: true},
	CodeConflict:        {HTTPStatus: http.StatusConflict, Retryable: true, PublicMessage: "conflict detected", ClientMessage: true},
	CodeIdempotency:     {HTTPStatus: http.StatusConflict, PublicMessage: "idempotency key reused", ClientMessage: true, DetailsAllowed: true},
	CodeRateLimit:       {HTTPStatus: http.StatusTooManyRequests, PublicMessage: "rate limit exceeded", ClientMessage: true},
	CodeInternal:        {HTTPStatus: http.StatusInternalServerError, Retryable: true, PublicMessage: "internal server error"},
	CodeDependency:      {HTTPStatus: http.StatusServiceUnavailable, Retryable: true, PublicMessage: "dependency unavailable", DetailsAllowed: true},
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error carries a Code plus an optional cause and client-visible details.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap keeps err as the cause. A nil err is the same as New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets details in place and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause == nil:
		return string(e.code) + ": " + e.message
	}
	return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the taxonomy code of err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	return As(err).Code()
}

// IsCode reports whether the outermost *Error in err's chain has code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}
