package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-readable error code. Codes are part of the API
// contract and consumed by the bilingual message formatter.
type Code string

const (
	CodeComplexNotFound       Code = "COMPLEX_NOT_FOUND"
	CodeTargetComplexNotFound Code = "TARGET_COMPLEX_NOT_FOUND"
	CodeTargetComplexInactive Code = "TARGET_COMPLEX_INACTIVE"
	CodeTransferRequired      Code = "TRANSFER_REQUIRED"
	CodeClinicNotInSource     Code = "CLINIC_NOT_IN_SOURCE"
	CodeInvalidIdentifier     Code = "INVALID_IDENTIFIER"
	CodeInvalidStatus         Code = "INVALID_STATUS"
	CodeInternal              Code = "INTERNAL_ERROR"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindPrecondition
	KindValidation
	KindInternal
)

// AppError represents an application error
type AppError struct {
	Kind    Kind   `json:"-"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindPrecondition:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors
func NotFound(code Code, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

func Precondition(code Code, message string) *AppError {
	return &AppError{Kind: KindPrecondition, Code: code, Message: message}
}

func Validation(code Code, message string, err error) *AppError {
	return &AppError{Kind: KindValidation, Code: code, Message: message, Err: err}
}

func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Code: CodeInternal, Message: "internal server error", Err: err}
}

// AsAppError unwraps err to an *AppError if one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
