package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a business-rule failure class
type Code string

const (
	CodeNotFound          Code = "not_found"
	CodeInvalidState      Code = "invalid_state"
	CodeInsufficientFunds Code = "insufficient_funds"
	CodeUnavailable       Code = "unavailable"
	CodeOutOfStock        Code = "out_of_stock"
	CodeConflict          Code = "conflict"
)

// Error is a deterministic business-rule failure carrying a taxonomy code.
// Anything that is not an *Error is treated as an internal failure and
// surfaced to clients as a generic message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NotFound(entity string) *Error {
	return &Error{Code: CodeNotFound, Message: entity + " not found"}
}

func InvalidState(format string, args ...interface{}) *Error {
	return &Error{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

func InsufficientFunds(required, available int) *Error {
	return &Error{
		Code:    CodeInsufficientFunds,
		Message: fmt.Sprintf("insufficient points: required %d, available %d", required, available),
	}
}

func Unavailable(what string) *Error {
	return &Error{Code: CodeUnavailable, Message: what + " is not available"}
}

func OutOfStock(what string) *Error {
	return &Error{Code: CodeOutOfStock, Message: what + " is out of stock"}
}

func Conflict(what string) *Error {
	return &Error{Code: CodeConflict, Message: "concurrent update on " + what + ", please retry"}
}

// IsCode reports whether err is an *Error with the given code
func IsCode(err error, code Code) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}

// HTTPStatus maps a failure to the client-facing status code.
// Unknown errors map to 500.
func HTTPStatus(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState:
		return http.StatusBadRequest
	case CodeInsufficientFunds, CodeUnavailable, CodeOutOfStock:
		return http.StatusConflict
	case CodeConflict:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
