package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Entity construction errors
	ErrValidation = &Error{Code: "VALIDATION_FAILED", Message: "entity validation failed"}

	// Order lifecycle errors
	ErrInvalidTransition = &Error{Code: "INVALID_TRANSITION", Message: "illegal order status transition"}

	// Series errors
	ErrNoData           = &Error{Code: "NO_DATA", Message: "no bar data available"}
	ErrSeriesNotOrdered = &Error{Code: "SERIES_NOT_ORDERED", Message: "bar series is not strictly chronological"}
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "series shorter than strategy warm-up window"}

	// Strategy errors
	ErrStrategyUnknown = &Error{Code: "STRATEGY_UNKNOWN", Message: "strategy not registered"}
	ErrStrategyFailed  = &Error{Code: "STRATEGY_FAILED", Message: "strategy evaluation failed"}

	// Persistence errors
	ErrStoreFailed = &Error{Code: "STORE_FAILED", Message: "account store operation failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
