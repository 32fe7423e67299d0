package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{Code: "TEST_ERROR", Message: "test message"}
	if err.Error() != "[TEST_ERROR] test message" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestError_ErrorWithCause(t *testing.T) {
	err := WrapError(ErrValidation, fmt.Errorf("quantity must be positive"))
	want := "[VALIDATION_FAILED] entity validation failed: quantity must be positive"
	if err.Error() != want {
		t.Errorf("error string = %q, want %q", err.Error(), want)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Code: "WRAP", Message: "wrapped", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should return cause")
	}
}

func TestError_Is(t *testing.T) {
	if !errors.Is(ErrInvalidTransition, ErrInvalidTransition) {
		t.Error("same error should match")
	}
	wrapped := WrapError(ErrInsufficientData, errors.New("need 200 bars, got 50"))
	if !errors.Is(wrapped, ErrInsufficientData) {
		t.Error("wrapped error should match base by code")
	}
	if errors.Is(wrapped, ErrStoreFailed) {
		t.Error("wrapped error should not match a different code")
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("original")
	wrapped := WrapError(ErrStoreFailed, cause)
	if wrapped.Cause != cause {
		t.Error("cause not set")
	}
	if wrapped.Code != ErrStoreFailed.Code {
		t.Error("code not preserved")
	}
}
