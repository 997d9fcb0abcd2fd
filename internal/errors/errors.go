package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a journal error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"    // 404
	ErrCancelled        ErrorCode = "CANCELLED"         // 499
	ErrInternal         ErrorCode = "INTERNAL"          // 500
	ErrStoreUnavailable ErrorCode = "STORE_UNAVAILABLE" // 503
)

// JournalError represents a structured error with code, status, and details.
type JournalError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *JournalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *JournalError {
	return &JournalError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidField creates a 400 error naming the offending field.
func NewInvalidField(field, msg string) *JournalError {
	return &JournalError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: fmt.Sprintf("%s: %s", field, msg),
		Details: map[string]any{"field": field},
	}
}

// NewNotFound creates a 404 error for when an entry cannot be found.
func NewNotFound(id int64) *JournalError {
	return &JournalError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("entry not found: %d", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *JournalError {
	return &JournalError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewCancelled creates a 499 error when an operation is interrupted by its context.
func NewCancelled(op string) *JournalError {
	return &JournalError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"operation": op},
	}
}

// NewStoreUnavailable creates a 503 error when the entry store cannot be reached.
func NewStoreUnavailable(err error) *JournalError {
	msg := "entry store unavailable"
	if err != nil {
		msg = fmt.Sprintf("entry store unavailable: %v", err)
	}
	return &JournalError{
		Code:    ErrStoreUnavailable,
		Status:  503,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *JournalError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &JournalError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a JournalError with the given code.
func Is(err error, code ErrorCode) bool {
	var jErr *JournalError
	if stderrors.As(err, &jErr) {
		return jErr.Code == code
	}
	return false
}

// As extracts a JournalError from err, wrapping anything else as INTERNAL.
func As(err error) *JournalError {
	var jErr *JournalError
	if stderrors.As(err, &jErr) {
		return jErr
	}
	return NewInternal(err)
}
