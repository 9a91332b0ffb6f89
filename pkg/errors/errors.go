// Package errors defines common error types for the application.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown           = "UNKNOWN_ERROR"
	CodeIO                = "IO_ERROR"
	CodeMalformedEquation = "MALFORMED_EQUATION"
	CodeMalformedMatrix   = "MALFORMED_MATRIX"
	CodeMalformedNet      = "MALFORMED_NET"
	CodeOracleFailure     = "ORACLE_FAILURE"
	CodeReducerFailure    = "REDUCER_FAILURE"
	CodeInvalidMarking    = "INVALID_MARKING"
	CodeConfigError       = "CONFIG_ERROR"
	CodeStorageError      = "STORAGE_ERROR"
	CodeDatabaseError     = "DATABASE_ERROR"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code string, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	ErrIO                = New(CodeIO, "i/o error")
	ErrMalformedEquation = New(CodeMalformedEquation, "malformed reduction equation")
	ErrMalformedMatrix   = New(CodeMalformedMatrix, "malformed concurrency matrix")
	ErrMalformedNet      = New(CodeMalformedNet, "malformed Petri net")
	ErrOracleFailure     = New(CodeOracleFailure, "oracle failure")
	ErrReducerFailure    = New(CodeReducerFailure, "reducer failure")
	ErrInvalidMarking    = New(CodeInvalidMarking, "invalid marking")
	ErrConfigError       = New(CodeConfigError, "configuration error")
	ErrStorageError      = New(CodeStorageError, "storage error")
	ErrDatabaseError     = New(CodeDatabaseError, "database error")
)

// IsIOError checks if the error is an i/o error.
func IsIOError(err error) bool {
	return errors.Is(err, ErrIO)
}

// IsMalformedEquation checks if the error is a malformed equation error.
func IsMalformedEquation(err error) bool {
	return errors.Is(err, ErrMalformedEquation)
}

// IsMalformedMatrix checks if the error is a malformed matrix error.
func IsMalformedMatrix(err error) bool {
	return errors.Is(err, ErrMalformedMatrix)
}

// IsOracleFailure checks if the error is an oracle failure.
func IsOracleFailure(err error) bool {
	return errors.Is(err, ErrOracleFailure)
}

// IsReducerFailure checks if the error is a reducer failure.
func IsReducerFailure(err error) bool {
	return errors.Is(err, ErrReducerFailure)
}

// IsInvalidMarking checks if the error is an invalid marking error.
func IsInvalidMarking(err error) bool {
	return errors.Is(err, ErrInvalidMarking)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
