package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError carrying the same code, so the
// sentinel values below can be matched with errors.Is through any wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context. The code of a wrapped
// AppError is preserved.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode replaces the code of an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is (or wraps) an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInsufficientData   = "INSUFFICIENT_DATA"
	CodeNonNumericInput    = "NON_NUMERIC_INPUT"
	CodeInsufficientGroups = "INSUFFICIENT_GROUPS"
	CodeModelFit           = "MODEL_FIT_ERROR"
)

// Sentinels for errors.Is matching by code.
var (
	ErrConfigInvalid      = New(CodeConfigInvalid, "configuration invalid")
	ErrNotFound           = New(CodeNotFound, "not found")
	ErrInvalidInput       = New(CodeInvalidInput, "invalid input")
	ErrInsufficientData   = New(CodeInsufficientData, "insufficient data")
	ErrNonNumericInput    = New(CodeNonNumericInput, "non-numeric input")
	ErrInsufficientGroups = New(CodeInsufficientGroups, "insufficient groups")
	ErrModelFit           = New(CodeModelFit, "model fit failed")
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// InsufficientData reports too few observations for a statistical test.
func InsufficientData(message string) *AppError {
	return New(CodeInsufficientData, message)
}

// NonNumericInput reports a column of the wrong type.
func NonNumericInput(column string) *AppError {
	return New(CodeNonNumericInput, fmt.Sprintf("column %q is not numeric", column))
}

// InsufficientGroups reports fewer distinct groups than a test requires.
func InsufficientGroups(column string, found, required int) *AppError {
	return New(CodeInsufficientGroups,
		fmt.Sprintf("grouping column %q has %d distinct group(s), at least %d required", column, found, required))
}

// ModelFit reports a numerical or structural failure while fitting a model.
func ModelFit(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeModelFit,
		Message: message,
		Cause:   cause,
	}
}
