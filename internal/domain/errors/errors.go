// Package errors defines the application-level error taxonomy. Every error
// the consistency rules can produce is declared here with its HTTP status and
// business error code, so the delivery layer can translate failures uniformly.
package errors

import (
	"net/http"

	"kinship/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// Is matches by error code so detail-carrying copies still compare equal
// to their predefined sentinel under errors.Is.
func (e *BaseError) Is(target error) bool {
	other, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return e.errorCode == other.errorCode
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// ErrUserNotFound is returned when the target user of an operation does not exist.
	ErrUserNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"user not found",
		"",
	)

	// ErrParentNotFound is returned when a parent_id references a user that does not exist.
	ErrParentNotFound = NewBaseError(
		http.StatusBadRequest,
		"REFERENCE_NOT_FOUND",
		"referenced parent user not found",
		"",
	)

	// ErrParentTypeMismatch is returned when a parent_id references an existing
	// user whose type is not 'parent'.
	ErrParentTypeMismatch = NewBaseError(
		http.StatusBadRequest,
		"TYPE_MISMATCH",
		"parent_id must reference a user with user type 'parent'",
		"",
	)

	// ErrInvalidField is returned when an update touches a field forbidden for
	// the user's type.
	ErrInvalidField = NewBaseError(
		http.StatusBadRequest,
		"INVALID_FIELD",
		"field is not allowed for this user type",
		"",
	)

	// ErrEmptyUpdate is returned when an update payload contains no field to change.
	ErrEmptyUpdate = NewBaseError(
		http.StatusBadRequest,
		"EMPTY_UPDATE",
		"no valid fields provided for update",
		"",
	)

	// ErrConfirmationRequired is returned when a bulk deletion is attempted
	// without the explicit confirmation flag.
	ErrConfirmationRequired = NewBaseError(
		http.StatusBadRequest,
		"CONFIRMATION_REQUIRED",
		"to delete all users, you must pass confirm=true as a query parameter",
		"",
	)

	// ErrValidationFailed covers malformed or ill-shaped request payloads.
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"input validation failed",
		"",
	)

	// ErrTransactionFailed covers transaction begin/commit failures.
	ErrTransactionFailed = NewBaseError(
		http.StatusInternalServerError,
		"TRANSACTION_FAILED",
		"database transaction failed",
		"",
	)

	// ErrInternalError is the generic opaque server error.
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"internal server error",
		"",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface.
// It is the opaque storage failure of the taxonomy: the wrapped cause is logged, never surfaced.
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
