// Package apperror defines the error taxonomy shared by every layer.
//
// Services return *AppError values built with the constructors below. The
// HTTP layer never inspects messages: it asks StatusCode() (or errors.Is on
// the sentinels) and writes the Message back to the client.
//
//	InvalidInput     → ErrValidation   → 400
//	Unauthorized     → ErrUnauthorized → 401
//	Forbidden        → ErrForbidden    → 403
//	NotFound         → ErrNotFound     → 404
//	Conflict         → ErrConflict     → 409
//	InternalStorage  → ErrInternal     → 500
//	InternalConfig   → ErrInternal     → 500
package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)

type AppError struct {
	Err     error  // sentinel, one of the Err* values above
	Message string // client-facing message
	Field   string // optional: field causing the error
	Cause   error  // optional: underlying failure, logged but never sent to clients
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status associated with the error's sentinel.
func (e *AppError) StatusCode() int {
	switch e.Err {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns a machine-readable name for the error, used in response bodies.
func (e *AppError) Kind() string {
	switch e.Err {
	case ErrValidation:
		return "validation_error"
	case ErrUnauthorized:
		return "unauthorized"
	case ErrForbidden:
		return "forbidden"
	case ErrNotFound:
		return "not_found"
	case ErrConflict:
		return "conflict"
	default:
		return "internal_error"
	}
}

// InvalidInput reports a client error that is not tied to one field.
func InvalidInput(message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: message}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func NotFound(message string) *AppError {
	return &AppError{Err: ErrNotFound, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message}
}

// ConflictOn is Conflict with the offending field recorded.
func ConflictOn(field, message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message, Field: field}
}

// InternalStorage wraps a persistence failure. The cause is kept for logging.
func InternalStorage(message string, cause error) *AppError {
	return &AppError{Err: ErrInternal, Message: message, Cause: cause}
}

// InternalConfig wraps a server misconfiguration, such as a missing signing secret.
func InternalConfig(message string, cause error) *AppError {
	return &AppError{Err: ErrInternal, Message: message, Cause: cause}
}

// StatusCode extracts the HTTP status from any error. Errors that carry no
// *AppError in their chain are treated as 500.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode()
	}
	return http.StatusInternalServerError
}
