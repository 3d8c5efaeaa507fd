// Package apperror defines the error taxonomy shared by the stores, services and handlers.
//
// Client-visible failures are *AppError values wrapping one of the sentinels below, so
// handlers can pick a status code with errors.Is and still show AppError.Message.
// Store and session failures are plain wrapped errors: they always collapse to a 500.
//
// WHY SENTINELS AND NOT ERROR STRINGS?
// Comparing err.Error() breaks as soon as a message is reworded or wrapped
// with more context. A sentinel survives wrapping:
//
//	err := fmt.Errorf("updating post %s: %w", id, ErrNotFound)
//	errors.Is(err, ErrNotFound) // true
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("Validation Error")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStore              = errors.New("store error")
	ErrSession            = errors.New("session error")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// DuplicateUsername is the registration conflict. Handlers map it to 409.
func DuplicateUsername(username string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: "User already in use",
		Field:   "username",
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// InvalidCredentials is returned for both an unknown username and a wrong password.
// The message is identical for both paths.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "Invalid credentials",
	}
}

// Store wraps an underlying database failure. errors.Is matches both ErrStore and cause.
func Store(op string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, cause)
}

// Session wraps a failure of the session store during destroy.
func Session(op string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrSession, op, cause)
}
