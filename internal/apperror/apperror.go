package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("Validation Error")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrEmptyCollection    = errors.New("empty collection")
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrNotInitialized     = errors.New("not initialized")
	ErrExhausted          = errors.New("identifier space exhausted")
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

// Unauthorized reports that the caller is not the recorded owner of a resource.
// HTTP handlers map this to 403 Forbidden; a missing identity is a 401 and is
// rejected earlier by the auth middleware.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// EmptyCollection is returned when a page is requested from a store with no entries.
func EmptyCollection(resource string) *AppError {
	return &AppError{
		Err:     ErrEmptyCollection,
		Message: fmt.Sprintf("there are no %s to retrieve yet", resource),
	}
}

func AlreadyInitialized() *AppError {
	return &AppError{
		Err:     ErrAlreadyInitialized,
		Message: "the board is already initialized",
	}
}

func NotInitialized() *AppError {
	return &AppError{
		Err:     ErrNotInitialized,
		Message: "the board must be initialized before use",
	}
}

// Exhausted is returned instead of letting an identifier counter wrap around.
func Exhausted(resource string) *AppError {
	return &AppError{
		Err:     ErrExhausted,
		Message: fmt.Sprintf("no %s identifiers left to allocate", resource),
	}
}
