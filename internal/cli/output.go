package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sakif/job-board/internal/apperror"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The board refused the operation (not found, unauthorized, ...)
	ExitCommandError = 2 // Bad flags, unreadable config, unopenable database
)

// ExitError carries an exit code alongside the error.
type ExitError struct {
	Code    int
	Message string
	Err     error // optional
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the envelope of every --format json result.
type Response struct {
	Status string     `json:"status"` // "ok" or "error"
	Data   any        `json:"data,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody mirrors the HTTP API's error body.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Success writes data. In text mode render prints it; a nil render falls
// back to fmt.Println.
func (f *OutputFormatter) Success(data any, render func(io.Writer) error) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	if render != nil {
		return render(f.Writer)
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Fail reports err in the configured format and returns the ExitError the
// command should exit with. Board errors exit with ExitFailure, anything
// else with ExitCommandError.
func (f *OutputFormatter) Fail(err error) error {
	code, kind := ExitCommandError, "command_error"
	body := ErrorBody{Message: err.Error()}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		code, kind = ExitFailure, errorKind(err)
		body.Message = appErr.Message
		body.Field = appErr.Field
	}
	body.Code = kind

	if f.Format == "json" {
		_ = json.NewEncoder(f.Writer).Encode(Response{Status: "error", Error: &body})
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", body.Code, body.Message)
	}
	return WrapExitError(code, kind, err)
}

// errorKind names a board error the way the HTTP API does.
func errorKind(err error) string {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperror.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, apperror.ErrEmptyCollection):
		return "empty_collection"
	case errors.Is(err, apperror.ErrAlreadyInitialized):
		return "already_initialized"
	case errors.Is(err, apperror.ErrConflict):
		return "conflict"
	case errors.Is(err, apperror.ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, apperror.ErrExhausted):
		return "identifiers_exhausted"
	default:
		return "internal_error"
	}
}
