// GO TESTING BASICS:
// 1. Test files MUST end in _test.go; Go's tooling auto-discovers them
// 2. Test functions MUST start with "Test" and take *testing.T as the only param
// 3. Same package as the code being tested (so we can access unexported stuff)
package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// TABLE-DRIVEN TESTS:
// Each case is one struct in the slice; the assertion logic is written once.
func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("posting", "7"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("not the owner"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "EmptyCollection wraps ErrEmptyCollection",
			err:       EmptyCollection("postings"),
			target:    ErrEmptyCollection,
			wantMatch: true,
		},
		{
			name:      "AlreadyInitialized wraps ErrAlreadyInitialized",
			err:       AlreadyInitialized(),
			target:    ErrAlreadyInitialized,
			wantMatch: true,
		},
		{
			name:      "NotInitialized wraps ErrNotInitialized",
			err:       NotInitialized(),
			target:    ErrNotInitialized,
			wantMatch: true,
		},
		{
			name:      "Exhausted wraps ErrExhausted",
			err:       Exhausted("posting"),
			target:    ErrExhausted,
			wantMatch: true,
		},
		{
			name:      "wrapped twice still matches",
			err:       fmt.Errorf("deleting posting: %w", Unauthorized("not the owner")),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrUnauthorized",
			err:       NotFound("posting", "7"),
			target:    ErrUnauthorized,
			wantMatch: false,
		},
		{
			name:      "ValidationFailed does NOT match ErrNotFound",
			err:       ValidationFailed("title", "too long"),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("posting", "7"),
			wantMessage: "posting not found with id 7",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("title", "title is required"),
			wantMessage: "title is required",
		},
		{
			name:        "Conflict message includes resource and id",
			err:         Conflict("reply", "3"),
			wantMessage: "reply conflict with id 3",
		},
		{
			name:        "EmptyCollection names the resource",
			err:         EmptyCollection("postings"),
			wantMessage: "there are no postings to retrieve yet",
		},
		{
			name:        "Exhausted names the resource",
			err:         Exhausted("reply"),
			wantMessage: "no reply identifiers left to allocate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("posting", "7")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("contact", "contact is too long")
	if err.Field != "contact" {
		t.Errorf("Field = %q, want %q", err.Field, "contact")
	}
}
