package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Code: ErrNotFound, Message: "Process 'A' not found"}
	want := "NOT_FOUND: Process 'A' not found"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("Process", "A")
	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Message != "Process 'A' not found" {
		t.Errorf("Message = %q, want %q", err.Message, "Process 'A' not found")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("Invalid request",
		FieldError{Field: "name", Message: "required"},
		FieldError{Field: "burst", Message: "expected int"},
	)
	if err.Code != ErrValidation {
		t.Errorf("Code = %q, want %q", err.Code, ErrValidation)
	}
	if len(err.Details) != 2 {
		t.Errorf("Details length = %d, want 2", len(err.Details))
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Message: "invalid process",
		Details: []FieldError{
			{Field: "name", Message: "required"},
			{Field: "burst", Message: "must be > 0"},
		},
	}
	want := "invalid process: name required; burst must be > 0"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := &ValidationError{Message: "quantum must be > 0"}
	if got := bare.Error(); got != "quantum must be > 0" {
		t.Errorf("Error() = %q", got)
	}
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"validation", &ValidationError{Message: "bad"}, ErrValidation},
		{"wrapped validation", fmt.Errorf("add: %w", &ValidationError{Message: "bad"}), ErrValidation},
		{"unknown algorithm", &UnknownAlgorithmError{Name: "LOTTERY"}, ErrUnknownAlgorithm},
		{"api error", NewNotFoundError("Process", "x"), ErrNotFound},
		{"other", errors.New("disk on fire"), ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToAPIError(tt.err).Code; got != tt.want {
				t.Errorf("Code = %q, want %q", got, tt.want)
			}
		})
	}
}
