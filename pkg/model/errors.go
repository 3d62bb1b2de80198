package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a structured API error code.
type ErrorCode string

const (
	ErrValidation       ErrorCode = "VALIDATION_ERROR"
	ErrUnknownAlgorithm ErrorCode = "UNKNOWN_ALGORITHM"
	ErrNotFound         ErrorCode = "NOT_FOUND"
	ErrInternal         ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error returned by the SchedSim API.
type APIError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// NewValidationError creates an APIError with validation details.
func NewValidationError(msg string, details ...FieldError) *APIError {
	return &APIError{Code: ErrValidation, Message: msg, Details: details}
}

// NewNotFoundError creates a NOT_FOUND APIError.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}

// NewInternalError creates an INTERNAL_ERROR APIError.
func NewInternalError(msg string) *APIError {
	return &APIError{Code: ErrInternal, Message: msg}
}

// ValidationError reports malformed process fields or scheduling parameters.
type ValidationError struct {
	Message string
	Details []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		if d.Field == "" {
			parts = append(parts, d.Message)
			continue
		}
		parts = append(parts, d.Field+" "+d.Message)
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// UnknownAlgorithmError is returned for an unsupported algorithm identifier.
type UnknownAlgorithmError struct {
	Name string
}

func (e *UnknownAlgorithmError) Error() string {
	return fmt.Sprintf("unknown algorithm %q", e.Name)
}

// ToAPIError maps any error onto the API error envelope.
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return NewValidationError(verr.Message, verr.Details...)
	}
	var uerr *UnknownAlgorithmError
	if errors.As(err, &uerr) {
		return &APIError{Code: ErrUnknownAlgorithm, Message: uerr.Error()}
	}
	return &APIError{Code: ErrInternal, Message: err.Error()}
}
