package model

import "math"

// Process is a user-submitted unit of CPU work.
type Process struct {
	Name    string `json:"name"`
	Arrival int    `json:"arrival"`
	Burst   int    `json:"burst"`

	// Priority is consulted only by the PRIORITY algorithm. Lower values run first.
	Priority int `json:"priority,omitempty"`
}

// Validate checks the process invariants and returns a *ValidationError
// listing every offending field.
func (p Process) Validate() error {
	var details []FieldError
	if p.Name == "" {
		details = append(details, FieldError{Field: "name", Message: "required"})
	}
	if p.Arrival < 0 {
		details = append(details, FieldError{Field: "arrival", Message: "must be >= 0"})
	}
	if p.Burst <= 0 {
		details = append(details, FieldError{Field: "burst", Message: "must be > 0"})
	} else if p.Arrival > math.MaxInt-p.Burst {
		details = append(details, FieldError{Field: "burst", Message: "arrival + burst overflows"})
	}
	if len(details) > 0 {
		return &ValidationError{Message: "invalid process", Details: details}
	}
	return nil
}

// CopyProcesses returns an independent copy of ps. A nil input yields an
// empty, non-nil slice so callers can always encode it as a JSON array.
func CopyProcesses(ps []Process) []Process {
	out := make([]Process, len(ps))
	copy(out, ps)
	return out
}
