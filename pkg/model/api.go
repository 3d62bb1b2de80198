package model

import "time"

// Response is the standard API response envelope.
type Response struct {
	Status    string    `json:"status"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Error     *APIError `json:"error"`
}

// AddProcessResponse is returned after a process is appended to the registry.
type AddProcessResponse struct {
	Message   string    `json:"message"`
	Processes []Process `json:"processes"`
}

// ResetResponse is returned after the registry is cleared.
type ResetResponse struct {
	Message string `json:"message"`
}

// RunRequest asks the service to simulate an algorithm. When Processes is nil
// the current registry contents are used.
type RunRequest struct {
	Algorithm string    `json:"algorithm"`
	Quantum   *int      `json:"quantum,omitempty"`
	Processes []Process `json:"processes,omitempty"`
}

// AlgorithmInfo describes a supported algorithm for discovery endpoints.
type AlgorithmInfo struct {
	ID          Algorithm `json:"id"`
	Name        string    `json:"name"`
	Preemptive  bool      `json:"preemptive"`
	UsesQuantum bool      `json:"uses_quantum"`
	Description string    `json:"description"`
}
