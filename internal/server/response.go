package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/me/schedsim/pkg/model"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// requestID generates a unique request identifier.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// respondOK writes a success response with the standard envelope.
func respondOK(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusOK, reqID, data, nil)
}

// respondCreated writes a 201 response with the standard envelope.
func respondCreated(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusCreated, reqID, data, nil)
}

// respondError writes an error response with the standard envelope.
func respondError(w http.ResponseWriter, reqID string, status int, apiErr *model.APIError) {
	respondJSON(w, status, reqID, nil, apiErr)
}

// respondErr maps err onto an API error and its HTTP status.
func respondErr(w http.ResponseWriter, reqID string, err error) {
	apiErr := model.ToAPIError(err)
	respondError(w, reqID, statusFor(apiErr), apiErr)
}

// handleNotFound answers unmatched routes with the error envelope.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	respondErr(w, RequestIDFromContext(r.Context()), model.NewNotFoundError("Route", r.Method+" "+r.URL.Path))
}

func respondJSON(w http.ResponseWriter, status int, reqID string, data any, apiErr *model.APIError) {
	resp := model.Response{
		RequestID: reqID,
		Timestamp: time.Now().UTC(),
		Data:      data,
		Error:     apiErr,
	}
	if apiErr != nil {
		resp.Status = "error"
	} else {
		resp.Status = "ok"
	}
	writeJSON(w, status, resp)
}

// writeJSON writes v without the envelope.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusFor(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrValidation, model.ErrUnknownAlgorithm:
		return http.StatusBadRequest
	case model.ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into v. A missing body leaves v
// untouched when allowEmpty is set. Type mismatches become field errors.
func decodeJSON(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	err := dec.Decode(v)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		if allowEmpty {
			return nil
		}
		return &model.ValidationError{Message: "request body is required"}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &model.ValidationError{
			Message: "invalid request body",
			Details: []model.FieldError{{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("must be %s, got %s", typeErr.Type, typeErr.Value),
			}},
		}
	}
	return &model.ValidationError{Message: "invalid JSON body: " + err.Error()}
}
