package server

import (
	"net/http"

	"github.com/me/schedsim/internal/engine"
	"github.com/me/schedsim/pkg/model"
)

// addProcessRequest uses pointers so that a missing field can be told apart
// from an explicit zero.
type addProcessRequest struct {
	Name     *string `json:"name"`
	Arrival  *int    `json:"arrival"`
	Burst    *int    `json:"burst"`
	Priority *int    `json:"priority"`
}

func decodeProcess(r *http.Request) (model.Process, error) {
	var req addProcessRequest
	if err := decodeJSON(r, &req, false); err != nil {
		return model.Process{}, err
	}

	var details []model.FieldError
	if req.Name == nil {
		details = append(details, model.FieldError{Field: "name", Message: "required"})
	}
	if req.Arrival == nil {
		details = append(details, model.FieldError{Field: "arrival", Message: "required"})
	}
	if req.Burst == nil {
		details = append(details, model.FieldError{Field: "burst", Message: "required"})
	}
	if len(details) > 0 {
		return model.Process{}, &model.ValidationError{Message: "invalid process", Details: details}
	}

	p := model.Process{Name: *req.Name, Arrival: *req.Arrival, Burst: *req.Burst}
	if req.Priority != nil {
		p.Priority = *req.Priority
	}
	return p, nil
}

func (s *Server) addProcess(r *http.Request) (*model.AddProcessResponse, error) {
	p, err := decodeProcess(r)
	if err != nil {
		return nil, err
	}
	processes, err := s.registry.AddProcess(r.Context(), p)
	if err != nil {
		return nil, err
	}
	s.metrics.SetRegistrySize(len(processes))
	return &model.AddProcessResponse{Message: "process added", Processes: processes}, nil
}

func (s *Server) resetProcesses(r *http.Request) (*model.ResetResponse, error) {
	if err := s.registry.Reset(r.Context()); err != nil {
		return nil, err
	}
	s.metrics.SetRegistrySize(0)
	return &model.ResetResponse{Message: "processes reset"}, nil
}

// POST /api/v1/processes
func (s *Server) handleAddProcess(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	resp, err := s.addProcess(r)
	if err != nil {
		respondErr(w, reqID, err)
		return
	}
	respondCreated(w, reqID, resp)
}

// GET /api/v1/processes
func (s *Server) handleListProcesses(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	processes, err := s.registry.List(r.Context())
	if err != nil {
		respondErr(w, reqID, err)
		return
	}
	respondOK(w, reqID, processes)
}

// DELETE /api/v1/processes
func (s *Server) handleResetProcesses(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	resp, err := s.resetProcesses(r)
	if err != nil {
		respondErr(w, reqID, err)
		return
	}
	respondOK(w, reqID, resp)
}

// GET /api/v1/algorithms
func (s *Server) handleListAlgorithms(w http.ResponseWriter, r *http.Request) {
	respondOK(w, RequestIDFromContext(r.Context()), engine.Algorithms())
}
