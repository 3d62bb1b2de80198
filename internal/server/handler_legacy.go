package server

import (
	"net/http"

	"github.com/me/schedsim/pkg/model"
)

// The original browser client posts to these routes and reads bare JSON
// objects. Errors are reported as {"error": "..."}.

type legacyError struct {
	Error   string             `json:"error"`
	Details []model.FieldError `json:"details,omitempty"`
}

func respondLegacyErr(w http.ResponseWriter, err error) {
	apiErr := model.ToAPIError(err)
	writeJSON(w, statusFor(apiErr), legacyError{Error: apiErr.Message, Details: apiErr.Details})
}

// POST /add_process
func (s *Server) handleLegacyAddProcess(w http.ResponseWriter, r *http.Request) {
	resp, err := s.addProcess(r)
	if err != nil {
		respondLegacyErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /reset
func (s *Server) handleLegacyReset(w http.ResponseWriter, r *http.Request) {
	resp, err := s.resetProcesses(r)
	if err != nil {
		respondLegacyErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /run
func (s *Server) handleLegacyRun(w http.ResponseWriter, r *http.Request) {
	var req model.RunRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondLegacyErr(w, err)
		return
	}
	res, err := s.simulate(r.Context(), req)
	if err != nil {
		respondLegacyErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
