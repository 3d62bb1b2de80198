package server

import (
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Store     string `json:"store"`
	Processes int    `json:"processes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	resp := healthResponse{
		Status:    "healthy",
		Version:   s.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Store:     s.config.Store.Backend,
	}
	n, err := s.registry.Len(r.Context())
	if err != nil {
		s.logger.Warn("health: store unavailable", "error", err)
		resp.Status = "degraded"
		resp.Processes = -1
	} else {
		resp.Processes = n
	}
	respondOK(w, reqID, resp)
}
