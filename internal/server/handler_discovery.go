package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	endpoints := []endpointInfo{
		{"/api/v1/processes", []string{"GET", "POST", "DELETE"}, "List, add or reset the registered processes"},
		{"/api/v1/run", []string{"POST"}, "Simulate an algorithm over the registry or an inline process list"},
		{"/api/v1/run/stream", []string{"GET"}, "Simulate and stream the execution slices as Server-Sent Events"},
		{"/api/v1/algorithms", []string{"GET"}, "Supported scheduling algorithms"},
		{"/api/v1/health", []string{"GET"}, "Server health and version"},
		{"/add_process", []string{"POST"}, "Add a process (web client compatibility, no envelope)"},
		{"/reset", []string{"POST"}, "Reset the registry (web client compatibility, no envelope)"},
		{"/run", []string{"POST"}, "Run a simulation (web client compatibility, no envelope)"},
		{"/", []string{"GET"}, "Browser dashboard"},
	}
	if s.metrics != nil {
		endpoints = append(endpoints, endpointInfo{"/metrics", []string{"GET"}, "Prometheus metrics"})
	}

	respondOK(w, reqID, discoveryResponse{
		Name:        "SchedSim API",
		Version:     "v1",
		Description: "CPU scheduling simulator: FCFS, SJF, RR, SRTF and PRIORITY timelines with ready-queue history",
		Endpoints:   endpoints,
	})
}
