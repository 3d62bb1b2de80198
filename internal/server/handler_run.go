package server

import (
	"context"
	"net/http"
	"time"

	"github.com/me/schedsim/internal/engine"
	"github.com/me/schedsim/internal/telemetry"
	"github.com/me/schedsim/pkg/model"
)

// simulate resolves the request defaults and runs the engine. A nil
// req.Processes means the current registry contents.
func (s *Server) simulate(ctx context.Context, req model.RunRequest) (*model.Result, error) {
	if req.Algorithm == "" {
		return nil, &model.ValidationError{
			Message: "invalid run request",
			Details: []model.FieldError{{Field: "algorithm", Message: "required"}},
		}
	}
	alg, err := model.ParseAlgorithm(req.Algorithm)
	if err != nil {
		// Raw names would make the metric label unbounded.
		s.metrics.ObserveRun("", nil, 0)
		return nil, err
	}

	quantum := s.config.DefaultQuantum
	if req.Quantum != nil {
		quantum = *req.Quantum
	}

	processes := req.Processes
	source := "request"
	if processes == nil {
		if processes, err = s.registry.Snapshot(ctx); err != nil {
			return nil, err
		}
		source = "registry"
	}

	_, span := s.tracing.StartRun(ctx, alg, quantum, len(processes))
	opts := []engine.Option{
		engine.WithLogger(s.logger),
		engine.WithMaxSlices(s.config.MaxSlices),
	}
	if s.config.IdleSnapshots {
		opts = append(opts, engine.WithIdleSnapshots())
	}

	start := time.Now()
	res, err := engine.Run(processes, alg, quantum, opts...)
	elapsed := time.Since(start)
	telemetry.EndRun(span, res, err)
	s.metrics.ObserveRun(alg, res, elapsed)
	if err != nil {
		return nil, err
	}

	s.logger.Info("simulation complete",
		"algorithm", alg,
		"quantum", res.Quantum,
		"processes", len(processes),
		"source", source,
		"slices", len(res.Execution),
		"total_time", res.Summary.TotalTime,
		"elapsed", elapsed.String(),
	)
	return res, nil
}

// POST /api/v1/run
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req model.RunRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondErr(w, reqID, err)
		return
	}
	res, err := s.simulate(r.Context(), req)
	if err != nil {
		respondErr(w, reqID, err)
		return
	}
	respondOK(w, reqID, res)
}
