package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/me/schedsim/internal/playback"
	"github.com/me/schedsim/pkg/model"
)

const maxStreamDelay = 10 * time.Second

type streamStart struct {
	Algorithm model.Algorithm `json:"algorithm"`
	Quantum   int             `json:"quantum,omitempty"`
	Slices    int             `json:"slices"`
}

type streamSlice struct {
	Index    int                   `json:"index"`
	Record   model.ExecutionRecord `json:"record"`
	Snapshot *model.QueueSnapshot  `json:"snapshot,omitempty"`
}

// parseStreamRequest reads ?algorithm=&quantum=&delay= from the query string.
func parseStreamRequest(r *http.Request) (model.RunRequest, time.Duration, error) {
	q := r.URL.Query()
	req := model.RunRequest{Algorithm: q.Get("algorithm")}
	delay := playback.DefaultDelay

	var details []model.FieldError
	if v := q.Get("quantum"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details = append(details, model.FieldError{Field: "quantum", Message: "must be an integer"})
		} else {
			req.Quantum = &n
		}
	}
	if v := q.Get("delay"); v != "" {
		d, err := time.ParseDuration(v)
		switch {
		case err != nil:
			details = append(details, model.FieldError{Field: "delay", Message: "must be a duration such as 500ms"})
		case d < 0 || d > maxStreamDelay:
			details = append(details, model.FieldError{Field: "delay", Message: "must be within [0, 10s]"})
		default:
			delay = d
		}
	}
	if len(details) > 0 {
		return req, 0, &model.ValidationError{Message: "invalid stream request", Details: details}
	}
	return req, delay, nil
}

// handleRunStream simulates over the registry and replays the timeline via
// Server-Sent Events, one "slice" event per execution record.
// GET /api/v1/run/stream
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	req, delay, err := parseStreamRequest(r)
	if err != nil {
		respondErr(w, reqID, err)
		return
	}
	res, err := s.simulate(r.Context(), req)
	if err != nil {
		respondErr(w, reqID, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError("streaming not supported"))
		return
	}

	// Set headers for SSE.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	if err := sendSSEEvent(w, flusher, "start", streamStart{
		Algorithm: res.Algorithm,
		Quantum:   res.Quantum,
		Slices:    len(res.Execution),
	}); err != nil {
		return
	}

	snapshots := snapshotsByStart(res)
	shown, err := playback.Replay(r.Context(), res.Execution, delay, func(i int, rec model.ExecutionRecord) error {
		return sendSSEEvent(w, flusher, "slice", streamSlice{Index: i, Record: rec, Snapshot: snapshots[i]})
	})
	if err != nil {
		s.logger.Debug("sse client disconnected", "shown", shown, "error", err)
		return
	}

	sendSSEEvent(w, flusher, "complete", res.Summary)
}

// snapshotsByStart pairs each slice with the snapshot taken when it was
// dispatched. Idle snapshots have no slice and are skipped.
func snapshotsByStart(res *model.Result) []*model.QueueSnapshot {
	out := make([]*model.QueueSnapshot, len(res.Execution))
	j := 0
	for i := range res.QueueHistory {
		snap := &res.QueueHistory[i]
		if snap.IsIdle() {
			continue
		}
		if j < len(out) {
			out[j] = snap
			j++
		}
	}
	return out
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
	if err != nil {
		return err
	}

	flusher.Flush()
	return nil
}
