package ui

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/me/schedsim/internal/engine"
	"github.com/me/schedsim/internal/registry"
	"github.com/me/schedsim/pkg/model"
)

// SimulateFunc runs a simulation the way the API does, applying its
// defaults, metrics and tracing.
type SimulateFunc func(ctx context.Context, req model.RunRequest) (*model.Result, error)

// UI serves the browser dashboard: a process form, the registered processes
// and the rendered result of a run.
type UI struct {
	registry   *registry.Registry
	simulate   SimulateFunc
	logger     *slog.Logger
	startTime  time.Time
	onRegistry func(n int) // called with the registry size after add and reset
}

// Option configures optional UI behavior.
type Option func(*UI)

// WithRegistryHook calls fn with the registry size after every change.
func WithRegistryHook(fn func(n int)) Option {
	return func(ui *UI) {
		ui.onRegistry = fn
	}
}

// New creates a new UI handler.
func New(reg *registry.Registry, simulate SimulateFunc, logger *slog.Logger, opts ...Option) *UI {
	ui := &UI{
		registry:   reg,
		simulate:   simulate,
		logger:     logger.With("component", "ui"),
		startTime:  time.Now(),
		onRegistry: func(int) {},
	}
	for _, opt := range opts {
		opt(ui)
	}
	return ui
}

// HandleDashboard renders the process form and the registered processes.
func (ui *UI) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	processes, err := ui.registry.List(r.Context())
	if err != nil {
		ui.renderError(w, http.StatusInternalServerError, "Could not list processes", err)
		return
	}

	data := map[string]any{
		"Title":      "SchedSim",
		"Processes":  processes,
		"Algorithms": engine.Algorithms(),
		"Quantum":    model.DefaultQuantum,
		"Error":      r.URL.Query().Get("error"),
		"Uptime":     time.Since(ui.startTime).Round(time.Second).String(),
	}
	ui.render(w, http.StatusOK, "dashboard", data)
}

// HandleAddProcess registers the process posted by the dashboard form.
func (ui *UI) HandleAddProcess(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithError(w, r, "Invalid form")
		return
	}

	p, err := processFromForm(r.PostForm)
	if err == nil {
		var processes []model.Process
		if processes, err = ui.registry.AddProcess(r.Context(), p); err == nil {
			ui.onRegistry(len(processes))
		}
	}
	if err != nil {
		redirectWithError(w, r, describeError(err))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleReset clears the registry.
func (ui *UI) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := ui.registry.Reset(r.Context()); err != nil {
		redirectWithError(w, r, describeError(err))
		return
	}
	ui.onRegistry(0)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleRun simulates the registry and renders the timeline.
func (ui *UI) HandleRun(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := model.RunRequest{Algorithm: q.Get("algorithm")}
	if v := q.Get("quantum"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			ui.renderError(w, http.StatusBadRequest, "Quantum must be an integer", nil)
			return
		}
		req.Quantum = &n
	}

	res, err := ui.simulate(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		var verr *model.ValidationError
		var uerr *model.UnknownAlgorithmError
		if errors.As(err, &verr) || errors.As(err, &uerr) {
			status = http.StatusBadRequest
		}
		ui.renderError(w, status, describeError(err), err)
		return
	}

	streamQuery := url.Values{"algorithm": {string(res.Algorithm)}}
	if res.Quantum > 0 {
		streamQuery.Set("quantum", strconv.Itoa(res.Quantum))
	}

	data := map[string]any{
		"Title":     "SchedSim - " + string(res.Algorithm),
		"Result":    res,
		"Gantt":     ganttBars(res.Execution),
		"StreamURL": "/api/v1/run/stream?" + streamQuery.Encode(),
	}
	ui.render(w, http.StatusOK, "result", data)
}

func processFromForm(form url.Values) (model.Process, error) {
	var details []model.FieldError
	number := func(field string, required bool) int {
		v := strings.TrimSpace(form.Get(field))
		if v == "" {
			if required {
				details = append(details, model.FieldError{Field: field, Message: "required"})
			}
			return 0
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			details = append(details, model.FieldError{Field: field, Message: "must be an integer"})
		}
		return n
	}

	p := model.Process{
		Name:     strings.TrimSpace(form.Get("name")),
		Arrival:  number("arrival", true),
		Burst:    number("burst", true),
		Priority: number("priority", false),
	}
	if len(details) > 0 {
		return p, &model.ValidationError{Message: "invalid process", Details: details}
	}
	return p, nil
}

// describeError turns err into a single line for the page.
func describeError(err error) string {
	var verr *model.ValidationError
	if errors.As(err, &verr) && len(verr.Details) > 0 {
		parts := make([]string, len(verr.Details))
		for i, d := range verr.Details {
			parts[i] = d.Field + " " + d.Message
		}
		return verr.Message + ": " + strings.Join(parts, ", ")
	}
	return err.Error()
}

func redirectWithError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/?error="+url.QueryEscape(msg), http.StatusSeeOther)
}

func (ui *UI) render(w http.ResponseWriter, status int, template string, data map[string]any) {
	var buf bytes.Buffer
	if err := renderTemplate(&buf, template, data); err != nil {
		ui.logger.Error("template render failed", "template", template, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (ui *UI) renderError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil && status >= http.StatusInternalServerError {
		ui.logger.Error(message, "error", err)
	}
	data := map[string]any{
		"Title":   "Error - SchedSim",
		"Message": message,
	}
	ui.render(w, status, "error", data)
}
