// Package metrics exposes Prometheus collectors for the HTTP service and the
// simulations it runs.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/me/schedsim/pkg/model"
)

// Metrics holds every collector. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prom.Gatherer

	httpRequests    *prom.CounterVec
	httpDuration    *prom.HistogramVec
	runsTotal       *prom.CounterVec
	runDuration     *prom.HistogramVec
	contextSwitches *prom.HistogramVec
	registrySize    prom.Gauge
}

// New creates the collectors and registers them with reg. Collectors that
// are already registered are reused, so several servers in one process can
// share a registry.
func New(namespace string, reg *prom.Registry) (*Metrics, error) {
	if namespace == "" {
		namespace = "schedsim"
	}
	if reg == nil {
		reg = prom.NewRegistry()
	}

	m := &Metrics{
		gatherer: reg,
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prom.DefBuckets,
		}, []string{"method", "route"}),
		runsTotal: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Simulations by algorithm and outcome.",
		}, []string{"algorithm", "outcome"}),
		runDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_duration_seconds",
			Help:      "Wall-clock time spent computing a simulation.",
			Buckets:   prom.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"algorithm"}),
		contextSwitches: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_context_switches",
			Help:      "Context switches in a simulated timeline.",
			Buckets:   prom.LinearBuckets(0, 5, 10),
		}, []string{"algorithm"}),
		registrySize: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_processes",
			Help:      "Processes currently registered.",
		}),
	}

	var err error
	if m.httpRequests, err = registerCollector(reg, m.httpRequests); err != nil {
		return nil, err
	}
	if m.httpDuration, err = registerCollector(reg, m.httpDuration); err != nil {
		return nil, err
	}
	if m.runsTotal, err = registerCollector(reg, m.runsTotal); err != nil {
		return nil, err
	}
	if m.runDuration, err = registerCollector(reg, m.runDuration); err != nil {
		return nil, err
	}
	if m.contextSwitches, err = registerCollector(reg, m.contextSwitches); err != nil {
		return nil, err
	}
	if m.registrySize, err = registerCollector(reg, m.registrySize); err != nil {
		return nil, err
	}
	return m, nil
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware counts requests by chi route pattern so that path parameters do
// not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// ObserveRun records one simulation. A nil result counts as a failure.
func (m *Metrics) ObserveRun(alg model.Algorithm, res *model.Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := normalizeLabel(string(alg), "unknown")
	if res == nil {
		m.runsTotal.WithLabelValues(label, "error").Inc()
		return
	}
	m.runsTotal.WithLabelValues(label, "ok").Inc()
	m.runDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	m.contextSwitches.WithLabelValues(label).Observe(float64(res.Summary.ContextSwitches))
}

// SetRegistrySize records the number of registered processes.
func (m *Metrics) SetRegistrySize(n int) {
	if m == nil {
		return
	}
	m.registrySize.Set(float64(n))
}

func normalizeLabel(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var already prom.AlreadyRegisteredError
	if errors.As(err, &already) {
		existing, ok := already.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}
	return collector, err
}
