// Package engine computes CPU-scheduling timelines.
//
// Run is a pure function of its inputs: it copies the process list, performs
// no I/O besides optional debug logging and always simulates to completion.
// Identical inputs produce identical results.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/me/schedsim/pkg/model"
)

// DefaultMaxSlices bounds the execution records a single Run may produce.
const DefaultMaxSlices = 1_000_000

// Option configures a single Run.
type Option func(*runConfig)

type runConfig struct {
	logger        *slog.Logger
	idleSnapshots bool
	maxSlices     int
}

// WithMaxSlices rejects runs whose timeline could exceed n execution
// records. n <= 0 removes the limit.
func WithMaxSlices(n int) Option {
	return func(c *runConfig) {
		c.maxSlices = n
	}
}

// WithLogger emits one debug line per scheduling decision.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		if logger != nil {
			c.logger = logger.With("component", "engine")
		}
	}
}

// WithIdleSnapshots adds a queue snapshot with an idle executor at the start
// of every gap during which no process has arrived yet.
func WithIdleSnapshots() Option {
	return func(c *runConfig) {
		c.idleSnapshots = true
	}
}

// Run simulates alg over processes. quantum is only consulted by
// quantum-based algorithms. It returns *model.UnknownAlgorithmError for an
// unsupported algorithm and *model.ValidationError for a bad quantum or a
// process violating its invariants. A run that could outgrow the slice
// limit (DefaultMaxSlices unless set by WithMaxSlices) is rejected with a
// *model.ValidationError before any work is done.
func Run(processes []model.Process, alg model.Algorithm, quantum int, opts ...Option) (*model.Result, error) {
	cfg := runConfig{logger: slog.New(slog.DiscardHandler), maxSlices: DefaultMaxSlices}
	for _, opt := range opts {
		opt(&cfg)
	}

	policy, err := NewPolicy(alg, quantum)
	if err != nil {
		return nil, err
	}
	if err := validateProcesses(processes); err != nil {
		return nil, err
	}
	if err := checkSliceLimit(policy, processes, cfg.maxSlices); err != nil {
		return nil, err
	}

	s := newSimulation(policy, processes, cfg)
	s.run()

	result := &model.Result{
		Algorithm:    alg,
		Execution:    s.exec,
		QueueHistory: s.history,
		Summary:      s.summarize(),
	}
	if alg.UsesQuantum() {
		result.Quantum = quantum
	}
	cfg.logger.Debug("run complete",
		"algorithm", alg,
		"processes", len(processes),
		"slices", len(s.exec),
		"total_time", result.Summary.TotalTime,
	)
	return result, nil
}

func validateProcesses(processes []model.Process) error {
	var details []model.FieldError
	for i, p := range processes {
		err := p.Validate()
		if err == nil {
			continue
		}
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		for _, d := range verr.Details {
			details = append(details, model.FieldError{
				Field:   fmt.Sprintf("processes[%d].%s", i, d.Field),
				Message: d.Message,
			})
		}
	}
	if len(details) > 0 {
		return &model.ValidationError{Message: "invalid process list", Details: details}
	}

	// The clock never passes the latest arrival plus all the work.
	horizon := 0
	for _, p := range processes {
		horizon = max(horizon, p.Arrival)
	}
	for _, p := range processes {
		if horizon > math.MaxInt-p.Burst {
			return &model.ValidationError{
				Message: "invalid process list",
				Details: []model.FieldError{{Field: "processes", Message: "latest arrival plus total burst overflows"}},
			}
		}
		horizon += p.Burst
	}
	return nil
}

// maxSlices is an upper bound on the execution records policy can emit for
// processes. It stops counting once limit is passed.
func maxSlices(policy Policy, processes []model.Process, limit int) int {
	q := policy.quantum()
	if q == 0 {
		n := len(processes)
		if policy.Preemptive() {
			// Each arrival splits at most one running slice.
			n = 2*n - 1
		}
		return max(n, 0)
	}
	total := 0
	for _, p := range processes {
		total += p.Burst / q
		if p.Burst%q != 0 {
			total++
		}
		if limit > 0 && total > limit {
			break
		}
	}
	return total
}

func checkSliceLimit(policy Policy, processes []model.Process, limit int) error {
	if limit <= 0 {
		return nil
	}
	if n := maxSlices(policy, processes, limit); n > limit {
		return &model.ValidationError{
			Message: "simulation too large",
			Details: []model.FieldError{{
				Field:   "processes",
				Message: fmt.Sprintf("timeline needs more than %d slices", limit),
			}},
		}
	}
	return nil
}

type simulation struct {
	policy Policy
	cfg    runConfig

	jobs    []*job // submission order
	pending []*job // not yet arrived, by arrival then submission order
	ready   []*job // ordered by policy; head runs next
	now     int
	done    int

	exec    []model.ExecutionRecord
	owners  []int // job index of each execution record
	history []model.QueueSnapshot
}

func newSimulation(policy Policy, processes []model.Process, cfg runConfig) *simulation {
	s := &simulation{
		policy:  policy,
		cfg:     cfg,
		jobs:    make([]*job, len(processes)),
		exec:    []model.ExecutionRecord{},
		history: []model.QueueSnapshot{},
	}
	for i, p := range processes {
		s.jobs[i] = &job{
			Process:    p,
			index:      i,
			remaining:  p.Burst,
			lastRecord: -1,
		}
	}
	s.pending = make([]*job, len(s.jobs))
	copy(s.pending, s.jobs)
	sort.SliceStable(s.pending, func(i, j int) bool {
		return s.pending[i].Arrival < s.pending[j].Arrival
	})
	return s
}

func (s *simulation) run() {
	s.admit()
	s.order()

	for s.done < len(s.jobs) {
		if len(s.ready) == 0 {
			if s.cfg.idleSnapshots {
				s.snapshot(model.Idle)
			}
			s.cfg.logger.Debug("cpu idle", "time", s.now, "until", s.pending[0].Arrival)
			s.now = s.pending[0].Arrival
			s.admit()
			s.order()
			continue
		}

		cur := s.ready[0]
		s.ready = s.ready[1:]
		s.snapshot(cur.Name)

		end := s.sliceEnd(cur)
		s.cfg.logger.Debug("dispatch",
			"time", s.now,
			"process", cur.Name,
			"until", end,
			"ready", len(s.ready),
		)
		s.dispatch(cur, end)

		// Arrivals during the slice queue up ahead of the preempted process.
		s.admit()
		if cur.remaining > 0 {
			s.ready = append(s.ready, cur)
		} else {
			s.done++
		}
		s.order()
	}

	s.finalize()
}

// admit moves every pending job that has arrived by now into the ready queue.
func (s *simulation) admit() {
	n := 0
	for n < len(s.pending) && s.pending[n].Arrival <= s.now {
		n++
	}
	s.ready = append(s.ready, s.pending[:n]...)
	s.pending = s.pending[n:]
}

func (s *simulation) order() {
	sort.SliceStable(s.ready, func(i, j int) bool {
		return s.policy.less(s.ready[i], s.ready[j])
	})
}

// sliceEnd returns the tick at which cur leaves the CPU.
func (s *simulation) sliceEnd(cur *job) int {
	run := cur.remaining
	q := s.policy.quantum()
	if q > 0 && q < run {
		run = q
	}
	end := s.now + run
	if !s.policy.Preemptive() || q > 0 {
		return end
	}

	// Only a newcomer can displace cur: jobs already queued lost to it at
	// dispatch and cur's ordering key never grows while it runs.
	for _, p := range s.pending {
		if p.Arrival >= end {
			break
		}
		at := *cur
		at.remaining = cur.remaining - (p.Arrival - s.now)
		if s.policy.less(p, &at) {
			return p.Arrival
		}
	}
	return end
}

func (s *simulation) dispatch(cur *job, end int) {
	cur.remaining -= end - s.now
	s.exec = append(s.exec, model.ExecutionRecord{
		Name:      cur.Name,
		Arrival:   cur.Arrival,
		Burst:     cur.Burst,
		Start:     s.now,
		Finish:    end,
		Remaining: cur.remaining,
	})
	s.owners = append(s.owners, cur.index)
	cur.lastRecord = len(s.exec) - 1
	s.now = end
}

func (s *simulation) snapshot(executing string) {
	queue := make([]string, 0, len(s.ready))
	for _, j := range s.ready {
		queue = append(queue, j.Name)
	}
	s.history = append(s.history, model.QueueSnapshot{
		Time:      s.now,
		Executing: executing,
		Queue:     queue,
	})
}

// finalize stamps waiting and turnaround on each process's last slice once
// the whole timeline is known.
func (s *simulation) finalize() {
	for _, j := range s.jobs {
		rec := &s.exec[j.lastRecord]
		waiting := rec.Finish - j.Arrival - j.Burst
		turnaround := rec.Finish - j.Arrival
		rec.Final = true
		rec.Waiting = &waiting
		rec.Turnaround = &turnaround
	}
}

func (s *simulation) summarize() model.Summary {
	return summarize(s.exec, func(i int) bool {
		return s.owners[i] != s.owners[i-1]
	})
}

// Summarize recomputes the aggregate metrics of a finished timeline from its
// records alone. Consecutive records with the same name, arrival and burst
// count as one process when counting context switches.
func Summarize(execution []model.ExecutionRecord) model.Summary {
	return summarize(execution, func(i int) bool {
		a, b := execution[i-1], execution[i]
		return a.Name != b.Name || a.Arrival != b.Arrival || a.Burst != b.Burst
	})
}

func summarize(execution []model.ExecutionRecord, switched func(i int) bool) model.Summary {
	if len(execution) == 0 {
		return model.Summary{}
	}

	firstArrival := execution[0].Arrival
	lastFinish := 0
	var n, busy, waiting, turnaround, response, switches int
	for i, rec := range execution {
		if rec.Arrival < firstArrival {
			firstArrival = rec.Arrival
		}
		if rec.Finish > lastFinish {
			lastFinish = rec.Finish
		}
		busy += rec.Duration()
		if rec.Remaining+rec.Duration() == rec.Burst {
			response += rec.Start - rec.Arrival
		}
		if rec.Final && rec.Waiting != nil && rec.Turnaround != nil {
			n++
			waiting += *rec.Waiting
			turnaround += *rec.Turnaround
		}
		if i > 0 && switched(i) {
			switches++
		}
	}

	total := lastFinish - firstArrival
	sum := model.Summary{
		Processes:       n,
		TotalTime:       total,
		BusyTime:        busy,
		IdleTime:        total - busy,
		ContextSwitches: switches,
	}
	if n > 0 {
		sum.AvgWaiting = float64(waiting) / float64(n)
		sum.AvgTurnaround = float64(turnaround) / float64(n)
		sum.AvgResponse = float64(response) / float64(n)
	}
	if total > 0 {
		sum.CPUUtilization = float64(busy) / float64(total)
		sum.Throughput = float64(n) / float64(total)
	}
	return sum
}
