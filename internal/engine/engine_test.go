package engine

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/me/schedsim/pkg/model"
)

func procs(specs ...any) []model.Process {
	var out []model.Process
	for i := 0; i+2 < len(specs); i += 3 {
		out = append(out, model.Process{
			Name:    specs[i].(string),
			Arrival: specs[i+1].(int),
			Burst:   specs[i+2].(int),
		})
	}
	return out
}

type slice struct {
	name          string
	start, finish int
}

func slicesOf(r *model.Result) []slice {
	out := make([]slice, 0, len(r.Execution))
	for _, rec := range r.Execution {
		out = append(out, slice{rec.Name, rec.Start, rec.Finish})
	}
	return out
}

func waitingByName(r *model.Result) map[string]int {
	out := make(map[string]int)
	for _, rec := range r.Completions() {
		out[rec.Name] = *rec.Waiting
	}
	return out
}

func mustRun(t *testing.T, ps []model.Process, alg model.Algorithm, quantum int, opts ...Option) *model.Result {
	t.Helper()
	r, err := Run(ps, alg, quantum, opts...)
	if err != nil {
		t.Fatalf("Run(%s): %v", alg, err)
	}
	return r
}

func TestRun_FCFS(t *testing.T) {
	r := mustRun(t, procs("A", 0, 5, "B", 1, 3, "C", 2, 1), model.AlgorithmFCFS, 0)

	want := []slice{{"A", 0, 5}, {"B", 5, 8}, {"C", 8, 9}}
	if got := slicesOf(r); !reflect.DeepEqual(got, want) {
		t.Errorf("slices = %v, want %v", got, want)
	}
	wantWaiting := map[string]int{"A": 0, "B": 4, "C": 6}
	if got := waitingByName(r); !reflect.DeepEqual(got, wantWaiting) {
		t.Errorf("waiting = %v, want %v", got, wantWaiting)
	}
	if len(r.QueueHistory) != 3 {
		t.Fatalf("queue history length = %d, want 3", len(r.QueueHistory))
	}
	// At t=0 nothing else has arrived; at t=5 C waits behind B.
	if got := r.QueueHistory[0].Queue; len(got) != 0 {
		t.Errorf("queue at t=0 = %v, want empty", got)
	}
	if got := r.QueueHistory[1]; got.Time != 5 || got.Executing != "B" || !reflect.DeepEqual(got.Queue, []string{"C"}) {
		t.Errorf("snapshot at t=5 = %+v", got)
	}
}

func TestRun_FCFS_IdleGap(t *testing.T) {
	r := mustRun(t, procs("A", 0, 2, "B", 5, 1), model.AlgorithmFCFS, 0)
	want := []slice{{"A", 0, 2}, {"B", 5, 6}}
	if got := slicesOf(r); !reflect.DeepEqual(got, want) {
		t.Errorf("slices = %v, want %v", got, want)
	}
	if got := waitingByName(r)["B"]; got != 0 {
		t.Errorf("B waiting = %d, want 0", got)
	}
	if r.Summary.IdleTime != 3 {
		t.Errorf("idle time = %d, want 3", r.Summary.IdleTime)
	}
}

func TestRun_FCFS_TiesKeepSubmissionOrder(t *testing.T) {
	r := mustRun(t, procs("X", 0, 3, "Y", 0, 1), model.AlgorithmFCFS, 0)
	want := []slice{{"X", 0, 3}, {"Y", 3, 4}}
	if got := slicesOf(r); !reflect.DeepEqual(got, want) {
		t.Errorf("slices = %v, want %v", got, want)
	}
}

func TestRun_SJF(t *testing.T) {
	r := mustRun(t, procs("A", 0, 7, "B", 2, 4, "C", 4, 1, "D", 5, 4), model.AlgorithmSJF, 0)

	want := []slice{{"A", 0, 7}, {"C", 7, 8}, {"B", 8, 12}, {"D", 12, 16}}
	if got := slicesOf(r); !reflect.DeepEqual(got, want) {
		t.Errorf("slices = %v, want %v", got, want)
	}
	if got := r.QueueHistory[1]; got.Time != 7 || got.Executing != "C" || !reflect.DeepEqual(got.Queue, []string{"B", "D"}) {
		t.Errorf("snapshot at t=7 = %+v, want C with queue [B D]", got)
	}
}

func TestRun_SJF_TieBreaks(t *testing.T) {
	// B and C tie on burst and arrival; submission order decides.
	r := mustRun(t, procs("A", 0, 2, "C", 1, 3, "B", 1, 3), model.AlgorithmSJF, 0)
	want := []slice{{"A", 0, 2}, {"C", 2, 5}, {"B", 5, 8}}
	if got := slicesOf(r); !reflect.DeepEqual(got, want) {
		t.Errorf("slices = %v, want %v", got, want)
	}
}

func TestRun_SJF_WaitsForFirstArrival(t *testing.T) {
	r := mustRun(t, procs("A", 3, 2, "B", 4, 1), model.AlgorithmSJF, 0)
	want := []slice{{"A", 3, 5}, {"B", 5, 6}}
	if got := slicesOf(r); !reflect.DeepEqual(got, want) {
		t.Errorf("slices = %v, want %v", got, want)
	}
}

func TestRun_RoundRobin(t *testing.T) {
	r := mustRun(t, procs("A", 0, 4, "B", 1, 3), model.AlgorithmRR, 2)

	want := []slice{{"A", 0, 2}, {"B", 2, 4}, {"A", 4, 6}, {"B", 6, 7}}
	if got := slicesOf(r); !reflect.DeepEqual(got, want) {
		t.Errorf("slices = %v, want %v", got, want)
	}

	h := r.QueueHistory
	if len(h) != 4 {
		t.Fatalf("queue history length = %d, want 4", len(h))
	}
	if h[0].Time != 0 || h[0].Executing != "A" || len(h[0].Queue) != 0 {
		t.Errorf("snapshot at t=0 = %+v, want A with empty queue", h[0])
	}
	if h[1].Time != 2 || h[1].Executing != "B" || !reflect.DeepEqual(h[1].Queue, []string{"A"}) {
		t.Errorf("snapshot at t=2 = %+v, want B with queue [A]", h[1])
	}

	// Intermediate slices carry no waiting/turnaround.
	if r.Execution[0].Waiting != nil || r.Execution[0].Final {
		t.Errorf("first A slice = %+v, want non-final without waiting", r.Execution[0])
	}
	if r.Execution[0].Remaining != 2 {
		t.Errorf("first A slice remaining = %d, want 2", r.Execution[0].Remaining)
	}
	wantWaiting := map[string]int{"A": 2, "B": 3}
	if got := waitingByName(r); !reflect.DeepEqual(got, wantWaiting) {
		t.Errorf("waiting = %v, want %v", got, wantWaiting)
	}
	if r.Quantum != 2 {
		t.Errorf("quantum = %d, want 2", r.Quantum)
	}
}

func TestRun_RoundRobin_ArrivalAtBoundaryPrecedesRequeue(t *testing.T) {
	r := mustRun(t, procs("A", 0, 4, "B", 2, 2), model.AlgorithmRR, 2)
	want := []slice{{"A", 0, 2}, {"B", 2, 4}, {"A", 4, 6}}
	if got := slicesOf(r); !reflect.DeepEqual(got, want) {
		t.Errorf("slices = %v, want %v", got, want)
	}
}

func TestRun_RoundRobin_SingleProcessKeepsSlicing(t *testing.T) {
	r := mustRun(t, procs("A", 0, 5), model.AlgorithmRR, 2)
	want := []slice{{"A", 0, 2}, {"A", 2, 4}, {"A", 4, 5}}
	if got := slicesOf(r); !reflect.DeepEqual(got, want) {
		t.Errorf("slices = %v, want %v", got, want)
	}
	if r.Summary.ContextSwitches != 0 {
		t.Errorf("context switches = %d, want 0", r.Summary.ContextSwitches)
	}
}

func TestRun_RoundRobin_IdleSnapshots(t *testing.T) {
	r := mustRun(t, procs("A", 0, 1, "B", 5, 2), model.AlgorithmRR, 2, WithIdleSnapshots())
	want := []model.QueueSnapshot{
		{Time: 0, Executing: "A", Queue: []string{}},
		{Time: 1, Executing: model.Idle, Queue: []string{}},
		{Time: 5, Executing: "B", Queue: []string{}},
	}
	if !reflect.DeepEqual(r.QueueHistory, want) {
		t.Errorf("queue history = %+v, want %+v", r.QueueHistory, want)
	}
	if !r.QueueHistory[1].IsIdle() {
		t.Error("snapshot at t=1 should be idle")
	}
}

func TestRun_SRTF(t *testing.T) {
	r := mustRun(t, procs("A", 0, 8, "B", 1, 4, "C", 2, 9, "D", 3, 5), model.AlgorithmSRTF, 0)

	want := []slice{{"A", 0, 1}, {"B", 1, 5}, {"D", 5, 10}, {"A", 10, 17}, {"C", 17, 26}}
	if got := slicesOf(r); !reflect.DeepEqual(got, want) {
		t.Errorf("slices = %v, want %v", got, want)
	}
	wantWaiting := map[string]int{"A": 9, "B": 0, "C": 15, "D": 2}
	if got := waitingByName(r); !reflect.DeepEqual(got, wantWaiting) {
		t.Errorf("waiting = %v, want %v", got, wantWaiting)
	}
	if r.Summary.AvgWaiting != 6.5 {
		t.Errorf("avg waiting = %v, want 6.5", r.Summary.AvgWaiting)
	}
	if r.Summary.ContextSwitches != 4 {
		t.Errorf("context switches = %d, want 4", r.Summary.ContextSwitches)
	}
	if got := r.QueueHistory[2]; got.Time != 5 || got.Executing != "D" || !reflect.DeepEqual(got.Queue, []string{"A", "C"}) {
		t.Errorf("snapshot at t=5 = %+v, want D with queue [A C]", got)
	}
}

func TestRun_SRTF_TieDoesNotPreempt(t *testing.T) {
	// At t=1 A has 3 left and B needs 3: A keeps the CPU.
	r := mustRun(t, procs("A", 0, 4, "B", 1, 3), model.AlgorithmSRTF, 0)
	want := []slice{{"A", 0, 4}, {"B", 4, 7}}
	if got := slicesOf(r); !reflect.DeepEqual(got, want) {
		t.Errorf("slices = %v, want %v", got, want)
	}
}

func TestRun_Priority(t *testing.T) {
	ps := []model.Process{
		{Name: "A", Arrival: 0, Burst: 4, Priority: 2},
		{Name: "B", Arrival: 1, Burst: 3, Priority: 1},
		{Name: "C", Arrival: 2, Burst: 1, Priority: 3},
		{Name: "D", Arrival: 3, Burst: 2, Priority: 1},
	}
	r := mustRun(t, ps, model.AlgorithmPriority, 0)
	want := []slice{{"A", 0, 4}, {"B", 4, 7}, {"D", 7, 9}, {"C", 9, 10}}
	if got := slicesOf(r); !reflect.DeepEqual(got, want) {
		t.Errorf("slices = %v, want %v", got, want)
	}
}

func TestRun_Empty(t *testing.T) {
	for _, alg := range model.KnownAlgorithms {
		t.Run(alg.String(), func(t *testing.T) {
			r := mustRun(t, nil, alg, 2)
			if r.Execution == nil || len(r.Execution) != 0 {
				t.Errorf("execution = %#v, want empty non-nil", r.Execution)
			}
			if r.QueueHistory == nil || len(r.QueueHistory) != 0 {
				t.Errorf("queue history = %#v, want empty non-nil", r.QueueHistory)
			}
			if r.Summary != (model.Summary{}) {
				t.Errorf("summary = %+v, want zero", r.Summary)
			}
		})
	}
}

func TestRun_Errors(t *testing.T) {
	ps := procs("A", 0, 1)

	for _, q := range []int{0, -1} {
		_, err := Run(ps, model.AlgorithmRR, q)
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("RR quantum=%d: err = %v, want *ValidationError", q, err)
		}
	}

	// An empty process list does not hide a bad quantum.
	if _, err := Run(nil, model.AlgorithmRR, 0); err == nil {
		t.Error("RR quantum=0 on empty list: want error")
	}

	_, err := Run(ps, model.Algorithm("LOTTERY"), 2)
	var uerr *model.UnknownAlgorithmError
	if !errors.As(err, &uerr) {
		t.Errorf("unknown algorithm: err = %v, want *UnknownAlgorithmError", err)
	}

	_, err = Run(procs("A", 0, 1, "B", 0, 0), model.AlgorithmFCFS, 0)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("zero burst: err = %v, want *ValidationError", err)
	}
	if len(verr.Details) != 1 || verr.Details[0].Field != "processes[1].burst" {
		t.Errorf("details = %+v, want processes[1].burst", verr.Details)
	}
}

func TestRun_RejectsClockOverflow(t *testing.T) {
	tests := []struct {
		name      string
		ps        []model.Process
		wantField string
	}{
		{"single process", procs("A", math.MaxInt-1, 5), "processes[0].burst"},
		{"total work", procs("A", 0, math.MaxInt/2+1, "B", math.MaxInt/2, 1), "processes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, alg := range model.KnownAlgorithms {
				_, err := Run(tt.ps, alg, 1, WithMaxSlices(0))
				var verr *model.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("%s: err = %v, want *ValidationError", alg, err)
				}
				if verr.Details[0].Field != tt.wantField {
					t.Errorf("%s: details = %+v, want %s", alg, verr.Details, tt.wantField)
				}
			}
		})
	}

	// Finishing exactly at MaxInt is representable.
	r := mustRun(t, procs("A", math.MaxInt-5, 5), model.AlgorithmFCFS, 0)
	if rec := r.Execution[0]; rec.Finish != math.MaxInt || rec.Finish < rec.Start {
		t.Errorf("slice = %+v", rec)
	}
}

func TestRun_SliceLimit(t *testing.T) {
	huge := procs("A", 0, 2_000_000_000)

	_, err := Run(huge, model.AlgorithmRR, 1)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("RR q=1 burst=2e9: err = %v, want *ValidationError", err)
	}
	if verr.Message != "simulation too large" {
		t.Errorf("message = %q", verr.Message)
	}

	// Non-quantum policies emit a slice per process regardless of burst.
	r := mustRun(t, huge, model.AlgorithmSRTF, 0)
	if len(r.Execution) != 1 {
		t.Errorf("SRTF slices = %d, want 1", len(r.Execution))
	}

	ps := procs("A", 0, 5, "B", 0, 4)
	if _, err := Run(ps, model.AlgorithmRR, 2, WithMaxSlices(4)); err == nil {
		t.Error("RR q=2 needs 5 slices, limit 4: want error")
	}
	r = mustRun(t, ps, model.AlgorithmRR, 2, WithMaxSlices(5))
	if len(r.Execution) != 5 {
		t.Errorf("slices = %d, want 5", len(r.Execution))
	}
	if _, err := Run(ps, model.AlgorithmSRTF, 0, WithMaxSlices(2)); err == nil {
		t.Error("SRTF with 2 processes may need 3 slices, limit 2: want error")
	}
	mustRun(t, ps, model.AlgorithmFCFS, 0, WithMaxSlices(2))
}

func TestRun_QuantumIgnoredByOtherAlgorithms(t *testing.T) {
	r := mustRun(t, procs("A", 0, 5), model.AlgorithmFCFS, -3)
	if r.Quantum != 0 {
		t.Errorf("quantum = %d, want 0 for FCFS", r.Quantum)
	}
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	ps := procs("B", 3, 2, "A", 0, 4)
	before := model.CopyProcesses(ps)
	for _, alg := range model.KnownAlgorithms {
		mustRun(t, ps, alg, 1)
	}
	if !reflect.DeepEqual(ps, before) {
		t.Errorf("input mutated: %v, want %v", ps, before)
	}
}

func TestRun_DuplicateNamesAreIndependent(t *testing.T) {
	r := mustRun(t, procs("A", 0, 2, "A", 0, 3), model.AlgorithmFCFS, 0)
	done := r.Completions()
	if len(done) != 2 {
		t.Fatalf("completions = %d, want 2", len(done))
	}
	if *done[0].Turnaround != 2 || *done[1].Turnaround != 5 {
		t.Errorf("turnarounds = %d, %d, want 2, 5", *done[0].Turnaround, *done[1].Turnaround)
	}
}

func TestRun_Summary(t *testing.T) {
	r := mustRun(t, procs("A", 0, 5, "B", 1, 3, "C", 2, 1), model.AlgorithmFCFS, 0)
	s := r.Summary
	if s.Processes != 3 || s.TotalTime != 9 || s.BusyTime != 9 || s.IdleTime != 0 {
		t.Errorf("summary = %+v", s)
	}
	if s.CPUUtilization != 1 {
		t.Errorf("cpu utilization = %v, want 1", s.CPUUtilization)
	}
	if s.AvgWaiting != 10.0/3 || s.AvgTurnaround != 19.0/3 || s.AvgResponse != 10.0/3 {
		t.Errorf("averages = %v/%v/%v", s.AvgWaiting, s.AvgTurnaround, s.AvgResponse)
	}
	if s.ContextSwitches != 2 {
		t.Errorf("context switches = %d, want 2", s.ContextSwitches)
	}
}

func TestRun_DebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mustRun(t, procs("A", 0, 1), model.AlgorithmFCFS, 0, WithLogger(logger))

	out := buf.String()
	if !strings.Contains(out, "component=engine") || !strings.Contains(out, "msg=dispatch") {
		t.Errorf("expected dispatch debug line, got: %s", out)
	}
}

func TestAlgorithms(t *testing.T) {
	infos := Algorithms()
	if len(infos) != len(model.KnownAlgorithms) {
		t.Fatalf("Algorithms() = %d entries, want %d", len(infos), len(model.KnownAlgorithms))
	}
	for i, info := range infos {
		if info.ID != model.KnownAlgorithms[i] {
			t.Errorf("infos[%d].ID = %q, want %q", i, info.ID, model.KnownAlgorithms[i])
		}
		if info.Name == "" || info.Description == "" {
			t.Errorf("infos[%d] incomplete: %+v", i, info)
		}
		p, err := NewPolicy(info.ID, 1)
		if err != nil {
			t.Fatalf("NewPolicy(%s): %v", info.ID, err)
		}
		if p.Preemptive() != info.Preemptive {
			t.Errorf("%s: Preemptive() = %v, info says %v", info.ID, p.Preemptive(), info.Preemptive)
		}
		if p.Algorithm() != info.ID {
			t.Errorf("%s: Algorithm() = %q", info.ID, p.Algorithm())
		}
	}
}
