package engine

import (
	"fmt"

	"github.com/me/schedsim/pkg/model"
)

// job is the engine's private, mutable view of one submitted process.
type job struct {
	model.Process
	index      int // submission position, the final tie-breaker
	remaining  int
	lastRecord int // index into the execution list of the latest slice
}

// Policy selects the next process from the ready queue. The set of policies
// is closed: each variant differs only in how it orders the ready queue, in
// whether it preempts and in the quantum bounding a slice.
type Policy interface {
	Algorithm() model.Algorithm
	Preemptive() bool

	// less orders the ready queue; the head is dispatched next. A policy
	// that reports false for every pair keeps FIFO order.
	less(a, b *job) bool

	// quantum bounds a single slice. Zero means a slice lasts until the job
	// completes or, for preemptive policies, until an arrival preempts it.
	quantum() int
}

type fcfsPolicy struct{}

func (fcfsPolicy) Algorithm() model.Algorithm { return model.AlgorithmFCFS }
func (fcfsPolicy) Preemptive() bool           { return false }
func (fcfsPolicy) quantum() int               { return 0 }
func (fcfsPolicy) less(a, b *job) bool {
	if a.Arrival != b.Arrival {
		return a.Arrival < b.Arrival
	}
	return a.index < b.index
}

type sjfPolicy struct{}

func (sjfPolicy) Algorithm() model.Algorithm { return model.AlgorithmSJF }
func (sjfPolicy) Preemptive() bool           { return false }
func (sjfPolicy) quantum() int               { return 0 }
func (sjfPolicy) less(a, b *job) bool {
	if a.Burst != b.Burst {
		return a.Burst < b.Burst
	}
	return fcfsPolicy{}.less(a, b)
}

type srtfPolicy struct{}

func (srtfPolicy) Algorithm() model.Algorithm { return model.AlgorithmSRTF }
func (srtfPolicy) Preemptive() bool           { return true }
func (srtfPolicy) quantum() int               { return 0 }
func (srtfPolicy) less(a, b *job) bool {
	if a.remaining != b.remaining {
		return a.remaining < b.remaining
	}
	return fcfsPolicy{}.less(a, b)
}

type priorityPolicy struct{}

func (priorityPolicy) Algorithm() model.Algorithm { return model.AlgorithmPriority }
func (priorityPolicy) Preemptive() bool           { return false }
func (priorityPolicy) quantum() int               { return 0 }
func (priorityPolicy) less(a, b *job) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return fcfsPolicy{}.less(a, b)
}

type roundRobinPolicy struct {
	q int
}

func (roundRobinPolicy) Algorithm() model.Algorithm { return model.AlgorithmRR }
func (roundRobinPolicy) Preemptive() bool           { return true }
func (p roundRobinPolicy) quantum() int             { return p.q }
func (roundRobinPolicy) less(a, b *job) bool        { return false }

// variant describes how to build a policy and how to present it.
type variant struct {
	build func(quantum int) Policy
	info  model.AlgorithmInfo
}

var variants = map[model.Algorithm]variant{
	model.AlgorithmFCFS: {
		build: func(int) Policy { return fcfsPolicy{} },
		info: model.AlgorithmInfo{
			Name:        "First-Come-First-Served",
			Description: "Runs processes to completion in arrival order",
		},
	},
	model.AlgorithmSJF: {
		build: func(int) Policy { return sjfPolicy{} },
		info: model.AlgorithmInfo{
			Name:        "Shortest-Job-First",
			Description: "Runs the arrived process with the smallest burst to completion",
		},
	},
	model.AlgorithmRR: {
		build: func(q int) Policy { return roundRobinPolicy{q: q} },
		info: model.AlgorithmInfo{
			Name:        "Round-Robin",
			Preemptive:  true,
			UsesQuantum: true,
			Description: "Cycles through a FIFO ready queue, preempting after each quantum",
		},
	},
	model.AlgorithmSRTF: {
		build: func(int) Policy { return srtfPolicy{} },
		info: model.AlgorithmInfo{
			Name:        "Shortest-Remaining-Time-First",
			Preemptive:  true,
			Description: "Preemptive SJF: an arrival with less remaining work takes the CPU",
		},
	},
	model.AlgorithmPriority: {
		build: func(int) Policy { return priorityPolicy{} },
		info: model.AlgorithmInfo{
			Name:        "Priority",
			Description: "Runs the arrived process with the lowest priority value to completion",
		},
	},
}

// NewPolicy returns the policy for alg. Quantum-based algorithms require
// quantum > 0; the quantum is ignored by every other algorithm.
func NewPolicy(alg model.Algorithm, quantum int) (Policy, error) {
	v, ok := variants[alg]
	if !ok {
		return nil, &model.UnknownAlgorithmError{Name: string(alg)}
	}
	if alg.UsesQuantum() && quantum <= 0 {
		return nil, &model.ValidationError{
			Message: fmt.Sprintf("%s requires a quantum", alg),
			Details: []model.FieldError{{Field: "quantum", Message: "must be > 0"}},
		}
	}
	return v.build(quantum), nil
}

// Algorithms describes every supported algorithm in display order.
func Algorithms() []model.AlgorithmInfo {
	out := make([]model.AlgorithmInfo, 0, len(model.KnownAlgorithms))
	for _, alg := range model.KnownAlgorithms {
		info := variants[alg].info
		info.ID = alg
		out = append(out, info)
	}
	return out
}
