package model

// Idle is the Executing value of a QueueSnapshot taken while no process runs.
const Idle = ""

// ExecutionRecord describes one contiguous slice of CPU time given to a process.
// Non-preemptive algorithms emit exactly one record per process; preemptive
// ones emit one per slice.
type ExecutionRecord struct {
	Name      string `json:"name"`
	Arrival   int    `json:"arrival"`
	Burst     int    `json:"burst"`
	Start     int    `json:"start"`
	Finish    int    `json:"finish"`
	Remaining int    `json:"remaining"`
	Final     bool   `json:"final"`

	// Waiting and Turnaround are set only on the record of the final slice.
	// A zero value is meaningful, so absence is expressed with nil.
	Waiting    *int `json:"waiting,omitempty"`
	Turnaround *int `json:"turnaround,omitempty"`
}

// Duration returns the length of the slice in ticks.
func (r ExecutionRecord) Duration() int {
	return r.Finish - r.Start
}

// QueueSnapshot captures the CPU and the ready queue at a scheduling decision.
type QueueSnapshot struct {
	Time      int      `json:"time"`
	Executing string   `json:"executing"`
	Queue     []string `json:"queue"`
}

// IsIdle reports whether no process was executing at the snapshot.
func (s QueueSnapshot) IsIdle() bool {
	return s.Executing == Idle
}

// Summary aggregates per-process metrics over a whole run.
type Summary struct {
	Processes       int     `json:"processes"`
	TotalTime       int     `json:"total_time"`
	BusyTime        int     `json:"busy_time"`
	IdleTime        int     `json:"idle_time"`
	AvgWaiting      float64 `json:"avg_waiting"`
	AvgTurnaround   float64 `json:"avg_turnaround"`
	AvgResponse     float64 `json:"avg_response"`
	CPUUtilization  float64 `json:"cpu_utilization"`
	Throughput      float64 `json:"throughput"`
	ContextSwitches int     `json:"context_switches"`
}

// Result is the complete output of one engine run. It is owned by the caller.
type Result struct {
	Algorithm    Algorithm         `json:"algorithm"`
	Quantum      int               `json:"quantum,omitempty"`
	Execution    []ExecutionRecord `json:"execution"`
	QueueHistory []QueueSnapshot   `json:"queue_history"`
	Summary      Summary           `json:"summary"`
}

// Completions returns the final record of every process, in completion order.
func (r *Result) Completions() []ExecutionRecord {
	var out []ExecutionRecord
	for _, rec := range r.Execution {
		if rec.Final {
			out = append(out, rec)
		}
	}
	return out
}
