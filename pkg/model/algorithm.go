package model

import "strings"

// Algorithm identifies a CPU-scheduling algorithm.
type Algorithm string

const (
	AlgorithmFCFS     Algorithm = "FCFS"
	AlgorithmSJF      Algorithm = "SJF"
	AlgorithmRR       Algorithm = "RR"
	AlgorithmSRTF     Algorithm = "SRTF"
	AlgorithmPriority Algorithm = "PRIORITY"
)

// DefaultQuantum is applied when a Round-Robin request omits the quantum.
const DefaultQuantum = 2

// KnownAlgorithms lists every supported algorithm in display order.
var KnownAlgorithms = []Algorithm{
	AlgorithmFCFS,
	AlgorithmSJF,
	AlgorithmRR,
	AlgorithmSRTF,
	AlgorithmPriority,
}

// String returns the string representation of the algorithm.
func (a Algorithm) String() string {
	return string(a)
}

// UsesQuantum returns true if the algorithm preempts on a fixed quantum.
func (a Algorithm) UsesQuantum() bool {
	return a == AlgorithmRR
}

// ParseAlgorithm resolves a case-insensitive identifier. A few long-form
// aliases are accepted ("round-robin", "srt", ...).
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FCFS", "FIFO":
		return AlgorithmFCFS, nil
	case "SJF":
		return AlgorithmSJF, nil
	case "RR", "ROUND-ROBIN", "ROUND_ROBIN", "ROUNDROBIN":
		return AlgorithmRR, nil
	case "SRTF", "SRT":
		return AlgorithmSRTF, nil
	case "PRIORITY", "PRIO":
		return AlgorithmPriority, nil
	}
	return "", &UnknownAlgorithmError{Name: s}
}
