// Package solver serializes encoded goals into SMT-LIB queries and drives an
// external SMT solver process under strict resource bounds, one isolated
// process per query.
package solver

import (
	"fmt"
	"time"
)

// Status is the terminal classification of one solver query.
type Status int

const (
	// StatusProved: the query (assumptions AND NOT claim) was unsatisfiable.
	StatusProved Status = iota
	// StatusRefuted: the solver found a model falsifying the goal.
	StatusRefuted
	// StatusUnknown: the solver could not decide within its resources.
	StatusUnknown
	// StatusSkipped: the query never reached the solver.
	StatusSkipped
	// StatusErrored: the solver ran but produced an unusable result.
	StatusErrored
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusProved:
		return "proved"
	case StatusRefuted:
		return "refuted"
	case StatusUnknown:
		return "unknown"
	case StatusSkipped:
		return "skipped"
	case StatusErrored:
		return "errored"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// RawModel is the variable assignment extracted from a sat result: declared
// constant name to parsed value (bool, int64, or string for string/enum/real
// values).
type RawModel map[string]any

// Outcome is the solver's answer for one query. Exactly one of the
// status-specific fields is meaningful.
type Outcome struct {
	Status Status

	// Model is populated for StatusRefuted.
	Model RawModel

	// Reason explains StatusUnknown and StatusSkipped.
	Reason string

	// Detail explains StatusErrored.
	Detail string
}

// Metrics accompanies every outcome, success or failure, for observability.
type Metrics struct {
	// Elapsed is the wall-clock time of the solver invocation; zero when the
	// solver was never spawned.
	Elapsed time.Duration

	// NodeCount is the serialized formula's node count.
	NodeCount int

	// QuantifierCount is the number of native quantifiers in the query.
	QuantifierCount int

	// ExitStatus is the solver process exit code; -1 when it was killed or
	// never ran.
	ExitStatus int

	// TimedOut is set when the watchdog killed the process.
	TimedOut bool

	// MemoryExceeded is set when the post-hoc resource check found the
	// process over its memory cap.
	MemoryExceeded bool

	// PeakRSSMB is the process's peak resident set size, when measurable.
	PeakRSSMB int64
}

// ProcessError is a fatal configuration failure: the solver binary could not
// be found or spawned. It aborts the whole verification run, since no goal
// can be solved without a solver.
type ProcessError struct {
	Binary string
	Err    error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("solver process %q: %v", e.Binary, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }
