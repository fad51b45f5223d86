package diagnose

import "github.com/c360studio/specverify/solver"

// UnknownCause breaks an Unknown verdict down by what stopped the solver.
type UnknownCause string

const (
	// CauseTimeout: the watchdog killed the process at the deadline.
	CauseTimeout UnknownCause = "timeout"
	// CauseResourceExhausted: the process exceeded its memory cap.
	CauseResourceExhausted UnknownCause = "resource_exhausted"
	// CauseIncompleteTheory: the solver answered "unknown" on its own.
	CauseIncompleteTheory UnknownCause = "incomplete_theory"
	// CauseCancelled: the run was cancelled while the query was in flight.
	CauseCancelled UnknownCause = "cancelled"
	// CauseIndeterminate: an unknown specification value survived encoding.
	CauseIndeterminate UnknownCause = "indeterminate_value"
)

// classifyUnknown maps an Unknown outcome to its cause. Metrics flags take
// precedence over the outcome's reason text: a process that both timed out
// and printed "unknown" was stopped by the watchdog.
func classifyUnknown(out solver.Outcome, m solver.Metrics) UnknownCause {
	switch {
	case m.TimedOut:
		return CauseTimeout
	case m.MemoryExceeded:
		return CauseResourceExhausted
	case out.Reason == "cancelled":
		return CauseCancelled
	default:
		return CauseIncompleteTheory
	}
}
