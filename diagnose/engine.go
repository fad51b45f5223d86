package diagnose

import (
	"context"
	"log/slog"

	"github.com/c360studio/specverify/contract"
	"github.com/c360studio/specverify/encoder"
	"github.com/c360studio/specverify/solver"
)

// Engine diagnoses solver outcomes. All of its work except unsat core
// extraction is offline: it re-evaluates formulas under the model the solver
// already produced and never spawns a process of its own.
type Engine struct {
	logger *slog.Logger

	// minimizeBudget caps counterexample reduction attempts per goal.
	minimizeBudget int

	// coreSolve, when set together with computeCores, enables unsat core
	// extraction by re-solving assumption subsets.
	coreSolve    SolveFunc
	computeCores bool
}

// NewEngine creates a diagnostics engine. A nil logger falls back to
// slog.Default().
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger, minimizeBudget: defaultMinimizeBudget}
}

// WithMinimizeBudget overrides the counterexample minimization budget.
func (e *Engine) WithMinimizeBudget(n int) *Engine {
	if n > 0 {
		e.minimizeBudget = n
	}
	return e
}

// WithCoreExtraction enables unsat core extraction using the given re-solve
// function.
func (e *Engine) WithCoreExtraction(solve SolveFunc) *Engine {
	e.coreSolve = solve
	e.computeCores = solve != nil
	return e
}

// Diagnose turns a solver outcome into a report entry. The encoded goal must
// be the one the outcome was produced from.
func (e *Engine) Diagnose(ctx context.Context, enc *encoder.EncodedGoal, out solver.Outcome, m solver.Metrics) Entry {
	goal := enc.Goal
	entry := Entry{
		GoalID:   goal.ID,
		Category: goal.Category,
		Source:   goal.Source,
		Metrics:  m,
	}

	switch out.Status {
	case solver.StatusProved:
		entry.Verdict = VerdictProved
		entry.Unsat = analyzeUnsat(enc)
		if e.computeCores {
			if core := extractCore(ctx, enc, e.coreSolve); core != nil {
				entry.Unsat.CoreAssumptions = core
			}
		}

	case solver.StatusRefuted:
		entry.Verdict = VerdictRefuted
		entry.Counterexample = extractCounterexample(enc, out.Model)
		entry.Minimal = minimizeCounterexample(enc, entry.Counterexample, e.minimizeBudget, e.logger)
		e.logger.Debug("counterexample minimized",
			slog.String("goal_id", goal.ID),
			slog.Int("original_bindings", len(entry.Counterexample.Bindings)),
			slog.Int("minimal_bindings", len(entry.Minimal.Bindings)))

	case solver.StatusUnknown:
		entry.Verdict = VerdictUnknown
		entry.Cause = classifyUnknown(out, m)
		entry.Reason = out.Reason

	case solver.StatusErrored:
		entry.Verdict = VerdictErrored
		entry.Reason = out.Detail

	case solver.StatusSkipped:
		entry.Verdict = VerdictSkipped
		entry.Reason = out.Reason
	}

	entry.Explanation = explain(goal, &entry)
	return entry
}

// SkippedEntry builds the entry for a goal the complexity gate rejected.
// The solver never ran, so metrics carry only the static counts.
func SkippedEntry(goal *contract.Goal, reason string, m solver.Metrics) Entry {
	entry := Entry{
		GoalID:   goal.ID,
		Category: goal.Category,
		Source:   goal.Source,
		Verdict:  VerdictSkipped,
		Reason:   reason,
		Metrics:  m,
	}
	entry.Explanation = explain(goal, &entry)
	return entry
}

// EncodingFailedEntry builds the entry for a goal whose encoding failed.
func EncodingFailedEntry(goal *contract.Goal, err error) Entry {
	entry := Entry{
		GoalID:   goal.ID,
		Category: goal.Category,
		Source:   goal.Source,
		Verdict:  VerdictEncodingFailed,
	}
	if err != nil {
		entry.Reason = err.Error()
	}
	entry.Explanation = explain(goal, &entry)
	return entry
}

// UnknownEntry builds the entry for a goal that became Unknown without a
// solver outcome, e.g. an indeterminate value surviving encoding.
func UnknownEntry(goal *contract.Goal, cause UnknownCause, reason string) Entry {
	entry := Entry{
		GoalID:   goal.ID,
		Category: goal.Category,
		Source:   goal.Source,
		Verdict:  VerdictUnknown,
		Cause:    cause,
		Reason:   reason,
	}
	entry.Explanation = explain(goal, &entry)
	return entry
}
