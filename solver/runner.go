package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/c360studio/specverify/complexity"
)

// Runner spawns one external solver process per query. There is no process
// reuse across goals: each query gets a fresh process so a pathological goal
// cannot leak memory or state into its siblings.
type Runner struct {
	binary string
	args   []string

	// memoryArg, when non-empty, is a format template (e.g. "-memory:%d")
	// expanded with the memory cap in MB and appended to the argv. Memory is
	// additionally checked post-hoc against the child's peak RSS.
	memoryArg string

	logger *slog.Logger

	// invocations counts actual process spawns; tests assert a skipped goal
	// never reaches the solver. Atomic because workers share one runner.
	invocations atomic.Int64
}

// NewRunner creates a runner for the given solver binary and base arguments.
func NewRunner(binary string, args []string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{binary: binary, args: args, logger: logger}
}

// WithMemoryArg sets the argv template used to pass the memory cap to the
// solver (e.g. "-memory:%d" for Z3).
func (r *Runner) WithMemoryArg(template string) *Runner {
	r.memoryArg = template
	return r
}

// Resolve verifies the solver binary exists and is executable. Called once
// at orchestrator startup; failure is fatal to the whole run.
func (r *Runner) Resolve() error {
	if r.binary == "" {
		return &ProcessError{Binary: r.binary, Err: errors.New("no solver binary configured")}
	}
	if _, err := exec.LookPath(r.binary); err != nil {
		return &ProcessError{Binary: r.binary, Err: err}
	}
	return nil
}

// Invocations returns how many solver processes this runner has spawned.
func (r *Runner) Invocations() int { return int(r.invocations.Load()) }

// Solve executes one query under the given limits and returns its outcome
// with metrics. Metrics are populated on every path, including failures.
//
// Timeouts and parse failures are goal-local and come back inside the
// Outcome. The only error return is a *ProcessError (spawn failure), which
// callers must treat as fatal to the run.
func (r *Runner) Solve(ctx context.Context, query *Query, limits complexity.Limits) (Outcome, Metrics, error) {
	metrics := Metrics{
		NodeCount:       query.NodeCount(),
		QuantifierCount: query.QuantifierCount(),
		ExitStatus:      -1,
	}

	text := query.Serialize()

	timeout := limits.Timeout
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append([]string(nil), r.args...)
	if r.memoryArg != "" && limits.MemoryCapMB > 0 {
		args = append(args, fmt.Sprintf(r.memoryArg, limits.MemoryCapMB))
	}

	cmd := exec.CommandContext(cmdCtx, r.binary, args...)
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		metrics.Elapsed = time.Since(start)
		switch {
		case cmdCtx.Err() == context.DeadlineExceeded:
			metrics.TimedOut = true
			return Outcome{Status: StatusUnknown, Reason: "timeout"}, metrics, nil
		case cmdCtx.Err() != nil:
			// Cancellation racing the spawn is goal-local, not a spawn
			// failure; only a missing or broken binary is fatal.
			return Outcome{Status: StatusUnknown, Reason: "cancelled"}, metrics, nil
		}
		return Outcome{}, metrics, &ProcessError{Binary: r.binary, Err: err}
	}
	r.invocations.Add(1)

	waitErr := cmd.Wait()
	metrics.Elapsed = time.Since(start)
	metrics.TimedOut = cmdCtx.Err() == context.DeadlineExceeded
	if state := cmd.ProcessState; state != nil {
		metrics.ExitStatus = state.ExitCode()
		metrics.PeakRSSMB = peakRSSMB(state)
	}
	if limits.MemoryCapMB > 0 && metrics.PeakRSSMB > int64(limits.MemoryCapMB) {
		metrics.MemoryExceeded = true
	}

	r.logger.Debug("solver process finished",
		slog.Duration("elapsed", metrics.Elapsed),
		slog.Int("exit_status", metrics.ExitStatus),
		slog.Bool("timed_out", metrics.TimedOut))

	if metrics.TimedOut {
		return Outcome{Status: StatusUnknown, Reason: "timeout"}, metrics, nil
	}
	if metrics.MemoryExceeded {
		return Outcome{Status: StatusUnknown, Reason: "resource exhausted"}, metrics, nil
	}
	if ctx.Err() != nil {
		// The run was cancelled externally while this query was in flight.
		return Outcome{Status: StatusUnknown, Reason: "cancelled"}, metrics, nil
	}

	outcome := parseOutput(stdout.String())
	if waitErr != nil {
		// An answer from a process that died is not a verdict. A proof or
		// refutation requires a clean exit; inconclusive answers stay
		// inconclusive.
		switch outcome.Status {
		case StatusProved, StatusRefuted:
			outcome = Outcome{
				Status: StatusErrored,
				Detail: fmt.Sprintf("solver exited with status %d", metrics.ExitStatus),
			}
		}
		if outcome.Status == StatusErrored {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				outcome.Detail = fmt.Sprintf("%s: %s", outcome.Detail, firstLine(msg))
			}
		}
	}
	return outcome, metrics, nil
}

// parseOutput interprets the solver's stdout. Anything that does not start
// with a recognized check-sat answer is malformed output, reported as an
// Errored outcome and never coerced into Unknown.
func parseOutput(out string) Outcome {
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return Outcome{Status: StatusErrored, Detail: "malformed solver output"}
	}
	head := firstLine(trimmed)
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, head))

	switch head {
	case "unsat":
		return Outcome{Status: StatusProved}
	case "unknown":
		return Outcome{Status: StatusUnknown, Reason: "incomplete"}
	case "sat":
		model, err := parseModel(rest)
		if err != nil {
			return Outcome{Status: StatusErrored, Detail: "malformed solver output"}
		}
		return Outcome{Status: StatusRefuted, Model: model}
	default:
		return Outcome{Status: StatusErrored, Detail: "malformed solver output"}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
