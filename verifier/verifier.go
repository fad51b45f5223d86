// Package verifier orchestrates verification runs: a bounded worker pool
// drives each goal through analyze, encode, solve, and diagnose, collecting
// one terminal verdict per goal into a deterministic report.
package verifier

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/specverify/complexity"
	"github.com/c360studio/specverify/contract"
	"github.com/c360studio/specverify/diagnose"
	"github.com/c360studio/specverify/encoder"
	"github.com/c360studio/specverify/logic"
	"github.com/c360studio/specverify/solver"
)

// Universe declares the known instances of one entity collection.
type Universe struct {
	Collection  string   `json:"collection" yaml:"collection"`
	InstanceIDs []string `json:"instance_ids" yaml:"instance_ids"`
}

// Options configures one verifier instance.
type Options struct {
	// Limits is the complexity budget applied to every goal.
	Limits complexity.Limits

	// Concurrency caps the worker pool; values below 1 mean serial.
	Concurrency int

	// Strict makes unsupported constructs fail the goal instead of
	// degrading to Unknown.
	Strict bool

	// Numeric selects the decimal encoding mode.
	Numeric logic.NumericMode

	// Universes lists the entity collections with known finite instances.
	Universes []Universe
}

// Verifier runs verification goals against an external solver. It is safe
// for a single Run at a time; the per-goal encoding contexts are cloned from
// an immutable base, so workers never share mutable state.
type Verifier struct {
	opts      Options
	enc       *encoder.Encoder
	runner    *solver.Runner
	engine    *diagnose.Engine
	metrics   *Metrics
	publisher *Publisher
	logger    *slog.Logger
}

// New creates a verifier. Runner is required; metrics and publisher may be
// nil, and a nil logger falls back to slog.Default().
func New(opts Options, runner *solver.Runner, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		opts:   opts,
		enc:    encoder.New(logger),
		runner: runner,
		engine: diagnose.NewEngine(logger),
		logger: logger,
	}
}

// WithMetrics attaches prometheus instrumentation.
func (v *Verifier) WithMetrics(m *Metrics) *Verifier {
	v.metrics = m
	return v
}

// WithPublisher attaches a report publisher.
func (v *Verifier) WithPublisher(p *Publisher) *Verifier {
	v.publisher = p
	return v
}

// WithDiagnostics replaces the diagnostics engine, e.g. to enable unsat core
// extraction.
func (v *Verifier) WithDiagnostics(e *diagnose.Engine) *Verifier {
	v.engine = e
	return v
}

// Run verifies all goals and returns the finished report. Every goal yields
// exactly one entry regardless of outcome.
//
// The only error returns are fatal run-level failures: invalid limits, an
// unresolvable solver binary, or a process spawn failure mid-run. On a fatal
// error no report is returned; partial results would read as a verdict on
// goals that never ran.
func (v *Verifier) Run(ctx context.Context, goals []*contract.Goal) (*diagnose.Report, error) {
	if err := v.opts.Limits.Validate(); err != nil {
		return nil, err
	}
	if err := v.runner.Resolve(); err != nil {
		return nil, err
	}

	base := logic.NewContext(logic.Options{Strict: v.opts.Strict, Numeric: v.opts.Numeric})
	for _, u := range v.opts.Universes {
		base.SetUniverse(u.Collection, u.InstanceIDs)
	}
	universeSizes := base.UniverseSizes()

	report := &diagnose.Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Strict:  v.opts.Strict,
		Entries: make([]diagnose.Entry, len(goals)),
	}

	v.logger.Info("verification run started",
		slog.String("run_id", report.RunID),
		slog.Int("goals", len(goals)),
		slog.Int("concurrency", v.concurrency()))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		sem      = make(chan struct{}, v.concurrency())
		fatalMu  sync.Mutex
		fatalErr error
	)

	setFatal := func(err error) {
		fatalMu.Lock()
		if fatalErr == nil {
			fatalErr = err
		}
		fatalMu.Unlock()
		cancel()
	}

	for i, goal := range goals {
		wg.Add(1)
		go func(i int, goal *contract.Goal) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-runCtx.Done():
				report.Entries[i] = diagnose.SkippedEntry(goal, "cancelled", solver.Metrics{ExitStatus: -1})
				return
			}
			if runCtx.Err() != nil {
				report.Entries[i] = diagnose.SkippedEntry(goal, "cancelled", solver.Metrics{ExitStatus: -1})
				return
			}

			entry, err := v.verifyGoal(runCtx, base, universeSizes, goal)
			if err != nil {
				setFatal(err)
				entry = diagnose.Entry{
					GoalID:   goal.ID,
					Category: goal.Category,
					Source:   goal.Source,
					Verdict:  diagnose.VerdictErrored,
					Reason:   err.Error(),
				}
			}
			report.Entries[i] = entry
			v.metrics.observeVerdict(string(entry.Verdict))
		}(i, goal)
	}
	wg.Wait()

	fatalMu.Lock()
	err := fatalErr
	fatalMu.Unlock()
	if err != nil {
		v.logger.Error("verification run aborted", slog.String("run_id", report.RunID), slog.Any("error", err))
		return nil, err
	}

	report.Elapsed = time.Since(report.Started)
	report.Finalize()

	v.logger.Info("verification run finished",
		slog.String("run_id", report.RunID),
		slog.Duration("elapsed", report.Elapsed),
		slog.Int("proved", report.Summary.Proved),
		slog.Int("refuted", report.Summary.Refuted),
		slog.Int("unknown", report.Summary.Unknown),
		slog.Int("skipped", report.Summary.Skipped))

	if pubErr := v.publisher.Publish(report); pubErr != nil {
		v.logger.Warn("report publish failed", slog.Any("error", pubErr))
	}
	return report, nil
}

func (v *Verifier) concurrency() int {
	if v.opts.Concurrency < 1 {
		return 1
	}
	return v.opts.Concurrency
}

// verifyGoal drives one goal through its lifecycle. The returned error is
// non-nil only for a *solver.ProcessError, which is fatal to the whole run;
// every other failure lands inside the entry.
func (v *Verifier) verifyGoal(ctx context.Context, base *logic.Context, universeSizes map[string]int, goal *contract.Goal) (diagnose.Entry, error) {
	st := &goalState{}
	step := func(to State) {
		if err := st.advance(to); err != nil {
			// Transitions are hardcoded below; a violation is a programming
			// error worth failing loudly in development.
			panic(err)
		}
		v.logger.Debug("goal state", slog.String("goal_id", goal.ID), slog.String("state", to.String()))
	}

	step(StateAnalyzing)
	analysis := complexity.Analyze(goal, universeSizes, v.opts.Limits)
	staticMetrics := solver.Metrics{
		NodeCount:       analysis.EstimatedNodes,
		QuantifierCount: analysis.Quantifiers,
		ExitStatus:      -1,
	}
	if analysis.Verdict == complexity.Skip {
		step(StateSkipped)
		v.metrics.observeSkip(analysis.SkipReason)
		return diagnose.SkippedEntry(goal, analysis.SkipReason, staticMetrics), nil
	}

	step(StateEncoding)
	goalCtx := base.Clone()
	enc, err := v.enc.EncodeGoal(goalCtx, goal)
	if err != nil {
		return v.encodingFailure(goal, err, step)
	}

	step(StateSolving)
	limits := v.opts.Limits
	limits.Timeout = analysis.RecommendedTimeout
	query := &solver.Query{Ctx: enc.Ctx, Assertions: enc.Assertions, ProduceModel: true}
	outcome, qm, err := v.runner.Solve(ctx, query, limits)
	if err != nil {
		var procErr *solver.ProcessError
		if errors.As(err, &procErr) {
			return diagnose.Entry{}, procErr
		}
		return diagnose.Entry{}, err
	}
	step(StateSolved)
	v.metrics.observeSolve(qm)

	step(StateDiagnosed)
	return v.engine.Diagnose(ctx, enc, outcome, qm), nil
}

// encodingFailure maps encoder errors to their terminal entries. An
// indeterminate clause is Unknown. An unsupported type is Unknown in
// best-effort mode and EncodingFailed under strict; absence of a proof is
// never reported as a pass either way.
func (v *Verifier) encodingFailure(goal *contract.Goal, err error, step func(State)) (diagnose.Entry, error) {
	var indet *encoder.IndeterminateError
	if errors.As(err, &indet) {
		step(StateEncodingFailed)
		return diagnose.UnknownEntry(goal, diagnose.CauseIndeterminate, indet.Error()), nil
	}

	var unsupported *encoder.UnsupportedTypeError
	if errors.As(err, &unsupported) && !v.opts.Strict {
		step(StateEncodingFailed)
		return diagnose.UnknownEntry(goal, diagnose.CauseIncompleteTheory, unsupported.Error()), nil
	}

	step(StateEncodingFailed)
	v.logger.Warn("goal encoding failed", slog.String("goal_id", goal.ID), slog.Any("error", err))
	return diagnose.EncodingFailedEntry(goal, err), nil
}
