package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/specverify/config"
	"github.com/c360studio/specverify/contract"
	"github.com/c360studio/specverify/diagnose"
	"github.com/c360studio/specverify/logic"
	"github.com/c360studio/specverify/solver"
	"github.com/c360studio/specverify/verifier"
)

type runOptions struct {
	goalsPath    string
	configPath   string
	logLevel     string
	solverBinary string
	preset       string
	concurrency  int
	strict       bool
	unsatCores   bool
	outputPath   string
	metricsAddr  string
}

// goalsInput is the verification request: the goals plus the entity universes
// the encoder may expand bounded quantifiers over.
type goalsInput struct {
	Universes []verifier.Universe `json:"universes,omitempty"`
	Goals     []*contract.Goal    `json:"goals"`
}

func run(ctx context.Context, opts *runOptions) error {
	logger := newLogger(opts.logLevel)
	slog.SetDefault(logger)

	cfg, err := config.NewLoader(logger).Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	limits, err := cfg.ResolveLimits()
	if err != nil {
		return err
	}

	input, err := readGoals(opts.goalsPath)
	if err != nil {
		return err
	}
	if len(input.Goals) == 0 {
		return fmt.Errorf("no goals in %s", opts.goalsPath)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := solver.NewRunner(cfg.Solver.Binary, cfg.Solver.Args, logger).
		WithMemoryArg(cfg.Solver.MemoryArg)

	numeric := logic.DecimalAsReal
	if cfg.Verify.DecimalAsScaledInt {
		numeric = logic.DecimalAsScaledInt
	}
	v := verifier.New(verifier.Options{
		Limits:      limits,
		Concurrency: cfg.Verify.Concurrency,
		Strict:      cfg.Verify.Strict,
		Numeric:     numeric,
		Universes:   input.Universes,
	}, runner, logger)

	if cfg.Verify.UnsatCores {
		engine := diagnose.NewEngine(logger).WithCoreExtraction(
			func(ctx context.Context, q *solver.Query) (solver.Outcome, error) {
				out, _, err := runner.Solve(ctx, q, limits)
				return out, err
			})
		v.WithDiagnostics(engine)
	}

	registry := prometheus.NewRegistry()
	v.WithMetrics(verifier.NewMetrics(registry))
	if opts.metricsAddr != "" {
		serveMetrics(opts.metricsAddr, registry, logger)
	}

	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.Name(appName),
			nats.Timeout(5*time.Second))
		if err != nil {
			logger.Warn("NATS connect failed, reports will not be published",
				slog.String("url", cfg.NATS.URL), slog.Any("error", err))
		} else {
			defer nc.Close()
			v.WithPublisher(verifier.NewPublisher(nc, cfg.NATS.Subject, logger))
		}
	}

	report, err := v.Run(ctx, input.Goals)
	if err != nil {
		return err
	}

	if err := writeReport(report, opts.outputPath); err != nil {
		return err
	}
	if !report.Passed() {
		return fmt.Errorf("verification failed: %d refuted, %d errored, %d unknown, %d skipped",
			report.Summary.Refuted,
			report.Summary.Errored+report.Summary.EncodingFailed,
			report.Summary.Unknown,
			report.Summary.Skipped)
	}
	return nil
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func applyFlagOverrides(cfg *config.Config, opts *runOptions) {
	if opts.solverBinary != "" {
		cfg.Solver.Binary = opts.solverBinary
	}
	if opts.preset != "" {
		cfg.Limits.Preset = opts.preset
	}
	if opts.concurrency > 0 {
		cfg.Verify.Concurrency = opts.concurrency
	}
	if opts.strict {
		cfg.Verify.Strict = true
	}
	if opts.unsatCores {
		cfg.Verify.UnsatCores = true
	}
}

func readGoals(path string) (*goalsInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read goals file: %w", err)
	}
	var input goalsInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("parse goals file %s: %w", path, err)
	}
	return &input, nil
}

func writeReport(report *diagnose.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// serveMetrics exposes the run's metrics for scraping. The listener dies with
// the process; one-shot runs that want metrics persisted should push through
// NATS instead.
func serveMetrics(addr string, registry *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Warn("metrics listener failed", slog.String("addr", addr), slog.Any("error", err))
		}
	}()
}
