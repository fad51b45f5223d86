// Package main provides the specverify binary entry point.
// Specverify turns behavioral contract goals into SMT queries, runs them
// through an external solver under strict resource bounds, and reports a
// verdict with evidence for every goal.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "specverify"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "specverify <goals.json>",
		Short: "SMT-backed contract verification",
		Long: `Specverify verifies behavioral contract goals against an external
SMT solver.

Each goal (assumptions plus a claim) is statically cost-checked, encoded
into an SMT-LIB query, solved in an isolated solver process under timeout
and memory bounds, and diagnosed: proved goals carry bounded-universe
caveats, refuted goals carry a minimized counterexample, and inconclusive
goals say why.

Exit code 0 means no violations were found; 1 means at least one goal was
refuted, errored, or (in strict mode) left undecided.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.goalsPath = args[0]
			return run(cmd.Context(), opts)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.solverBinary, "solver", "", "Solver binary (overrides config)")
	cmd.Flags().StringVar(&opts.preset, "preset", "", "Complexity preset: strict, default, permissive")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "Worker pool size (overrides config)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail closed on unsupported constructs and undecided goals")
	cmd.Flags().BoolVar(&opts.unsatCores, "unsat-cores", false, "Extract unsat cores for proved goals (slower)")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Write the JSON report to a file instead of stdout")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address during the run")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}
